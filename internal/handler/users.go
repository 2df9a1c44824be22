package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler is the master's account administration surface.
type UserHandler struct {
	Repo *repository.UserRepository
}

func (h UserHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/users", h.list)
	r.Post("/admin/users", h.create)
	r.Put("/admin/users/{id}", h.update)
	r.Delete("/admin/users/{id}", h.delete)
}

type userRequest struct {
	Username         string       `json:"username"`
	Name             string       `json:"name"`
	Role             string       `json:"role"`
	Currency         string       `json:"currency"`
	Country          string       `json:"country"`
	Language         string       `json:"language"`
	HourlyRate       int64        `json:"hourlyRate"`
	NIF              string       `json:"nif"`
	Email            string       `json:"email"`
	Phone            string       `json:"phone"`
	IsActive         *bool        `json:"isActive"`
	SubscriptionDate string       `json:"subscriptionDate"`
	Password         string       `json:"password"`
	Provisional      bool         `json:"isProvisionalPassword"`
	SocialSecurity   *ruleRequest `json:"socialSecurity"`
	IRS              *ruleRequest `json:"irs"`
	ProfilePicture   string       `json:"profilePicture"`
}

type ruleRequest struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

func (rr *ruleRequest) toDomain() (*domain.DeductionRule, bool) {
	if rr == nil {
		return nil, true
	}
	rule := domain.DeductionRule{Type: domain.DeductionType(rr.Type), Value: rr.Value}
	if !rule.Valid() {
		return nil, false
	}
	return &rule, true
}

func (h UserHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, u := range items {
		resp = append(resp, userPayload(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h UserHandler) create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	role := domain.UserRole(req.Role)
	if req.Role == "" {
		role = domain.RoleEmployee
	}
	params, ok := h.buildParams(w, req, role)
	if !ok {
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	params.PasswordHash = ptr(string(hash))
	params.ProvisionalPassword = req.Provisional

	saved, err := h.Repo.Create(r.Context(), params)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeError(w, http.StatusConflict, "username already used")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, userPayload(*saved))
}

func (h UserHandler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	current, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	role := domain.UserRole(req.Role)
	if req.Role == "" {
		role = current.Role
	}
	params, ok := h.buildParams(w, req, role)
	if !ok {
		return
	}

	next := *current
	next.Username = params.Username
	next.Name = params.Name
	next.Role = role
	next.Currency = params.Currency
	next.Country = params.Country
	next.Language = params.Language
	next.HourlyRate = params.HourlyRate
	next.NIF = params.NIF
	next.Email = params.Email
	next.Phone = params.Phone
	next.SubscriptionDate = params.SubscriptionDate
	next.SocialSecurity = params.SocialSecurity
	next.IncomeTax = params.IncomeTax
	next.ProfilePicture = req.ProfilePicture
	if req.IsActive != nil {
		next.IsActive = *req.IsActive
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
		next.PasswordHash = ptr(string(hash))
		next.ProvisionalPassword = req.Provisional
	}

	saved, err := h.Repo.Update(r.Context(), next)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, repository.ErrDuplicate):
			writeError(w, http.StatusConflict, "username already used")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, userPayload(*saved))
}

// delete removes the account only. Time records are kept on purpose.
func (h UserHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h UserHandler) buildParams(w http.ResponseWriter, req userRequest, role domain.UserRole) (repository.CreateUserParams, bool) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "username and name are required")
		return repository.CreateUserParams{}, false
	}
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "role must be master or employee")
		return repository.CreateUserParams{}, false
	}
	if req.HourlyRate < 0 {
		writeError(w, http.StatusBadRequest, "hourlyRate must not be negative")
		return repository.CreateUserParams{}, false
	}
	ss, ok := req.SocialSecurity.toDomain()
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid socialSecurity rule")
		return repository.CreateUserParams{}, false
	}
	irs, ok := req.IRS.toDomain()
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid irs rule")
		return repository.CreateUserParams{}, false
	}
	params := repository.CreateUserParams{
		Username:       username,
		Name:           req.Name,
		Role:           role,
		Currency:       req.Currency,
		Country:        req.Country,
		Language:       req.Language,
		HourlyRate:     req.HourlyRate,
		NIF:            req.NIF,
		Email:          req.Email,
		Phone:          req.Phone,
		SocialSecurity: ss,
		IncomeTax:      irs,
	}
	if req.SubscriptionDate != "" {
		t, err := time.Parse(dateLayout, req.SubscriptionDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid subscriptionDate")
			return repository.CreateUserParams{}, false
		}
		params.SubscriptionDate = &t
	}
	return params, true
}

func userPayload(u domain.User) map[string]any {
	p := map[string]any{
		"id":                    u.ID,
		"username":              u.Username,
		"name":                  u.Name,
		"role":                  string(u.Role),
		"currency":              u.Currency,
		"country":               u.Country,
		"language":              u.Language,
		"hourlyRate":            u.HourlyRate,
		"nif":                   u.NIF,
		"email":                 u.Email,
		"phone":                 u.Phone,
		"isActive":              u.IsActive,
		"isProvisionalPassword": u.ProvisionalPassword,
		"profilePicture":        u.ProfilePicture,
	}
	if u.SubscriptionDate != nil {
		p["subscriptionDate"] = u.SubscriptionDate.Format(dateLayout)
	}
	if u.SocialSecurity != nil {
		p["socialSecurity"] = map[string]any{"type": string(u.SocialSecurity.Type), "value": u.SocialSecurity.Value}
	}
	if u.IncomeTax != nil {
		p["irs"] = map[string]any{"type": string(u.IncomeTax.Type), "value": u.IncomeTax.Value}
	}
	if u.AvatarConfig != nil {
		p["avatarConfig"] = map[string]any{
			"skinTone":   u.AvatarConfig.SkinTone,
			"profession": u.AvatarConfig.Profession,
			"hairColor":  u.AvatarConfig.HairColor,
			"accessory":  u.AvatarConfig.Accessory,
			"mouth":      u.AvatarConfig.Mouth,
			"gender":     u.AvatarConfig.Gender,
		}
	}
	return p
}
