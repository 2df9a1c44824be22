package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/repository"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/server/authctx"
)

// ProfileHandler is the self-service side of account management.
type ProfileHandler struct {
	Repo *repository.UserRepository
}

func (h ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/profile", h.get)
	r.Put("/profile", h.update)
}

func (h ProfileHandler) get(w http.ResponseWriter, r *http.Request) {
	actor := authctx.FromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.Repo.GetByID(r.Context(), actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, userPayload(*user))
}

// update edits the actor's own profile. Role, active flag and username
// stay under the master's control; everything else is self-service.
func (h ProfileHandler) update(w http.ResponseWriter, r *http.Request) {
	actor := authctx.FromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	current, err := h.Repo.GetByID(r.Context(), actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req struct {
		Name           string       `json:"name"`
		Currency       string       `json:"currency"`
		Country        string       `json:"country"`
		Language       string       `json:"language"`
		HourlyRate     *int64       `json:"hourlyRate"`
		NIF            string       `json:"nif"`
		Email          string       `json:"email"`
		Phone          string       `json:"phone"`
		SocialSecurity *ruleRequest `json:"socialSecurity"`
		IRS            *ruleRequest `json:"irs"`
		ProfilePicture string       `json:"profilePicture"`
		AvatarConfig   *struct {
			SkinTone   string `json:"skinTone"`
			Profession string `json:"profession"`
			HairColor  string `json:"hairColor"`
			Accessory  string `json:"accessory"`
			Mouth      string `json:"mouth"`
			Gender     string `json:"gender"`
		} `json:"avatarConfig"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.HourlyRate != nil && *req.HourlyRate < 0 {
		writeError(w, http.StatusBadRequest, "hourlyRate must not be negative")
		return
	}
	ss, ok := req.SocialSecurity.toDomain()
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid socialSecurity rule")
		return
	}
	irs, ok := req.IRS.toDomain()
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid irs rule")
		return
	}

	next := *current
	next.Name = req.Name
	next.Currency = req.Currency
	next.Country = req.Country
	next.Language = req.Language
	next.NIF = req.NIF
	next.Email = req.Email
	next.Phone = req.Phone
	next.SocialSecurity = ss
	next.IncomeTax = irs
	next.ProfilePicture = req.ProfilePicture
	if req.HourlyRate != nil {
		next.HourlyRate = *req.HourlyRate
	}
	if req.AvatarConfig != nil {
		next.AvatarConfig = &domain.AvatarConfig{
			SkinTone:   req.AvatarConfig.SkinTone,
			Profession: req.AvatarConfig.Profession,
			HairColor:  req.AvatarConfig.HairColor,
			Accessory:  req.AvatarConfig.Accessory,
			Mouth:      req.AvatarConfig.Mouth,
			Gender:     req.AvatarConfig.Gender,
		}
	} else {
		next.AvatarConfig = nil
	}

	saved, err := h.Repo.Update(r.Context(), next)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, userPayload(*saved))
}
