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

// RecordHandler covers the daily time-entry operations. An upsert for an
// already-filled date replaces that day's record entirely.
type RecordHandler struct {
	Repo *repository.RecordRepository
}

func (h RecordHandler) RegisterRoutes(r chi.Router) {
	r.Get("/records", h.list)
	r.Post("/records", h.upsert)
	r.Delete("/records/{date}", h.delete)
}

func (h RecordHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/records", h.adminList)
}

type recordRequest struct {
	Date                 string `json:"date"`
	StartTime            string `json:"startTime"`
	EndTime              string `json:"endTime"`
	LunchDuration        int    `json:"lunchDuration"`
	IsAbsent             bool   `json:"isAbsent"`
	Notes                string `json:"notes"`
	WorkSite             string `json:"workSite"`
	Advance              int64  `json:"advance"`
	ManualSocialSecurity *int64 `json:"manualSocialSecurity"`
}

func (h RecordHandler) upsert(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if !isValidDate(req.Date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if !req.IsAbsent {
		if !isValidClock(req.StartTime) || !isValidClock(req.EndTime) {
			writeError(w, http.StatusBadRequest, "startTime and endTime must be HH:mm")
			return
		}
	}
	if req.LunchDuration < 0 {
		writeError(w, http.StatusBadRequest, "lunchDuration must not be negative")
		return
	}
	if req.Advance < 0 {
		writeError(w, http.StatusBadRequest, "advance must not be negative")
		return
	}
	if req.ManualSocialSecurity != nil && *req.ManualSocialSecurity < 0 {
		writeError(w, http.StatusBadRequest, "manualSocialSecurity must not be negative")
		return
	}

	saved, err := h.Repo.Upsert(r.Context(), domain.TimeRecord{
		OwnerID:              user.ID,
		Date:                 req.Date,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		LunchDuration:        req.LunchDuration,
		IsAbsent:             req.IsAbsent,
		Notes:                req.Notes,
		WorkSite:             req.WorkSite,
		Advance:              req.Advance,
		ManualSocialSecurity: req.ManualSocialSecurity,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recordPayload(*saved))
}

func (h RecordHandler) list(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	from, err := parseDateQuery(r, "startDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startDate")
		return
	}
	to, err := parseDateQuery(r, "endDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endDate")
		return
	}
	items, err := h.Repo.ListByOwner(r.Context(), user.ID, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recordPayloads(items))
}

func (h RecordHandler) delete(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	date := chi.URLParam(r, "date")
	if !isValidDate(date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if err := h.Repo.Delete(r.Context(), user.ID, date); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// adminList shows records across employees, optionally one employee's.
func (h RecordHandler) adminList(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateQuery(r, "startDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startDate")
		return
	}
	to, err := parseDateQuery(r, "endDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endDate")
		return
	}

	var items []domain.TimeRecord
	if ownerID := r.URL.Query().Get("userId"); ownerID != "" {
		items, err = h.Repo.ListByOwner(r.Context(), ownerID, from, to)
	} else {
		items, err = h.Repo.SnapshotRange(r.Context(), from, to)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recordPayloads(items))
}

func recordPayloads(items []domain.TimeRecord) []map[string]any {
	resp := make([]map[string]any, 0, len(items))
	for _, rec := range items {
		resp = append(resp, recordPayload(rec))
	}
	return resp
}

func recordPayload(rec domain.TimeRecord) map[string]any {
	p := map[string]any{
		"id":            rec.ID,
		"ownerId":       rec.OwnerID,
		"date":          rec.Date,
		"startTime":     rec.StartTime,
		"endTime":       rec.EndTime,
		"lunchDuration": rec.LunchDuration,
		"isAbsent":      rec.IsAbsent,
		"notes":         rec.Notes,
		"workSite":      rec.WorkSite,
		"advance":       rec.Advance,
	}
	if rec.ManualSocialSecurity != nil {
		p["manualSocialSecurity"] = *rec.ManualSocialSecurity
	}
	return p
}
