package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/repository"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/server/authctx"
)

// ChatHandler serves the internal chat. Messages are append-only; the
// sender's language is captured at send time.
type ChatHandler struct {
	Repo  *repository.ChatRepository
	Users *repository.UserRepository
}

func (h ChatHandler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/messages", h.list)
	r.Post("/chat/messages", h.send)
}

func (h ChatHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	items, err := h.Repo.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, m := range items {
		resp = append(resp, map[string]any{
			"id":               m.ID,
			"userId":           m.UserID,
			"text":             m.Text,
			"timestamp":        m.Timestamp.UTC().Format(time.RFC3339),
			"originalLanguage": m.OriginalLanguage,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h ChatHandler) send(w http.ResponseWriter, r *http.Request) {
	actor := authctx.FromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	lang := ""
	if user, err := h.Users.GetByID(r.Context(), actor.ID); err == nil {
		lang = user.Language
	}
	msg, err := h.Repo.Append(r.Context(), domain.ChatMessage{
		UserID:           actor.ID,
		Text:             req.Text,
		OriginalLanguage: lang,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":               msg.ID,
		"userId":           msg.UserID,
		"text":             msg.Text,
		"timestamp":        msg.Timestamp.UTC().Format(time.RFC3339),
		"originalLanguage": msg.OriginalLanguage,
	})
}
