package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/backup"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/repository"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/server/authctx"
)

const maxBackupSize = 10 << 20 // 10 MiB

// BackupHandler exposes backup export and restore. The reconciler owns
// the merge and authorization rules; restore failures surface as the
// generic invalid-backup message.
type BackupHandler struct {
	Reconciler *backup.Reconciler
	Users      *repository.UserRepository
	Records    *repository.RecordRepository
}

func (h BackupHandler) RegisterRoutes(r chi.Router) {
	r.Get("/backup/export", h.exportSingle)
	r.Post("/backup/restore", h.restore)
}

func (h BackupHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/backup/export", h.exportFull)
}

// exportSingle writes the acting user's own profile and records.
func (h BackupHandler) exportSingle(w http.ResponseWriter, r *http.Request) {
	actor := authctx.FromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.Users.GetByID(r.Context(), actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	records, err := h.Records.ListByOwner(r.Context(), actor.ID, nil, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	data, err := backup.ExportSingle(*user, records)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeBackupFile(w, "digital-nexus-single", data)
}

// exportFull writes the complete system state. Master only (routed).
func (h BackupHandler) exportFull(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	records, err := h.Records.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	data, err := backup.ExportFull(users, records)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeBackupFile(w, "digital-nexus-full", data)
}

func (h BackupHandler) restore(w http.ResponseWriter, r *http.Request) {
	actor := authctx.FromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid backup file")
		return
	}

	res, err := h.Reconciler.Restore(r.Context(), backup.Actor{UserID: actor.ID, Role: actor.Role}, body)
	if err != nil {
		switch {
		case errors.Is(err, backup.ErrAuthorizationDenied):
			writeError(w, http.StatusForbidden, "authorization denied")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			// Covers ErrInvalidFormat and anything unexpected; the UI
			// shows one generic message either way.
			writeError(w, http.StatusBadRequest, "invalid backup file")
		}
		return
	}

	payload := map[string]any{
		"type":              res.Type,
		"usersRestored":     res.UsersRestored,
		"recordsRestored":   res.RecordsRestored,
		"sessionTerminated": res.SessionTerminated,
	}
	if res.SessionUser != nil {
		payload["user"] = userPayload(*res.SessionUser)
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeBackupFile(w http.ResponseWriter, prefix string, data []byte) {
	name := fmt.Sprintf("%s_%s.json", prefix, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(data)
}
