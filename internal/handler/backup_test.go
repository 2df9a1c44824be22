package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/backup"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/repository"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/server/authctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackupHandler(t *testing.T) (BackupHandler, *repository.UserRepository, *repository.RecordRepository) {
	t.Helper()
	users := repository.NewUserRepository()
	records := repository.NewRecordRepository()
	rc := &backup.Reconciler{
		Users:   users,
		Records: records,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return BackupHandler{Reconciler: rc, Users: users, Records: records}, users, records
}

func createBackupUser(t *testing.T, users *repository.UserRepository, id string, role domain.UserRole) domain.User {
	t.Helper()
	hash := "hash"
	u, err := users.Create(context.Background(), repository.CreateUserParams{
		ID: id, Username: "user-" + id, Name: "User " + id, Role: role,
		Currency: "EUR", Language: "pt", PasswordHash: &hash,
	})
	require.NoError(t, err)
	return *u
}

func TestBackupExportAndRestoreOwnProfile(t *testing.T) {
	t.Parallel()
	h, users, records := newBackupHandler(t)
	emp := createBackupUser(t, users, "DNS-2024-1001", domain.RoleEmployee)
	_, err := records.Upsert(context.Background(), domain.TimeRecord{
		OwnerID: emp.ID, Date: "2024-01-01", StartTime: "09:00", EndTime: "17:00",
	})
	require.NoError(t, err)

	r := authedRouter(authctx.CurrentUser{ID: emp.ID, Role: emp.Role}, h.RegisterRoutes)

	rec, _ := doJSON(t, r, http.MethodGet, "/backup/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	exported := rec.Body.String()
	assert.Contains(t, exported, "digital-nexus-backup-single")

	rec, resp := doJSON(t, r, http.MethodPost, "/backup/restore", exported)
	require.Equal(t, http.StatusOK, rec.Code)
	body := resp.Data.(map[string]any)
	assert.Equal(t, "digital-nexus-backup-single", body["type"])
	assert.Equal(t, 1.0, body["recordsRestored"])
	require.NotNil(t, body["user"])
}

func TestBackupRestoreErrorMapping(t *testing.T) {
	t.Parallel()
	h, users, _ := newBackupHandler(t)
	emp := createBackupUser(t, users, "DNS-2024-1001", domain.RoleEmployee)
	other := createBackupUser(t, users, "DNS-2024-1002", domain.RoleEmployee)
	master := createBackupUser(t, users, "MASTER-01", domain.RoleMaster)

	otherFile, err := backup.ExportSingle(other, nil)
	require.NoError(t, err)
	ghost := domain.User{ID: "GONE", Username: "ghost", Name: "Ghost", Role: domain.RoleEmployee}
	ghostFile, err := backup.ExportSingle(ghost, nil)
	require.NoError(t, err)
	fullFile, err := backup.ExportFull(nil, nil)
	require.NoError(t, err)

	asEmployee := authedRouter(authctx.CurrentUser{ID: emp.ID, Role: emp.Role}, h.RegisterRoutes)
	asMaster := authedRouter(authctx.CurrentUser{ID: master.ID, Role: master.Role}, h.RegisterRoutes)

	// someone else's backup: forbidden
	rec, _ := doJSON(t, asEmployee, http.MethodPost, "/backup/restore", string(otherFile))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// a full backup applied by an employee: forbidden
	rec, _ = doJSON(t, asEmployee, http.MethodPost, "/backup/restore", string(fullFile))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// backup for an account that no longer exists
	rec, _ = doJSON(t, asMaster, http.MethodPost, "/backup/restore", string(ghostFile))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// garbage and foreign files: one generic message
	rec, resp := doJSON(t, asMaster, http.MethodPost, "/backup/restore", `{"type":"other-app"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid backup file", resp.Message)
}
