package backup

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconciler() (*Reconciler, *repository.UserRepository, *repository.RecordRepository) {
	users := repository.NewUserRepository()
	records := repository.NewRecordRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Reconciler{Users: users, Records: records, Logger: logger}, users, records
}

func seedUser(t *testing.T, users *repository.UserRepository, id, username string, role domain.UserRole) domain.User {
	t.Helper()
	hash := "hash-" + id
	u, err := users.Create(context.Background(), repository.CreateUserParams{
		ID:           id,
		Username:     username,
		Name:         username,
		Role:         role,
		Currency:     "EUR",
		Language:     "pt",
		HourlyRate:   1500,
		PasswordHash: &hash,
	})
	require.NoError(t, err)
	return *u
}

func seedRecord(t *testing.T, records *repository.RecordRepository, owner, date, notes string) domain.TimeRecord {
	t.Helper()
	r, err := records.Upsert(context.Background(), domain.TimeRecord{
		OwnerID:       owner,
		Date:          date,
		StartTime:     "09:00",
		EndTime:       "17:00",
		LunchDuration: 60,
		Notes:         notes,
	})
	require.NoError(t, err)
	return *r
}

func TestRestoreRejectsMalformedPayloads(t *testing.T) {
	t.Parallel()
	rc, _, _ := newReconciler()
	actor := Actor{UserID: "MASTER-01", Role: domain.RoleMaster}

	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"unknown type", `{"type":"some-other-app-backup"}`},
		{"missing type", `{"users":[],"records":[]}`},
		{"full without users", `{"type":"digital-nexus-backup-full","records":[]}`},
		{"full without records", `{"type":"digital-nexus-backup-full","users":[]}`},
		{"single without profile", `{"type":"digital-nexus-backup-single","records":[]}`},
		{"bad role", `{"type":"digital-nexus-backup-full","users":[{"id":"u1","username":"x","role":"boss"}],"records":[]}`},
		{"bad record date", `{"type":"digital-nexus-backup-full","users":[],"records":[{"id":"r1","ownerId":"u1","date":"01/01/2024"}]}`},
		{"full record without owner", `{"type":"digital-nexus-backup-full","users":[],"records":[{"id":"r1","date":"2024-01-01"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rc.Restore(context.Background(), actor, []byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

// Exports always carry their collection keys, so even an empty system's
// file decodes back without error.
func TestExportAlwaysCarriesCollections(t *testing.T) {
	t.Parallel()

	full, err := ExportFull(nil, nil)
	require.NoError(t, err)
	assert.Contains(t, string(full), `"users"`)
	assert.Contains(t, string(full), `"records"`)
	p, err := Decode(full)
	require.NoError(t, err)
	assert.Equal(t, TypeFull, p.Type)
	assert.Empty(t, p.Users)
	assert.Empty(t, p.Records)

	u := domain.User{ID: "DNS-2024-1001", Username: "joao", Name: "João", Role: domain.RoleEmployee, IsActive: true}
	single, err := ExportSingle(u, nil)
	require.NoError(t, err)
	assert.Contains(t, string(single), `"records"`)
	p, err = Decode(single)
	require.NoError(t, err)
	assert.Equal(t, TypeSingle, p.Type)
	require.NotNil(t, p.UserProfile)
	assert.Empty(t, p.Records)
}

func TestRestoreFullDeniedForEmployee(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rc, users, records := newReconciler()
	seedUser(t, users, "MASTER-01", "admin", domain.RoleMaster)
	emp := seedUser(t, users, "DNS-2024-1001", "joao", domain.RoleEmployee)
	seedRecord(t, records, emp.ID, "2024-01-01", "before")

	data, err := ExportFull(nil, nil)
	require.NoError(t, err)

	_, err = rc.Restore(ctx, Actor{UserID: emp.ID, Role: emp.Role}, data)
	require.ErrorIs(t, err, ErrAuthorizationDenied)

	// a denied restore leaves both stores untouched
	all, err := users.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	recs, err := records.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, "before", recs[0].Notes)
}

func TestRestoreFullRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, users, records := newReconciler()
	master := seedUser(t, users, "MASTER-01", "admin", domain.RoleMaster)
	emp := seedUser(t, users, "DNS-2024-1001", "joao", domain.RoleEmployee)
	emp.SocialSecurity = &domain.DeductionRule{Type: domain.DeductionPercentage, Value: 11}
	_, err := users.Update(ctx, emp)
	require.NoError(t, err)
	seedRecord(t, records, emp.ID, "2024-01-01", "first")
	seedRecord(t, records, emp.ID, "2024-01-02", "second")

	origUsers, err := users.Snapshot(ctx)
	require.NoError(t, err)
	origRecords, err := records.Snapshot(ctx)
	require.NoError(t, err)

	data, err := ExportFull(origUsers, origRecords)
	require.NoError(t, err)

	// restore into a fresh system
	rc2, users2, records2 := newReconciler()
	res, err := rc2.Restore(ctx, Actor{UserID: master.ID, Role: domain.RoleMaster}, data)
	require.NoError(t, err)
	assert.Equal(t, TypeFull, res.Type)
	assert.Equal(t, 2, res.UsersRestored)
	assert.Equal(t, 2, res.RecordsRestored)
	assert.False(t, res.SessionTerminated)
	require.NotNil(t, res.SessionUser)
	assert.Equal(t, master.ID, res.SessionUser.ID)

	gotUsers, err := users2.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, gotUsers, len(origUsers))
	for i, want := range origUsers {
		got := gotUsers[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Username, got.Username)
		assert.Equal(t, want.Role, got.Role)
		assert.Equal(t, want.HourlyRate, got.HourlyRate)
		assert.Equal(t, want.SocialSecurity, got.SocialSecurity)
		require.NotNil(t, got.PasswordHash) // credentials survive the trip
		assert.Equal(t, *want.PasswordHash, *got.PasswordHash)
		assert.True(t, got.CreatedAt.Equal(want.CreatedAt))
	}

	gotRecords, err := records2.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, gotRecords, len(origRecords))
	for i, want := range origRecords {
		got := gotRecords[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.OwnerID, got.OwnerID)
		assert.Equal(t, want.Date, got.Date)
		assert.Equal(t, want.Notes, got.Notes)
		assert.True(t, got.CreatedAt.Equal(want.CreatedAt))
	}
}

func TestRestoreFullTerminatesDroppedSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rc, users, _ := newReconciler()
	seedUser(t, users, "MASTER-01", "admin", domain.RoleMaster)

	// a backup from before this master account existed
	other := domain.User{ID: "OLD-MASTER", Username: "root", Name: "Root", Role: domain.RoleMaster, IsActive: true}
	data, err := ExportFull([]domain.User{other}, nil)
	require.NoError(t, err)

	res, err := rc.Restore(ctx, Actor{UserID: "MASTER-01", Role: domain.RoleMaster}, data)
	require.NoError(t, err)
	assert.True(t, res.SessionTerminated)
	assert.Nil(t, res.SessionUser)

	_, err = users.GetByID(ctx, "MASTER-01")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// A single-user restore replaces the profile, swaps records on the
// backup's dates, adds its new dates and leaves every other date and
// every other user alone.
func TestRestoreSingleMergesByDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rc, users, records := newReconciler()
	emp := seedUser(t, users, "DNS-2024-1001", "joao", domain.RoleEmployee)
	other := seedUser(t, users, "DNS-2024-1002", "mario", domain.RoleEmployee)
	seedRecord(t, records, emp.ID, "2024-01-01", "stale")
	seedRecord(t, records, emp.ID, "2024-01-05", "untouched")
	seedRecord(t, records, other.ID, "2024-01-01", "someone else")

	profile := emp
	profile.Name = "João Restored"
	profile.PasswordHash = nil
	data, err := ExportSingle(profile, []domain.TimeRecord{
		{Date: "2024-01-01", StartTime: "10:00", EndTime: "18:00", Notes: "restored"},
		{Date: "2024-01-02", StartTime: "09:00", EndTime: "17:00"},
	})
	require.NoError(t, err)

	res, err := rc.Restore(ctx, Actor{UserID: emp.ID, Role: domain.RoleEmployee}, data)
	require.NoError(t, err)
	assert.Equal(t, TypeSingle, res.Type)
	assert.Equal(t, 1, res.UsersRestored)
	assert.Equal(t, 2, res.RecordsRestored)
	require.NotNil(t, res.SessionUser)
	assert.Equal(t, "João Restored", res.SessionUser.Name)

	got, err := records.ListByOwner(ctx, emp.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "restored", got[0].Notes)
	assert.Equal(t, "2024-01-02", got[1].Date)
	assert.Equal(t, "untouched", got[2].Notes)

	// the profile edit kept the stored credentials
	refreshed, err := users.GetByID(ctx, emp.ID)
	require.NoError(t, err)
	require.NotNil(t, refreshed.PasswordHash)
	assert.Equal(t, "hash-"+emp.ID, *refreshed.PasswordHash)

	theirs, err := records.ListByOwner(ctx, other.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, "someone else", theirs[0].Notes)
}

func TestRestoreSingleDeniedForOtherEmployee(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rc, users, _ := newReconciler()
	emp := seedUser(t, users, "DNS-2024-1001", "joao", domain.RoleEmployee)
	intruder := seedUser(t, users, "DNS-2024-1002", "mario", domain.RoleEmployee)

	data, err := ExportSingle(emp, nil)
	require.NoError(t, err)

	_, err = rc.Restore(ctx, Actor{UserID: intruder.ID, Role: domain.RoleEmployee}, data)
	assert.ErrorIs(t, err, ErrAuthorizationDenied)
}

func TestRestoreSingleByMasterForEmployee(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rc, users, _ := newReconciler()
	master := seedUser(t, users, "MASTER-01", "admin", domain.RoleMaster)
	emp := seedUser(t, users, "DNS-2024-1001", "joao", domain.RoleEmployee)

	data, err := ExportSingle(emp, nil)
	require.NoError(t, err)

	res, err := rc.Restore(ctx, Actor{UserID: master.ID, Role: domain.RoleMaster}, data)
	require.NoError(t, err)
	// restoring someone else's backup never swaps the acting session
	assert.Nil(t, res.SessionUser)
	assert.False(t, res.SessionTerminated)
}

func TestRestoreSingleUnknownTargetFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rc, users, _ := newReconciler()
	master := seedUser(t, users, "MASTER-01", "admin", domain.RoleMaster)

	ghost := domain.User{ID: "GONE-01", Username: "ghost", Name: "Ghost", Role: domain.RoleEmployee, IsActive: true}
	data, err := ExportSingle(ghost, nil)
	require.NoError(t, err)

	_, err = rc.Restore(ctx, Actor{UserID: master.ID, Role: domain.RoleMaster}, data)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDecodeSingleAssignsOwnerToRecords(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"type": "digital-nexus-backup-single",
		"userProfile": {"id": "DNS-2024-1001", "username": "joao", "name": "João", "role": "employee", "isActive": true},
		"records": [{"id": "r1", "date": "2024-01-01", "startTime": "09:00", "endTime": "17:00", "lunchDuration": 60}]
	}`)
	p, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, p.Records, 1)
	assert.Equal(t, "DNS-2024-1001", p.Records[0].OwnerID)
}
