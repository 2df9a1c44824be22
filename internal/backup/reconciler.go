package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/repository"
)

// Actor is the identity applying a restore.
type Actor struct {
	UserID string
	Role   domain.UserRole
}

// RestoreResult reports what a merge did and what happened to the acting
// session: a refreshed profile when the actor survives the restore, or a
// terminated session when a full restore dropped the account.
type RestoreResult struct {
	Type              string
	UsersRestored     int
	RecordsRestored   int
	SessionUser       *domain.User
	SessionTerminated bool
}

// Reconciler merges validated backup payloads into the live stores.
// Restore runs Received -> Validated -> Authorized -> Merged; any failure
// before Merged leaves both stores untouched.
type Reconciler struct {
	Users   *repository.UserRepository
	Records *repository.RecordRepository
	Logger  *slog.Logger
}

func (r *Reconciler) Restore(ctx context.Context, actor Actor, data []byte) (*RestoreResult, error) {
	p, err := Decode(data)
	if err != nil {
		r.Logger.Warn("backup rejected", "actor", actor.UserID, "err", err)
		restoreTotal.WithLabelValues("unknown", "invalid").Inc()
		return nil, err
	}

	switch p.Type {
	case TypeFull:
		return r.restoreFull(ctx, actor, p)
	case TypeSingle:
		return r.restoreSingle(ctx, actor, p)
	}
	restoreTotal.WithLabelValues("unknown", "invalid").Inc()
	return nil, ErrInvalidFormat
}

// restoreFull replaces both collections verbatim. Master only.
func (r *Reconciler) restoreFull(ctx context.Context, actor Actor, p *Payload) (*RestoreResult, error) {
	if actor.Role != domain.RoleMaster {
		r.Logger.Warn("full restore denied", "actor", actor.UserID, "role", actor.Role)
		restoreTotal.WithLabelValues(TypeFull, "denied").Inc()
		return nil, ErrAuthorizationDenied
	}

	if err := r.Users.ReplaceAll(ctx, p.Users); err != nil {
		return nil, fmt.Errorf("replace users: %w", err)
	}
	if err := r.Records.ReplaceAll(ctx, p.Records); err != nil {
		return nil, fmt.Errorf("replace records: %w", err)
	}

	res := RestoreResult{
		Type:            TypeFull,
		UsersRestored:   len(p.Users),
		RecordsRestored: len(p.Records),
	}
	if me, err := r.Users.GetByID(ctx, actor.UserID); err == nil {
		res.SessionUser = me
	} else {
		// The acting account is gone; force re-authentication.
		res.SessionTerminated = true
	}

	r.Logger.Info("full backup restored",
		"actor", actor.UserID, "users", res.UsersRestored, "records", res.RecordsRestored,
		"session_terminated", res.SessionTerminated)
	restoreTotal.WithLabelValues(TypeFull, "merged").Inc()
	return &res, nil
}

// restoreSingle replaces one user's profile and merges their records by
// date. A user may restore their own backup; masters may restore anyone's.
func (r *Reconciler) restoreSingle(ctx context.Context, actor Actor, p *Payload) (*RestoreResult, error) {
	profile := *p.UserProfile
	if actor.Role != domain.RoleMaster && actor.UserID != profile.ID {
		r.Logger.Warn("single restore denied", "actor", actor.UserID, "target", profile.ID)
		restoreTotal.WithLabelValues(TypeSingle, "denied").Inc()
		return nil, ErrAuthorizationDenied
	}

	if _, err := r.Users.Update(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			restoreTotal.WithLabelValues(TypeSingle, "not_found").Inc()
			return nil, fmt.Errorf("restore target %s: %w", profile.ID, err)
		}
		return nil, fmt.Errorf("replace user: %w", err)
	}
	if err := r.Records.MergeForOwner(ctx, profile.ID, p.Records); err != nil {
		return nil, fmt.Errorf("merge records: %w", err)
	}

	res := RestoreResult{
		Type:            TypeSingle,
		UsersRestored:   1,
		RecordsRestored: len(p.Records),
	}
	if actor.UserID == profile.ID {
		if me, err := r.Users.GetByID(ctx, profile.ID); err == nil {
			res.SessionUser = me
		}
	}

	r.Logger.Info("single-user backup restored",
		"actor", actor.UserID, "target", profile.ID, "records", res.RecordsRestored)
	restoreTotal.WithLabelValues(TypeSingle, "merged").Inc()
	return &res, nil
}
