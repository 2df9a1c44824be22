package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
)

// UserRepository keeps the user collection in process memory. All state
// lives here for the lifetime of the server; there is no persistence.
// Every method hands out copies, callers never share memory with the store.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

type CreateUserParams struct {
	ID                  string // optional; generated when empty
	Username            string
	Name                string
	Role                domain.UserRole
	Currency            string
	Country             string
	Language            string
	HourlyRate          int64
	NIF                 string
	Email               string
	Phone               string
	SubscriptionDate    *time.Time
	ProvisionalPassword bool
	SocialSecurity      *domain.DeductionRule
	IncomeTax           *domain.DeductionRule
	PasswordHash        *string
}

func (r *UserRepository) Create(ctx context.Context, p CreateUserParams) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := r.users[id]; exists {
		return nil, ErrDuplicate
	}
	if r.findByUsernameLocked(p.Username) != nil {
		return nil, ErrDuplicate
	}

	now := time.Now()
	u := domain.User{
		ID:                  id,
		Username:            p.Username,
		Name:                p.Name,
		Role:                p.Role,
		Currency:            p.Currency,
		Country:             p.Country,
		Language:            p.Language,
		HourlyRate:          p.HourlyRate,
		NIF:                 p.NIF,
		Email:               p.Email,
		Phone:               p.Phone,
		IsActive:            true,
		SubscriptionDate:    p.SubscriptionDate,
		ProvisionalPassword: p.ProvisionalPassword,
		SocialSecurity:      cloneRule(p.SocialSecurity),
		IncomeTax:           cloneRule(p.IncomeTax),
		PasswordHash:        cloneString(p.PasswordHash),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	r.users[id] = u
	return cloneUser(u), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u := r.findByUsernameLocked(username)
	if u == nil {
		return nil, ErrNotFound
	}
	return cloneUser(*u), nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(), nil
}

// Update replaces the stored profile by id. CreatedAt survives; the stored
// password hash survives when the incoming profile carries none.
func (r *UserRepository) Update(ctx context.Context, u domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.users[u.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if other := r.findByUsernameLocked(u.Username); other != nil && other.ID != u.ID {
		return nil, ErrDuplicate
	}

	next := *cloneUser(u)
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now()
	if next.PasswordHash == nil {
		next.PasswordHash = cur.PasswordHash
	}
	r.users[u.ID] = next
	return cloneUser(next), nil
}

// SetPassword stores a new hash and clears or sets the provisional flag.
func (r *UserRepository) SetPassword(ctx context.Context, id, hash string, provisional bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = &hash
	u.ProvisionalPassword = provisional
	u.UpdatedAt = time.Now()
	r.users[id] = u
	return nil
}

// Delete removes the account. Time records are not cascaded.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// Snapshot returns the whole collection, ordered by creation then id.
func (r *UserRepository) Snapshot(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(), nil
}

// ReplaceAll swaps the entire collection, used by full backup restore.
func (r *UserRepository) ReplaceAll(ctx context.Context, users []domain.User) error {
	next := make(map[string]domain.User, len(users))
	for _, u := range users {
		next[u.ID] = *cloneUser(u)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = next
	return nil
}

// Health satisfies ports.HealthChecker.
func (r *UserRepository) Health(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.users == nil {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) findByUsernameLocked(username string) *domain.User {
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			found := u
			return &found
		}
	}
	return nil
}

func (r *UserRepository) snapshotLocked() []domain.User {
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneUser(u domain.User) *domain.User {
	c := u
	c.SocialSecurity = cloneRule(u.SocialSecurity)
	c.IncomeTax = cloneRule(u.IncomeTax)
	c.PasswordHash = cloneString(u.PasswordHash)
	if u.AvatarConfig != nil {
		av := *u.AvatarConfig
		c.AvatarConfig = &av
	}
	if u.SubscriptionDate != nil {
		d := *u.SubscriptionDate
		c.SubscriptionDate = &d
	}
	return &c
}

func cloneRule(rule *domain.DeductionRule) *domain.DeductionRule {
	if rule == nil {
		return nil
	}
	c := *rule
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
