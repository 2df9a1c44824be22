package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/config"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService() (AuthService, *repository.UserRepository) {
	users := repository.NewUserRepository()
	cfg := config.Config{
		JWTSecret:       "test-secret",
		DefaultCurrency: "EUR",
		DefaultLanguage: "pt",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return AuthService{Config: cfg, Users: users, Logger: logger}, users
}

func createAccount(t *testing.T, users *repository.UserRepository, username, password string, provisional bool) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	h := string(hash)
	u, err := users.Create(context.Background(), repository.CreateUserParams{
		Username:            username,
		Name:                username,
		Role:                domain.RoleEmployee,
		Currency:            "EUR",
		Language:            "pt",
		ProvisionalPassword: provisional,
		PasswordHash:        &h,
	})
	require.NoError(t, err)
	return *u
}

func TestRegisterIssuesTokens(t *testing.T) {
	t.Parallel()
	svc, users := newAuthService()

	res, err := svc.Register(context.Background(), RegisterInput{
		Username: "joao",
		Name:     "João Silva",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, domain.RoleEmployee, res.User.Role)
	assert.Equal(t, "EUR", res.User.Currency)
	assert.Equal(t, "pt", res.User.Language)
	require.NotNil(t, res.User.SubscriptionDate)

	stored, err := users.GetByUsername(context.Background(), "joao")
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	t.Parallel()
	svc, users := newAuthService()
	createAccount(t, users, "joao", "pw", false)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "joao", Name: "x", Password: "pw"})
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	svc, users := newAuthService()
	createAccount(t, users, "joao", "secret123", false)

	res, err := svc.Login(context.Background(), LoginInput{Username: "joao", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "joao", res.User.Username)
	assert.True(t, res.ExpiresAt.After(time.Now()))

	_, err = svc.Login(context.Background(), LoginInput{Username: "joao", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginInput{Username: "nobody", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	t.Parallel()
	svc, users := newAuthService()
	u := createAccount(t, users, "joao", "secret123", false)

	u.IsActive = false
	u.PasswordHash = nil
	_, err := users.Update(context.Background(), u)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginInput{Username: "joao", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInactiveAccount)
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	svc, users := newAuthService()
	createAccount(t, users, "joao", "secret123", false)

	login, err := svc.Login(context.Background(), LoginInput{Username: "joao", Password: "secret123"})
	require.NoError(t, err)

	res, err := svc.Refresh(context.Background(), RefreshInput{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, "joao", res.User.Username)

	// access tokens are not accepted as refresh tokens
	_, err = svc.Refresh(context.Background(), RefreshInput{RefreshToken: login.AccessToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Refresh(context.Background(), RefreshInput{RefreshToken: "garbage"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshDeletedAccount(t *testing.T) {
	t.Parallel()
	svc, users := newAuthService()
	u := createAccount(t, users, "joao", "secret123", false)

	login, err := svc.Login(context.Background(), LoginInput{Username: "joao", Password: "secret123"})
	require.NoError(t, err)
	require.NoError(t, users.Delete(context.Background(), u.ID))

	_, err = svc.Refresh(context.Background(), RefreshInput{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// First-login flow: an account seeded with a provisional password changes
// it before using the app, which clears the flag.
func TestChangePasswordClearsProvisionalFlag(t *testing.T) {
	t.Parallel()
	svc, users := newAuthService()
	createAccount(t, users, "joao", "temp-pw", true)

	require.NoError(t, svc.ChangePassword(context.Background(), "joao", "temp-pw", "my-own-pw"))

	stored, err := users.GetByUsername(context.Background(), "joao")
	require.NoError(t, err)
	assert.False(t, stored.ProvisionalPassword)

	_, err = svc.Login(context.Background(), LoginInput{Username: "joao", Password: "temp-pw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	res, err := svc.Login(context.Background(), LoginInput{Username: "joao", Password: "my-own-pw"})
	require.NoError(t, err)
	assert.False(t, res.User.ProvisionalPassword)
}

func TestChangePasswordRejectsWrongCurrent(t *testing.T) {
	t.Parallel()
	svc, users := newAuthService()
	createAccount(t, users, "joao", "secret123", false)

	err := svc.ChangePassword(context.Background(), "joao", "wrong", "next")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	err = svc.ChangePassword(context.Background(), "nobody", "secret123", "next")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	err = svc.ChangePassword(context.Background(), "joao", "secret123", "")
	assert.Error(t, err)
}
