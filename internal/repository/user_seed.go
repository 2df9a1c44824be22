package repository

import (
	"context"
	"errors"

	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// SeedMaster creates the administrator account when no user exists yet.
func (r *UserRepository) SeedMaster(ctx context.Context, username, password string) error {
	existing, err := r.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	h := string(hash)
	_, err = r.Create(ctx, CreateUserParams{
		ID:           "MASTER-01",
		Username:     username,
		Name:         "Master Admin",
		Role:         domain.RoleMaster,
		Currency:     "EUR",
		Country:      "PT",
		Language:     "pt",
		PasswordHash: &h,
	})
	return err
}

// SeedDemoEmployees inserts a few demo accounts for development setups.
// Idempotent: usernames are unique.
func (r *UserRepository) SeedDemoEmployees(ctx context.Context, password string) error {
	demos := []CreateUserParams{
		{
			ID: "DNS-2024-1001", Username: "joao", Name: "João Silva",
			Role: domain.RoleEmployee, Currency: "EUR", Country: "PT", Language: "pt",
			HourlyRate: 1500, NIF: "123456789", ProvisionalPassword: true,
		},
		{
			ID: "DNS-2024-1002", Username: "mario", Name: "Mario Rossi",
			Role: domain.RoleEmployee, Currency: "EUR", Country: "IT", Language: "it",
			HourlyRate: 2000,
		},
		{
			ID: "DNS-2024-1003", Username: "carlos", Name: "Carlos Oliveira",
			Role: domain.RoleEmployee, Currency: "BRL", Country: "BR", Language: "pt-BR",
			HourlyRate: 5000,
		},
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	h := string(hash)
	for _, p := range demos {
		p.PasswordHash = &h
		if _, err := r.Create(ctx, p); err != nil {
			if errors.Is(err, ErrDuplicate) {
				continue
			}
			return err
		}
	}
	return nil
}
