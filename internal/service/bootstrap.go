package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nexushq/nexus/internal/domain"
	"github.com/nexushq/nexus/internal/store"
	"github.com/nexushq/nexus/pkg/cryptox"
	"github.com/nexushq/nexus/pkg/idx"
	"github.com/nexushq/nexus/pkg/slogx"
)

// BootstrapService seeds the fixed role set and, on an empty database, a
// first administrator account. Safe to run on every startup.
type BootstrapService struct {
	Store store.Store

	AdminEmail    string
	AdminPassword string
}

// Ensure creates whatever is missing: the three roles always, the default
// admin only when credentials are configured and no users exist yet.
func (s *BootstrapService) Ensure(ctx context.Context) error {
	log := slogx.FromContext(ctx)

	for _, name := range domain.AllRoles {
		_, err := s.Store.Roles().GetByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("look up role %s: %w", name, err)
		}

		role := domain.Role{ID: idx.New(), Name: name, CreatedAt: time.Now().UTC()}
		if err := s.Store.Roles().Create(ctx, role); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return fmt.Errorf("create role %s: %w", name, err)
		}
		log.Info("seeded role", "name", name)
	}

	if s.AdminEmail == "" || s.AdminPassword == "" {
		return nil
	}

	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("check users: %w", err)
	}
	if !empty {
		return nil
	}

	adminRole, err := s.Store.Roles().GetByName(ctx, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("look up admin role: %w", err)
	}
	hash, err := cryptox.HashPassword(s.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()
	admin := domain.User{
		ID:           idx.New(),
		Username:     "admin",
		Email:        s.AdminEmail,
		PasswordHash: hash,
		FirstName:    "System",
		LastName:     "Administrator",
		Enabled:      true,
		RoleID:       adminRole.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	log.Info("seeded default admin", "email", s.AdminEmail)
	return nil
}
