package service

import (
	"context"

	"github.com/nexushq/nexus/internal/domain"
	"github.com/nexushq/nexus/internal/store"
)

// RolesService exposes the read-only role catalogue.
type RolesService struct {
	Store store.Store
}

func (s *RolesService) ListAll(ctx context.Context) ([]domain.Role, error) {
	return s.Store.Roles().ListAll(ctx)
}
