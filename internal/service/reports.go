package service

import (
	"context"
	"fmt"

	"github.com/nexushq/nexus/internal/domain"
	"github.com/nexushq/nexus/internal/store"
)

// ReportsService aggregates roster statistics. The supervisor data filter
// applies to the roster export the same way it does to listings.
type ReportsService struct {
	Store store.Store
}

func (s *ReportsService) Summary(ctx context.Context) (domain.UserSummary, error) {
	total, active, err := s.Store.Users().CountByEnabled(ctx)
	if err != nil {
		return domain.UserSummary{}, fmt.Errorf("count users: %w", err)
	}
	return domain.UserSummary{
		TotalUsers:    total,
		ActiveUsers:   active,
		InactiveUsers: total - active,
	}, nil
}

func (s *ReportsService) UsersByRole(ctx context.Context) (map[string]int64, error) {
	return s.Store.Users().CountByRole(ctx)
}

func (s *ReportsService) MonthlyRegistrations(ctx context.Context) ([]domain.MonthlyRegistrations, error) {
	return s.Store.Users().CountByMonth(ctx)
}

// Roster returns the exportable user list visible to the actor.
func (s *ReportsService) Roster(ctx context.Context, actorRole string) ([]domain.User, error) {
	return s.Store.Users().List(ctx, rosterFilter(actorRole))
}
