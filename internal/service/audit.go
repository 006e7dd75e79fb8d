package service

import (
	"context"
	"errors"
	"time"

	"github.com/nexushq/nexus/internal/domain"
	"github.com/nexushq/nexus/internal/store"
	"github.com/nexushq/nexus/pkg/idx"
	"github.com/nexushq/nexus/pkg/slogx"
)

var ErrInvalidDateRange = errors.New("invalid date range")

// AuditService records and queries the append-only audit trail.
type AuditService struct {
	Store store.Store
}

// Event describes one auditable action. ID and timestamp are filled in on
// record.
type Event struct {
	Type           string
	Username       string
	UserID         *idx.ID
	TargetUsername *string
	TargetUserID   *idx.ID
	Description    string
	Result         string
	IPAddress      string
}

// Record appends an audit entry. It never fails the calling operation: a
// storage error is logged and swallowed so the user-facing response is not
// held hostage by the audit trail.
func (s *AuditService) Record(ctx context.Context, e Event) {
	entry := domain.LogEntry{
		ID:             idx.New(),
		CreatedAt:      time.Now().UTC(),
		EventType:      e.Type,
		Username:       e.Username,
		UserID:         e.UserID,
		TargetUsername: e.TargetUsername,
		TargetUserID:   e.TargetUserID,
		Description:    e.Description,
		Result:         e.Result,
		IPAddress:      e.IPAddress,
	}
	if err := s.Store.AuditLogs().Append(ctx, entry); err != nil {
		slogx.FromContext(ctx).Error("audit append failed",
			"event_type", e.Type,
			"err", err,
		)
	}
}

// QueryParams narrows and pages an audit query. Dates are inclusive
// calendar days.
type QueryParams struct {
	EventType      string
	Username       string
	TargetUsername string
	StartDate      *time.Time
	EndDate        *time.Time
	Page           int
	Size           int
	Sort           domain.LogSort
}

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Query returns one page of audit entries matching the params.
func (s *AuditService) Query(ctx context.Context, p QueryParams) (domain.LogPage, error) {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}

	filter := domain.LogFilter{
		EventType:      p.EventType,
		Username:       p.Username,
		TargetUsername: p.TargetUsername,
	}
	if p.StartDate != nil {
		start := p.StartDate.Truncate(24 * time.Hour)
		filter.Start = &start
	}
	if p.EndDate != nil {
		// Inclusive until the final instant of the day.
		end := p.EndDate.Truncate(24 * time.Hour).Add(24*time.Hour - time.Nanosecond)
		filter.End = &end
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return domain.LogPage{}, ErrInvalidDateRange
	}

	return s.Store.AuditLogs().Query(ctx, filter, p.Sort, p.Page, p.Size)
}

// Prune removes entries older than the retention window.
func (s *AuditService) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	return s.Store.AuditLogs().DeleteOlderThan(ctx, time.Now().UTC().Add(-retention))
}
