package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/nexushq/nexus/internal/domain"
	"github.com/nexushq/nexus/internal/service"
	"github.com/nexushq/nexus/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestAuditQueryDateBounds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	day := time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{
		day.Add(2 * time.Hour),
		day.Add(23*time.Hour + 59*time.Minute),
		day.Add(25 * time.Hour), // next day
	} {
		require.NoError(t, f.store.AuditLogs().Append(ctx, domain.LogEntry{
			ID:        idx.NewAt(at),
			CreatedAt: at,
			EventType: domain.EventUserLogin,
			Username:  "alice",
			Result:    domain.ResultSuccess,
		}))
	}

	t.Run("end date is inclusive", func(t *testing.T) {
		page, err := f.audit.Query(ctx, service.QueryParams{
			StartDate: &day,
			EndDate:   &day,
		})
		require.NoError(t, err)
		require.EqualValues(t, 2, page.TotalElements)
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		before := day.Add(-48 * time.Hour)
		_, err := f.audit.Query(ctx, service.QueryParams{
			StartDate: &day,
			EndDate:   &before,
		})
		require.ErrorIs(t, err, service.ErrInvalidDateRange)
	})

	t.Run("size is clamped", func(t *testing.T) {
		page, err := f.audit.Query(ctx, service.QueryParams{Size: 10000})
		require.NoError(t, err)
		require.Equal(t, 200, page.Size)
	})
}

func TestAuditRecordSurvivesStoreFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Close())

	// Record must not panic or surface the error.
	f.audit.Record(ctx, service.Event{
		Type:     domain.EventUserLogin,
		Username: "alice",
		Result:   domain.ResultSuccess,
	})
}
