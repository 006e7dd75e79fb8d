package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/nexushq/nexus/internal/domain"
	"github.com/nexushq/nexus/internal/store"
	"github.com/nexushq/nexus/internal/store/drivers/sqlite"
	"github.com/nexushq/nexus/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedRole(t *testing.T, s *sqlite.Store, name string) domain.Role {
	t.Helper()

	role := domain.Role{ID: idx.New(), Name: name, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.Roles().Create(context.Background(), role))
	return role
}

func seedUser(t *testing.T, s *sqlite.Store, username string, roleID idx.ID) domain.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	u := domain.User{
		ID:           idx.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$argon2id$stub",
		FirstName:    "Test",
		LastName:     "User",
		Enabled:      true,
		RoleID:       roleID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestUsersRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	role := seedRole(t, s, domain.RoleEmployee)
	u := seedUser(t, s, "alice", role.ID)

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, "alice@example.com", got.Email)
	require.Equal(t, domain.RoleEmployee, got.RoleName)
	require.True(t, got.Enabled)
	require.Nil(t, got.DNI)

	byEmail, err := s.Users().GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	_, err = s.Users().GetByID(ctx, idx.New())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsersUniqueConstraints(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	role := seedRole(t, s, domain.RoleEmployee)
	seedUser(t, s, "alice", role.ID)

	dup := domain.User{
		ID:           idx.New(),
		Username:     "alice",
		Email:        "other@example.com",
		PasswordHash: "x",
		RoleID:       role.ID,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.ErrorIs(t, s.Users().Create(ctx, dup), store.ErrAlreadyExists)

	dup.Username = "bob"
	dup.Email = "alice@example.com"
	require.ErrorIs(t, s.Users().Create(ctx, dup), store.ErrAlreadyExists)
}

func TestUsersPartialUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	employee := seedRole(t, s, domain.RoleEmployee)
	admin := seedRole(t, s, domain.RoleAdmin)
	u := seedUser(t, s, "alice", employee.ID)

	first := "Alicia"
	dni := "12345678"
	err := s.Users().Update(ctx, u.ID, store.UserUpdate{
		FirstName: &first,
		DNI:       &dni,
		RoleID:    &admin.ID,
	})
	require.NoError(t, err)

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Alicia", got.FirstName)
	require.Equal(t, "User", got.LastName) // untouched
	require.NotNil(t, got.DNI)
	require.Equal(t, "12345678", *got.DNI)
	require.Equal(t, domain.RoleAdmin, got.RoleName)

	require.ErrorIs(t,
		s.Users().Update(ctx, idx.New(), store.UserUpdate{FirstName: &first}),
		store.ErrNotFound)
}

func TestResetTokenLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	role := seedRole(t, s, domain.RoleEmployee)
	u := seedUser(t, s, "alice", role.ID)

	expiry := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, s.Users().SetResetToken(ctx, u.ID, "token-1", expiry))

	got, err := s.Users().GetByResetToken(ctx, "token-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	// Overwriting invalidates the previous token.
	require.NoError(t, s.Users().SetResetToken(ctx, u.ID, "token-2", expiry))
	_, err = s.Users().GetByResetToken(ctx, "token-1")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Users().ClearResetToken(ctx, u.ID))
	_, err = s.Users().GetByResetToken(ctx, "token-2")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestClearExpiredResetTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	role := seedRole(t, s, domain.RoleEmployee)
	expired := seedUser(t, s, "alice", role.ID)
	fresh := seedUser(t, s, "bob", role.ID)

	now := time.Now().UTC()
	require.NoError(t, s.Users().SetResetToken(ctx, expired.ID, "old", now.Add(-time.Minute)))
	require.NoError(t, s.Users().SetResetToken(ctx, fresh.ID, "new", now.Add(time.Hour)))

	n, err := s.Users().ClearExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.Users().GetByResetToken(ctx, "old")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Users().GetByResetToken(ctx, "new")
	require.NoError(t, err)
}

func TestTwoFactorFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	role := seedRole(t, s, domain.RoleEmployee)
	u := seedUser(t, s, "alice", role.ID)

	require.NoError(t, s.Users().SetTwoFactorSecret(ctx, u.ID, "JBSWY3DP"))
	require.NoError(t, s.Users().EnableTwoFactor(ctx, u.ID))

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.TwoFactorEnabled)
	require.NotNil(t, got.TwoFactorSecret)

	require.NoError(t, s.Users().DisableTwoFactor(ctx, u.ID))
	got, err = s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.TwoFactorEnabled)
	require.Nil(t, got.TwoFactorSecret, "secret must be cleared on disable")
}

func TestListFiltersByRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	employee := seedRole(t, s, domain.RoleEmployee)
	admin := seedRole(t, s, domain.RoleAdmin)
	seedUser(t, s, "alice", admin.ID)
	seedUser(t, s, "bob", employee.ID)
	seedUser(t, s, "carol", employee.ID)

	all, err := s.Users().List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	employees, err := s.Users().List(ctx, domain.RoleEmployee)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	for _, u := range employees {
		require.Equal(t, domain.RoleEmployee, u.RoleName)
	}
}

func TestReportCounts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	employee := seedRole(t, s, domain.RoleEmployee)
	admin := seedRole(t, s, domain.RoleAdmin)
	seedRole(t, s, domain.RoleSupervisor)
	seedUser(t, s, "alice", admin.ID)
	bob := seedUser(t, s, "bob", employee.ID)
	require.NoError(t, s.Users().SetEnabled(ctx, bob.ID, false))

	total, active, err := s.Users().CountByEnabled(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.EqualValues(t, 1, active)

	byRole, err := s.Users().CountByRole(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, byRole[domain.RoleAdmin])
	require.EqualValues(t, 1, byRole[domain.RoleEmployee])
	require.EqualValues(t, 0, byRole[domain.RoleSupervisor])

	months, err := s.Users().CountByMonth(ctx)
	require.NoError(t, err)
	require.Len(t, months, 1)
	require.EqualValues(t, 2, months[0].Count)
}

func appendLog(t *testing.T, s *sqlite.Store, event, username, result string, at time.Time) {
	t.Helper()
	require.NoError(t, s.AuditLogs().Append(context.Background(), domain.LogEntry{
		ID:        idx.NewAt(at),
		CreatedAt: at,
		EventType: event,
		Username:  username,
		Result:    result,
		IPAddress: "127.0.0.1",
	}))
}

func TestAuditQueryFilters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	appendLog(t, s, domain.EventUserLogin, "alice", domain.ResultSuccess, base)
	appendLog(t, s, domain.EventLoginAttempt, "alice", domain.ResultFailure, base.Add(time.Hour))
	appendLog(t, s, domain.EventUserLogin, "bob", domain.ResultSuccess, base.Add(48*time.Hour))

	t.Run("by event type", func(t *testing.T) {
		page, err := s.AuditLogs().Query(ctx,
			domain.LogFilter{EventType: domain.EventUserLogin},
			domain.LogSort{}, 0, 10)
		require.NoError(t, err)
		require.EqualValues(t, 2, page.TotalElements)
	})

	t.Run("filters combine", func(t *testing.T) {
		page, err := s.AuditLogs().Query(ctx,
			domain.LogFilter{EventType: domain.EventUserLogin, Username: "alice"},
			domain.LogSort{}, 0, 10)
		require.NoError(t, err)
		require.EqualValues(t, 1, page.TotalElements)
	})

	t.Run("date window", func(t *testing.T) {
		start := base.Add(-time.Hour)
		end := base.Add(2 * time.Hour)
		page, err := s.AuditLogs().Query(ctx,
			domain.LogFilter{Start: &start, End: &end},
			domain.LogSort{}, 0, 10)
		require.NoError(t, err)
		require.EqualValues(t, 2, page.TotalElements)
	})

	t.Run("default sort newest first", func(t *testing.T) {
		page, err := s.AuditLogs().Query(ctx, domain.LogFilter{}, domain.LogSort{}, 0, 10)
		require.NoError(t, err)
		require.Len(t, page.Entries, 3)
		require.Equal(t, "bob", page.Entries[0].Username)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := s.AuditLogs().Query(ctx, domain.LogFilter{}, domain.LogSort{}, 1, 2)
		require.NoError(t, err)
		require.Len(t, page.Entries, 1)
		require.EqualValues(t, 3, page.TotalElements)
		require.Equal(t, 2, page.TotalPages())
	})
}

func TestAuditPrune(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	old := time.Now().UTC().Add(-90 * 24 * time.Hour)
	appendLog(t, s, domain.EventUserLogin, "alice", domain.ResultSuccess, old)
	appendLog(t, s, domain.EventUserLogin, "bob", domain.ResultSuccess, time.Now().UTC())

	n, err := s.AuditLogs().DeleteOlderThan(ctx, time.Now().UTC().Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	role := seedRole(t, s, domain.RoleEmployee)

	sentinel := domain.User{
		ID:           idx.New(),
		Username:     "txuser",
		Email:        "txuser@example.com",
		PasswordHash: "x",
		RoleID:       role.ID,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().Create(ctx, sentinel); err != nil {
			return err
		}
		return context.Canceled // force rollback
	})
	require.Error(t, err)

	_, err = s.Users().GetByUsername(ctx, "txuser")
	require.ErrorIs(t, err, store.ErrNotFound)
}
