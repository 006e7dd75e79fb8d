package store

import (
	"context"
	"errors"
	"time"

	"github.com/nexushq/nexus/internal/domain"
	"github.com/nexushq/nexus/pkg/idx"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// UserUpdate carries a partial user update. Nil fields are left untouched.
type UserUpdate struct {
	Username    *string
	Email       *string
	FirstName   *string
	LastName    *string
	DNI         *string
	BirthDate   *time.Time
	PhoneNumber *string
	RoleID      *idx.ID
}

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Roles() Roles
	AuditLogs() AuditLogs

	ApplyMigrations() error

	// WithTx executes a function within a transaction. If fn returns an
	// error the transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped view of the store.
type Tx interface {
	Users() Users
	Roles() Roles
	AuditLogs() AuditLogs
}

type Users interface {
	// GetByID returns a user by id, role name populated.
	GetByID(ctx context.Context, id idx.ID) (domain.User, error)

	// GetByEmail is used during login and forgot-password.
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	// GetByUsername resolves an actor for audit writes.
	GetByUsername(ctx context.Context, username string) (domain.User, error)

	// GetByResetToken returns the user holding the given reset token.
	GetByResetToken(ctx context.Context, token string) (domain.User, error)

	// Create inserts a new user (id is provided by the app via ULID).
	// Duplicate username or email yields ErrAlreadyExists.
	Create(ctx context.Context, u domain.User) error

	// List returns the roster ordered by username. When roleName is
	// non-empty only users holding that role are returned.
	List(ctx context.Context, roleName string) ([]domain.User, error)

	// Update applies the non-nil fields of upd and bumps updated_at.
	Update(ctx context.Context, id idx.ID, upd UserUpdate) error

	// UpdatePasswordHash sets the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, id idx.ID, hash string) error

	// SetEnabled flips the account on or off.
	SetEnabled(ctx context.Context, id idx.ID, enabled bool) error

	// SetAvatarURL records where the stored avatar is served from.
	SetAvatarURL(ctx context.Context, id idx.ID, url string) error

	// SetTwoFactorSecret stores a freshly provisioned TOTP secret. The
	// secret is held but 2FA stays off until EnableTwoFactor.
	SetTwoFactorSecret(ctx context.Context, id idx.ID, secret string) error

	// EnableTwoFactor marks 2FA on for the user.
	EnableTwoFactor(ctx context.Context, id idx.ID) error

	// DisableTwoFactor turns 2FA off and clears the stored secret.
	DisableTwoFactor(ctx context.Context, id idx.ID) error

	// SetResetToken stores a password-reset token and its expiry,
	// overwriting any previous one.
	SetResetToken(ctx context.Context, id idx.ID, token string, expiresAt time.Time) error

	// ClearResetToken consumes the reset token.
	ClearResetToken(ctx context.Context, id idx.ID) error

	// ClearExpiredResetTokens is housekeeping.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)

	// Delete removes the user.
	Delete(ctx context.Context, id idx.ID) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)

	// CountByEnabled returns total, active and inactive counts.
	CountByEnabled(ctx context.Context) (total, active int64, err error)

	// CountByRole returns the number of users per role name.
	CountByRole(ctx context.Context) (map[string]int64, error)

	// CountByMonth buckets account creation by calendar month, ascending.
	CountByMonth(ctx context.Context) ([]domain.MonthlyRegistrations, error)
}

type Roles interface {
	// GetByID fetches a role by its id.
	GetByID(ctx context.Context, id idx.ID) (domain.Role, error)

	// GetByName fetches a role by name (bootstrap and user create/update).
	GetByName(ctx context.Context, name string) (domain.Role, error)

	// ListAll returns all roles ordered by name.
	ListAll(ctx context.Context) ([]domain.Role, error)

	// Create inserts a new role (id is ULID).
	Create(ctx context.Context, r domain.Role) error
}

type AuditLogs interface {
	// Append inserts one audit record. There is no update or delete for
	// individual rows.
	Append(ctx context.Context, e domain.LogEntry) error

	// Query returns one page of audit records matching the filter.
	Query(ctx context.Context, f domain.LogFilter, s domain.LogSort, page, size int) (domain.LogPage, error)

	// DeleteOlderThan prunes records past the retention window.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
