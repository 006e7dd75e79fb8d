package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nexushq/nexus/internal/domain"
	"github.com/nexushq/nexus/internal/storage"
	"github.com/nexushq/nexus/internal/store"
	"github.com/nexushq/nexus/pkg/cryptox"
	"github.com/nexushq/nexus/pkg/idx"
)

var ErrUnknownRole = errors.New("unknown role")

// Actor identifies who performed an administrative action, for the audit
// trail.
type Actor struct {
	ID       idx.ID
	Username string
	Role     string
	IP       string
}

// UserService implements the roster and profile operations.
type UserService struct {
	Store store.Store
	Audit *AuditService
	Files storage.FileStore

	// AvatarURLPrefix is prepended to stored filenames to build the
	// public avatar URL.
	AvatarURLPrefix string
}

// rosterFilter maps the actor's role to the role filter applied on reads.
// Supervisors only ever see employees; admins see everyone.
func rosterFilter(actorRole string) string {
	if actorRole == domain.RoleSupervisor {
		return domain.RoleEmployee
	}
	return ""
}

// List returns the roster visible to the actor.
func (s *UserService) List(ctx context.Context, actorRole string) ([]domain.User, error) {
	return s.Store.Users().List(ctx, rosterFilter(actorRole))
}

// Get returns one user by id.
func (s *UserService) Get(ctx context.Context, id idx.ID) (domain.User, error) {
	return s.Store.Users().GetByID(ctx, id)
}

// CreateUserParams is the admin create-user payload.
type CreateUserParams struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DNI         *string
	BirthDate   *time.Time
	PhoneNumber *string
	RoleName    string
}

// Create adds a new account. Duplicate username or email surfaces as
// store.ErrAlreadyExists; either way the attempt is audited.
func (s *UserService) Create(ctx context.Context, p CreateUserParams, actor Actor) (domain.User, error) {
	failed := func(desc string) {
		s.Audit.Record(ctx, Event{
			Type:           domain.EventUserCreationAttempt,
			Username:       actor.Username,
			UserID:         &actor.ID,
			TargetUsername: &p.Username,
			Description:    desc,
			Result:         domain.ResultFailure,
			IPAddress:      actor.IP,
		})
	}

	role, err := s.Store.Roles().GetByName(ctx, p.RoleName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			failed("unknown role " + p.RoleName)
			return domain.User{}, ErrUnknownRole
		}
		return domain.User{}, fmt.Errorf("look up role: %w", err)
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New(),
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: hash,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		DNI:          p.DNI,
		BirthDate:    p.BirthDate,
		PhoneNumber:  p.PhoneNumber,
		Enabled:      true,
		RoleID:       role.ID,
		RoleName:     role.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			failed("duplicate username or email")
		}
		return domain.User{}, err
	}

	s.Audit.Record(ctx, Event{
		Type:           domain.EventUserCreated,
		Username:       actor.Username,
		UserID:         &actor.ID,
		TargetUsername: &user.Username,
		TargetUserID:   &user.ID,
		Result:         domain.ResultSuccess,
		IPAddress:      actor.IP,
	})
	return user, nil
}

// UpdateUserParams is the admin partial-update payload; nil leaves a field
// alone. Updates are last-write-wins.
type UpdateUserParams struct {
	Username    *string
	Email       *string
	FirstName   *string
	LastName    *string
	DNI         *string
	BirthDate   *time.Time
	PhoneNumber *string
	RoleName    *string
}

// Update applies a partial update, resolving a role change by name.
func (s *UserService) Update(ctx context.Context, id idx.ID, p UpdateUserParams) (domain.User, error) {
	upd := store.UserUpdate{
		Username:    p.Username,
		Email:       p.Email,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DNI:         p.DNI,
		BirthDate:   p.BirthDate,
		PhoneNumber: p.PhoneNumber,
	}
	if p.RoleName != nil {
		role, err := s.Store.Roles().GetByName(ctx, *p.RoleName)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.User{}, ErrUnknownRole
			}
			return domain.User{}, fmt.Errorf("look up role: %w", err)
		}
		upd.RoleID = &role.ID
	}

	if err := s.Store.Users().Update(ctx, id, upd); err != nil {
		return domain.User{}, err
	}
	return s.Store.Users().GetByID(ctx, id)
}

// Delete removes an account and audits it.
func (s *UserService) Delete(ctx context.Context, id idx.ID, actor Actor) error {
	user, err := s.Store.Users().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.Users().Delete(ctx, id); err != nil {
		return err
	}

	s.Audit.Record(ctx, Event{
		Type:           domain.EventUserDeleted,
		Username:       actor.Username,
		UserID:         &actor.ID,
		TargetUsername: &user.Username,
		TargetUserID:   &user.ID,
		Result:         domain.ResultSuccess,
		IPAddress:      actor.IP,
	})
	return nil
}

// ToggleStatus flips the enabled flag and returns the updated user.
func (s *UserService) ToggleStatus(ctx context.Context, id idx.ID, actor Actor) (domain.User, error) {
	user, err := s.Store.Users().GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.Store.Users().SetEnabled(ctx, id, !user.Enabled); err != nil {
		return domain.User{}, err
	}
	user.Enabled = !user.Enabled

	desc := "account disabled"
	if user.Enabled {
		desc = "account enabled"
	}
	s.Audit.Record(ctx, Event{
		Type:           domain.EventUserStatusChange,
		Username:       actor.Username,
		UserID:         &actor.ID,
		TargetUsername: &user.Username,
		TargetUserID:   &user.ID,
		Description:    desc,
		Result:         domain.ResultSuccess,
		IPAddress:      actor.IP,
	})
	return user, nil
}

// ProfileUpdate is the self-service subset of user fields.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	DNI         *string
	PhoneNumber *string
}

// UpdateProfile lets a user edit their own contact details.
func (s *UserService) UpdateProfile(ctx context.Context, userID idx.ID, p ProfileUpdate) (domain.User, error) {
	err := s.Store.Users().Update(ctx, userID, store.UserUpdate{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DNI:         p.DNI,
		PhoneNumber: p.PhoneNumber,
	})
	if err != nil {
		return domain.User{}, err
	}
	return s.Store.Users().GetByID(ctx, userID)
}

// ChangePassword verifies the current password before accepting the new
// one. A mismatch surfaces as cryptox.ErrPasswordMismatch.
func (s *UserService) ChangePassword(ctx context.Context, userID idx.ID, current, newPassword, ip string) error {
	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := cryptox.VerifyPassword(current, user.PasswordHash); err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	s.Audit.Record(ctx, Event{
		Type:      domain.EventUserPasswordChange,
		Username:  user.Username,
		UserID:    &user.ID,
		Result:    domain.ResultSuccess,
		IPAddress: ip,
	})
	return nil
}

// SetAvatar stores the uploaded image and records its public URL.
func (s *UserService) SetAvatar(ctx context.Context, userID idx.ID, r io.Reader, ext, ip string) (string, error) {
	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	name, err := s.Files.Save(r, ext)
	if err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}

	url := s.AvatarURLPrefix + name
	if err := s.Store.Users().SetAvatarURL(ctx, userID, url); err != nil {
		return "", err
	}

	s.Audit.Record(ctx, Event{
		Type:      domain.EventUserAvatarUpload,
		Username:  user.Username,
		UserID:    &user.ID,
		Result:    domain.ResultSuccess,
		IPAddress: ip,
	})
	return url, nil
}
