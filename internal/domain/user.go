package domain

import (
	"time"

	"github.com/nexushq/nexus/pkg/idx"
)

// User is an account in the system. Every user holds exactly one role.
type User struct {
	ID           idx.ID
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	DNI          *string
	BirthDate    *time.Time // date-only, stored at midnight UTC
	PhoneNumber  *string
	Enabled      bool
	RoleID       idx.ID
	RoleName     string // denormalized on read

	TwoFactorEnabled bool
	TwoFactorSecret  *string // base32, present only while 2FA is provisioned

	PasswordResetToken  *string
	ResetTokenExpiresAt *time.Time

	AvatarURL *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins the first and last name for display and export.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}
