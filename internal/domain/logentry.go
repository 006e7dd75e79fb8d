package domain

import (
	"time"

	"github.com/nexushq/nexus/pkg/idx"
)

// Audit event types. Attempted and successful variants of the same action
// are distinct events so failures remain visible after the fact.
const (
	EventLoginAttempt        = "LOGIN_ATTEMPT"
	EventUserLogin           = "USER_LOGIN"
	EventUserLogin2FA        = "USER_LOGIN_2FA"
	EventUserCreated         = "USER_CREATED"
	EventUserCreationAttempt = "USER_CREATION_ATTEMPT"
	EventUserDeleted         = "USER_DELETED"
	EventUserStatusChange    = "USER_STATUS_CHANGE"
	EventUserPasswordChange  = "USER_PASSWORD_CHANGE"
	EventUserAvatarUpload    = "USER_AVATAR_UPLOAD"
)

// Audit outcomes.
const (
	ResultSuccess = "SUCCESS"
	ResultFailure = "FAILURE"
)

// LogEntry is one append-only audit record. Rows are never updated or
// deleted individually; housekeeping prunes by age only.
type LogEntry struct {
	ID             idx.ID
	CreatedAt      time.Time
	EventType      string
	Username       string // actor; the attempted identifier for failed logins
	UserID         *idx.ID
	TargetUsername *string
	TargetUserID   *idx.ID
	Description    string
	Result         string
	IPAddress      string
}

// LogFilter narrows an audit query. Zero-value fields are ignored and the
// supplied ones combine conjunctively.
type LogFilter struct {
	EventType      string
	Username       string
	TargetUsername string
	Start          *time.Time
	End            *time.Time
}

// LogSort is a whitelisted sort order for audit queries.
type LogSort struct {
	Field string // created_at, event_type or username
	Desc  bool
}

// LogPage is one page of audit results plus totals for the envelope.
type LogPage struct {
	Entries       []LogEntry
	Page          int
	Size          int
	TotalElements int64
}

// TotalPages derives the page count from the totals.
func (p LogPage) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	pages := p.TotalElements / int64(p.Size)
	if p.TotalElements%int64(p.Size) != 0 {
		pages++
	}
	return int(pages)
}
