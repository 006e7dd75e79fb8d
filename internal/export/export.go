// Package export renders the user roster as downloadable PDF and Excel
// documents.
package export

import (
	"time"

	"github.com/nexushq/nexus/internal/domain"
)

var rosterHeaders = []string{
	"ID", "Username", "Email", "First Name", "Last Name",
	"DNI", "Birth Date", "Phone", "Role", "Status",
}

func rosterRow(u domain.User) []string {
	return []string{
		string(u.ID),
		u.Username,
		u.Email,
		u.FirstName,
		u.LastName,
		optional(u.DNI),
		optionalDate(u.BirthDate),
		optional(u.PhoneNumber),
		u.RoleName,
		status(u.Enabled),
	}
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func status(enabled bool) string {
	if enabled {
		return "Active"
	}
	return "Inactive"
}
