package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nexushq/nexus/internal/service"
	"github.com/nexushq/nexus/internal/store"
	"github.com/nexushq/nexus/pkg/cryptox"
	"github.com/nexushq/nexus/pkg/httpx"
	"github.com/nexushq/nexus/pkg/slogx"
)

// writeServiceError maps service sentinels onto the HTTP status taxonomy.
// Anything unmapped is a 500 with an opaque body.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrMissingCredentials):
		httpx.WriteError(w, http.StatusBadRequest, "email and password are required")
	case errors.Is(err, service.ErrInvalidResetToken):
		httpx.WriteError(w, http.StatusBadRequest, "invalid or expired reset token")
	case errors.Is(err, service.ErrInvalidTOTPCode):
		httpx.WriteError(w, http.StatusBadRequest, "invalid verification code")
	case errors.Is(err, service.ErrTwoFactorNotSetup),
		errors.Is(err, service.ErrTwoFactorNotActive):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnknownRole):
		httpx.WriteError(w, http.StatusBadRequest, "unknown role")
	case errors.Is(err, service.ErrInvalidDateRange):
		httpx.WriteError(w, http.StatusBadRequest, "invalid date range")
	case errors.Is(err, cryptox.ErrPasswordMismatch):
		httpx.WriteError(w, http.StatusBadRequest, "current password is incorrect")
	case errors.Is(err, store.ErrAlreadyExists):
		httpx.WriteError(w, http.StatusBadRequest, "username or email already in use")
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not found")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON parses the request body into dst; a malformed body is a 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

// parseDate parses a YYYY-MM-DD query or body value.
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
