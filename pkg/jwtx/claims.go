package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds carried in the "token_use" claim. A two-factor pending token is
// deliberately a different kind to an access token so that a token minted
// before the TOTP step can never be replayed against protected routes.
const (
	TokenUseAccess  = "access"
	TokenUsePending = "twofactor_pending"
)

// Default token lifetimes.
const (
	DefaultAccessTokenTTL  = 1 * time.Hour
	DefaultPendingTokenTTL = 5 * time.Minute
)

// Claims are the session-token claims used across the service.
type Claims struct {
	jwt.RegisteredClaims

	// TokenUse discriminates access tokens from two-factor pending tokens.
	TokenUse string `json:"token_use"`

	// Role is the authorization role name (ADMIN, SUPERVISOR, EMPLOYEE).
	// Absent on pending tokens.
	Role string `json:"role,omitempty"`

	// Username and Email identify the user for display and auditing.
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// NewAccessClaims builds claims for a fully authenticated session token.
func NewAccessClaims(subject, role, username, email, issuer string, ttl time.Duration, now time.Time) Claims {
	c := newBaseClaims(subject, issuer, ttl, now)
	c.TokenUse = TokenUseAccess
	c.Role = role
	c.Username = username
	c.Email = email
	return c
}

// NewPendingClaims builds claims for the short-lived token handed out between
// a successful password check and TOTP verification. It carries no role.
func NewPendingClaims(subject, email, issuer string, ttl time.Duration, now time.Time) Claims {
	c := newBaseClaims(subject, issuer, ttl, now)
	c.TokenUse = TokenUsePending
	c.Email = email
	return c
}

func newBaseClaims(subject, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks the issuer matches the expected value. An empty
// expectation enforces nothing.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token is inside its validity window.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}

// ValidateUse checks the token kind. Anything other than an exact match is
// treated as invalid, including an absent claim.
func (c *Claims) ValidateUse(expected string) error {
	if c.TokenUse != expected {
		return ErrTokenUse
	}
	return nil
}
