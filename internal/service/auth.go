package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nexushq/nexus/internal/domain"
	"github.com/nexushq/nexus/internal/mailer"
	"github.com/nexushq/nexus/internal/store"
	"github.com/nexushq/nexus/pkg/cryptox"
	"github.com/nexushq/nexus/pkg/idx"
	"github.com/nexushq/nexus/pkg/jwtx"
	"github.com/nexushq/nexus/pkg/slogx"
	"github.com/pquerna/otp/totp"
)

var (
	// ErrInvalidCredentials covers unknown email, wrong password and
	// disabled accounts alike. The caller must not learn which one it was;
	// the audit trail keeps the distinction.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

const resetTokenTTL = time.Hour

// AuthService implements login, two-factor completion and the
// password-reset flow.
type AuthService struct {
	Store    store.Store
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Audit    *AuditService
	Mailer   mailer.Mailer

	Issuer     string
	AccessTTL  time.Duration
	PendingTTL time.Duration

	// ResetBaseURL is the frontend page the reset link points at; the
	// token is appended as a query parameter.
	ResetBaseURL string
}

// LoginResult is the outcome of a successful first authentication step.
type LoginResult struct {
	Token             string
	TwoFactorRequired bool
	User              domain.User
}

// Login checks the password and either issues an access token or, when the
// account has 2FA on, a short-lived pending token that only the verify-2fa
// endpoint accepts.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (LoginResult, error) {
	if email == "" || password == "" {
		s.Audit.Record(ctx, Event{
			Type:        domain.EventLoginAttempt,
			Username:    email,
			Description: "missing email or password",
			Result:      domain.ResultFailure,
			IPAddress:   ip,
		})
		return LoginResult{}, ErrMissingCredentials
	}

	fail := func(username, desc string) (LoginResult, error) {
		s.Audit.Record(ctx, Event{
			Type:        domain.EventLoginAttempt,
			Username:    username,
			Description: desc,
			Result:      domain.ResultFailure,
			IPAddress:   ip,
		})
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(email, "unknown email")
		}
		return LoginResult{}, fmt.Errorf("look up user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return fail(user.Username, "wrong password")
		}
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}

	if !user.Enabled {
		return fail(user.Username, "account disabled")
	}

	if user.TwoFactorEnabled {
		token, err := s.Signer.Sign(jwtx.NewPendingClaims(
			string(user.ID), user.Email, s.Issuer, s.pendingTTL(), time.Now()))
		if err != nil {
			return LoginResult{}, fmt.Errorf("sign pending token: %w", err)
		}
		return LoginResult{Token: token, TwoFactorRequired: true, User: user}, nil
	}

	token, err := s.issueAccessToken(user)
	if err != nil {
		return LoginResult{}, err
	}

	s.Audit.Record(ctx, Event{
		Type:      domain.EventUserLogin,
		Username:  user.Username,
		UserID:    &user.ID,
		Result:    domain.ResultSuccess,
		IPAddress: ip,
	})
	return LoginResult{Token: token, User: user}, nil
}

// Verify2FA completes a pending login. rawToken must be a pending-kind
// token from Login; access tokens are rejected here just as pending tokens
// are rejected everywhere else.
func (s *AuthService) Verify2FA(ctx context.Context, rawToken, code, ip string) (LoginResult, error) {
	claims, err := s.Verifier.Verify(rawToken)
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := claims.ValidateUse(jwtx.TokenUsePending); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetByID(ctx, idx.ID(claims.Subject))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, store.ErrNotFound
		}
		return LoginResult{}, fmt.Errorf("look up user: %w", err)
	}

	if user.TwoFactorSecret == nil || !totp.Validate(code, *user.TwoFactorSecret) {
		s.Audit.Record(ctx, Event{
			Type:        domain.EventLoginAttempt,
			Username:    user.Username,
			UserID:      &user.ID,
			Description: "invalid two-factor code",
			Result:      domain.ResultFailure,
			IPAddress:   ip,
		})
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.issueAccessToken(user)
	if err != nil {
		return LoginResult{}, err
	}

	s.Audit.Record(ctx, Event{
		Type:      domain.EventUserLogin2FA,
		Username:  user.Username,
		UserID:    &user.ID,
		Result:    domain.ResultSuccess,
		IPAddress: ip,
	})
	return LoginResult{Token: token, User: user}, nil
}

// ForgotPassword stores a fresh single-use reset token and mails the reset
// link. It reveals nothing about whether the email exists: the caller gets
// nil either way, and a send failure is logged rather than surfaced.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("look up user: %w", err)
	}

	token := uuid.NewString()
	expiry := time.Now().UTC().Add(resetTokenTTL)
	if err := s.Store.Users().SetResetToken(ctx, user.ID, token, expiry); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := s.ResetBaseURL + "?token=" + token
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Use the link below to reset your password. It expires in one hour.</p><p><a href=%q>Reset password</a></p>",
		user.FirstName, link)
	if err := s.Mailer.Send(ctx, user.Email, "Password reset", body); err != nil {
		slogx.FromContext(ctx).Error("reset email failed", "err", err)
	}
	return nil
}

// ResetPassword consumes a reset token. Unknown and expired tokens are
// indistinguishable to the caller.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.Store.Users().GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("look up reset token: %w", err)
	}
	if user.ResetTokenExpiresAt == nil || user.ResetTokenExpiresAt.Before(time.Now().UTC()) {
		return ErrInvalidResetToken
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.Store.Users().ClearResetToken(ctx, user.ID); err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}
	return nil
}

func (s *AuthService) issueAccessToken(user domain.User) (string, error) {
	token, err := s.Signer.Sign(jwtx.NewAccessClaims(
		string(user.ID), user.RoleName, user.Username, user.Email,
		s.Issuer, s.accessTTL(), time.Now()))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return token, nil
}

func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *AuthService) pendingTTL() time.Duration {
	if s.PendingTTL > 0 {
		return s.PendingTTL
	}
	return jwtx.DefaultPendingTokenTTL
}
