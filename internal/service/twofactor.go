package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/nexushq/nexus/internal/store"
	"github.com/nexushq/nexus/pkg/idx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var (
	ErrInvalidTOTPCode    = errors.New("invalid verification code")
	ErrTwoFactorNotSetup  = errors.New("two-factor secret not provisioned")
	ErrTwoFactorNotActive = errors.New("two-factor authentication is not enabled")
)

// TwoFactorService handles TOTP self-service: provisioning a secret,
// turning 2FA on after the first valid code, and turning it off again.
type TwoFactorService struct {
	Store  store.Store
	Issuer string // shown in authenticator apps
}

// Provisioning is the result of generating a new secret; the URI renders
// as a QR code client-side.
type Provisioning struct {
	Secret     string
	OtpauthURI string
}

// Generate provisions a fresh TOTP secret for the user and stores it.
// 2FA stays off until Enable confirms the user can produce codes.
func (s *TwoFactorService) Generate(ctx context.Context, userID idx.ID) (Provisioning, error) {
	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return Provisioning{}, fmt.Errorf("look up user: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Provisioning{}, fmt.Errorf("generate TOTP key: %w", err)
	}

	if err := s.Store.Users().SetTwoFactorSecret(ctx, userID, key.Secret()); err != nil {
		return Provisioning{}, fmt.Errorf("store TOTP secret: %w", err)
	}

	return Provisioning{Secret: key.Secret(), OtpauthURI: key.URL()}, nil
}

// Enable turns 2FA on once the user proves they hold the secret.
func (s *TwoFactorService) Enable(ctx context.Context, userID idx.ID, code string) error {
	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if user.TwoFactorSecret == nil {
		return ErrTwoFactorNotSetup
	}
	if !totp.Validate(code, *user.TwoFactorSecret) {
		return ErrInvalidTOTPCode
	}
	return s.Store.Users().EnableTwoFactor(ctx, userID)
}

// Disable turns 2FA off. A valid current code is required, and the stored
// secret is discarded so re-enabling starts from a clean provisioning.
func (s *TwoFactorService) Disable(ctx context.Context, userID idx.ID, code string) error {
	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return ErrTwoFactorNotActive
	}
	if !totp.Validate(code, *user.TwoFactorSecret) {
		return ErrInvalidTOTPCode
	}
	return s.Store.Users().DisableTwoFactor(ctx, userID)
}
