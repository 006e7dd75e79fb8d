package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/nexushq/nexus/internal/domain"
	"github.com/nexushq/nexus/internal/service"
	"github.com/nexushq/nexus/internal/store/drivers/sqlite"
	"github.com/nexushq/nexus/pkg/cryptox"
	"github.com/nexushq/nexus/pkg/idx"
	"github.com/nexushq/nexus/pkg/jwtx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

const testIssuer = "nexus-test"

type fixture struct {
	store    *sqlite.Store
	auth     *service.AuthService
	users    *service.UserService
	audit    *service.AuditService
	verifier jwtx.Verifier
	mails    *captureMailer
}

type captureMailer struct {
	to      []string
	bodies  []string
	lastErr error
}

func (m *captureMailer) Send(_ context.Context, to, _, body string) error {
	m.to = append(m.to, to)
	m.bodies = append(m.bodies, body)
	return m.lastErr
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	signer, err := jwtx.NewEphemeralSigner("test-key")
	require.NoError(t, err)
	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)
	verifier := jwtx.NewVerifier(keys, testIssuer)

	audit := &service.AuditService{Store: st}
	mails := &captureMailer{}
	return &fixture{
		store: st,
		auth: &service.AuthService{
			Store:        st,
			Signer:       signer,
			Verifier:     verifier,
			Audit:        audit,
			Mailer:       mails,
			Issuer:       testIssuer,
			ResetBaseURL: "https://app.example.com/reset",
		},
		users: &service.UserService{
			Store: st,
			Audit: audit,
		},
		audit:    audit,
		verifier: verifier,
		mails:    mails,
	}
}

func (f *fixture) seedUser(t *testing.T, username, roleName, password string) domain.User {
	t.Helper()
	ctx := context.Background()

	boot := &service.BootstrapService{Store: f.store}
	require.NoError(t, boot.Ensure(ctx))

	role, err := f.store.Roles().GetByName(ctx, roleName)
	require.NoError(t, err)

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	u := domain.User{
		ID:           idx.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Enabled:      true,
		RoleID:       role.ID,
		RoleName:     roleName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.store.Users().Create(ctx, u))
	return u
}

func (f *fixture) lastAudit(t *testing.T, eventType string) domain.LogEntry {
	t.Helper()

	page, err := f.store.AuditLogs().Query(context.Background(),
		domain.LogFilter{EventType: eventType}, domain.LogSort{}, 0, 1)
	require.NoError(t, err)
	require.NotEmpty(t, page.Entries, "expected a %s audit entry", eventType)
	return page.Entries[0]
}

func TestLoginIssuesAccessToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "alice", domain.RoleAdmin, "s3cret-pw")

	res, err := f.auth.Login(ctx, "alice@example.com", "s3cret-pw", "127.0.0.1")
	require.NoError(t, err)
	require.False(t, res.TwoFactorRequired)

	claims, err := f.verifier.Verify(res.Token)
	require.NoError(t, err)
	require.Equal(t, jwtx.TokenUseAccess, claims.TokenUse)
	require.Equal(t, domain.RoleAdmin, claims.Role)
	require.Equal(t, "alice", claims.Username)

	entry := f.lastAudit(t, domain.EventUserLogin)
	require.Equal(t, domain.ResultSuccess, entry.Result)
	require.Equal(t, "127.0.0.1", entry.IPAddress)
}

func TestLoginFailuresAreOpaque(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "alice", domain.RoleEmployee, "s3cret-pw")
	require.NoError(t, f.store.Users().SetEnabled(ctx, u.ID, false))
	f.seedUser(t, "bob", domain.RoleEmployee, "other-pw")

	tests := []struct {
		name  string
		email string
		pw    string
	}{
		{"unknown email", "ghost@example.com", "whatever"},
		{"wrong password", "bob@example.com", "nope"},
		{"disabled account", "alice@example.com", "s3cret-pw"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.auth.Login(ctx, tc.email, tc.pw, "127.0.0.1")
			require.ErrorIs(t, err, service.ErrInvalidCredentials)
		})
	}

	// Every failure left a FAILURE audit entry.
	page, err := f.store.AuditLogs().Query(ctx,
		domain.LogFilter{EventType: domain.EventLoginAttempt}, domain.LogSort{}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 3, page.TotalElements)
	for _, e := range page.Entries {
		require.Equal(t, domain.ResultFailure, e.Result)
	}
}

func TestLoginMissingFields(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.auth.Login(context.Background(), "", "pw", "127.0.0.1")
	require.ErrorIs(t, err, service.ErrMissingCredentials)

	entry := f.lastAudit(t, domain.EventLoginAttempt)
	require.Equal(t, domain.ResultFailure, entry.Result)
}

func TestTwoFactorLoginFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "alice", domain.RoleAdmin, "s3cret-pw")

	twofa := &service.TwoFactorService{Store: f.store, Issuer: testIssuer}
	prov, err := twofa.Generate(ctx, u.ID)
	require.NoError(t, err)
	require.Contains(t, prov.OtpauthURI, "otpauth://totp/")

	code, err := totp.GenerateCode(prov.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, twofa.Enable(ctx, u.ID, code))

	res, err := f.auth.Login(ctx, "alice@example.com", "s3cret-pw", "127.0.0.1")
	require.NoError(t, err)
	require.True(t, res.TwoFactorRequired)

	pending, err := f.verifier.Verify(res.Token)
	require.NoError(t, err)
	require.Equal(t, jwtx.TokenUsePending, pending.TokenUse)
	require.Empty(t, pending.Role, "pending token must not carry a role")

	t.Run("wrong code rejected", func(t *testing.T) {
		_, err := f.auth.Verify2FA(ctx, res.Token, "000000", "127.0.0.1")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("access token rejected as pending", func(t *testing.T) {
		f.seedUser(t, "bob", domain.RoleEmployee, "pw-bob")
		resBob, err := f.auth.Login(ctx, "bob@example.com", "pw-bob", "127.0.0.1")
		require.NoError(t, err)

		_, err = f.auth.Verify2FA(ctx, resBob.Token, code, "127.0.0.1")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("valid code completes login", func(t *testing.T) {
		code, err := totp.GenerateCode(prov.Secret, time.Now())
		require.NoError(t, err)

		done, err := f.auth.Verify2FA(ctx, res.Token, code, "127.0.0.1")
		require.NoError(t, err)

		claims, err := f.verifier.Verify(done.Token)
		require.NoError(t, err)
		require.Equal(t, jwtx.TokenUseAccess, claims.TokenUse)
		require.Equal(t, domain.RoleAdmin, claims.Role)

		entry := f.lastAudit(t, domain.EventUserLogin2FA)
		require.Equal(t, domain.ResultSuccess, entry.Result)
	})
}

func TestTwoFactorDisableClearsSecret(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "alice", domain.RoleEmployee, "pw")

	twofa := &service.TwoFactorService{Store: f.store, Issuer: testIssuer}
	prov, err := twofa.Generate(ctx, u.ID)
	require.NoError(t, err)

	code, err := totp.GenerateCode(prov.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, twofa.Enable(ctx, u.ID, code))

	require.ErrorIs(t, twofa.Disable(ctx, u.ID, "000000"), service.ErrInvalidTOTPCode)

	code, err = totp.GenerateCode(prov.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, twofa.Disable(ctx, u.ID, code))

	got, err := f.store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.TwoFactorEnabled)
	require.Nil(t, got.TwoFactorSecret)
}

func TestForgotPasswordFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "alice", domain.RoleEmployee, "old-pw")

	t.Run("unknown email is silent", func(t *testing.T) {
		require.NoError(t, f.auth.ForgotPassword(ctx, "ghost@example.com"))
		require.Empty(t, f.mails.to)
	})

	require.NoError(t, f.auth.ForgotPassword(ctx, "alice@example.com"))
	require.Equal(t, []string{"alice@example.com"}, f.mails.to)

	got, err := f.store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PasswordResetToken)
	first := *got.PasswordResetToken

	// A second request overwrites and invalidates the first token.
	require.NoError(t, f.auth.ForgotPassword(ctx, "alice@example.com"))
	require.ErrorIs(t, f.auth.ResetPassword(ctx, first, "new-pw"),
		service.ErrInvalidResetToken)

	got, err = f.store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	token := *got.PasswordResetToken

	require.NoError(t, f.auth.ResetPassword(ctx, token, "new-pw"))

	// Token is single-use.
	require.ErrorIs(t, f.auth.ResetPassword(ctx, token, "another-pw"),
		service.ErrInvalidResetToken)

	_, err = f.auth.Login(ctx, "alice@example.com", "new-pw", "127.0.0.1")
	require.NoError(t, err)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "alice", domain.RoleEmployee, "pw")

	require.NoError(t, f.store.Users().SetResetToken(ctx, u.ID, "stale-token",
		time.Now().UTC().Add(-time.Minute)))
	require.ErrorIs(t, f.auth.ResetPassword(ctx, "stale-token", "new-pw"),
		service.ErrInvalidResetToken)
}
