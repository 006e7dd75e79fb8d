package jwtx_test

import (
	"testing"
	"time"

	"github.com/nexushq/nexus/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestVerifier(t *testing.T) (*jwtx.EdDSASigner, jwtx.Verifier) {
	t.Helper()

	signer, err := jwtx.NewEphemeralSigner("test-key")
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)
	return signer, jwtx.NewVerifier(keys, "nexus-test")
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()
	signer, verifier := newTestVerifier(t)

	claims := jwtx.NewAccessClaims("user-1", "ADMIN", "alice", "alice@example.com",
		"nexus-test", time.Hour, time.Now())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "ADMIN", got.Role)
	require.Equal(t, jwtx.TokenUseAccess, got.TokenUse)
	require.NoError(t, got.ValidateUse(jwtx.TokenUseAccess))
}

func TestPendingTokenCarriesNoRole(t *testing.T) {
	t.Parallel()
	signer, verifier := newTestVerifier(t)

	claims := jwtx.NewPendingClaims("user-1", "alice@example.com", "nexus-test",
		jwtx.DefaultPendingTokenTTL, time.Now())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Empty(t, got.Role)
	require.Equal(t, jwtx.TokenUsePending, got.TokenUse)

	// A pending token must never satisfy an access-token check.
	require.ErrorIs(t, got.ValidateUse(jwtx.TokenUseAccess), jwtx.ErrTokenUse)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()
	signer, verifier := newTestVerifier(t)

	claims := jwtx.NewAccessClaims("user-1", "ADMIN", "alice", "alice@example.com",
		"nexus-test", time.Minute, time.Now().Add(-2*time.Minute))
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	t.Parallel()

	other, err := jwtx.NewEphemeralSigner("test-key") // same kid, different key
	require.NoError(t, err)
	_, verifier := newTestVerifier(t)

	token, err := other.Sign(jwtx.NewAccessClaims("user-1", "ADMIN", "alice",
		"alice@example.com", "nexus-test", time.Hour, time.Now()))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	t.Parallel()
	signer, verifier := newTestVerifier(t)

	token, err := signer.Sign(jwtx.NewAccessClaims("user-1", "ADMIN", "alice",
		"alice@example.com", "someone-else", time.Hour, time.Now()))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()
	_, verifier := newTestVerifier(t)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := verifier.Verify(token)
		require.Error(t, err)
	}
}

func TestNewSignerFromSeedDeterministic(t *testing.T) {
	t.Parallel()

	seed := make([]byte, 32)
	a, err := jwtx.NewSignerFromSeed("seeded", seed)
	require.NoError(t, err)
	b, err := jwtx.NewSignerFromSeed("seeded", seed)
	require.NoError(t, err)
	require.Equal(t, a.PublicKey(), b.PublicKey())

	_, err = jwtx.NewSignerFromSeed("seeded", []byte("short"))
	require.Error(t, err)
}
