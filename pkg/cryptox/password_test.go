package cryptox_test

import (
	"strings"
	"testing"

	"github.com/nexushq/nexus/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	cryptox.SetPepperPath(t.TempDir() + "/pepper")

	digest, err := cryptox.HashPassword("P@ss1234A")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(digest, "$argon2id$v=19$"))

	require.NoError(t, cryptox.VerifyPassword("P@ss1234A", digest))
	require.ErrorIs(t, cryptox.VerifyPassword("wrong-password", digest), cryptox.ErrPasswordMismatch)
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	a, err := cryptox.HashPassword("same-password")
	require.NoError(t, err)
	b, err := cryptox.HashPassword("same-password")
	require.NoError(t, err)

	// Same plaintext must never produce the same digest.
	require.NotEqual(t, a, b)
	require.NoError(t, cryptox.VerifyPassword("same-password", a))
	require.NoError(t, cryptox.VerifyPassword("same-password", b))
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	require.Error(t, cryptox.VerifyPassword("pw", "not-a-digest"))
	require.Error(t, cryptox.VerifyPassword("pw", "$bcrypt$v=19$m=1,t=1,p=1$abc$def"))
	require.Error(t, cryptox.VerifyPassword("pw", "$argon2id$v=18$m=1,t=1,p=1$abc$def"))
}

func TestVerifyPasswordDigestSelfDescribesCost(t *testing.T) {
	// A digest hashed with different (weaker) parameters still verifies,
	// because the parameters travel inside the digest.
	digest := "$argon2id$v=19$m=8,t=1,p=1$c29tZXNhbHRzb21lc2E$"
	// Recompute the expected hash for these parameters via the public API:
	// simplest is to check that parameter parsing succeeds and the mismatch
	// path is taken, not the malformed path.
	err := cryptox.VerifyPassword("pw", digest+"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	require.ErrorIs(t, err, cryptox.ErrPasswordMismatch)
}
