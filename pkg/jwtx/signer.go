package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs claim sets into compact JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
}

// EdDSASigner signs tokens with an Ed25519 private key.
type EdDSASigner struct {
	kid string
	key ed25519.PrivateKey
	pub ed25519.PublicKey
}

// NewEphemeralSigner generates a fresh Ed25519 keypair for the given kid.
// Keys live only for the process lifetime; tokens are self-expiring so a
// restart simply invalidates outstanding sessions.
func NewEphemeralSigner(kid string) (*EdDSASigner, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate Ed25519 key: %w", err)
	}
	return &EdDSASigner{kid: kid, key: priv, pub: pub}, nil
}

// NewSignerFromSeed builds a deterministic signer from a 32-byte seed.
// Intended for tests that need reproducible tokens.
func NewSignerFromSeed(kid string, seed []byte) (*EdDSASigner, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.New("jwtx: seed must be 32 bytes")
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &EdDSASigner{
		kid: kid,
		key: priv,
		pub: priv.Public().(ed25519.PublicKey),
	}, nil
}

func (s *EdDSASigner) Alg() string { return jwt.SigningMethodEdDSA.Alg() }
func (s *EdDSASigner) KID() string { return s.kid }

// Sign serializes the claims into a signed compact JWT.
func (s *EdDSASigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

// PublicKey exposes the verification half for KeySet registration.
func (s *EdDSASigner) PublicKey() ed25519.PublicKey { return s.pub }
