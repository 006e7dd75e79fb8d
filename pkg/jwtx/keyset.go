package jwtx

import (
	"crypto/ed25519"
	"errors"
	"sync"
)

// ErrNoKey reports a kid with no registered verification key.
var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the public verification keys in memory, keyed by kid.
// Thread-safe so the HTTP layer can verify concurrently while keys are
// registered during startup.
type KeySet struct {
	mu  sync.RWMutex
	pub map[string]ed25519.PublicKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]ed25519.PublicKey)}
}

// AddSigner registers a signer's public key under its kid.
func (k *KeySet) AddSigner(s *EdDSASigner) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[s.KID()] = s.PublicKey()
}

// Get returns the public key for the given kid.
func (k *KeySet) Get(kid string) (ed25519.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// IsReady reports whether at least one key is loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}
