package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	pepperOnce sync.Once
	pepper     string
	pepperFile string
)

// SetPepperPath configures the file the pepper is loaded from (or written to
// on first run). Must be called before any hashing happens.
func SetPepperPath(file string) {
	pepperFile = file
}

// GetPepper returns the process-wide pepper appended to passwords before
// hashing. A missing pepper file is generated once and persisted so digests
// stay verifiable across restarts.
func GetPepper() string {
	pepperOnce.Do(func() {
		var err error
		pepper, err = loadOrGeneratePepper()
		if err != nil {
			slog.Error("failed to load or generate pepper", slog.Any("err", err))
			os.Exit(1)
		}
	})
	return pepper
}

func loadOrGeneratePepper() (string, error) {
	if pepperFile == "" {
		pepperFile = "pepper"
	}
	pepperFile = filepath.Clean(pepperFile)
	if err := os.MkdirAll(filepath.Dir(pepperFile), 0750); err != nil {
		return "", err
	}

	if data, err := os.ReadFile(pepperFile); err == nil {
		return string(data), nil
	} else if !os.IsNotExist(err) {
		return "", err
	}

	raw := make([]byte, keyLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	generated := base64.RawURLEncoding.EncodeToString(raw)

	if err := os.WriteFile(pepperFile, []byte(generated), 0600); err != nil {
		return "", err
	}
	return generated, nil
}
