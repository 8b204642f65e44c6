package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotAuthenticated is reported when no bearer token has been persisted
// yet. It surfaces to the operator as "not logged in" rather than a network
// error.
var ErrNotAuthenticated = errors.New("storage: not logged in")

const (
	appDirName    = "znakly"
	keyFileName   = "key"
	sigFileName   = "key.sig"
	tokenFileName = "token.dat"
	logFileName   = "debug.log"
)

// Store owns the per-user application directory: the durable token file and
// the transient challenge/signature artifacts of a login attempt.
type Store struct {
	baseDir string
}

// DefaultBaseDir resolves the per-user application directory.
func DefaultBaseDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("storage: cannot determine user config dir: %w", err)
	}
	return filepath.Join(dir, appDirName), nil
}

// New creates the application directory if needed. An empty baseDir selects
// the per-user default.
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		var err error
		baseDir, err = DefaultBaseDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("storage: failed to create %s: %w", baseDir, err)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) BaseDir() string { return s.baseDir }

// KeyPath is the transient challenge payload handed to the signing tool.
func (s *Store) KeyPath() string { return filepath.Join(s.baseDir, keyFileName) }

// SigPath is where the signing tool writes the raw signature.
func (s *Store) SigPath() string { return filepath.Join(s.baseDir, sigFileName) }

// LogPath is the append-only debug log sink.
func (s *Store) LogPath() string { return filepath.Join(s.baseDir, logFileName) }

func (s *Store) tokenPath() string { return filepath.Join(s.baseDir, tokenFileName) }

// WriteChallenge stores the challenge payload for the signing tool.
func (s *Store) WriteChallenge(data []byte) error {
	if err := os.WriteFile(s.KeyPath(), data, 0600); err != nil {
		return fmt.Errorf("storage: failed to write challenge file: %w", err)
	}
	return nil
}

// CleanupChallenge removes the transient challenge and signature artifacts.
// Missing files are fine; this runs on every login exit path.
func (s *Store) CleanupChallenge() {
	_ = os.Remove(s.KeyPath())
	_ = os.Remove(s.SigPath())
}

// SaveToken persists the bearer token in cleartext, replacing any previous
// one. Last writer wins.
func (s *Store) SaveToken(token string) error {
	if err := os.WriteFile(s.tokenPath(), []byte(strings.TrimSpace(token)), 0600); err != nil {
		return fmt.Errorf("storage: failed to write token: %w", err)
	}
	return nil
}

// LoadToken returns the persisted bearer token with surrounding whitespace
// stripped. A missing or empty token file reports ErrNotAuthenticated.
func (s *Store) LoadToken() (string, error) {
	data, err := os.ReadFile(s.tokenPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("storage: failed to read token: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}
