// Package credential keeps back-office session cookies in the system keyring.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"

	"github.com/brainhr/hrdesk/pkg/domain"
)

const serviceName = "hrdesk"

// ErrNoSession is returned when no session is stored for an account.
var ErrNoSession = errors.New("no stored session")

// Store reads and writes sessions in a keyring.
type Store struct {
	ring keyring.Keyring
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Open returns a Store backed by the system keyring.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/hrdesk/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("hrdesk-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewStore(ring), nil
}

// SessionKey is the keyring key for an account's session cookie.
func SessionKey(role domain.Role, username string) string {
	return "session:" + string(role) + ":" + username
}

// Session returns the stored session cookie for an account.
func (s *Store) Session(role domain.Role, username string) (string, error) {
	key := SessionKey(role, username)
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	if len(item.Data) == 0 {
		return "", ErrNoSession
	}
	return string(item.Data), nil
}

// SaveSession stores a session cookie for an account.
func (s *Store) SaveSession(role domain.Role, username, session string) error {
	key := SessionKey(role, username)
	err := s.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(session),
		Label: "hrdesk " + string(role) + " session",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// DeleteSession removes an account's session. Deleting a missing session is
// not an error.
func (s *Store) DeleteSession(role domain.Role, username string) error {
	key := SessionKey(role, username)
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}
