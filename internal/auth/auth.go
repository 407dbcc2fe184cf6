// Package auth checks logins against the static credential table.
package auth

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"TimeTracker/internal/config"
	"TimeTracker/internal/domain"
	"TimeTracker/internal/ports"
)

// BcryptCost is the cost factor for hashing plain-text passwords from config.
const BcryptCost = 10

// Static keeps bcrypt hashes of the configured users in memory.
type Static struct {
	hashes map[string][]byte
	admin  string
	names  []string
}

var _ ports.Authenticator = (*Static)(nil)

// NewStatic hashes plain-text entries; values that already are bcrypt hashes
// are kept as they are.
func NewStatic(cfg config.AuthConfig) (*Static, error) {
	return newStatic(cfg, BcryptCost)
}

func newStatic(cfg config.AuthConfig, cost int) (*Static, error) {
	if len(cfg.Users) == 0 {
		return nil, fmt.Errorf("no users configured")
	}
	if _, ok := cfg.Users[cfg.AdminUser]; !ok {
		return nil, fmt.Errorf("admin user %q is not in the user table", cfg.AdminUser)
	}

	s := &Static{hashes: make(map[string][]byte, len(cfg.Users)), admin: cfg.AdminUser}
	for name, secret := range cfg.Users {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("empty username in user table")
		}
		hash, err := hashOf(secret, cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", name, err)
		}
		s.hashes[name] = hash
		s.names = append(s.names, name)
	}

	sort.Slice(s.names, func(i, j int) bool {
		if s.names[i] == s.admin || s.names[j] == s.admin {
			return s.names[i] == s.admin
		}
		return s.names[i] < s.names[j]
	})
	return s, nil
}

// Authenticate returns domain.ErrInvalidCredentials on any mismatch.
func (s *Static) Authenticate(username, password string) error {
	hash, ok := s.hashes[username]
	if !ok || password == "" {
		return domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// Usernames lists the selectable logins, admin first.
func (s *Static) Usernames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// IsAdmin reports whether username is the configured administrator.
func (s *Static) IsAdmin(username string) bool {
	return username == s.admin
}

func hashOf(secret string, cost int) ([]byte, error) {
	if isBcrypt(secret) {
		return []byte(secret), nil
	}
	if secret == "" {
		return nil, fmt.Errorf("empty password")
	}
	return bcrypt.GenerateFromPassword([]byte(secret), cost)
}

func isBcrypt(value string) bool {
	if !strings.HasPrefix(value, "$2a$") && !strings.HasPrefix(value, "$2b$") && !strings.HasPrefix(value, "$2y$") {
		return false
	}
	_, err := bcrypt.Cost([]byte(value))
	return err == nil
}
