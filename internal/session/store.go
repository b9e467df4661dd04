// Package session owns the credential pair and its persisted lifecycle.
//
// Exactly one Store exists per running client. It is created at startup,
// restored from disk, and passed by reference to every component that needs
// the session; nothing reads credentials ambiently. The access token is
// opaque here: validity is discovered by server rejection, never by local
// clock inspection.
package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/natefinch/atomic"
)

// ErrNotAuthenticated is returned by operations that require an established
// session.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// Credentials is the in-memory credential pair plus subject. The pair is
// created atomically on login or restored atomically on startup, and
// destroyed atomically on logout or irrecoverable refresh failure.
type Credentials struct {
	Access   string
	Refresh  string
	Username string
	Initial  string
}

// persisted mirrors the five-field key/value layout the web client kept in
// localStorage. All five fields must be present together for a restore to
// succeed; any subset alone is invalid and is discarded.
type persisted struct {
	IsLoggedIn   string `json:"isLoggedIn"`
	UserInitial  string `json:"userInitial"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Username     string `json:"username"`
}

func (p persisted) complete() bool {
	return p.IsLoggedIn == "true" &&
		p.UserInitial != "" &&
		p.AccessToken != "" &&
		p.RefreshToken != "" &&
		p.Username != ""
}

// Store owns the credential pair. All mutation goes through its atomic
// operations; during steady state the refresh coordinator is the sole writer
// of credential updates.
type Store struct {
	path string

	mu    sync.Mutex
	creds *Credentials // nil while Anonymous
}

// NewStore creates a store persisting to the given file path. Call Restore
// to pick up a previous session.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the session file under the user's blockopt directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".blockopt", "session.json"), nil
}

// Restore loads a previously persisted credential pair. It returns the pair
// only if every persisted field is present together; partial or unreadable
// state is wiped and treated as absent (nil, nil), leaving the session
// Anonymous rather than partially authenticated.
func (s *Store) Restore() (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.creds = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: read persisted state: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil || !p.complete() {
		// Partial or corrupt state must never restore partially.
		s.creds = nil
		if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("session: discard partial state: %w", rmErr)
		}
		return nil, nil
	}

	s.creds = &Credentials{
		Access:   p.AccessToken,
		Refresh:  p.RefreshToken,
		Username: p.Username,
		Initial:  p.UserInitial,
	}
	return s.snapshot(), nil
}

// Establish creates the session from a freshly minted credential pair. The
// write is atomic with respect to every field: a reader never observes an
// access token without its paired refresh token or subject.
func (s *Store) Establish(access, refresh, username string) error {
	if access == "" || refresh == "" || username == "" {
		return errors.New("session: establish requires access, refresh, and username")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	creds := &Credentials{
		Access:   access,
		Refresh:  refresh,
		Username: username,
		Initial:  userInitial(username),
	}
	if err := s.persist(creds); err != nil {
		return err
	}
	s.creds = creds
	return nil
}

// UpdateAccess replaces only the access token after a successful refresh,
// leaving the refresh token and subject untouched.
func (s *Store) UpdateAccess(access string) error {
	if access == "" {
		return errors.New("session: empty access token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds == nil {
		return ErrNotAuthenticated
	}
	next := *s.creds
	next.Access = access
	if err := s.persist(&next); err != nil {
		return err
	}
	s.creds = &next
	return nil
}

// Clear tears the session down, removing every persisted field. It is safe
// to call on an Anonymous session.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session: clear persisted state: %w", err)
	}
	return nil
}

// Current returns a copy of the credentials, or nil while Anonymous.
func (s *Store) Current() *Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Authenticated reports whether a credential pair is established.
func (s *Store) Authenticated() bool {
	return s.Current() != nil
}

func (s *Store) snapshot() *Credentials {
	if s.creds == nil {
		return nil
	}
	c := *s.creds
	return &c
}

// persist writes all five fields in a single atomic file replace. Callers
// hold s.mu.
func (s *Store) persist(c *Credentials) error {
	p := persisted{
		IsLoggedIn:   "true",
		UserInitial:  c.Initial,
		AccessToken:  c.Access,
		RefreshToken: c.Refresh,
		Username:     c.Username,
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: create state dir: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("session: write state: %w", err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("session: restrict state file: %w", err)
	}
	return nil
}

func userInitial(username string) string {
	name := strings.TrimSpace(username)
	for _, r := range name {
		return string(unicode.ToUpper(r))
	}
	return "?"
}
