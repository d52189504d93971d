package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"venezia-storefront/internal/logger"

	"go.uber.org/zap"
)

var ErrNotAuthenticated = errors.New("no authenticated session")

const sessionFile = "session.json"

// state is the durable shape persisted to disk. It mirrors what the web
// client kept in localStorage: the access token, the cached user and the
// last-activity timestamp for the inactivity timeout.
type state struct {
	AccessToken  string    `json:"access_token"`
	User         *User     `json:"user"`
	LastActivity time.Time `json:"last_activity"`
}

// Store is the single owner of the authenticated identity and cached
// profile. Identity changes are pushed to subscribers so dependent caches
// (the cart) can resynchronize.
type Store struct {
	mu         sync.Mutex
	path       string
	state      state
	inactivity time.Duration
	subs       []func(*User)

	now func() time.Time
}

// NewStore loads any persisted session from dir. Sessions whose token has
// expired, or that have been idle past the inactivity timeout, are dropped
// on load.
func NewStore(dir string, inactivity time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	s := &Store{
		path:       filepath.Join(dir, sessionFile),
		inactivity: inactivity,
		now:        time.Now,
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.state = state{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		logger.L().Warn("discarding unreadable session file", zap.Error(err))
		return s.removeFile()
	}

	if st.AccessToken == "" || st.User == nil {
		return nil
	}

	now := s.now()
	if tokenExpired(st.AccessToken, now) {
		logger.L().Info("stored session token expired, discarding")
		return s.removeFile()
	}
	if s.inactivity > 0 && !st.LastActivity.IsZero() && now.Sub(st.LastActivity) > s.inactivity {
		logger.L().Info("session expired by inactivity, discarding",
			zap.Time("last_activity", st.LastActivity))
		return s.removeFile()
	}

	s.state = st
	return nil
}

// Current returns a copy of the authenticated user, or nil.
func (s *Store) Current() *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.User == nil {
		return nil
	}
	u := *s.state.User
	return &u
}

// Token implements the api.TokenSource contract.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AccessToken
}

// SetSession stores a fresh login. Rejects tokens that are already expired.
func (s *Store) SetSession(token string, u *User) error {
	if token == "" || u == nil {
		return errors.New("session: token and user are required")
	}
	if tokenExpired(token, s.now()) {
		return errors.New("session: access token is already expired")
	}

	s.mu.Lock()
	s.state = state{
		AccessToken:  token,
		User:         u,
		LastActivity: s.now(),
	}
	err := s.persistLocked()
	s.mu.Unlock()

	if err != nil {
		return err
	}

	s.notify(u)
	return nil
}

// UpdateUser replaces the cached user/profile without touching the token.
func (s *Store) UpdateUser(u *User) error {
	if u == nil {
		return errors.New("session: user is required")
	}

	s.mu.Lock()
	if s.state.AccessToken == "" {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	s.state.User = u
	err := s.persistLocked()
	s.mu.Unlock()

	return err
}

// Clear drops the session. Used on logout and on inactivity expiry.
func (s *Store) Clear() error {
	s.mu.Lock()
	had := s.state.User != nil
	s.state = state{}
	err := s.removeFile()
	s.mu.Unlock()

	if had {
		s.notify(nil)
	}
	return err
}

// Touch records user activity for the inactivity timeout.
func (s *Store) Touch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.AccessToken == "" {
		return nil
	}
	s.state.LastActivity = s.now()
	return s.persistLocked()
}

// IdleExpired reports whether the session has been idle past the timeout.
func (s *Store) IdleExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.AccessToken == "" || s.inactivity <= 0 {
		return false
	}
	return s.now().Sub(s.state.LastActivity) > s.inactivity
}

// Subscribe registers a listener invoked whenever the authenticated identity
// changes. Listeners receive nil when the session is cleared.
func (s *Store) Subscribe(fn func(*User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) notify(u *User) {
	s.mu.Lock()
	subs := make([]func(*User), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(u)
	}
}

func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *Store) removeFile() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
