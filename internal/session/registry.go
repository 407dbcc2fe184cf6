package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"TimeTracker/internal/domain"
)

// Session is one logged-in browser.
type Session struct {
	Token     string
	Username  string
	Admin     bool
	CreatedAt time.Time
	Presenter *Presenter
}

// Registry maps opaque tokens to sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

// Create registers a session with a fresh random token.
func (r *Registry) Create(username string, admin bool, now time.Time) *Session {
	s := &Session{
		Token:     uuid.NewString(),
		Username:  username,
		Admin:     admin,
		CreatedAt: now,
		Presenter: NewPresenter(username),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.Token] = s
	return s
}

// Get looks a token up.
func (r *Registry) Get(token string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[token]
	if !ok {
		return nil, domain.ErrUnknownSession
	}
	return s, nil
}

// Delete forgets a token; unknown tokens are ignored.
func (r *Registry) Delete(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
