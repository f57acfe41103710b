// Package state holds the observable session view-state consumed by the UI:
// a status machine over the session repository's outcomes plus the derived
// current user and user-facing error text.
package state

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
)

type Status string

const (
	StatusUnauthenticated      Status = "unauthenticated"
	StatusAuthenticating       Status = "authenticating"
	StatusAuthenticated        Status = "authenticated"
	StatusAuthenticationFailed Status = "authentication_failed"
)

// Snapshot is the externally observable view-state at one point in time.
type Snapshot struct {
	Status       Status
	User         *models.User
	ErrorMessage string
}

// Observer receives a snapshot after every observable change.
type Observer func(Snapshot)

// SessionRepository is the slice of the session repository the view-state
// consumes. Narrowed to an interface so tests can substitute a fake.
type SessionRepository interface {
	Login(ctx context.Context, email, password string, rememberMe bool) (*models.User, error)
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
	GetCurrentUser(ctx context.Context) (*models.User, error)
	IsLoggedIn(ctx context.Context) bool
}

// Session is the view-state machine. It starts unauthenticated, cycles for
// the life of the process, never rests in StatusAuthenticating, and resolves
// every repository error into StatusAuthenticationFailed plus a message.
// It never writes to storage itself.
type Session struct {
	repo SessionRepository
	log  logging.Logger

	mu     sync.Mutex
	status Status
	user   *models.User
	errMsg string
	nextID int
	subs   map[int]Observer
}

func NewSession(repo SessionRepository, log logging.Logger) *Session {
	return &Session{
		repo:   repo,
		log:    log,
		status: StatusUnauthenticated,
		subs:   make(map[int]Observer),
	}
}

func sameUser(a, b *models.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.UpdatedAt.Equal(b.UpdatedAt) && a.Name == b.Name &&
		a.Email == b.Email && a.Avatar == b.Avatar && a.Phone == b.Phone
}

// set applies a transition and notifies observers exactly once, suppressing
// same-value writes.
func (s *Session) set(status Status, user *models.User, errMsg string) {
	s.mu.Lock()
	if s.status == status && s.errMsg == errMsg && sameUser(s.user, user) {
		s.mu.Unlock()
		return
	}
	s.status = status
	s.user = user
	s.errMsg = errMsg
	snapshot := Snapshot{Status: status, User: user, ErrorMessage: errMsg}
	observers := make([]Observer, 0, len(s.subs))
	for _, o := range s.subs {
		observers = append(observers, o)
	}
	s.mu.Unlock()

	for _, o := range observers {
		o(snapshot)
	}
}

// Subscribe registers an observer and returns its unsubscribe function.
func (s *Session) Subscribe(o Observer) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = o
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) CurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Session) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Initialize is the process-start entry action: probe for an existing
// session via the repository's cache-first identity read.
func (s *Session) Initialize(ctx context.Context) {
	s.set(StatusAuthenticating, nil, "")

	user, err := s.repo.GetCurrentUser(ctx)
	if err != nil {
		s.set(StatusAuthenticationFailed, nil, err.Error())
		return
	}
	if user == nil {
		s.set(StatusUnauthenticated, nil, "")
		return
	}
	s.set(StatusAuthenticated, user, "")
}

func (s *Session) Login(ctx context.Context, email, password string, rememberMe bool) {
	s.set(StatusAuthenticating, nil, "")

	user, err := s.repo.Login(ctx, email, password, rememberMe)
	if err != nil {
		s.set(StatusAuthenticationFailed, nil, err.Error())
		return
	}
	s.set(StatusAuthenticated, user, "")
}

func (s *Session) Register(ctx context.Context, name, email, password string) {
	s.set(StatusAuthenticating, nil, "")

	user, err := s.repo.Register(ctx, name, email, password)
	if err != nil {
		s.set(StatusAuthenticationFailed, nil, err.Error())
		return
	}
	s.set(StatusAuthenticated, user, "")
}

// Logout transitions to unauthenticated unconditionally: the repository
// guarantees the local state is cleared even when the remote call fails.
func (s *Session) Logout(ctx context.Context) {
	if err := s.repo.Logout(ctx); err != nil {
		s.log.Warn(ctx, "logout cleanup error", "error", err)
	}
	s.set(StatusUnauthenticated, nil, "")
}

// RefreshUser re-checks the authenticated identity against the backend.
func (s *Session) RefreshUser(ctx context.Context) {
	s.set(StatusAuthenticating, nil, "")

	user, err := s.repo.GetCurrentUser(ctx)
	if err != nil {
		s.set(StatusAuthenticationFailed, nil, err.Error())
		return
	}
	if user == nil {
		s.set(StatusUnauthenticated, nil, "")
		return
	}
	s.set(StatusAuthenticated, user, "")
}

// ValidateSession reports whether a usable session exists, demoting the
// view-state when an authenticated session turns out to be gone.
func (s *Session) ValidateSession(ctx context.Context) bool {
	ok := s.repo.IsLoggedIn(ctx)
	if !ok && s.Status() == StatusAuthenticated {
		s.set(StatusUnauthenticated, nil, "")
	}
	return ok
}
