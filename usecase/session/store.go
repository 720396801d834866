package session

import (
	"sync"

	"github.com/fastygo/rozklad/domain"
)

// Listener receives the state produced by every successful mutation.
type Listener func(domain.Session)

// Store is the in-memory source of truth for who is logged in. It does not touch
// persistent storage; see Manager for that.
type Store struct {
	mu        sync.RWMutex
	state     domain.Session
	listeners map[int]Listener
	nextID    int
}

func NewStore() *Store {
	return &Store{listeners: make(map[int]Listener)}
}

// Snapshot returns a copy of the current state for synchronous readers.
func (s *Store) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.state)
}

// Subscribe registers fn for state changes and returns a func that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Dispatch applies action and notifies listeners with the resulting state.
func (s *Store) Dispatch(action Action) (domain.Session, error) {
	s.mu.Lock()
	next, err := Reduce(s.state, action)
	if err != nil {
		s.mu.Unlock()
		return clone(s.state), err
	}
	s.state = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(clone(next))
	}
	return clone(next), nil
}

func (s *Store) SetAuth(user *domain.User, token string) error {
	_, err := s.Dispatch(SetAuth(user, token))
	return err
}

// Logout clears the session; calling it while logged out is a no-op apart from notification.
func (s *Store) Logout() {
	_, _ = s.Dispatch(Logout())
}

func (s *Store) MarkHydrated() {
	_, _ = s.Dispatch(Hydrated())
}

func clone(in domain.Session) domain.Session {
	if in.User == nil {
		return in
	}
	u := *in.User
	if in.User.InstitutionID != nil {
		id := *in.User.InstitutionID
		u.InstitutionID = &id
	}
	in.User = &u
	return in
}
