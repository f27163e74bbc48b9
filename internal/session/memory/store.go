package memory

import (
	"context"
	"sync"

	"github.com/vbonduro/explainui/internal/domain"
)

// Store keeps the session in process memory. It backs tests and servers
// started with SESSION_BACKEND=memory.
type Store struct {
	mu      sync.Mutex
	session *domain.Session
	saves   int
	saveErr error
}

func New() *Store {
	return &Store{}
}

// NewWith returns a store pre-populated with s.
func NewWith(s *domain.Session) *Store {
	return &Store{session: s.Clone()}
}

func (s *Store) Load(_ context.Context) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, nil
	}
	return s.session.Clone(), nil
}

func (s *Store) Save(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.session = sess.Clone()
	s.saves++
	return nil
}

// Saves returns how many successful saves the store has seen.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// FailSaves makes every later Save return err; nil restores normal saving.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}
