package memory

import (
	"context"
	"errors"
	"sync"

	"ledger/internal/core"
	"ledger/internal/store"
)

// ErrSaveRejected is returned by Save while the store is set to fail.
var ErrSaveRejected = errors.New("memory store: save rejected")

type Store struct {
	mu       sync.Mutex
	account  *core.Account
	saves    int
	failSave bool
}

// New returns an empty store; Load reports store.ErrAccountNotFound until
// the first Save.
func New() *Store {
	return &Store{}
}

// NewWithAccount returns a store seeded with a.
func NewWithAccount(a core.Account) *Store {
	return &Store{account: &a}
}

// Load implements store.AccountLoader.
func (s *Store) Load(_ context.Context) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return core.Account{}, store.ErrAccountNotFound
	}
	return *s.account, nil
}

// Save implements store.AccountSaver.
func (s *Store) Save(_ context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return ErrSaveRejected
	}
	s.account = &a
	s.saves++
	return nil
}

// FailSaves makes subsequent saves fail (or succeed again with false).
func (s *Store) FailSaves(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = fail
}

// Saves returns the number of successful saves.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
