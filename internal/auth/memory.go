package auth

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps accounts in process; they are lost on restart.
type MemoryStore struct {
	mu sync.Mutex

	nextID     int64
	byID       map[int64]Account
	byUsername map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:     100000, // start from a readable non-trivial range
		byID:       make(map[int64]Account),
		byUsername: make(map[string]int64),
	}
}

func (m *MemoryStore) CreateAccount(_ context.Context, acct Account) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byUsername[acct.Username]; exists {
		return Account{}, ErrUsernameTaken
	}
	m.nextID++
	acct.ID = m.nextID
	m.byID[acct.ID] = acct
	m.byUsername[acct.Username] = acct.ID
	return acct, nil
}

func (m *MemoryStore) AccountByUsername(_ context.Context, username string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byUsername[username]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return m.byID[id], nil
}

func (m *MemoryStore) TouchLogin(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	acct.LastLoginAt = at
	m.byID[id] = acct
	return nil
}

func (m *MemoryStore) Close() error { return nil }
