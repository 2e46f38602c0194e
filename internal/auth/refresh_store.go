package auth

import (
	"context"
	"slices"
	"sync"
	"time"
)

// RefreshStore keeps the refresh tokens that are currently allowed to mint access tokens.
type RefreshStore interface {
	Add(ctx context.Context, token, userID string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
	Remove(ctx context.Context, token string) error
	RemoveUser(ctx context.Context, userID string) error
}

type refreshEntry struct {
	token     string
	userID    string
	expiresAt time.Time
}

// MemoryRefreshStore is a process-local refresh token list.
type MemoryRefreshStore struct {
	mu      sync.Mutex
	entries []refreshEntry
	now     func() time.Time
}

func NewMemoryRefreshStore() *MemoryRefreshStore {
	return &MemoryRefreshStore{now: time.Now}
}

func (s *MemoryRefreshStore) Add(_ context.Context, token, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	// Expired entries would fail verification anyway; drop them while we hold the lock.
	s.entries = slices.DeleteFunc(s.entries, func(e refreshEntry) bool {
		return !e.expiresAt.After(now)
	})
	s.entries = append(s.entries, refreshEntry{token: token, userID: userID, expiresAt: now.Add(ttl)})
	return nil
}

func (s *MemoryRefreshStore) Contains(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.ContainsFunc(s.entries, func(e refreshEntry) bool {
		return e.token == token
	}), nil
}

func (s *MemoryRefreshStore) Remove(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = slices.DeleteFunc(s.entries, func(e refreshEntry) bool {
		return e.token == token
	})
	return nil
}

func (s *MemoryRefreshStore) RemoveUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = slices.DeleteFunc(s.entries, func(e refreshEntry) bool {
		return e.userID == userID
	})
	return nil
}

func (s *MemoryRefreshStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
