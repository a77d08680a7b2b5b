package session

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// MemoryStore is an in-memory Store for dev mode and unit tests.
type MemoryStore struct {
	mu     sync.Mutex
	byHash map[string]Record
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byHash: make(map[string]Record)}
}

// Create inserts a new session record keyed by refresh hash.
func (s *MemoryStore) Create(ctx context.Context, now time.Time, userID string, refreshHash string, expiresAt time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := ulid.Make().String()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byHash[refreshHash] = Record{
		ID:               id,
		UserID:           userID,
		RefreshTokenHash: refreshHash,
		CreatedAt:        now,
		ExpiresAt:        expiresAt,
	}
	return id, nil
}

// GetByRefreshHash loads a session record by refresh-token hash.
func (s *MemoryStore) GetByRefreshHash(ctx context.Context, refreshHash string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byHash[refreshHash]
	if !ok {
		return Record{}, ErrSessionNotFound
	}
	return rec, nil
}

// DeleteByRefreshHash removes the session matching the hash, if any.
func (s *MemoryStore) DeleteByRefreshHash(ctx context.Context, refreshHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byHash, refreshHash)
	return nil
}

// DeleteExpired removes sessions whose expiry is at or before now.
func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for hash, rec := range s.byHash {
		if !rec.ExpiresAt.After(now) {
			delete(s.byHash, hash)
			n++
		}
	}
	return n, nil
}
