package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for dev mode and unit tests.
// It enforces the same uniqueness contract as the Postgres store,
// serialized by a single mutex.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]User
	byUsername map[string]string // username_norm -> id
	byEmail    map[string]string // email_norm -> id
	hashes     map[string]string // id -> password hash
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		hashes:     make(map[string]string),
	}
}

// CreateUser registers a new user, reporting the first colliding field.
func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)

	if username == "" || in.Password == "" || email == "" || firstName == "" || lastName == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "username, password, email, firstName and lastName are required"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	pwHash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: err.Error()}
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	u := User{
		ID:           id,
		Username:     username,
		UsernameNorm: NormalizeUsername(username),
		Email:        email,
		EmailNorm:    NormalizeEmail(email),
		DisplayName:  firstName + " " + lastName,
		CreatedAt:    now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Username first, then email: the first collision wins.
	if _, ok := s.byUsername[u.UsernameNorm]; ok {
		return User{}, ConflictError{Op: op, Field: "username"}
	}
	if _, ok := s.byEmail[u.EmailNorm]; ok {
		return User{}, ConflictError{Op: op, Field: "email"}
	}

	s.byID[u.ID] = u
	s.byUsername[u.UsernameNorm] = u.ID
	s.byEmail[u.EmailNorm] = u.ID
	s.hashes[u.ID] = pwHash

	return u, nil
}

// GetUserAuthByUsername returns the user plus stored hash for sign-in.
func (s *MemoryStore) GetUserAuthByUsername(ctx context.Context, username string) (UserAuth, error) {
	const op = "identity.GetUserAuthByUsername"

	if err := ctx.Err(); err != nil {
		return UserAuth{}, err
	}

	norm := NormalizeUsername(username)

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[norm]
	if !ok {
		return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
	}
	return UserAuth{User: s.byID[id], PasswordHash: s.hashes[id]}, nil
}

// GetUserByID resolves an account by ID, excluding the password hash.
func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return u, nil
}

// DeleteUser removes an account. Used in tests to model an identity deleted
// after token issuance.
func (s *MemoryStore) DeleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	delete(s.byUsername, u.UsernameNorm)
	delete(s.byEmail, u.EmailNorm)
	delete(s.hashes, id)
}
