package identity

import (
	"context"
	"time"
)

// User is webchat's canonical security principal.
// The password hash is deliberately kept out of this struct; operations
// that need it return a UserAuth instead.
type User struct {
	ID           string
	Username     string
	UsernameNorm string
	Email        string
	EmailNorm    string

	DisplayName string

	CreatedAt time.Time
}

// UserAuth bundles a User with its credential hash for sign-in checks.
// It must never be serialized toward a client.
type UserAuth struct {
	User         User
	PasswordHash string
}

// CreateUserInput describes a registration request. All five fields are
// required; DisplayName is derived as "FirstName LastName".
type CreateUserInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Now       time.Time
}

// Store is the identity persistence boundary.
//
// Uniqueness contract:
//   - username and email are globally unique (case-insensitive via *_norm).
//   - CreateUser checks username first, then email; the first collision is
//     reported as ConflictError{Field}. The store's own unique constraints
//     are the hard backstop against concurrent duplicate sign-ups, and a
//     write-time violation is mapped to the same ConflictError.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)

	// GetUserAuthByUsername returns the user and password hash for sign-in.
	// Returns a NotFound kind when the username is unknown.
	GetUserAuthByUsername(ctx context.Context, username string) (UserAuth, error)

	// GetUserByID resolves an access-token subject to a live account,
	// excluding the password hash. Returns a NotFound kind when the
	// account no longer exists.
	GetUserByID(ctx context.Context, id string) (User, error)
}
