// Package identity implements webchat's account foundation.
//
// It defines the canonical User record, the persistence boundary with its
// uniqueness guarantees (username/email), and the password hashing surface
// used at sign-up and sign-in. Session state lives in
// cmd/internal/auth/session; this package knows nothing about tokens.
package identity
