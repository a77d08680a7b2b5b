package session

import "errors"

var (
	// ErrNoToken is returned when a required token is absent from the request.
	ErrNoToken = errors.New("no token")

	// ErrInvalidToken is returned when an access token fails verification
	// (bad signature, malformed, wrong algorithm, missing subject).
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when an access token is well-formed and
	// correctly signed but past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrSessionNotFound is returned when a refresh token does not match any session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when the matched session is past its expiry.
	ErrSessionExpired = errors.New("session expired")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
