// Package session implements webchat's session layer.
//
// A sign-in creates one session row bound to an opaque refresh token.
// Access tokens are short-lived JWTs (HS256); refresh tokens are opaque
// random strings stored only as hashes in Postgres (HMAC-SHA256 when
// WEBCHAT_TOKEN_HMAC_KEY is set, SHA-256 otherwise). A refresh presents
// the opaque token and receives a fresh access token plus a rotated
// refresh token; the presented token's row is deleted in the exchange.
// Sign-out deletes the session row.
//
// Transport (HTTP cookies, headers) is intentionally out of scope here.
package session
