// Package token provides the server-side hashing of opaque credentials.
//
// Refresh tokens are never persisted in plaintext: the store keeps a
// 64-char hex digest, HMAC-SHA256 when WEBCHAT_TOKEN_HMAC_KEY is set and
// plain SHA-256 otherwise (dev fallback).
package token
