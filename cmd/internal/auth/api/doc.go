// Package authapi exposes the HTTP surface of the auth subsystem:
// sign-up, sign-in, sign-out, refresh, the authenticated /api/me endpoint,
// and the request gate used by every protected route.
//
// Token transport is cookie-first (HttpOnly accessToken / refreshToken
// cookies) with an Authorization: Bearer fallback for the access token.
package authapi
