package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims are the verified claims of an access token.
type AccessClaims struct {
	// UserID is the "sub" claim: the account the token was issued for.
	UserID string
	// ExpiresAt is the "exp" claim.
	ExpiresAt time.Time
}

// AccessTokenManager issues and verifies short-lived access tokens.
type AccessTokenManager interface {
	// Issue creates a signed access token for userID valid from now.
	Issue(userID string, now time.Time) (token string, exp time.Time, err error)

	// Verify checks the token signature and validity window at the given
	// instant. Expired-but-otherwise-valid tokens return ErrTokenExpired;
	// everything else that fails returns ErrInvalidToken.
	Verify(token string, now time.Time) (AccessClaims, error)
}

// HS256Manager implements AccessTokenManager with symmetric JWTs.
type HS256Manager struct {
	cfg Config
}

// NewHS256Manager validates the signing configuration and returns a manager.
func NewHS256Manager(cfg Config) (*HS256Manager, error) {
	if len(cfg.AccessTokenSecret) < minAccessSecretBytes {
		return nil, ErrConfig
	}
	if cfg.Issuer == "" || cfg.AccessTokenTTL <= 0 {
		return nil, ErrConfig
	}
	return &HS256Manager{cfg: cfg}, nil
}

// Issue creates a signed HS256 token with iss/sub/iat/exp claims.
func (m *HS256Manager) Issue(userID string, now time.Time) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, ErrInvalidToken
	}

	exp := now.Add(m.cfg.AccessTokenTTL)

	claims := jwt.RegisteredClaims{
		Issuer:    m.cfg.Issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.cfg.AccessTokenSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses and validates a token at the given instant.
func (m *HS256Manager) Verify(tokenStr string, now time.Time) (AccessClaims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	// Sanity bounds against pathological inputs.
	if tokenStr == "" || len(tokenStr) > 8192 {
		return AccessClaims{}, ErrInvalidToken
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(
		tokenStr,
		&claims,
		func(t *jwt.Token) (any, error) { return m.cfg.AccessTokenSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.cfg.ClockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		// Expiry is the only failure distinguished for callers; it maps to a
		// different authorization outcome than a forged or malformed token.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return AccessClaims{}, ErrTokenExpired
		}
		return AccessClaims{}, ErrInvalidToken
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return AccessClaims{}, ErrInvalidToken
	}

	out := AccessClaims{UserID: claims.Subject}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
