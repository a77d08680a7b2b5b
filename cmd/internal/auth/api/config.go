package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	AccessCookieName  string
	RefreshCookieName string
	CookiePath        string
	CookieDomain      string
	CookieSecure      bool
	CookieSameSite    http.SameSite

	TrustProxy   bool
	MaxBodyBytes int64

	SigninIPMax    int
	SigninIPWindow time.Duration
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
//
// The cross-site cookie posture (Secure + SameSite=None) matches a browser
// client served from a different origin than the API.
func LoadConfigFromEnv() Config {
	cfg := Config{
		AccessCookieName:  "accessToken",
		RefreshCookieName: "refreshToken",
		CookiePath:        "/",
		CookieDomain:      strings.TrimSpace(os.Getenv("WEBCHAT_AUTH_COOKIE_DOMAIN")),
		CookieSecure:      envBool("WEBCHAT_AUTH_COOKIE_SECURE", true),
		CookieSameSite:    envSameSite("WEBCHAT_AUTH_COOKIE_SAMESITE", http.SameSiteNoneMode),
		TrustProxy:        envBool("WEBCHAT_AUTH_TRUST_PROXY", false),
		MaxBodyBytes:      envInt64("WEBCHAT_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
		SigninIPMax:       envInt("WEBCHAT_AUTH_SIGNIN_IP_MAX", 20),
		SigninIPWindow:    envDuration("WEBCHAT_AUTH_SIGNIN_IP_WINDOW", 5*time.Minute),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.SigninIPMax <= 0 {
		cfg.SigninIPMax = 20
	}

	// SameSite=None without Secure is rejected by browsers.
	if cfg.CookieSameSite == http.SameSiteNoneMode && !cfg.CookieSecure {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	return cfg
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envSameSite(key string, def http.SameSite) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return def
	}
}
