package authapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"case insensitive scheme", "bearer tok", "tok"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
		{"no token", "Bearer", ""},
		{"padded", "  Bearer   tok  ", "tok"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			if got := bearerToken(r); got != tc.want {
				t.Fatalf("bearerToken=%q want=%q", got, tc.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:54321"
	r.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1")

	// Proxy headers are ignored unless the proxy is trusted.
	if got := clientIP(r, false); got == nil || got.String() != "203.0.113.7" {
		t.Fatalf("untrusted: %v", got)
	}
	if got := clientIP(r, true); got == nil || got.String() != "198.51.100.9" {
		t.Fatalf("trusted: %v", got)
	}

	// X-Real-IP is the fallback when X-Forwarded-For is absent.
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.RemoteAddr = "203.0.113.7:54321"
	r2.Header.Set("X-Real-IP", "192.0.2.4")
	if got := clientIP(r2, true); got == nil || got.String() != "192.0.2.4" {
		t.Fatalf("x-real-ip: %v", got)
	}
}

func TestExtractAccessTokenOrder(t *testing.T) {
	t.Parallel()

	h := &Handler{cfg: Config{AccessCookieName: "accessToken"}}

	// The cookie wins over the bearer header.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "accessToken", Value: "from-cookie"})
	r.Header.Set("Authorization", "Bearer from-header")
	if tok, ok := h.extractAccessToken(r); !ok || tok != "from-cookie" {
		t.Fatalf("tok=%q ok=%v", tok, ok)
	}

	// Bearer header alone.
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer from-header")
	if tok, ok := h.extractAccessToken(r); !ok || tok != "from-header" {
		t.Fatalf("tok=%q ok=%v", tok, ok)
	}

	// Neither.
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := h.extractAccessToken(r); ok {
		t.Fatalf("expected no token")
	}
}

func TestClearSessionCookies(t *testing.T) {
	t.Parallel()

	h := &Handler{cfg: Config{
		AccessCookieName:  "accessToken",
		RefreshCookieName: "refreshToken",
		CookiePath:        "/",
		CookieSecure:      true,
		CookieSameSite:    http.SameSiteNoneMode,
	}}

	w := httptest.NewRecorder()
	h.clearSessionCookies(w)

	cookies := w.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("cookies=%d want=2", len(cookies))
	}
	for _, c := range cookies {
		if c.MaxAge >= 0 {
			t.Fatalf("cookie %s not expired", c.Name)
		}
		if !c.HttpOnly {
			t.Fatalf("cookie %s not HttpOnly", c.Name)
		}
	}
}
