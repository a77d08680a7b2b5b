// Package main provides a CI-friendly smoke test for the webchat auth and
// realtime surface.
//
// It validates:
//   - signup + signin issue the access/refresh cookie pair
//   - /api/me behind the gate
//   - cookie-authenticated WebSocket handshake
//   - direct message fanout between two users
//   - /api/auth/refresh mints a fresh access cookie and rotates the refresh cookie
//   - signout revokes the session
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
	maxReadBytes      = 1 << 20 // 1MiB
	smokePassword     = "smoke-pass-123"
)

type wsFrame struct {
	Type string    `json:"type"`
	From string    `json:"from,omitempty"`
	To   string    `json:"to,omitempty"`
	Body string    `json:"body,omitempty"`
	Code string    `json:"code,omitempty"`
	At   time.Time `json:"at,omitempty"`
}

type smokeUser struct {
	name     string
	username string

	access  *http.Cookie
	refresh *http.Cookie

	conn  *websocket.Conn
	inbox chan wsFrame
	errCh chan error
}

func main() {
	var (
		baseURL = flag.String("url", "http://127.0.0.1:8080", "Server base URL")
		origin  = flag.String("origin", "http://localhost", "Origin header for the WS handshake")
		text    = flag.String("text", "hello webchat", "Message body to send")
		timeout = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}

	root := context.Background()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())

	a := mustSignUpAndIn(root, "A", *baseURL, "smokea"+suffix, *timeout)
	b := mustSignUpAndIn(root, "B", *baseURL, "smokeb"+suffix, *timeout)

	mustMe(root, *baseURL, a, *timeout)
	mustMe(root, *baseURL, b, *timeout)

	mustConnectWS(root, a, *baseURL, *origin, *timeout)
	defer closeWS(a.conn)
	mustConnectWS(root, b, *baseURL, *origin, *timeout)
	defer closeWS(b.conn)

	if *verbose {
		fmt.Printf("connected: A=%s B=%s origin=%q\n", a.username, b.username, *origin)
	}

	// A was online before B connected, so A sees B's presence.
	mustReadPresence(root, a, b.username, "online", *timeout)

	mustSendDirect(root, a, b.username, *text, *timeout)
	mustReadDirect(root, b, a.username, *text, *timeout)

	mustRefresh(root, *baseURL, a, *timeout)
	mustMe(root, *baseURL, a, *timeout)

	mustSignOut(root, *baseURL, a, *timeout)
	mustRefreshRejected(root, *baseURL, a, *timeout)

	fmt.Printf("OK: A=%s B=%s\n", a.username, b.username)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func mustSignUpAndIn(parent context.Context, name, baseURL, username string, stepTimeout time.Duration) *smokeUser {
	u := &smokeUser{name: name, username: username}

	signup := map[string]string{
		"username":  username,
		"password":  smokePassword,
		"email":     username + "@smoke.invalid",
		"firstName": "Smoke",
		"lastName":  name,
	}
	resp := mustPostJSON(parent, baseURL+"/api/auth/signup", signup, nil, stepTimeout)
	drainAndClose(resp)
	if resp.StatusCode != http.StatusCreated {
		fatalf("signup %s: status=%d", name, resp.StatusCode)
	}

	signin := map[string]string{"username": username, "password": smokePassword}
	resp = mustPostJSON(parent, baseURL+"/api/auth/signin", signin, nil, stepTimeout)
	drainAndClose(resp)
	if resp.StatusCode != http.StatusOK {
		fatalf("signin %s: status=%d", name, resp.StatusCode)
	}

	for _, c := range resp.Cookies() {
		switch c.Name {
		case accessCookieName:
			u.access = c
		case refreshCookieName:
			u.refresh = c
		}
	}
	if u.access == nil || u.access.Value == "" {
		fatalf("signin %s: missing %s cookie", name, accessCookieName)
	}
	if u.refresh == nil || u.refresh.Value == "" {
		fatalf("signin %s: missing %s cookie", name, refreshCookieName)
	}

	return u
}

func mustMe(parent context.Context, baseURL string, u *smokeUser, stepTimeout time.Duration) {
	resp := mustGet(parent, baseURL+"/api/me", []*http.Cookie{u.access}, stepTimeout)
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxReadBytes))
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fatalf("me %s: status=%d body=%s", u.name, resp.StatusCode, body)
	}
	if !bytes.Contains(body, []byte(u.username)) {
		fatalf("me %s: response missing username: %s", u.name, body)
	}
}

func mustConnectWS(parent context.Context, u *smokeUser, baseURL, origin string, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	h := http.Header{}
	h.Set("Cookie", fmt.Sprintf("%s=%s", accessCookieName, u.access.Value))
	if strings.TrimSpace(origin) != "" {
		h.Set("Origin", origin)
	}

	conn, resp, err := websocket.Dial(ctx, wsURL(baseURL), &websocket.DialOptions{HTTPHeader: h})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		fatalf("connect %s: %v", u.name, err)
	}

	conn.SetReadLimit(maxReadBytes)

	u.conn = conn
	u.inbox = make(chan wsFrame, 512)
	u.errCh = make(chan error, 1)
	u.startReadLoop()
}

func wsURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://") + "/ws"
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://") + "/ws"
	default:
		return "ws://" + baseURL + "/ws"
	}
}

func (u *smokeUser) startReadLoop() {
	go func() {
		defer close(u.inbox)

		for {
			mt, data, err := u.conn.Read(context.Background())
			if err != nil {
				select {
				case u.errCh <- err:
				default:
				}
				return
			}

			if mt != websocket.MessageText {
				select {
				case u.errCh <- fmt.Errorf("unsupported message type: %v", mt):
				default:
				}
				return
			}

			var f wsFrame
			if err := json.Unmarshal(data, &f); err != nil {
				select {
				case u.errCh <- fmt.Errorf("bad json: %w", err):
				default:
				}
				return
			}

			select {
			case u.inbox <- f:
			default:
				select {
				case u.errCh <- errors.New("inbox overflow: consumer too slow"):
				default:
				}
				return
			}
		}
	}()
}

func mustSendDirect(parent context.Context, u *smokeUser, to, body string, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	b, err := json.Marshal(wsFrame{Type: "message.direct", To: to, Body: body})
	if err != nil {
		fatalf("marshal frame: %v", err)
	}
	if err := u.conn.Write(ctx, websocket.MessageText, b); err != nil {
		fatalf("write %s: %v", u.name, err)
	}
}

func mustReadDirect(parent context.Context, u *smokeUser, wantFrom, wantBody string, stepTimeout time.Duration) {
	f := u.mustReadType(parent, "message.direct", stepTimeout)
	if f.From != wantFrom {
		fatalf("direct from mismatch (%s): got=%q want=%q", u.name, f.From, wantFrom)
	}
	if f.Body != wantBody {
		fatalf("direct body mismatch (%s): got=%q want=%q", u.name, f.Body, wantBody)
	}
	if f.At.IsZero() {
		fatalf("direct missing timestamp (%s)", u.name)
	}
}

func mustReadPresence(parent context.Context, u *smokeUser, wantFrom, wantBody string, stepTimeout time.Duration) {
	f := u.mustReadType(parent, "presence", stepTimeout)
	if f.From != wantFrom || f.Body != wantBody {
		fatalf("presence mismatch (%s): got from=%q body=%q want from=%q body=%q",
			u.name, f.From, f.Body, wantFrom, wantBody)
	}
}

func (u *smokeUser) mustReadType(parent context.Context, wantType string, stepTimeout time.Duration) wsFrame {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			fatalf("timeout waiting for %q (%s): %v", wantType, u.name, ctx.Err())
		case err := <-u.errCh:
			fatalf("connection error while waiting for %q (%s): %v", wantType, u.name, err)
		case f, ok := <-u.inbox:
			if !ok {
				fatalf("connection closed while waiting for %q (%s)", wantType, u.name)
			}
			if f.Type == "error" {
				fatalf("server error (%s): code=%q body=%q", u.name, f.Code, f.Body)
			}
			if f.Type == wantType {
				return f
			}
			// Presence churn from other smoke runs is possible; skip it.
			if f.Type == "presence" && wantType != "presence" {
				continue
			}
			fatalf("unexpected frame type (%s): got=%q want=%q", u.name, f.Type, wantType)
		}
	}
}

func mustRefresh(parent context.Context, baseURL string, u *smokeUser, stepTimeout time.Duration) {
	old := u.refresh

	resp := mustPostJSON(parent, baseURL+"/api/auth/refresh", nil, []*http.Cookie{old}, stepTimeout)
	drainAndClose(resp)
	if resp.StatusCode != http.StatusOK {
		fatalf("refresh %s: status=%d", u.name, resp.StatusCode)
	}

	var gotAccess, gotRefresh bool
	for _, c := range resp.Cookies() {
		switch {
		case c.Name == accessCookieName && c.Value != "":
			u.access = c
			gotAccess = true
		case c.Name == refreshCookieName && c.Value != "":
			u.refresh = c
			gotRefresh = true
		}
	}
	if !gotAccess {
		fatalf("refresh %s: no new %s cookie", u.name, accessCookieName)
	}
	if !gotRefresh || u.refresh.Value == old.Value {
		fatalf("refresh %s: refresh cookie not rotated", u.name)
	}

	// The pre-rotation token must be dead.
	resp = mustPostJSON(parent, baseURL+"/api/auth/refresh", nil, []*http.Cookie{old}, stepTimeout)
	drainAndClose(resp)
	if resp.StatusCode != http.StatusForbidden {
		fatalf("refresh-replay %s: status=%d want=403", u.name, resp.StatusCode)
	}
}

func mustRefreshRejected(parent context.Context, baseURL string, u *smokeUser, stepTimeout time.Duration) {
	resp := mustPostJSON(parent, baseURL+"/api/auth/refresh", nil, []*http.Cookie{u.refresh}, stepTimeout)
	drainAndClose(resp)
	if resp.StatusCode != http.StatusForbidden {
		fatalf("refresh-after-signout %s: status=%d want=403", u.name, resp.StatusCode)
	}
}

func mustSignOut(parent context.Context, baseURL string, u *smokeUser, stepTimeout time.Duration) {
	resp := mustPostJSON(parent, baseURL+"/api/auth/signout", nil, []*http.Cookie{u.refresh}, stepTimeout)
	drainAndClose(resp)
	if resp.StatusCode != http.StatusNoContent {
		fatalf("signout %s: status=%d", u.name, resp.StatusCode)
	}
}

func mustPostJSON(parent context.Context, rawURL string, body any, cookies []*http.Cookie, stepTimeout time.Duration) *http.Response {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			fatalf("marshal request: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, rd)
	if err != nil {
		fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatalf("POST %s: %v", rawURL, err)
	}
	return resp
}

func mustGet(parent context.Context, rawURL string, cookies []*http.Cookie, stepTimeout time.Duration) *http.Response {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		fatalf("build request: %v", err)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatalf("GET %s: %v", rawURL, err)
	}
	return resp
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxReadBytes))
	_ = resp.Body.Close()
}

func closeWS(conn *websocket.Conn) {
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
