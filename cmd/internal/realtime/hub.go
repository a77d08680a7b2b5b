package realtime

import (
	"log/slog"
	"sync"
	"time"
)

// Hub tracks connected clients per user and relays frames between them.
//
// A user may hold several concurrent connections (multi-device); direct
// messages fan out to every connection of the recipient and echo back to
// every other connection of the sender.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	byUser  map[string]map[string]*Client // userID -> connID -> client
	byName  map[string]string             // username_norm -> userID
	dropped int64
}

// NewHub constructs a Hub instance.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:    log,
		byUser: make(map[string]map[string]*Client),
		byName: make(map[string]string),
	}
}

// Register adds a client and announces presence when this is the user's
// first connection.
func (h *Hub) Register(c *Client, now time.Time) {
	if h == nil || c == nil {
		return
	}

	h.mu.Lock()
	conns, ok := h.byUser[c.UserID]
	if !ok {
		conns = make(map[string]*Client)
		h.byUser[c.UserID] = conns
	}
	first := len(conns) == 0
	conns[c.ConnID] = c
	h.byName[c.Username] = c.UserID
	h.mu.Unlock()

	if first {
		h.broadcast(Envelope{Type: TypePresence, From: c.Username, Body: "online", At: now}, c.UserID)
	}
}

// Unregister removes a client and announces absence when the user's last
// connection is gone.
func (h *Hub) Unregister(c *Client, now time.Time) {
	if h == nil || c == nil {
		return
	}

	h.mu.Lock()
	conns, ok := h.byUser[c.UserID]
	if ok {
		delete(conns, c.ConnID)
		if len(conns) == 0 {
			delete(h.byUser, c.UserID)
			delete(h.byName, c.Username)
		}
	}
	last := ok && len(conns) == 0
	h.mu.Unlock()

	c.Close()

	if last {
		h.broadcast(Envelope{Type: TypePresence, From: c.Username, Body: "offline", At: now}, c.UserID)
	}
}

// SendDirect relays a message to every connection of the named recipient
// and echoes it to the sender's other connections. It reports whether the
// recipient is connected.
func (h *Hub) SendDirect(from *Client, toUsername string, body string, now time.Time) bool {
	if h == nil || from == nil {
		return false
	}

	env := Envelope{
		Type: TypeMessageDirect,
		From: from.Username,
		To:   toUsername,
		Body: body,
		At:   now,
	}

	h.mu.RLock()
	toID, online := h.byName[toUsername]
	var targets []*Client
	if online {
		for _, c := range h.byUser[toID] {
			targets = append(targets, c)
		}
	}
	for _, c := range h.byUser[from.UserID] {
		if c.ConnID != from.ConnID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.trySend(env) {
			h.noteDrop(c)
		}
	}
	return online
}

// Online reports whether any connection exists for the user.
func (h *Hub) Online(userID string) bool {
	if h == nil {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID]) > 0
}

// broadcast fans an envelope out to every connected client except the
// originating user.
func (h *Hub) broadcast(env Envelope, exceptUserID string) {
	h.mu.RLock()
	var targets []*Client
	for userID, conns := range h.byUser {
		if userID == exceptUserID {
			continue
		}
		for _, c := range conns {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.trySend(env) {
			h.noteDrop(c)
		}
	}
}

func (h *Hub) noteDrop(c *Client) {
	h.mu.Lock()
	h.dropped++
	n := h.dropped
	h.mu.Unlock()

	h.log.Info("realtime.send.drop", "user_id", c.UserID, "conn_id", c.ConnID, "total_dropped", n)
}
