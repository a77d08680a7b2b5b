package realtime

import (
	"errors"
	"strings"
	"time"
)

// Event types carried over the socket.
const (
	TypeMessageDirect = "message.direct"
	TypePresence      = "presence"
	TypeError         = "error"
)

const maxBodyRunes = 4096

// Envelope is the single wire frame for the realtime channel.
//
// Client to server: {type:"message.direct", to:"<username>", body:"..."}.
// Server to client adds From/At; presence and error frames are
// server-originated only.
type Envelope struct {
	Type string    `json:"type"`
	From string    `json:"from,omitempty"`
	To   string    `json:"to,omitempty"`
	Body string    `json:"body,omitempty"`
	Code string    `json:"code,omitempty"`
	At   time.Time `json:"at,omitempty"`
}

// Validate checks a client-originated envelope.
func (e Envelope) Validate() error {
	switch e.Type {
	case TypeMessageDirect:
		if strings.TrimSpace(e.To) == "" {
			return errors.New("missing recipient")
		}
		if strings.TrimSpace(e.Body) == "" {
			return errors.New("empty body")
		}
		if len([]rune(e.Body)) > maxBodyRunes {
			return errors.New("body too long")
		}
		return nil
	case TypePresence, TypeError:
		return errors.New("server-originated type")
	default:
		return errors.New("unknown type")
	}
}
