package realtime

import "github.com/oklog/ulid/v2"

// newConnID returns a ULID used as websocket connection id.
// ULID is preferable to random hex for tracing and ordering in logs.
func newConnID() string {
	return ulid.Make().String()
}
