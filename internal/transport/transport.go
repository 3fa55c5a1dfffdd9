// Package transport carries the realtime session protocol between this
// client and a room server. Commands are acked; authoritative room events
// arrive on a channel the reconciler consumes.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event is one inbound server message. Name matches the room event
// vocabulary; Data is the event-specific payload.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Transport is a connected session link. Emit blocks until the server
// acknowledges the command or the context ends; a server rejection
// surfaces as *AckError. Events delivers inbound room events until the
// link drops, then closes.
type Transport interface {
	Emit(ctx context.Context, event string, payload any) error
	Events() <-chan Event
	BindRoom(roomID string) error
	Close() error
}

// AckError is a command the server received and refused. Reason is the
// server's machine-readable rejection code.
type AckError struct {
	Event  string
	Reason string
}

func (e *AckError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Event, e.Reason)
}
