package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds configuration for the NATS link, used for self-hosted
// rooms where the server speaks NATS instead of websockets.
type NATSConfig struct {
	URL               string
	CommandPrefix     string // command subjects, e.g. "party.cmd.worldcup.commit"
	RoomSubjectPrefix string // room event subjects, e.g. "party.room.<id>"
	RequestTimeout    time.Duration
	MaxReconnects     int
	ReconnectWait     time.Duration
}

// DefaultNATSConfig returns the default NATS configuration.
func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:               url,
		CommandPrefix:     "party.cmd",
		RoomSubjectPrefix: "party.room",
		RequestTimeout:    5 * time.Second,
		MaxReconnects:     -1,
		ReconnectWait:     2 * time.Second,
	}
}

// commandReply is the server's response to a command request.
type commandReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NATSTransport is a request/reply session link. Commands go out as
// requests on per-command subjects; room events arrive on the bound
// room's subject.
type NATSTransport struct {
	nc     *nats.Conn
	config NATSConfig
	events chan Event

	mu     sync.Mutex
	sub    *nats.Subscription
	closed bool
}

// ConnectNATS establishes the NATS link with reconnect handling.
func ConnectNATS(config NATSConfig) (*NATSTransport, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSTransport{
		nc:     nc,
		config: config,
		events: make(chan Event, 100),
	}, nil
}

// Emit sends a command as a request and interprets the reply as the ack.
func (t *NATSTransport) Emit(ctx context.Context, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.config.RequestTimeout)
	defer cancel()

	msg, err := t.nc.RequestWithContext(ctx, t.commandSubject(event), data)
	if err != nil {
		return fmt.Errorf("request %s: %w", event, err)
	}

	var reply commandReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return fmt.Errorf("parse %s reply: %w", event, err)
	}
	if !reply.OK {
		return &AckError{Event: event, Reason: reply.Error}
	}
	return nil
}

// Events returns the inbound event channel. It closes on Close.
func (t *NATSTransport) Events() <-chan Event {
	return t.events
}

// BindRoom subscribes to the room's event subject, replacing any previous
// room subscription.
func (t *NATSTransport) BindRoom(roomID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sub != nil {
		t.sub.Unsubscribe()
		t.sub = nil
	}

	subject := t.config.RoomSubjectPrefix + "." + roomID
	sub, err := t.nc.Subscribe(subject, func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping unparseable room event")
			return
		}
		select {
		case t.events <- ev:
		default:
			log.Warn().Str("event", ev.Name).Msg("event buffer full, dropping event")
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}

	t.sub = sub
	log.Info().Str("subject", subject).Msg("bound to room subject")
	return nil
}

// Close drains the room subscription and closes the connection.
func (t *NATSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	if t.sub != nil {
		t.sub.Unsubscribe()
		t.sub = nil
	}
	t.nc.Close()
	close(t.events)
	return nil
}

// commandSubject maps a wire event name onto a NATS subject, folding the
// name's colon separators into subject tokens.
func (t *NATSTransport) commandSubject(event string) string {
	return t.config.CommandPrefix + "." + strings.ReplaceAll(event, ":", ".")
}
