package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSConfig holds configuration for the websocket link.
type WSConfig struct {
	URL               string
	Token             string
	WriteTimeout      time.Duration
	ReadTimeout       time.Duration
	PingInterval      time.Duration
	AckTimeout        time.Duration
	HeartbeatInterval time.Duration
	MaxMessageSize    int64
}

// DefaultWSConfig returns the default websocket configuration.
func DefaultWSConfig(url, token string) WSConfig {
	return WSConfig{
		URL:               url,
		Token:             token,
		WriteTimeout:      10 * time.Second,
		ReadTimeout:       60 * time.Second,
		PingInterval:      30 * time.Second,
		AckTimeout:        5 * time.Second,
		HeartbeatInterval: 3 * time.Second,
		MaxMessageSize:    64 * 1024,
	}
}

// frame is the wire envelope in both directions. Outbound frames carry
// ID+Event+Data; the server echoes ID in Ack, with Error set on refusal.
type frame struct {
	ID    string          `json:"id,omitempty"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   string          `json:"ack,omitempty"`
	Error string          `json:"error,omitempty"`
}

// WSTransport is a websocket session link. One goroutine owns reads, one
// owns writes; Emit correlates acks by frame id.
type WSTransport struct {
	conn   *websocket.Conn
	config WSConfig

	events chan Event
	send   chan []byte
	done   chan struct{}

	mu     sync.Mutex
	acks   map[string]chan string
	roomID string
	closed bool
}

// DialWS connects and authenticates the websocket link, then starts the
// read and write pumps.
func DialWS(ctx context.Context, config WSConfig) (*WSTransport, error) {
	header := http.Header{}
	if config.Token != "" {
		header.Set("Authorization", "Bearer "+config.Token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.URL, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", config.URL, err)
	}

	t := &WSTransport{
		conn:   conn,
		config: config,
		events: make(chan Event, 100),
		send:   make(chan []byte, 64),
		done:   make(chan struct{}),
		acks:   make(map[string]chan string),
	}

	go t.readPump()
	go t.writePump()

	log.Info().Str("url", config.URL).Msg("websocket connected")
	return t, nil
}

// Emit sends a command frame and waits for the server's ack.
func (t *WSTransport) Emit(ctx context.Context, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}

	id := uuid.New().String()
	message, err := json.Marshal(frame{ID: id, Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", event, err)
	}

	ackCh := make(chan string, 1)
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("emit %s: transport closed", event)
	}
	t.acks[id] = ackCh
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.acks, id)
		t.mu.Unlock()
	}()

	select {
	case t.send <- message:
	case <-t.done:
		return fmt.Errorf("emit %s: transport closed", event)
	case <-ctx.Done():
		return ctx.Err()
	}

	timer := time.NewTimer(t.config.AckTimeout)
	defer timer.Stop()
	select {
	case reason := <-ackCh:
		if reason != "" {
			return &AckError{Event: event, Reason: reason}
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("emit %s: ack timeout", event)
	case <-t.done:
		return fmt.Errorf("emit %s: transport closed", event)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the inbound event channel. It closes when the link drops.
func (t *WSTransport) Events() <-chan Event {
	return t.events
}

// BindRoom sets the room id carried by the periodic heartbeat.
func (t *WSTransport) BindRoom(roomID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.roomID = roomID
	return nil
}

// Close shuts the link down. Safe to call more than once.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	close(t.done)
	t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(t.config.WriteTimeout))
	return t.conn.Close()
}

// readPump owns all reads. Ack frames settle pending emits; event frames
// go to the events channel, dropped with a warning if the consumer lags.
func (t *WSTransport) readPump() {
	defer func() {
		t.Close()
		close(t.events)
	}()

	t.conn.SetReadLimit(t.config.MaxMessageSize)
	t.conn.SetReadDeadline(time.Now().Add(t.config.ReadTimeout))
	t.conn.SetPongHandler(func(string) error {
		t.conn.SetReadDeadline(time.Now().Add(t.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Msg("unexpected websocket close")
			}
			return
		}
		t.conn.SetReadDeadline(time.Now().Add(t.config.ReadTimeout))

		var f frame
		if err := json.Unmarshal(message, &f); err != nil {
			log.Warn().Err(err).Msg("dropping unparseable frame")
			continue
		}

		if f.Ack != "" {
			t.mu.Lock()
			ackCh, ok := t.acks[f.Ack]
			t.mu.Unlock()
			if ok {
				ackCh <- f.Error
			}
			continue
		}

		select {
		case t.events <- Event{Name: f.Event, Data: f.Data}:
		default:
			log.Warn().Str("event", f.Event).Msg("event buffer full, dropping event")
		}
	}
}

// writePump owns all writes: queued frames, protocol pings, and the room
// heartbeat.
func (t *WSTransport) writePump() {
	pinger := time.NewTicker(t.config.PingInterval)
	heartbeat := time.NewTicker(t.config.HeartbeatInterval)
	defer func() {
		pinger.Stop()
		heartbeat.Stop()
		t.Close()
	}()

	for {
		select {
		case <-t.done:
			return

		case message := <-t.send:
			t.conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
			if err := t.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Msg("websocket write failed")
				return
			}

		case <-pinger.C:
			t.conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Msg("websocket ping failed")
				return
			}

		case <-heartbeat.C:
			t.mu.Lock()
			roomID := t.roomID
			t.mu.Unlock()
			if roomID == "" {
				continue
			}
			message, err := json.Marshal(frame{
				Event: "room:ping",
				Data:  json.RawMessage(fmt.Sprintf(`{"room_id":%q}`, roomID)),
			})
			if err != nil {
				continue
			}
			t.conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
			if err := t.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Msg("heartbeat write failed")
				return
			}
		}
	}
}
