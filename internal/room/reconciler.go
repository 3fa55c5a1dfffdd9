// Package room keeps a multiplayer session's local view converged with the
// authoritative room server. Inbound events reduce into a snapshot and a
// renderable view; player intents are relayed outbound and never resolved
// locally.
package room

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/dkwon12/partyround/internal/game"
	"github.com/dkwon12/partyround/internal/race"
)

// Emitter sends an acked command to the room server.
type Emitter interface {
	Emit(ctx context.Context, event string, payload any) error
}

// Renderer consumes reconciled views. Render is called after every applied
// event; Countdown receives advisory once-per-second ticks while a timed
// phase is open.
type Renderer interface {
	Render(v View)
	Countdown(remaining int)
}

// Identity supplies the local user id for host derivation.
type Identity interface {
	UserID() string
}

// View is one renderable frame of the room. Payload holds the
// phase-specific payload; Round and Question stay populated across the
// phases that follow them.
type View struct {
	RoomID       string
	Mode         string
	Phase        Phase
	IsHost       bool
	Committed    bool
	ContentTitle string
	Players      []PlayerStatus
	Timer        Timer
	Round        *RoundStartedPayload
	Question     *QuestionPayload
	Payload      any
}

// Reconciler is the single writer of room state. Apply runs on the
// transport's event goroutine; intent methods may be called from the input
// goroutine, so shared state sits behind a mutex.
type Reconciler struct {
	emitter  Emitter
	renderer Renderer
	identity Identity
	clock    clockwork.Clock

	mu        sync.Mutex
	snap      Snapshot
	committed bool
	inflight  bool
	terminal  any
	stop      func()
}

// NewReconciler wires a reconciler to its transport and presentation.
func NewReconciler(emitter Emitter, renderer Renderer, identity Identity, clock clockwork.Clock) *Reconciler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reconciler{
		emitter:  emitter,
		renderer: renderer,
		identity: identity,
		clock:    clock,
		stop:     func() {},
	}
}

// Run consumes events until the channel closes or the context ends.
// Malformed events are logged and skipped; the session survives them.
func (rc *Reconciler) Run(ctx context.Context, events <-chan Event) error {
	defer func() {
		rc.mu.Lock()
		rc.stop()
		rc.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := rc.Apply(ev); err != nil {
				log.Warn().Str("type", string(ev.Type)).Err(err).Msg("dropping malformed room event")
			}
		}
	}
}

// Apply reduces one authoritative event into the room state and renders
// the resulting view. Unknown event types are ignored.
func (rc *Reconciler) Apply(event Event) error {
	payload, err := ParseEventPayload(event)
	if err != nil {
		return err
	}
	if payload == nil {
		log.Debug().Str("type", string(event.Type)).Msg("ignoring unknown room event")
		return nil
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	switch p := payload.(type) {
	case Snapshot:
		rc.snap = p
		rc.committed = p.MyPick != nil
		rc.inflight = false
		rc.terminal = nil
		if p.Timer.Enabled && (p.Phase == PhasePlaying || p.Phase == PhaseAnswering) {
			rc.rearm(p.Timer.RemainingSec)
		} else {
			rc.stop()
		}

	case RoundStartedPayload:
		rc.snap.Phase = PhasePlaying
		rc.snap.Round = &p
		rc.snap.RoundIndex = p.RoundIndex
		rc.snap.Timer = Timer{Enabled: p.TimerSec > 0, RemainingSec: p.TimerSec}
		rc.snap.MyPick = nil
		rc.committed = false
		rc.rearm(p.TimerSec)

	case RoundResultPayload:
		rc.snap.Phase = PhaseRevealed
		rc.snap.LastReveal = event.Data
		rc.snap.Timer = Timer{}
		rc.stop()

	case FinishedPayload:
		rc.snap.Phase = PhaseFinished
		rc.snap.LastFinished = event.Data
		rc.snap.Timer = Timer{}
		rc.terminal = p
		rc.stop()

	case QuestionPayload:
		rc.snap.Phase = PhaseQuestion
		rc.snap.Question = &p
		rc.snap.QuestionIndex = p.Index
		rc.snap.Timer = Timer{}
		rc.snap.MyPick = nil
		rc.committed = false
		rc.stop()

	case AnsweringPayload:
		rc.snap.Phase = PhaseAnswering
		rc.snap.Timer = Timer{Enabled: p.AllowanceSec > 0, RemainingSec: p.AllowanceSec}
		rc.rearm(p.AllowanceSec)

	case RevealPayload:
		rc.snap.Phase = PhaseReveal
		rc.snap.LastReveal = event.Data
		rc.snap.Timer = Timer{}
		rc.stop()

	case ScoreboardPayload:
		rc.snap.LastScoreboard = event.Data
		rc.snap.Timer = Timer{}
		if event.Type == EventQuizFinished {
			rc.snap.Phase = PhaseFinished
			rc.terminal = p
		} else {
			rc.snap.Phase = PhaseScoreboard
		}
		rc.stop()
	}

	rc.renderer.Render(rc.view())
	return nil
}

// Snapshot returns a copy of the current room state.
func (rc *Reconciler) Snapshot() Snapshot {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.snap
}

// CommitPick relays a tournament vote. It is a no-op while a commit is in
// flight or one already stood this round; the server decides the outcome.
func (rc *Reconciler) CommitPick(ctx context.Context, side game.Side) error {
	rc.mu.Lock()
	if rc.committed || rc.inflight {
		rc.mu.Unlock()
		return nil
	}
	rc.inflight = true
	roomID := rc.snap.ID
	rc.mu.Unlock()

	err := rc.emitter.Emit(ctx, CommandCommitPick, commitPickCommand{RoomID: roomID, Side: string(side)})

	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.inflight = false
	if err != nil {
		return fmt.Errorf("commit pick: %w", err)
	}
	rc.committed = true
	pick := string(side)
	rc.snap.MyPick = &pick
	rc.renderer.Render(rc.view())
	return nil
}

// SubmitAnswer relays a quiz answer, with the same one-per-question
// dedupe as CommitPick.
func (rc *Reconciler) SubmitAnswer(ctx context.Context, answer string) error {
	rc.mu.Lock()
	if rc.committed || rc.inflight {
		rc.mu.Unlock()
		return nil
	}
	rc.inflight = true
	roomID := rc.snap.ID
	rc.mu.Unlock()

	err := rc.emitter.Emit(ctx, CommandSubmit, submitAnswerCommand{RoomID: roomID, Answer: answer})

	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.inflight = false
	if err != nil {
		return fmt.Errorf("submit answer: %w", err)
	}
	rc.committed = true
	rc.renderer.Render(rc.view())
	return nil
}

// Start asks the server to begin the game. The server enforces that only
// the host may start.
func (rc *Reconciler) Start(ctx context.Context) error {
	rc.mu.Lock()
	roomID := rc.snap.ID
	rc.mu.Unlock()

	if err := rc.emitter.Emit(ctx, CommandStart, roomCommand{RoomID: roomID}); err != nil {
		return fmt.Errorf("start game: %w", err)
	}
	return nil
}

// Ready signals the player is done reading the current reveal.
func (rc *Reconciler) Ready(ctx context.Context) error {
	rc.mu.Lock()
	roomID := rc.snap.ID
	rc.mu.Unlock()

	if err := rc.emitter.Emit(ctx, CommandReady, roomCommand{RoomID: roomID}); err != nil {
		return fmt.Errorf("ready: %w", err)
	}
	return nil
}

// RequestAdvance asks the server to move to the next round or question.
// The server enforces who may advance; this only relays the intent.
func (rc *Reconciler) RequestAdvance(ctx context.Context) error {
	rc.mu.Lock()
	roomID := rc.snap.ID
	command := CommandNextRound
	if rc.snap.Mode == string(game.ModeQuiz) {
		command = CommandNextQuestion
	}
	rc.mu.Unlock()

	if err := rc.emitter.Emit(ctx, command, roomCommand{RoomID: roomID}); err != nil {
		return fmt.Errorf("request advance: %w", err)
	}
	return nil
}

// rearm replaces the running countdown with one starting at seconds.
// Callers hold rc.mu.
func (rc *Reconciler) rearm(seconds int) {
	rc.stop()
	if seconds <= 0 {
		rc.stop = func() {}
		return
	}
	rc.stop = race.StartCountdown(rc.clock, seconds, rc.renderer.Countdown)
}

// view builds the renderable frame for the current state. Callers hold
// rc.mu. Host status is derived fresh from the snapshot every time.
func (rc *Reconciler) view() View {
	v := View{
		RoomID:       rc.snap.ID,
		Mode:         rc.snap.Mode,
		Phase:        rc.snap.Phase,
		IsHost:       rc.snap.HostUserID != "" && rc.snap.HostUserID == rc.identity.UserID(),
		Committed:    rc.committed,
		ContentTitle: rc.snap.ContentTitle,
		Players:      rc.snap.Players,
		Timer:        rc.snap.Timer,
		Round:        rc.snap.Round,
		Question:     rc.snap.Question,
	}

	switch rc.snap.Phase {
	case PhasePlaying:
		if rc.snap.Round != nil {
			v.Payload = *rc.snap.Round
		}
	case PhaseRevealed:
		var p RoundResultPayload
		if len(rc.snap.LastReveal) > 0 && json.Unmarshal(rc.snap.LastReveal, &p) == nil {
			v.Payload = p
		}
	case PhaseQuestion, PhaseAnswering:
		if rc.snap.Question != nil {
			v.Payload = *rc.snap.Question
		}
	case PhaseReveal:
		var p RevealPayload
		if len(rc.snap.LastReveal) > 0 && json.Unmarshal(rc.snap.LastReveal, &p) == nil {
			v.Payload = p
		}
	case PhaseScoreboard:
		var p ScoreboardPayload
		if len(rc.snap.LastScoreboard) > 0 && json.Unmarshal(rc.snap.LastScoreboard, &p) == nil {
			v.Payload = p
		}
	case PhaseFinished:
		switch {
		case rc.terminal != nil:
			v.Payload = rc.terminal
		case len(rc.snap.LastFinished) > 0:
			var p FinishedPayload
			if json.Unmarshal(rc.snap.LastFinished, &p) == nil {
				v.Payload = p
			}
		case len(rc.snap.LastScoreboard) > 0:
			var p ScoreboardPayload
			if json.Unmarshal(rc.snap.LastScoreboard, &p) == nil {
				v.Payload = p
			}
		}
	}
	return v
}

type commitPickCommand struct {
	RoomID string `json:"room_id"`
	Side   string `json:"side"`
}

type submitAnswerCommand struct {
	RoomID string `json:"room_id"`
	Answer string `json:"answer"`
}

type roomCommand struct {
	RoomID string `json:"room_id"`
}
