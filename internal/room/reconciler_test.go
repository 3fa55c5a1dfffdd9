package room

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkwon12/partyround/internal/game"
)

type fakeRenderer struct {
	mu    sync.Mutex
	views []View
	ticks []int
}

func (f *fakeRenderer) Render(v View) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, v)
}

func (f *fakeRenderer) Countdown(remaining int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks = append(f.ticks, remaining)
}

func (f *fakeRenderer) last(t *testing.T) View {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.views)
	return f.views[len(f.views)-1]
}

func (f *fakeRenderer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.views)
}

func (f *fakeRenderer) sawTick(n int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tick := range f.ticks {
		if tick == n {
			return true
		}
	}
	return false
}

type emitted struct {
	event   string
	payload any
}

type fakeEmitter struct {
	mu   sync.Mutex
	sent []emitted
	fail error
}

func (f *fakeEmitter) Emit(ctx context.Context, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, emitted{event: event, payload: payload})
	return nil
}

func (f *fakeEmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type staticIdentity string

func (s staticIdentity) UserID() string { return string(s) }

func event(t *testing.T, typ EventType, payload any) Event {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return Event{Type: typ, Data: data}
}

func newTestReconciler(t *testing.T, me string) (*Reconciler, *fakeEmitter, *fakeRenderer, *clockwork.FakeClock) {
	t.Helper()
	emitter := &fakeEmitter{}
	renderer := &fakeRenderer{}
	clock := clockwork.NewFakeClock()
	rc := NewReconciler(emitter, renderer, staticIdentity(me), clock)
	return rc, emitter, renderer, clock
}

func playingSnapshot(me string) Snapshot {
	pick := "A"
	return Snapshot{
		ID:         "room-1",
		Mode:       "worldcup",
		Phase:      PhasePlaying,
		HostUserID: me,
		Players: []PlayerStatus{
			{UserID: me, Name: "me", State: PlayerCommitted},
			{UserID: "u2", Name: "other", State: PlayerWaiting},
		},
		ContentTitle: "Snack Cup",
		RoundIndex:   2,
		Round: &RoundStartedPayload{
			RoundIndex:   2,
			MatchIndex:   1,
			TotalMatches: 2,
			Match:        MatchView{A: CandidateView{Name: "fries"}, B: CandidateView{Name: "nachos"}},
			TimerSec:     30,
		},
		Timer:  Timer{Enabled: true, RemainingSec: 7},
		MyPick: &pick,
	}
}

func TestReconciler_SnapshotResyncIsIdempotent(t *testing.T) {
	rc, _, renderer, _ := newTestReconciler(t, "u1")

	snap := event(t, EventRoomState, playingSnapshot("u1"))
	require.NoError(t, rc.Apply(snap))
	require.NoError(t, rc.Apply(snap))

	require.GreaterOrEqual(t, renderer.count(), 2)
	renderer.mu.Lock()
	first := renderer.views[len(renderer.views)-2]
	second := renderer.views[len(renderer.views)-1]
	renderer.mu.Unlock()
	assert.Equal(t, first, second)

	assert.Equal(t, PhasePlaying, second.Phase)
	assert.True(t, second.Committed)
	assert.Equal(t, 7, second.Timer.RemainingSec)
}

func TestReconciler_RevealedSnapshotRendersReveal(t *testing.T) {
	rc, _, renderer, _ := newTestReconciler(t, "u1")

	reveal := RoundResultPayload{VotesA: 3, VotesB: 1, PercentA: 75, PercentB: 25, Winner: "fries"}
	raw, err := json.Marshal(reveal)
	require.NoError(t, err)

	snap := playingSnapshot("u1")
	snap.Phase = PhaseRevealed
	snap.Timer = Timer{}
	snap.LastReveal = raw

	require.NoError(t, rc.Apply(event(t, EventRoomState, snap)))

	v := renderer.last(t)
	assert.Equal(t, PhaseRevealed, v.Phase)
	assert.Equal(t, reveal, v.Payload)
}

func TestReconciler_TournamentFinishedCarriesRanking(t *testing.T) {
	rc, _, renderer, _ := newTestReconciler(t, "u1")
	require.NoError(t, rc.Apply(event(t, EventRoomState, playingSnapshot("u1"))))

	finished := FinishedPayload{
		Champion: CandidateView{Name: "fries"},
		Scores: []ScoreRow{
			{UserID: "u1", Name: "me", Score: 3},
			{UserID: "u2", Name: "other", Score: 1},
		},
	}
	require.NoError(t, rc.Apply(event(t, EventFinished, finished)))

	v := renderer.last(t)
	assert.Equal(t, PhaseFinished, v.Phase)
	assert.Equal(t, finished, v.Payload)
}

func TestReconciler_FinishedSnapshotRendersFinalResult(t *testing.T) {
	rc, _, renderer, _ := newTestReconciler(t, "u1")

	finished := FinishedPayload{
		Champion: CandidateView{Name: "fries"},
		Scores:   []ScoreRow{{UserID: "u2", Name: "other", Score: 5}},
	}
	raw, err := json.Marshal(finished)
	require.NoError(t, err)

	// Reconnecting into a finished room must rebuild the final view.
	snap := playingSnapshot("u1")
	snap.Phase = PhaseFinished
	snap.Round = nil
	snap.Timer = Timer{}
	snap.LastFinished = raw

	require.NoError(t, rc.Apply(event(t, EventRoomState, snap)))

	v := renderer.last(t)
	assert.Equal(t, PhaseFinished, v.Phase)
	assert.Equal(t, finished, v.Payload)
}

func TestReconciler_RevealCarriesPlayerResults(t *testing.T) {
	rc, _, renderer, _ := newTestReconciler(t, "u1")

	reveal := RevealPayload{
		Index:         0,
		CorrectAnswer: "paris",
		CorrectChoice: 1,
		YouCorrect:    true,
		Results: []PlayerResult{
			{UserID: "u1", Name: "me", Answer: "paris", Correct: true},
			{UserID: "u2", Name: "other", Correct: false},
		},
	}
	require.NoError(t, rc.Apply(event(t, EventReveal, reveal)))

	v := renderer.last(t)
	require.IsType(t, RevealPayload{}, v.Payload)
	assert.Equal(t, reveal.Results, v.Payload.(RevealPayload).Results)
}

func TestReconciler_HostDerivedPerSnapshot(t *testing.T) {
	rc, _, renderer, _ := newTestReconciler(t, "u1")

	require.NoError(t, rc.Apply(event(t, EventRoomState, playingSnapshot("u1"))))
	assert.True(t, renderer.last(t).IsHost)

	// Host migrated while we were away; the next snapshot wins.
	snap := playingSnapshot("u1")
	snap.HostUserID = "u2"
	require.NoError(t, rc.Apply(event(t, EventRoomState, snap)))
	assert.False(t, renderer.last(t).IsHost)
}

func TestReconciler_CountdownRearmsFromRemaining(t *testing.T) {
	rc, _, renderer, clock := newTestReconciler(t, "u1")

	snap := playingSnapshot("u1")
	snap.Timer = Timer{Enabled: true, RemainingSec: 5}
	require.NoError(t, rc.Apply(event(t, EventRoomState, snap)))

	assert.Equal(t, 5, renderer.last(t).Timer.RemainingSec)

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return renderer.sawTick(4) },
		time.Second, 5*time.Millisecond)
	assert.False(t, renderer.sawTick(29))
}

func TestReconciler_DuplicateCommitIsNoOp(t *testing.T) {
	rc, emitter, _, _ := newTestReconciler(t, "u1")
	ctx := context.Background()

	snap := playingSnapshot("u1")
	snap.MyPick = nil
	require.NoError(t, rc.Apply(event(t, EventRoomState, snap)))

	require.NoError(t, rc.CommitPick(ctx, game.SideA))
	require.NoError(t, rc.CommitPick(ctx, game.SideB))
	assert.Equal(t, 1, emitter.count())

	// A fresh round reopens the vote.
	require.NoError(t, rc.Apply(event(t, EventRoundStarted, RoundStartedPayload{RoundIndex: 3, TimerSec: 30})))
	require.NoError(t, rc.CommitPick(ctx, game.SideB))
	assert.Equal(t, 2, emitter.count())
}

func TestReconciler_SnapshotPickBlocksRecommit(t *testing.T) {
	rc, emitter, _, _ := newTestReconciler(t, "u1")

	require.NoError(t, rc.Apply(event(t, EventRoomState, playingSnapshot("u1"))))

	require.NoError(t, rc.CommitPick(context.Background(), game.SideB))
	assert.Zero(t, emitter.count())
}

func TestReconciler_FailedCommitAllowsRetry(t *testing.T) {
	rc, emitter, _, _ := newTestReconciler(t, "u1")
	ctx := context.Background()

	snap := playingSnapshot("u1")
	snap.MyPick = nil
	require.NoError(t, rc.Apply(event(t, EventRoomState, snap)))

	emitter.fail = errors.New("ack timeout")
	require.Error(t, rc.CommitPick(ctx, game.SideA))

	emitter.fail = nil
	require.NoError(t, rc.CommitPick(ctx, game.SideA))
	assert.Equal(t, 1, emitter.count())
}

func TestReconciler_QuizPhaseSequence(t *testing.T) {
	rc, emitter, renderer, _ := newTestReconciler(t, "u1")
	ctx := context.Background()

	snap := Snapshot{ID: "room-2", Mode: "quiz", Phase: PhaseLobby, HostUserID: "u2"}
	require.NoError(t, rc.Apply(event(t, EventRoomState, snap)))
	assert.Equal(t, PhaseLobby, renderer.last(t).Phase)

	q := QuestionPayload{Index: 0, Total: 3, Question: QuestionView{Prompt: "capital of France?", Type: "short"}}
	require.NoError(t, rc.Apply(event(t, EventQuestion, q)))
	v := renderer.last(t)
	assert.Equal(t, PhaseQuestion, v.Phase)
	assert.Equal(t, q, v.Payload)

	require.NoError(t, rc.Apply(event(t, EventAnswering, AnsweringPayload{AllowanceSec: 20})))
	v = renderer.last(t)
	assert.Equal(t, PhaseAnswering, v.Phase)
	assert.Equal(t, 20, v.Timer.RemainingSec)
	require.NotNil(t, v.Question)

	require.NoError(t, rc.SubmitAnswer(ctx, "paris"))
	require.NoError(t, rc.SubmitAnswer(ctx, "paris again"))
	assert.Equal(t, 1, emitter.count())

	reveal := RevealPayload{Index: 0, CorrectAnswer: "Paris", YouCorrect: true}
	require.NoError(t, rc.Apply(event(t, EventReveal, reveal)))
	v = renderer.last(t)
	assert.Equal(t, PhaseReveal, v.Phase)
	assert.Equal(t, reveal, v.Payload)

	board := ScoreboardPayload{Rows: []ScoreRow{{UserID: "u1", Name: "me", Score: 1}}}
	require.NoError(t, rc.Apply(event(t, EventScoreboard, board)))
	assert.Equal(t, PhaseScoreboard, renderer.last(t).Phase)

	require.NoError(t, rc.Apply(event(t, EventQuizFinished, board)))
	v = renderer.last(t)
	assert.Equal(t, PhaseFinished, v.Phase)
	assert.Equal(t, board, v.Payload)
}

func TestReconciler_RequestAdvanceUsesModeCommand(t *testing.T) {
	rc, emitter, _, _ := newTestReconciler(t, "u1")
	ctx := context.Background()

	require.NoError(t, rc.Apply(event(t, EventRoomState, playingSnapshot("u1"))))
	require.NoError(t, rc.RequestAdvance(ctx))

	quiz := Snapshot{ID: "room-2", Mode: "quiz", Phase: PhaseScoreboard}
	require.NoError(t, rc.Apply(event(t, EventRoomState, quiz)))
	require.NoError(t, rc.RequestAdvance(ctx))

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	require.Len(t, emitter.sent, 2)
	assert.Equal(t, CommandNextRound, emitter.sent[0].event)
	assert.Equal(t, CommandNextQuestion, emitter.sent[1].event)
}

func TestReconciler_UnknownEventIgnored(t *testing.T) {
	rc, _, renderer, _ := newTestReconciler(t, "u1")

	require.NoError(t, rc.Apply(Event{Type: "room:confetti", Data: []byte(`{}`)}))
	assert.Zero(t, renderer.count())
}

func TestReconciler_MalformedEventRejected(t *testing.T) {
	rc, _, renderer, _ := newTestReconciler(t, "u1")

	err := rc.Apply(Event{Type: EventRoundStarted, Data: []byte(`{not json`)})
	require.Error(t, err)
	assert.Zero(t, renderer.count())
}

func TestReconciler_RunStopsWhenChannelCloses(t *testing.T) {
	rc, _, renderer, _ := newTestReconciler(t, "u1")

	events := make(chan Event, 1)
	events <- event(t, EventRoomState, playingSnapshot("u1"))
	close(events)

	require.NoError(t, rc.Run(context.Background(), events))
	assert.Equal(t, 1, renderer.count())
}
