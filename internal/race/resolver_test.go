package race

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRace_FirstInputWins(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewResolver(clock, 30*time.Second)

	picked := make(chan string, 1)
	picked <- "A"
	idle := make(chan string)

	out := r.Race(context.Background(),
		Input{Name: "pick", C: picked},
		Input{Name: "other", C: idle},
	)

	assert.Equal(t, "pick", out.Input)
	assert.Equal(t, "A", out.Value)
	assert.False(t, out.TimedOut)
	assert.False(t, out.Cancelled)
}

func TestRace_SettlesExactlyOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewResolver(clock, 30*time.Second)

	first := make(chan string, 1)
	second := make(chan string, 1)
	first <- "left"
	second <- "right"

	out := r.Race(context.Background(),
		Input{Name: "first", C: first},
		Input{Name: "second", C: second},
	)

	require.False(t, out.TimedOut)
	assert.Contains(t, []string{"left", "right"}, out.Value)

	// Exactly one value was consumed; the losing source keeps its value
	// instead of having it swallowed by a stale listener.
	assert.Equal(t, 1, len(first)+len(second))

	// After settlement the resolver cannot be raced again, so no late
	// input can change the result.
	assert.Panics(t, func() {
		r.Race(context.Background(), Input{Name: "late", C: first})
	})
}

func TestRace_Timeout(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewResolver(clock, 10*time.Second)

	idle := make(chan string)
	result := make(chan Outcome, 1)
	go func() {
		result <- r.Race(context.Background(), Input{Name: "pick", C: idle})
	}()

	clock.BlockUntil(1)
	clock.Advance(10 * time.Second)

	out := <-result
	assert.True(t, out.TimedOut)
	assert.Empty(t, out.Value)
}

func TestRace_ContextCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewResolver(clock, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan string)
	result := make(chan Outcome, 1)
	go func() {
		result <- r.Race(ctx, Input{Name: "pick", C: idle})
	}()

	clock.BlockUntil(1)
	cancel()

	out := <-result
	assert.True(t, out.Cancelled)
}

func TestRace_LateInputAfterSettlementIsDropped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewResolver(clock, 10*time.Second)

	idle := make(chan string, 1)
	result := make(chan Outcome, 1)
	go func() {
		result <- r.Race(context.Background(), Input{Name: "pick", C: idle})
	}()

	clock.BlockUntil(1)
	clock.Advance(10 * time.Second)
	out := <-result
	require.True(t, out.TimedOut)

	// Firing the source after the race settled must not block or panic;
	// its listener was torn down with the race and the value stays put.
	idle <- "too late"
	assert.Equal(t, 1, len(idle))
}

func TestRace_ClosedSourceNeverSettles(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewResolver(clock, 5*time.Second)

	closed := make(chan string)
	close(closed)
	live := make(chan string, 1)
	live <- "answer"

	out := r.Race(context.Background(),
		Input{Name: "closed", C: closed},
		Input{Name: "live", C: live},
	)

	assert.Equal(t, "live", out.Input)
	assert.Equal(t, "answer", out.Value)
}

func TestNewResolver_InvalidDeadline(t *testing.T) {
	clock := clockwork.NewFakeClock()

	assert.Panics(t, func() { NewResolver(clock, 0) })
	assert.Panics(t, func() { NewResolver(clock, -time.Second) })
}

func TestRace_NoInputs(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewResolver(clock, time.Second)

	assert.Panics(t, func() { r.Race(context.Background()) })
}

func TestStartCountdown_TicksDown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := make(chan int, 8)

	stop := StartCountdown(clock, 3, func(remaining int) { ticks <- remaining })
	defer stop()

	clock.BlockUntil(1)
	for _, want := range []int{2, 1, 0} {
		clock.Advance(time.Second)
		select {
		case got := <-ticks:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("no tick for remaining=%d", want)
		}
	}
}

func TestStartCountdown_StopIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := make(chan int, 8)

	stop := StartCountdown(clock, 30, func(remaining int) { ticks <- remaining })
	clock.BlockUntil(1)

	stop()
	stop()

	clock.Advance(time.Second)
	select {
	case got := <-ticks:
		t.Fatalf("tick %d after stop", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStartCountdown_ZeroSeconds(t *testing.T) {
	clock := clockwork.NewFakeClock()

	stop := StartCountdown(clock, 0, func(int) { t.Fatal("tick for zero countdown") })
	stop()
}
