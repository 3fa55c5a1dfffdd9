// Package solo runs self-contained game sessions with no remote authority:
// the entire rule set (bracket reduction, scoring, answer matching, input
// races) is simulated locally.
package solo

import (
	"context"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dkwon12/partyround/internal/game"
)

// Display renders engine state. Implementations only read what they are
// handed; engines own all game progress.
type Display interface {
	ShowMatch(round, match, totalMatches int, m game.Match)
	ShowRoundResult(res game.RoundResult, lastRound bool)
	ShowChampion(champ game.CandidateEntry)

	ShowQuestion(index, total int, q game.QuestionEntry)
	OpenAnswering(index int, q game.QuestionEntry, allowanceSec int)
	ShowReveal(index, total int, q game.QuestionEntry, out game.QuestionOutcome, lastQuestion bool)
	ShowFinished(score, total, accuracy int)

	// Countdown receives advisory once-per-second ticks while an input
	// race is open.
	Countdown(remaining int)
}

// Controls supplies the user's input sources. Channels deliver one value
// per interaction; the engines race them against their deadlines.
type Controls interface {
	// Pick yields "A" or "B" for the current tournament match.
	Pick() <-chan string
	// Choice yields the selected option index, rendered as text.
	Choice() <-chan string
	// Text yields a submitted free-text answer.
	Text() <-chan string
	// Continue yields once per explicit advance request.
	Continue() <-chan struct{}
	// PlayClip starts timed-media playback; it must not block.
	PlayClip(clip game.ClipWindow)
}

// Options tunes an engine run. Zero values take the defaults below.
type Options struct {
	Clock    clockwork.Clock
	Rand     *rand.Rand
	Deadline time.Duration // per-round / per-question input allowance
	// showDelay is the fixed pacing pause between presenting a prompt and
	// opening input. It is not configurable through the public surface.
	showDelay time.Duration
}

const (
	defaultDeadline  = 30 * time.Second
	defaultShowDelay = 1500 * time.Millisecond
	defaultClipSec   = 10
)

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(o.Clock.Now().UnixNano()))
	}
	if o.Deadline <= 0 {
		o.Deadline = defaultDeadline
	}
	if o.showDelay <= 0 {
		o.showDelay = defaultShowDelay
	}
	return o
}

// pause sleeps on the engine clock but wakes early on cancellation.
func pause(ctx context.Context, clock clockwork.Clock, d time.Duration) {
	timer := clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.Chan():
	case <-ctx.Done():
	}
}
