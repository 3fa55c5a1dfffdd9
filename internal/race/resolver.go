// Package race implements the first-settle-wins primitive shared by both
// simulation engines: an arbitrary set of input sources raced against a
// deadline, settling exactly once with guaranteed listener teardown.
package race

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/jonboulle/clockwork"
)

// Input is one candidate input source. C delivers the raw submitted value
// (an option index rendered as text, free text, or a side name).
type Input struct {
	Name string
	C    <-chan string
}

// Outcome is the single settlement of a race: either the first input that
// fired, a timeout, or a context cancellation.
type Outcome struct {
	Input     string
	Value     string
	TimedOut  bool
	Cancelled bool
}

// Resolver races a set of inputs against a fixed deadline. A Resolver is
// single-use: each round or question creates a fresh one, so no value can
// leak between races.
type Resolver struct {
	clock    clockwork.Clock
	deadline time.Duration
	used     bool
}

// NewResolver creates a single-use resolver. A non-positive deadline is a
// caller error and panics.
func NewResolver(clock clockwork.Clock, deadline time.Duration) *Resolver {
	if deadline <= 0 {
		panic(fmt.Sprintf("race: non-positive deadline %v", deadline))
	}
	return &Resolver{clock: clock, deadline: deadline}
}

// Race blocks until exactly one of: an input fires, the deadline elapses,
// or ctx is cancelled. The race is a single select over every source, so
// when it returns nothing is left listening: a value sent to a losing
// source afterwards stays in that channel instead of being stolen by a
// stale listener. Racing with no inputs is a caller error.
func (r *Resolver) Race(ctx context.Context, inputs ...Input) Outcome {
	if r.used {
		panic("race: resolver reused; create a fresh one per round")
	}
	r.used = true
	if len(inputs) == 0 {
		panic("race: no input sources")
	}

	timer := r.clock.NewTimer(r.deadline)
	defer timer.Stop()

	cases := make([]reflect.SelectCase, 0, len(inputs)+2)
	for _, in := range inputs {
		cases = append(cases, reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(in.C),
		})
	}
	timerIdx := len(cases)
	cases = append(cases, reflect.SelectCase{
		Dir:  reflect.SelectRecv,
		Chan: reflect.ValueOf(timer.Chan()),
	})
	ctxIdx := len(cases)
	cases = append(cases, reflect.SelectCase{
		Dir:  reflect.SelectRecv,
		Chan: reflect.ValueOf(ctx.Done()),
	})

	for {
		chosen, value, ok := reflect.Select(cases)
		switch chosen {
		case timerIdx:
			return Outcome{TimedOut: true}
		case ctxIdx:
			return Outcome{Cancelled: true}
		default:
			if !ok {
				// A closed source never settles the race; park it
				// on a nil channel and keep racing the rest.
				cases[chosen].Chan = reflect.ValueOf((<-chan string)(nil))
				continue
			}
			return Outcome{Input: inputs[chosen].Name, Value: value.String()}
		}
	}
}
