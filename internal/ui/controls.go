package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkwon12/partyround/internal/game"
)

// Controls reads lines from the terminal and routes them onto input
// channels. All channels are unbuffered, so a line lands wherever the
// engine is currently listening; lines typed while nothing listens are
// dropped. An empty line is an advance request.
type Controls struct {
	out io.Writer

	picks     chan string
	choices   chan string
	texts     chan string
	continues chan struct{}
}

// NewControls builds an input hub. Run must be started for lines to flow.
func NewControls(out io.Writer) *Controls {
	return &Controls{
		out:       out,
		picks:     make(chan string),
		choices:   make(chan string),
		texts:     make(chan string),
		continues: make(chan struct{}),
	}
}

// Run reads lines from in until EOF or cancellation. It is the only
// sender on the input channels.
func (c *Controls) Run(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		c.route(strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msg("input reader stopped")
	}
}

func (c *Controls) route(line string) {
	if line == "" {
		select {
		case c.continues <- struct{}{}:
		default:
		}
		return
	}

	// A and B are pick shorthand; everything else passes through as typed.
	value := line
	if upper := strings.ToUpper(line); upper == "A" || upper == "B" {
		value = upper
	}

	select {
	case c.picks <- value:
	case c.choices <- value:
	case c.texts <- value:
	default:
	}
}

// Pick yields "A" or "B" for the current match.
func (c *Controls) Pick() <-chan string { return c.picks }

// Choice yields the selected option index as typed.
func (c *Controls) Choice() <-chan string { return c.choices }

// Text yields a free-text answer.
func (c *Controls) Text() <-chan string { return c.texts }

// Continue yields once per advance request.
func (c *Controls) Continue() <-chan struct{} { return c.continues }

// PlayClip announces clip playback. Audio itself plays wherever the media
// URL points; the terminal only paces the window.
func (c *Controls) PlayClip(clip game.ClipWindow) {
	fmt.Fprintf(c.out, "Playing clip (%ds)...\n", clip.DurationSec)
}
