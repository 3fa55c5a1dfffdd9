package solo

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkwon12/partyround/internal/game"
	"github.com/dkwon12/partyround/internal/race"
)

// Quiz advances sequentially through an ordered question list, racing the
// player's inputs against a per-question allowance and accumulating a
// running score.
type Quiz struct {
	display  Display
	controls Controls
	opts     Options
}

// NewQuiz wires a quiz engine to its presentation.
func NewQuiz(display Display, controls Controls, opts Options) *Quiz {
	return &Quiz{
		display:  display,
		controls: controls,
		opts:     opts.withDefaults(),
	}
}

// Result is the terminal state of a finished quiz run.
type Result struct {
	Score    int
	Total    int
	Accuracy int
}

// Run plays every question show -> answering -> reveal, then returns the
// final score. Unusable content aborts before the first question.
func (qz *Quiz) Run(ctx context.Context, content *game.ContentRecord) (Result, error) {
	if err := content.Validate(); err != nil {
		return Result{}, err
	}

	total := len(content.Questions)
	log.Info().Str("content_id", content.ID).Int("questions", total).Msg("quiz started")

	score := 0
	for i, q := range content.Questions {
		outcome, err := qz.playQuestion(ctx, i, total, q, score)
		if err != nil {
			return Result{}, err
		}
		score = outcome.Score

		qz.display.ShowReveal(i, total, q, outcome, i == total-1)
		select {
		case <-qz.controls.Continue():
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	res := Result{Score: score, Total: total, Accuracy: accuracy(score, total)}
	qz.display.ShowFinished(res.Score, res.Total, res.Accuracy)
	log.Info().Int("score", res.Score).Int("total", res.Total).Int("accuracy", res.Accuracy).Msg("quiz finished")
	return res, nil
}

// playQuestion runs the show and answering phases for one question and
// evaluates the submission. Exactly one resolver is live at a time.
func (qz *Quiz) playQuestion(ctx context.Context, index, total int, q game.QuestionEntry, score int) (game.QuestionOutcome, error) {
	qz.display.ShowQuestion(index, total, q)
	pause(ctx, qz.opts.Clock, qz.opts.showDelay)
	if ctx.Err() != nil {
		return game.QuestionOutcome{}, ctx.Err()
	}

	allowance := qz.opts.Deadline
	if q.Type == game.QuestionTimedMedia {
		clip := game.ClipWindow{DurationSec: defaultClipSec}
		if q.Clip != nil && q.Clip.DurationSec > 0 {
			clip = *q.Clip
		}
		allowance += time.Duration(clip.DurationSec) * time.Second
		qz.controls.PlayClip(clip)
	}

	qz.display.OpenAnswering(index, q, int(allowance.Seconds()))

	stopCountdown := race.StartCountdown(qz.opts.Clock, int(allowance.Seconds()), qz.display.Countdown)
	defer stopCountdown()

	resolver := race.NewResolver(qz.opts.Clock, allowance)
	out := resolver.Race(ctx, qz.inputsFor(q)...)
	stopCountdown()

	if out.Cancelled {
		return game.QuestionOutcome{}, ctx.Err()
	}

	submitted := submission(q, out)
	outcome := game.QuestionOutcome{Submitted: submitted, Score: score}
	if q.IsCorrect(submitted) {
		outcome.Correct = true
		outcome.Score++
	}
	return outcome, nil
}

// inputsFor selects the input sources valid for the question type.
func (qz *Quiz) inputsFor(q game.QuestionEntry) []race.Input {
	if q.Type == game.QuestionChoice {
		return []race.Input{{Name: "choice", C: qz.controls.Choice()}}
	}
	return []race.Input{{Name: "text", C: qz.controls.Text()}}
}

// submission converts a settled race into an Answer; a timeout is an
// absent submission.
func submission(q game.QuestionEntry, out race.Outcome) *game.Answer {
	if out.TimedOut {
		return nil
	}
	if q.Type == game.QuestionChoice {
		idx, err := strconv.Atoi(out.Value)
		if err != nil || idx < 0 || idx >= len(q.Choices) {
			return nil
		}
		return &game.Answer{Choice: idx}
	}
	return &game.Answer{Text: out.Value}
}

func accuracy(score, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}
