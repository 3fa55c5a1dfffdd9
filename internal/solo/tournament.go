package solo

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkwon12/partyround/internal/game"
	"github.com/dkwon12/partyround/internal/race"
)

// Tournament reduces an ordered candidate list to a single champion via
// repeated pairwise elimination rounds.
type Tournament struct {
	display  Display
	controls Controls
	opts     Options
}

// NewTournament wires a tournament engine to its presentation.
func NewTournament(display Display, controls Controls, opts Options) *Tournament {
	return &Tournament{
		display:  display,
		controls: controls,
		opts:     opts.withDefaults(),
	}
}

// Run seeds the bracket from the content record and plays rounds until one
// candidate remains. It returns the champion, or ctx.Err() if the session
// was abandoned mid-run.
func (t *Tournament) Run(ctx context.Context, content *game.ContentRecord) (*game.CandidateEntry, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}

	candidates := content.Seeded()
	log.Info().
		Str("content_id", content.ID).
		Int("candidates", len(candidates)).
		Msg("tournament seeded")

	round := 1
	for len(candidates) > 1 {
		next, err := t.playRound(ctx, round, candidates)
		if err != nil {
			return nil, err
		}
		candidates = next
		round++
	}

	champion := candidates[0]
	t.display.ShowChampion(champion)
	log.Info().Str("champion", champion.Name).Int("rounds", round-1).Msg("tournament finished")
	return &champion, nil
}

// playRound partitions the list into consecutive pairs and resolves each
// match, returning the advancing candidates in encounter order. An odd
// trailing entry advances as a bye without consuming resolver time.
func (t *Tournament) playRound(ctx context.Context, round int, candidates []game.CandidateEntry) ([]game.CandidateEntry, error) {
	totalMatches := len(candidates) / 2
	lastRound := len(candidates) <= 2

	next := make([]game.CandidateEntry, 0, (len(candidates)+1)/2)
	matchNo := 0
	for i := 0; i < len(candidates); i += 2 {
		m := game.Match{A: &candidates[i]}
		if i+1 < len(candidates) {
			m.B = &candidates[i+1]
		}
		if m.Bye() {
			next = append(next, *m.A)
			continue
		}
		matchNo++

		res, err := t.playMatch(ctx, round, matchNo, totalMatches, m)
		if err != nil {
			return nil, err
		}
		next = append(next, *res.Winner)

		t.display.ShowRoundResult(res, lastRound)
		select {
		case <-t.controls.Continue():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return next, nil
}

func (t *Tournament) playMatch(ctx context.Context, round, matchNo, totalMatches int, m game.Match) (game.RoundResult, error) {
	t.display.ShowMatch(round, matchNo, totalMatches, m)

	stopCountdown := race.StartCountdown(t.opts.Clock, int(t.opts.Deadline.Seconds()), t.display.Countdown)
	defer stopCountdown()

	resolver := race.NewResolver(t.opts.Clock, t.opts.Deadline)
	out := resolver.Race(ctx, race.Input{Name: "pick", C: t.controls.Pick()})
	stopCountdown()

	if out.Cancelled {
		return game.RoundResult{}, ctx.Err()
	}

	votesA, votesB := 0, 0
	switch {
	case out.TimedOut:
		// No vote on either side; the tie break below picks uniformly.
	case out.Value == string(game.SideA):
		votesA = 1
	case out.Value == string(game.SideB):
		votesB = 1
	}

	side, tie := game.ResolveRoundWinner(votesA, votesB, t.opts.Rand)
	winner := m.A
	if side == game.SideB {
		winner = m.B
	}

	res := game.RoundResult{
		Match:  m,
		VotesA: votesA,
		VotesB: votesB,
		IsTie:  tie,
		Winner: winner,
	}
	if total := votesA + votesB; total > 0 {
		res.PercentA = votesA * 100 / total
		res.PercentB = votesB * 100 / total
	}
	return res, nil
}
