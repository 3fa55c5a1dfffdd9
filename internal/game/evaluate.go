package game

import (
	"fmt"
	"math/rand"
	"strings"
)

// NormalizeAnswer reduces a free-text answer to its canonical comparison
// form: leading/trailing space trimmed, case folded, and all internal
// whitespace removed, so "New  York", "new york" and "NEWYORK" compare
// equal.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// IsCorrect evaluates a submission against the question's canonical answer
// set. A nil submission is always incorrect. For mcq questions the chosen
// index is compared against the canonical index; for short and timed-media
// questions the normalized text must match any normalized canonical answer.
func (q QuestionEntry) IsCorrect(ans *Answer) bool {
	if ans == nil || len(q.Answers) == 0 {
		return false
	}

	if q.Type == QuestionChoice {
		correct := q.CorrectChoice()
		return correct >= 0 && ans.Choice == correct
	}

	want := NormalizeAnswer(ans.Text)
	if want == "" {
		return false
	}
	for _, canonical := range q.Answers {
		if NormalizeAnswer(canonical) == want {
			return true
		}
	}
	return false
}

// CorrectChoice returns the canonical option index for an mcq question,
// or -1 if the answer set does not hold a valid index.
func (q QuestionEntry) CorrectChoice() int {
	if q.Type != QuestionChoice || len(q.Answers) == 0 {
		return -1
	}
	var idx int
	if _, err := fmt.Sscanf(strings.TrimSpace(q.Answers[0]), "%d", &idx); err != nil {
		return -1
	}
	if idx < 0 || idx >= len(q.Choices) {
		return -1
	}
	return idx
}

// ResolveRoundWinner decides a match from vote counts. The side with
// strictly more votes wins; an exact tie (including zero votes on both
// sides after a timeout) is broken by a uniform coin flip over the two
// sides and flagged as a tie. rng is the engines' only source of
// non-determinism.
func ResolveRoundWinner(votesA, votesB int, rng *rand.Rand) (Side, bool) {
	switch {
	case votesA > votesB:
		return SideA, false
	case votesB > votesA:
		return SideB, false
	}
	if rng.Intn(2) == 0 {
		return SideA, true
	}
	return SideB, true
}
