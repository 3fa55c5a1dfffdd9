package game

import (
	"errors"
	"fmt"
)

var (
	// ErrNoQuestions indicates a quiz record without a single question.
	ErrNoQuestions = errors.New("content has no questions")
	// ErrUnknownMode indicates a record whose mode is neither variant.
	ErrUnknownMode = errors.New("content has unknown mode")
)

// Validate checks that a fetched record is usable before an engine starts.
// A tournament record with fewer than two candidates is still valid: the
// engine pads it via Seeded. An empty quiz cannot be padded and is
// rejected.
func (c *ContentRecord) Validate() error {
	switch c.Mode {
	case ModeTournament:
		return nil
	case ModeQuiz:
		if len(c.Questions) == 0 {
			return ErrNoQuestions
		}
		for i, q := range c.Questions {
			if q.Prompt == "" {
				return fmt.Errorf("question %d: empty prompt", i)
			}
			if q.Type == QuestionChoice && len(q.Choices) < 2 {
				return fmt.Errorf("question %d: mcq needs at least two choices", i)
			}
			if len(q.Answers) == 0 {
				return fmt.Errorf("question %d: empty answer set", i)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Mode)
	}
}

// Seeded returns the initial bracket list for a tournament. Records with
// fewer than two candidates are padded with placeholders so the bracket is
// always well formed.
func (c *ContentRecord) Seeded() []CandidateEntry {
	seeds := make([]CandidateEntry, 0, len(c.Candidates))
	for _, cand := range c.Candidates {
		if cand.Name == "" {
			continue
		}
		seeds = append(seeds, cand)
	}
	for i := len(seeds); i < 2; i++ {
		seeds = append(seeds, CandidateEntry{Name: fmt.Sprintf("Candidate %c", 'A'+i)})
	}
	return seeds
}
