// Package ui renders game state to a terminal and feeds keyboard input
// into the engines.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dkwon12/partyround/internal/game"
	"github.com/dkwon12/partyround/internal/room"
)

// Terminal renders solo engine callbacks and reconciled room views.
type Terminal struct {
	out io.Writer
}

// NewTerminal writes to out, usually os.Stdout.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) printf(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...)
}

// ShowMatch presents one tournament pairing.
func (t *Terminal) ShowMatch(round, match, totalMatches int, m game.Match) {
	t.printf("\n%s\n", color.HiWhiteString("Round %d - match %d of %d", round, match, totalMatches))
	t.printf("  [A] %s\n", color.CyanString(m.A.Name))
	if m.A.Media != nil {
		t.printf("      %s\n", m.A.Media.URL)
	}
	t.printf("  [B] %s\n", color.MagentaString(m.B.Name))
	if m.B.Media != nil {
		t.printf("      %s\n", m.B.Media.URL)
	}
	t.printf("Pick A or B: ")
}

// ShowRoundResult presents a settled match.
func (t *Terminal) ShowRoundResult(res game.RoundResult, lastRound bool) {
	t.printf("\n  %s %s\n", bar(res.PercentA), color.CyanString("%s %d%%", res.Match.A.Name, res.PercentA))
	t.printf("  %s %s\n", bar(res.PercentB), color.MagentaString("%s %d%%", res.Match.B.Name, res.PercentB))
	if res.IsTie {
		t.printf("  %s\n", color.YellowString("tie - winner drawn at random"))
	}
	label := "advances"
	if lastRound {
		label = "wins it all"
	}
	t.printf("  %s %s\n", color.GreenString(res.Winner.Name), label)
	t.printf("Press enter to continue.\n")
}

// ShowChampion presents the tournament winner.
func (t *Terminal) ShowChampion(champ game.CandidateEntry) {
	t.printf("\n%s\n", color.New(color.FgGreen, color.Bold).Sprintf("Champion: %s", champ.Name))
}

// ShowQuestion presents a quiz question before answering opens.
func (t *Terminal) ShowQuestion(index, total int, q game.QuestionEntry) {
	t.printf("\n%s\n", color.HiWhiteString("Question %d of %d", index+1, total))
	t.printf("  %s\n", q.Prompt)
	for i, choice := range q.Choices {
		t.printf("   %d) %s\n", i, choice)
	}
	if q.Media != nil {
		t.printf("  %s\n", q.Media.URL)
	}
}

// OpenAnswering opens the input window.
func (t *Terminal) OpenAnswering(index int, q game.QuestionEntry, allowanceSec int) {
	t.printf("%s ", color.YellowString("You have %ds.", allowanceSec))
	if q.Type == game.QuestionChoice {
		t.printf("Answer with the option number: ")
	} else {
		t.printf("Type your answer: ")
	}
}

// ShowReveal presents the outcome of one question.
func (t *Terminal) ShowReveal(index, total int, q game.QuestionEntry, out game.QuestionOutcome, lastQuestion bool) {
	switch {
	case out.Correct:
		t.printf("\n  %s\n", color.GreenString("Correct!"))
	case out.Submitted == nil:
		t.printf("\n  %s\n", color.RedString("Time's up."))
	default:
		t.printf("\n  %s\n", color.RedString("Wrong."))
	}
	if !out.Correct && len(q.Answers) > 0 {
		t.printf("  The answer was %s\n", color.GreenString(answerText(q)))
	}
	t.printf("  Score: %d\n", out.Score)
	if !lastQuestion {
		t.printf("Press enter for the next question.\n")
	} else {
		t.printf("Press enter for the final score.\n")
	}
}

// ShowFinished presents the final quiz score.
func (t *Terminal) ShowFinished(score, total, accuracy int) {
	t.printf("\n%s\n", color.New(color.FgGreen, color.Bold).Sprintf("Finished: %d/%d correct (%d%%)", score, total, accuracy))
}

// Countdown prints the remaining seconds in place.
func (t *Terminal) Countdown(remaining int) {
	if remaining <= 0 {
		t.printf("\r%s\n", color.RedString("Time!           "))
		return
	}
	t.printf("\r%s ", color.YellowString("%2ds left", remaining))
}

// Render presents one reconciled room view.
func (t *Terminal) Render(v room.View) {
	switch v.Phase {
	case room.PhaseLobby:
		t.printf("\n%s\n", color.HiWhiteString("Room %s - %s", v.RoomID, v.ContentTitle))
		t.renderPlayers(v)
		if v.IsHost {
			t.printf("%s\n", color.YellowString("You are the host. Type start to begin."))
		} else {
			t.printf("Waiting for the host to start.\n")
		}

	case room.PhasePlaying:
		if p, ok := v.Payload.(room.RoundStartedPayload); ok {
			t.printf("\n%s\n", color.HiWhiteString("Round %d - match %d of %d", p.RoundIndex, p.MatchIndex, p.TotalMatches))
			t.printf("  [A] %s\n", color.CyanString(p.Match.A.Name))
			t.printf("  [B] %s\n", color.MagentaString(p.Match.B.Name))
		}
		if v.Committed {
			t.printf("%s\n", color.GreenString("Pick locked in. Waiting for the others."))
		} else {
			t.printf("Pick A or B: ")
		}

	case room.PhaseRevealed:
		if p, ok := v.Payload.(room.RoundResultPayload); ok {
			t.printf("\n  %s A %d votes (%d%%)\n", bar(p.PercentA), p.VotesA, p.PercentA)
			t.printf("  %s B %d votes (%d%%)\n", bar(p.PercentB), p.VotesB, p.PercentB)
			if p.IsTie {
				t.printf("  %s\n", color.YellowString("tie - winner drawn at random"))
			}
			t.printf("  %s advances\n", color.GreenString(p.Winner))
		}
		t.renderAdvanceHint(v)

	case room.PhaseQuestion:
		if p, ok := v.Payload.(room.QuestionPayload); ok {
			t.printf("\n%s\n", color.HiWhiteString("Question %d of %d", p.Index+1, p.Total))
			t.printf("  %s\n", p.Question.Prompt)
			for i, choice := range p.Question.Choices {
				t.printf("   %d) %s\n", i, choice)
			}
		}

	case room.PhaseAnswering:
		if v.Committed {
			t.printf("%s\n", color.GreenString("Answer submitted. Waiting for the others."))
		} else if v.Timer.Enabled {
			t.printf("%s Answer now: ", color.YellowString("You have %ds.", v.Timer.RemainingSec))
		} else {
			t.printf("Answer now: ")
		}

	case room.PhaseReveal:
		if p, ok := v.Payload.(room.RevealPayload); ok {
			if p.YouCorrect {
				t.printf("\n  %s\n", color.GreenString("Correct!"))
			} else {
				t.printf("\n  %s The answer was %s\n", color.RedString("Wrong."), color.GreenString(p.CorrectAnswer))
			}
			for _, r := range p.Results {
				mark := color.RedString("x")
				if r.Correct {
					mark = color.GreenString("*")
				}
				answer := r.Answer
				if answer == "" {
					answer = "no answer"
				}
				t.printf("  %s %-16s %s\n", mark, r.Name, answer)
			}
		}
		t.renderAdvanceHint(v)

	case room.PhaseScoreboard:
		if p, ok := v.Payload.(room.ScoreboardPayload); ok {
			t.printf("\n%s\n", color.HiWhiteString("Scoreboard"))
			t.renderScoreRows(p.Rows)
		}
		t.renderAdvanceHint(v)

	case room.PhaseFinished:
		t.printf("\n%s\n", color.New(color.FgGreen, color.Bold).Sprint("Game over"))
		switch p := v.Payload.(type) {
		case room.FinishedPayload:
			t.printf("  Champion: %s\n", color.GreenString(p.Champion.Name))
			t.renderScoreRows(p.Scores)
		case room.ScoreboardPayload:
			t.renderScoreRows(p.Rows)
		}
	}
}

func (t *Terminal) renderPlayers(v room.View) {
	for _, p := range v.Players {
		marker := " "
		if p.State == room.PlayerCommitted {
			marker = color.GreenString("*")
		}
		if p.State == room.PlayerDisconnected {
			marker = color.RedString("x")
		}
		t.printf("  %s %s\n", marker, p.Name)
	}
}

// renderScoreRows prints a ranking table. Rows arrive sorted by score;
// equal scores share a rank.
func (t *Terminal) renderScoreRows(rows []room.ScoreRow) {
	rank := 1
	for i, row := range rows {
		if i > 0 && row.Score < rows[i-1].Score {
			rank = i + 1
		}
		t.printf("  %d. %-16s %d\n", rank, row.Name, row.Score)
	}
}

func (t *Terminal) renderAdvanceHint(v room.View) {
	if v.IsHost {
		t.printf("%s\n", color.YellowString("Press enter to advance."))
	} else {
		t.printf("Waiting for the host.\n")
	}
}

func answerText(q game.QuestionEntry) string {
	if q.Type == game.QuestionChoice {
		if idx := q.CorrectChoice(); idx >= 0 {
			return q.Choices[idx]
		}
	}
	return q.Answers[0]
}

func bar(percent int) string {
	filled := percent / 5
	return strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)
}
