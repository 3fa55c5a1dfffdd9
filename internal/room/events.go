package room

import (
	"encoding/json"
	"fmt"
)

// Event is one authoritative message received from the room server. Data
// holds the event-specific payload.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EventType identifies an inbound room event on the wire.
type EventType string

const (
	EventRoomState    EventType = "room:state"
	EventRoundStarted EventType = "worldcup:round"
	EventRoundResult  EventType = "worldcup:reveal"
	EventFinished     EventType = "worldcup:finished"
	EventQuestion     EventType = "quiz:question"
	EventAnswering    EventType = "quiz:answering"
	EventReveal       EventType = "quiz:reveal"
	EventScoreboard   EventType = "quiz:scoreboard"
	EventQuizFinished EventType = "quiz:finished"
)

// Outbound command names. The reconciler relays player intents with these;
// room lifecycle commands are issued by the session bootstrap.
const (
	CommandCreate       = "room:create"
	CommandJoin         = "room:join"
	CommandLeave        = "room:leave"
	CommandStart        = "game:start"
	CommandCommitPick   = "worldcup:commit"
	CommandSubmit       = "quiz:submit"
	CommandReady        = "quiz:ready"
	CommandNextRound    = "worldcup:next"
	CommandNextQuestion = "quiz:next"
)

// CandidateView is a candidate as the server presents it.
type CandidateView struct {
	Name     string `json:"name"`
	MediaURL string `json:"media_url,omitempty"`
}

// MatchView is the pair currently on screen.
type MatchView struct {
	A CandidateView `json:"a"`
	B CandidateView `json:"b"`
}

// QuestionView is a question as the server presents it. The correct answer
// is never included; it arrives only in the reveal.
type QuestionView struct {
	Prompt   string   `json:"prompt"`
	Type     string   `json:"type"`
	Choices  []string `json:"choices,omitempty"`
	MediaURL string   `json:"media_url,omitempty"`
	ClipSec  int      `json:"clip_sec,omitempty"`
}

// ScoreRow is one player's line on a scoreboard.
type ScoreRow struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
}

// RoundStartedPayload opens one tournament match for voting.
type RoundStartedPayload struct {
	RoundIndex   int       `json:"round_index"`
	MatchIndex   int       `json:"match_index"`
	TotalMatches int       `json:"total_matches"`
	Match        MatchView `json:"match"`
	TimerSec     int       `json:"timer_sec"`
}

// RoundResultPayload reveals a settled tournament match.
type RoundResultPayload struct {
	VotesA    int    `json:"votes_a"`
	VotesB    int    `json:"votes_b"`
	PercentA  int    `json:"percent_a"`
	PercentB  int    `json:"percent_b"`
	Winner    string `json:"winner"`
	IsTie     bool   `json:"is_tie"`
	LastRound bool   `json:"last_round"`
}

// FinishedPayload closes a tournament with the champion and the final
// ranking.
type FinishedPayload struct {
	Champion CandidateView `json:"champion"`
	Scores   []ScoreRow    `json:"scores"`
}

// QuestionPayload presents a quiz question before answering opens.
type QuestionPayload struct {
	Index    int          `json:"index"`
	Total    int          `json:"total"`
	Question QuestionView `json:"question"`
}

// AnsweringPayload opens the answering window for the current question.
type AnsweringPayload struct {
	AllowanceSec int `json:"allowance_sec"`
}

// PlayerResult is one player's outcome within a reveal. Answer is empty
// when the player never submitted.
type PlayerResult struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Answer  string `json:"answer,omitempty"`
	Correct bool   `json:"correct"`
}

// RevealPayload discloses the correct answer for the current question and
// every player's result.
type RevealPayload struct {
	Index         int            `json:"index"`
	CorrectAnswer string         `json:"correct_answer"`
	CorrectChoice int            `json:"correct_choice"`
	YouCorrect    bool           `json:"you_correct"`
	Results       []PlayerResult `json:"results"`
	LastQuestion  bool           `json:"last_question"`
}

// ScoreboardPayload ranks players between questions or at the end.
type ScoreboardPayload struct {
	Rows []ScoreRow `json:"rows"`
}

// ParseEventPayload parses event data into the appropriate payload struct.
// Unknown event types return (nil, nil) so callers can ignore them.
func ParseEventPayload(event Event) (interface{}, error) {
	switch event.Type {
	case EventRoomState:
		var payload Snapshot
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, fmt.Errorf("parse %s: %w", event.Type, err)
		}
		return payload, nil

	case EventRoundStarted:
		var payload RoundStartedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, fmt.Errorf("parse %s: %w", event.Type, err)
		}
		return payload, nil

	case EventRoundResult:
		var payload RoundResultPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, fmt.Errorf("parse %s: %w", event.Type, err)
		}
		return payload, nil

	case EventFinished:
		var payload FinishedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, fmt.Errorf("parse %s: %w", event.Type, err)
		}
		return payload, nil

	case EventQuestion:
		var payload QuestionPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, fmt.Errorf("parse %s: %w", event.Type, err)
		}
		return payload, nil

	case EventAnswering:
		var payload AnsweringPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, fmt.Errorf("parse %s: %w", event.Type, err)
		}
		return payload, nil

	case EventReveal:
		var payload RevealPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, fmt.Errorf("parse %s: %w", event.Type, err)
		}
		return payload, nil

	case EventScoreboard:
		var payload ScoreboardPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, fmt.Errorf("parse %s: %w", event.Type, err)
		}
		return payload, nil

	case EventQuizFinished:
		var payload ScoreboardPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, fmt.Errorf("parse %s: %w", event.Type, err)
		}
		return payload, nil

	default:
		return nil, nil
	}
}
