package game

// Mode defines which game variant a content record drives.
type Mode string

const (
	ModeTournament Mode = "worldcup"
	ModeQuiz       Mode = "quiz"
)

// QuestionType defines how a quiz question is asked and answered.
type QuestionType string

const (
	QuestionChoice     QuestionType = "mcq"
	QuestionShort      QuestionType = "short"
	QuestionTimedMedia QuestionType = "audio_youtube"
)

// Side identifies one half of a tournament match.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// MediaRef points at an image or clip attached to a candidate or question.
type MediaRef struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// ClipWindow bounds the playable section of a timed-media question's clip.
type ClipWindow struct {
	StartSec    int `json:"start_sec"`
	DurationSec int `json:"duration_sec"`
}

// CandidateEntry is one tournament participant.
type CandidateEntry struct {
	Name  string    `json:"name"`
	Media *MediaRef `json:"media,omitempty"`
}

// QuestionEntry is one quiz question. Choices is set for mcq questions,
// Answers holds every acceptable canonical answer, Clip is set for
// timed-media questions.
type QuestionEntry struct {
	Prompt  string       `json:"prompt"`
	Type    QuestionType `json:"type"`
	Choices []string     `json:"choices,omitempty"`
	Answers []string     `json:"answers"`
	Media   *MediaRef    `json:"media,omitempty"`
	Clip    *ClipWindow  `json:"clip,omitempty"`
}

// ContentRecord is an immutable content lookup result. Exactly one of
// Candidates or Questions is populated, depending on Mode.
type ContentRecord struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Mode       Mode             `json:"mode"`
	Candidates []CandidateEntry `json:"candidates,omitempty"`
	Questions  []QuestionEntry  `json:"questions,omitempty"`
}

// Match pairs two candidates for one tournament round. B is nil for a bye.
type Match struct {
	A *CandidateEntry
	B *CandidateEntry
}

// Bye reports whether the match has no opponent and A advances uncontested.
func (m Match) Bye() bool {
	return m.B == nil
}

// RoundResult is the outcome of a single resolved match, consumed by the
// presentation layer and then discarded.
type RoundResult struct {
	Match    Match
	VotesA   int
	VotesB   int
	PercentA int
	PercentB int
	IsTie    bool
	Winner   *CandidateEntry
}

// Answer is a player's submission for one question. Exactly one field is
// meaningful per question type: Choice for mcq, Text otherwise.
type Answer struct {
	Choice int
	Text   string
}

// QuestionOutcome is the result of evaluating one question. Score is the
// running session score after this question.
type QuestionOutcome struct {
	Submitted *Answer
	Correct   bool
	Score     int
}
