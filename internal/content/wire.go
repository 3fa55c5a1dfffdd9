package content

import (
	"encoding/json"

	"github.com/dkwon12/partyround/internal/game"
)

// The content API accepts several shorthand forms when records are
// authored: a candidate may be a bare string, media may be a bare URL, and
// a question's answers may be a single string. The wire types below absorb
// those so the rest of the runtime only sees game.ContentRecord.

type wireMedia struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

func (m *wireMedia) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		m.URL = s
		return nil
	}
	type plain wireMedia
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = wireMedia(p)
	return nil
}

type wireCandidate struct {
	Name  string
	Media *wireMedia
}

func (c *wireCandidate) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &c.Name)
	}
	var obj struct {
		Name  string     `json:"name"`
		Media *wireMedia `json:"media"`
		Image string     `json:"image"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	c.Name = obj.Name
	c.Media = obj.Media
	if c.Media == nil && obj.Image != "" {
		c.Media = &wireMedia{URL: obj.Image, Type: "image"}
	}
	return nil
}

type wireAnswers []string

func (a *wireAnswers) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = wireAnswers{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*a = wireAnswers(list)
	return nil
}

type wireClip struct {
	StartSec    int `json:"start_sec"`
	DurationSec int `json:"duration_sec"`
	Start       int `json:"start"`
	Duration    int `json:"duration"`
}

type wireQuestion struct {
	Prompt   string      `json:"prompt"`
	Question string      `json:"question"`
	Type     string      `json:"type"`
	Choices  []string    `json:"choices"`
	Options  []string    `json:"options"`
	Answers  wireAnswers `json:"answers"`
	Answer   wireAnswers `json:"answer"`
	Media    *wireMedia  `json:"media"`
	Clip     *wireClip   `json:"clip"`
}

type wireContent struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Mode       string          `json:"mode"`
	Candidates []wireCandidate `json:"candidates"`
	Questions  []wireQuestion  `json:"questions"`
}

func (w wireContent) toRecord() *game.ContentRecord {
	record := &game.ContentRecord{
		ID:    w.ID,
		Title: w.Title,
		Mode:  normalizeMode(w.Mode),
	}

	for _, c := range w.Candidates {
		entry := game.CandidateEntry{Name: c.Name}
		if c.Media != nil {
			entry.Media = &game.MediaRef{URL: c.Media.URL, Type: c.Media.Type}
		}
		record.Candidates = append(record.Candidates, entry)
	}

	for _, q := range w.Questions {
		entry := game.QuestionEntry{
			Prompt:  q.Prompt,
			Type:    normalizeQuestionType(q.Type),
			Choices: q.Choices,
			Answers: []string(q.Answers),
		}
		if entry.Prompt == "" {
			entry.Prompt = q.Question
		}
		if len(entry.Choices) == 0 {
			entry.Choices = q.Options
		}
		if len(entry.Answers) == 0 {
			entry.Answers = []string(q.Answer)
		}
		if q.Media != nil {
			entry.Media = &game.MediaRef{URL: q.Media.URL, Type: q.Media.Type}
		}
		if q.Clip != nil {
			clip := game.ClipWindow{StartSec: q.Clip.StartSec, DurationSec: q.Clip.DurationSec}
			if clip.StartSec == 0 && q.Clip.Start != 0 {
				clip.StartSec = q.Clip.Start
			}
			if clip.DurationSec == 0 && q.Clip.Duration != 0 {
				clip.DurationSec = q.Clip.Duration
			}
			entry.Clip = &clip
		}
		record.Questions = append(record.Questions, entry)
	}

	return record
}

func normalizeMode(mode string) game.Mode {
	switch mode {
	case "tournament", "worldcup":
		return game.ModeTournament
	case "quiz":
		return game.ModeQuiz
	default:
		return game.Mode(mode)
	}
}

func normalizeQuestionType(typ string) game.QuestionType {
	switch typ {
	case "mcq", "choice", "multiple_choice":
		return game.QuestionChoice
	case "short", "text", "":
		return game.QuestionShort
	case "audio_youtube", "audio", "clip":
		return game.QuestionTimedMedia
	default:
		return game.QuestionType(typ)
	}
}
