package room

import (
	"encoding/json"
)

// Phase is the room's current lifecycle stage. Tournament rooms move
// lobby -> playing -> revealed (-> playing ...) -> finished; quiz rooms
// move lobby -> question -> answering -> reveal -> scoreboard
// (-> question ...) -> finished.
type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhasePlaying    Phase = "playing"
	PhaseRevealed   Phase = "revealed"
	PhaseQuestion   Phase = "question"
	PhaseAnswering  Phase = "answering"
	PhaseReveal     Phase = "reveal"
	PhaseScoreboard Phase = "scoreboard"
	PhaseFinished   Phase = "finished"
)

// PlayerState is a player's standing within the current round.
type PlayerState string

const (
	PlayerWaiting      PlayerState = "waiting"
	PlayerCommitted    PlayerState = "committed"
	PlayerDisconnected PlayerState = "disconnected"
)

// PlayerStatus is one roster entry in a room snapshot.
type PlayerStatus struct {
	UserID string      `json:"user_id"`
	Name   string      `json:"name"`
	State  PlayerState `json:"state"`
}

// Timer is the answering window as the server last described it.
// RemainingSec is measured at snapshot time; clients re-arm their local
// countdown from it rather than restarting from the full allowance.
type Timer struct {
	Enabled      bool `json:"enabled"`
	RemainingSec int  `json:"remaining_sec"`
}

// Snapshot is the server's full description of a room, sent on join and on
// reconnect. It carries everything needed to reconstruct the live view:
// the phase, the current round or question payload, the running timer, the
// local player's standing pick, and the last reveal/scoreboard/final
// result so a client landing mid-phase can render it.
type Snapshot struct {
	ID             string               `json:"id"`
	Mode           string               `json:"mode"`
	Phase          Phase                `json:"phase"`
	HostUserID     string               `json:"host_user_id"`
	ContentID      string               `json:"content_id"`
	ContentTitle   string               `json:"content_title"`
	Players        []PlayerStatus       `json:"players"`
	RoundIndex     int                  `json:"round_index"`
	QuestionIndex  int                  `json:"question_index"`
	Round          *RoundStartedPayload `json:"round,omitempty"`
	Question       *QuestionPayload     `json:"question,omitempty"`
	Timer          Timer                `json:"timer"`
	MyPick         *string              `json:"my_pick,omitempty"`
	LastReveal     json.RawMessage      `json:"last_reveal,omitempty"`
	LastScoreboard json.RawMessage      `json:"last_scoreboard,omitempty"`
	LastFinished   json.RawMessage      `json:"last_finished,omitempty"`
}
