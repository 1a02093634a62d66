package model

import (
	"encoding/json"
	"time"
)

// Turn is one adjudicated phase of a game.
type Turn struct {
	ID          string          `json:"id"`
	GameID      string          `json:"game_id"`
	Number      int             `json:"number"` // 1-based position in the game
	Year        int             `json:"year"`
	Season      string          `json:"season"`
	PhaseType   string          `json:"phase_type"`
	StateBefore string          `json:"state_before"` // DFEN
	StateAfter  string          `json:"state_after"`  // DFEN
	Orders      json.RawMessage `json:"orders,omitempty"`
	Unresolved  bool            `json:"unresolved,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ResultEntry is one line of a turn's result log.
type ResultEntry struct {
	TurnID   string    `json:"turn_id,omitempty"`
	Seq      int       `json:"seq"`
	Kind     string    `json:"kind"`
	Power    string    `json:"power,omitempty"`
	Location string    `json:"location,omitempty"`
	Outcome  string    `json:"outcome,omitempty"`
	Message  string    `json:"message"`
	At       time.Time `json:"at,omitempty"`
}

// TurnRecord is everything saved for one turn.
type TurnRecord struct {
	Turn    Turn
	Results []ResultEntry
}
