package models

import "time"

// RoundStatus mirrors the rounds.status column.
type RoundStatus string

const (
	RoundUpcoming  RoundStatus = "upcoming"
	RoundActive    RoundStatus = "active"
	RoundCompleted RoundStatus = "completed"
)

// Finals rounds occupy numbers 25-28 by convention.
const (
	FirstFinalsRound = 25
	LastFinalsRound  = 28
)

type Round struct {
	ID          int         `json:"id" db:"id"`
	RoundNumber int         `json:"round_number" db:"round_number"`
	Year        int         `json:"year" db:"year"`
	Status      RoundStatus `json:"status" db:"status"`
	LockoutTime *time.Time  `json:"lockout_time,omitempty" db:"lockout_time"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`

	// Aggregates populated by list queries, not mapped to columns.
	GameCount      int        `json:"game_count,omitempty" db:"-"`
	CompletedGames int        `json:"completed_games,omitempty" db:"-"`
	FirstGameTime  *time.Time `json:"first_game_time,omitempty" db:"-"`
	LastGameTime   *time.Time `json:"last_game_time,omitempty" db:"-"`
}

func (r Round) IsFinals() bool {
	return r.RoundNumber >= FirstFinalsRound && r.RoundNumber <= LastFinalsRound
}
