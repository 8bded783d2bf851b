package models

import "time"

// Game is the application-facing projection of an external squiggle game.
type Game struct {
	ID              int       `json:"id" db:"id"`
	SquiggleGameKey string    `json:"squiggle_game_key" db:"squiggle_game_key"`
	RoundID         int       `json:"round_id" db:"round_id"`
	HomeTeam        string    `json:"home_team" db:"home_team"`
	AwayTeam        string    `json:"away_team" db:"away_team"`
	HomeScore       int       `json:"home_score" db:"home_score"`
	AwayScore       int       `json:"away_score" db:"away_score"`
	StartTime       time.Time `json:"start_time" db:"start_time"`
	Venue           string    `json:"venue" db:"venue"`
	IsComplete      bool      `json:"is_complete" db:"is_complete"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`

	// Joined round columns, populated by queries that need them.
	RoundNumber *int         `json:"round_number,omitempty" db:"-"`
	RoundStatus *RoundStatus `json:"round_status,omitempty" db:"-"`
	LockoutTime *time.Time   `json:"lockout_time,omitempty" db:"-"`
	Completion  *int         `json:"completion,omitempty" db:"-"`
}

// SquiggleGame is the full external mirror row, keyed by squiggle_game_key.
// Completion runs 0-100; 100 means finished.
type SquiggleGame struct {
	SquiggleGameKey string    `json:"squiggle_game_key" db:"squiggle_game_key"`
	RoundNumber     int       `json:"round_number" db:"round_number"`
	GameNumber      int       `json:"game_number" db:"game_number"`
	Year            int       `json:"year" db:"year"`
	Completion      int       `json:"complete" db:"complete"`
	Date            time.Time `json:"date" db:"date"`
	Timezone        string    `json:"tz" db:"tz"`
	HomeTeam        string    `json:"hteam" db:"hteam"`
	AwayTeam        string    `json:"ateam" db:"ateam"`
	HomeScore       int       `json:"hscore" db:"hscore"`
	AwayScore       int       `json:"ascore" db:"ascore"`
	HomeGoals       int       `json:"hgoals" db:"hgoals"`
	AwayGoals       int       `json:"agoals" db:"agoals"`
	HomeBehinds     int       `json:"hbehinds" db:"hbehinds"`
	AwayBehinds     int       `json:"abehinds" db:"abehinds"`
	Venue           string    `json:"venue" db:"venue"`
	Winner          *string   `json:"winner,omitempty" db:"winner"`
	LocalTime       *string   `json:"localtime,omitempty" db:"localtime"`
	HomeMargin      int       `json:"hmargin" db:"hmargin"`
	IsFinal         bool      `json:"is_final" db:"is_final"`
	IsGrandFinal    bool      `json:"is_grand_final" db:"is_grand_final"`
	RawJSON         string    `json:"-" db:"raw_json"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// ActualMargin is the result margin once the game is decided.
func (g SquiggleGame) ActualMargin() int {
	m := g.HomeScore - g.AwayScore
	if m < 0 {
		m = -m
	}
	return m
}

// GameState is the slice of game data the round status resolver needs:
// joined external completion plus the scheduled start.
type GameState struct {
	SquiggleGameKey string
	StartTime       time.Time
	Completion      int
}
