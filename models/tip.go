package models

import "time"

type Tip struct {
	ID               int       `json:"id" db:"id"`
	UserID           int       `json:"user_id" db:"user_id"`
	GameID           int       `json:"game_id" db:"game_id"`
	SquiggleGameKey  string    `json:"squiggle_game_key" db:"squiggle_game_key"`
	RoundID          int       `json:"round_id" db:"round_id"`
	SelectedTeam     string    `json:"selected_team" db:"selected_team"`
	IsCorrect        *bool     `json:"is_correct,omitempty" db:"is_correct"`
	MarginPrediction *int      `json:"margin_prediction,omitempty" db:"margin_prediction"`
	IsMarginGame     bool      `json:"is_margin_game" db:"is_margin_game"`
	MarginDifference *int      `json:"margin_difference,omitempty" db:"margin_difference"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`

	// Joined columns for list views.
	UserName    *string    `json:"user_name,omitempty" db:"-"`
	HomeTeam    *string    `json:"home_team,omitempty" db:"-"`
	AwayTeam    *string    `json:"away_team,omitempty" db:"-"`
	Venue       *string    `json:"venue,omitempty" db:"-"`
	StartTime   *time.Time `json:"start_time,omitempty" db:"-"`
	IsComplete  *bool      `json:"is_complete,omitempty" db:"-"`
	HomeScore   *int       `json:"home_score,omitempty" db:"-"`
	AwayScore   *int       `json:"away_score,omitempty" db:"-"`
	RoundNumber *int       `json:"round_number,omitempty" db:"-"`
	Year        *int       `json:"year,omitempty" db:"-"`
	LockoutTime *time.Time `json:"lockout_time,omitempty" db:"-"`
}

// TipSubmission is one entry of a batch tip submission.
type TipSubmission struct {
	GameID           int    `json:"game_id"`
	SelectedTeam     string `json:"selected_team"`
	MarginPrediction *int   `json:"margin_prediction,omitempty"`
}

// MarginGamePosition selects which game(s) within a finals round carry the
// margin prediction.
type MarginGamePosition string

const (
	MarginGameFirst MarginGamePosition = "first"
	MarginGameLast  MarginGamePosition = "last"
	MarginGameAll   MarginGamePosition = "all"
)

type FinalsConfig struct {
	RoundNumber        int                `json:"round_number" db:"round_number"`
	RequiresMargin     bool               `json:"requires_margin" db:"requires_margin"`
	MarginGamePosition MarginGamePosition `json:"margin_game_position" db:"margin_game_position"`
}

type RoundWinner struct {
	RoundID          int       `json:"round_id" db:"round_id"`
	UserID           int       `json:"user_id" db:"user_id"`
	WinType          string    `json:"win_type" db:"win_type"`
	MarginDifference int       `json:"margin_difference" db:"margin_difference"`
	PointsAwarded    int       `json:"points_awarded" db:"points_awarded"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`

	UserName *string `json:"user_name,omitempty" db:"-"`
}

// RoundTipStats summarises tipping activity within a round.
type RoundTipStats struct {
	UsersTipped   int `json:"users_tipped"`
	TotalTips     int `json:"total_tips"`
	CorrectTips   int `json:"correct_tips"`
	IncorrectTips int `json:"incorrect_tips"`
	PendingTips   int `json:"pending_tips"`
	GamesWithTips int `json:"games_with_tips"`
}
