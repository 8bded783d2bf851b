package models

import "time"

// UserTally is the raw per-user aggregation the ladder is computed from.
// Percentage, ordering and ranks are derived in the service layer so the
// full-ladder and single-user paths share one definition.
type UserTally struct {
	UserID          int     `json:"user_id" db:"user_id"`
	UserName        string  `json:"user_name" db:"user_name"`
	FamilyGroupName *string `json:"family_group_name,omitempty" db:"family_group_name"`
	TotalTips       int     `json:"total_tips" db:"total_tips"`
	CorrectTips     int     `json:"correct_tips" db:"correct_tips"`
	CompletedTips   int     `json:"completed_tips" db:"completed_tips"`
	LatestRound     *int    `json:"latest_round,omitempty" db:"latest_round"`
}

type LadderEntry struct {
	UserTally
	Percentage float64 `json:"percentage"`
	Rank       int     `json:"rank"`
}

type LadderResponse struct {
	Ladder          []LadderEntry `json:"ladder"`
	Year            int           `json:"year"`
	LastUpdated     time.Time     `json:"last_updated"`
	TotalRounds     int           `json:"total_rounds"`
	CompletedRounds int           `json:"completed_rounds"`
}

type FamilyGroupTally struct {
	FamilyGroupID   int    `json:"family_group_id" db:"family_group_id"`
	FamilyGroupName string `json:"family_group_name" db:"family_group_name"`
	MemberCount     int    `json:"member_count" db:"member_count"`
	TotalTips       int    `json:"total_tips" db:"total_tips"`
	CorrectTips     int    `json:"correct_tips" db:"correct_tips"`
	CompletedTips   int    `json:"completed_tips" db:"completed_tips"`
}

type FamilyGroupStanding struct {
	FamilyGroupTally
	Percentage              float64 `json:"percentage"`
	AverageCorrectPerMember float64 `json:"average_correct_per_member"`
	Rank                    int     `json:"rank"`
}

// DecidedTip is one scored tip in chronological order, as consumed by the
// streak walk.
type DecidedTip struct {
	IsCorrect   bool      `json:"is_correct" db:"is_correct"`
	StartTime   time.Time `json:"start_time" db:"start_time"`
	RoundNumber int       `json:"round_number" db:"round_number"`
}

type StreakType string

const (
	StreakCorrect   StreakType = "correct"
	StreakIncorrect StreakType = "incorrect"
)

type StreakInfo struct {
	CurrentStreak          int         `json:"current_streak"`
	CurrentStreakType      *StreakType `json:"current_streak_type"`
	LongestCorrectStreak   int         `json:"longest_correct_streak"`
	LongestIncorrectStreak int         `json:"longest_incorrect_streak"`
	TotalDecidedTips       int         `json:"total_decided_tips"`
}

type HeadToHead struct {
	User1Name     string `json:"user1_name" db:"user1_name"`
	User2Name     string `json:"user2_name" db:"user2_name"`
	User1Wins     int    `json:"user1_wins" db:"user1_wins"`
	User2Wins     int    `json:"user2_wins" db:"user2_wins"`
	Draws         int    `json:"draws" db:"draws"`
	TotalCompared int    `json:"total_compared" db:"total_compared"`
}

type RoundPerformance struct {
	RoundNumber   int         `json:"round_number" db:"round_number"`
	Status        RoundStatus `json:"status" db:"status"`
	TotalTips     int         `json:"total_tips" db:"total_tips"`
	CorrectTips   int         `json:"correct_tips" db:"correct_tips"`
	IncorrectTips int         `json:"incorrect_tips" db:"incorrect_tips"`
	PendingTips   int         `json:"pending_tips" db:"pending_tips"`
	Percentage    float64     `json:"percentage" db:"percentage"`
}

type TipPopularity struct {
	HomeTeam       string   `json:"home_team" db:"home_team"`
	AwayTeam       string   `json:"away_team" db:"away_team"`
	Venue          string   `json:"venue" db:"venue"`
	HomeTips       int      `json:"home_tips" db:"home_tips"`
	AwayTips       int      `json:"away_tips" db:"away_tips"`
	TotalTips      int      `json:"total_tips" db:"total_tips"`
	HomePercentage *float64 `json:"home_percentage,omitempty" db:"home_percentage"`
}
