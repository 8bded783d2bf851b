package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cookseyplate/tipping-system/models"
)

// LadderRepository returns raw aggregation rows; ordering, percentages and
// ranks are derived in the ladder service so the full-ladder and single-user
// paths cannot drift apart.
type LadderRepository interface {
	// UserTallies returns one tally per user holding at least one tip in the
	// year.
	UserTallies(ctx context.Context, year int) ([]*models.UserTally, error)
	UserTally(ctx context.Context, userID, year int) (*models.UserTally, error)
	FamilyGroupTallies(ctx context.Context, year int) ([]*models.FamilyGroupTally, error)
	// DecidedTips returns the user's scored tips for the year in chronological
	// order of game start.
	DecidedTips(ctx context.Context, userID, year int) ([]models.DecidedTip, error)
	HeadToHead(ctx context.Context, user1ID, user2ID, year int) (*models.HeadToHead, error)
	RoundPerformance(ctx context.Context, userID, year int) ([]*models.RoundPerformance, error)
	TipPopularity(ctx context.Context, roundID int) ([]*models.TipPopularity, error)
}

type postgresLadderRepository struct {
	db *sql.DB
}

func NewPostgresLadderRepository(db *sql.DB) LadderRepository {
	return &postgresLadderRepository{db: db}
}

const userTallyQuery = `
	SELECT
		u.id,
		u.name,
		fg.name,
		COUNT(t.id),
		COUNT(t.id) FILTER (WHERE t.is_correct = TRUE),
		COUNT(t.id) FILTER (WHERE t.is_correct IS NOT NULL),
		MAX(r.round_number)
	FROM users u
	LEFT JOIN family_groups fg ON fg.id = u.family_group_id
	JOIN tips t ON t.user_id = u.id
	JOIN rounds r ON r.id = t.round_id AND r.year = $1`

func (r *postgresLadderRepository) scanTally(rowScanner interface{ Scan(...interface{}) error }) (*models.UserTally, error) {
	var t models.UserTally
	err := rowScanner.Scan(
		&t.UserID, &t.UserName, &t.FamilyGroupName,
		&t.TotalTips, &t.CorrectTips, &t.CompletedTips, &t.LatestRound,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresLadderRepository) UserTallies(ctx context.Context, year int) ([]*models.UserTally, error) {
	query := userTallyQuery + `
	GROUP BY u.id, u.name, fg.name`

	rows, err := r.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tallies := make([]*models.UserTally, 0)
	for rows.Next() {
		t, scanErr := r.scanTally(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}

func (r *postgresLadderRepository) UserTally(ctx context.Context, userID, year int) (*models.UserTally, error) {
	query := userTallyQuery + `
	WHERE u.id = $2
	GROUP BY u.id, u.name, fg.name`
	row := r.db.QueryRowContext(ctx, query, year, userID)
	return r.scanTally(row)
}

func (r *postgresLadderRepository) FamilyGroupTallies(ctx context.Context, year int) ([]*models.FamilyGroupTally, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			fg.id,
			fg.name,
			COUNT(DISTINCT u.id),
			COUNT(t.id),
			COUNT(t.id) FILTER (WHERE t.is_correct = TRUE),
			COUNT(t.id) FILTER (WHERE t.is_correct IS NOT NULL)
		FROM family_groups fg
		LEFT JOIN users u ON u.family_group_id = fg.id
		LEFT JOIN tips t ON t.user_id = u.id
		LEFT JOIN rounds r ON r.id = t.round_id AND r.year = $1
		GROUP BY fg.id, fg.name
		HAVING COUNT(t.id) > 0`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tallies := make([]*models.FamilyGroupTally, 0)
	for rows.Next() {
		var t models.FamilyGroupTally
		if err := rows.Scan(
			&t.FamilyGroupID, &t.FamilyGroupName, &t.MemberCount,
			&t.TotalTips, &t.CorrectTips, &t.CompletedTips,
		); err != nil {
			return nil, err
		}
		tallies = append(tallies, &t)
	}
	return tallies, rows.Err()
}

func (r *postgresLadderRepository) DecidedTips(ctx context.Context, userID, year int) ([]models.DecidedTip, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.is_correct, g.start_time, r.round_number
		FROM tips t
		JOIN games g ON g.id = t.game_id
		JOIN rounds r ON r.id = t.round_id
		WHERE t.user_id = $1 AND r.year = $2 AND t.is_correct IS NOT NULL
		ORDER BY g.start_time`, userID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tips := make([]models.DecidedTip, 0)
	for rows.Next() {
		var dt models.DecidedTip
		if err := rows.Scan(&dt.IsCorrect, &dt.StartTime, &dt.RoundNumber); err != nil {
			return nil, err
		}
		tips = append(tips, dt)
	}
	return tips, rows.Err()
}

func (r *postgresLadderRepository) HeadToHead(ctx context.Context, user1ID, user2ID, year int) (*models.HeadToHead, error) {
	var h models.HeadToHead
	err := r.db.QueryRowContext(ctx, `
		SELECT
			u1.name,
			u2.name,
			COUNT(*) FILTER (WHERE t1.is_correct = TRUE AND t2.is_correct = FALSE),
			COUNT(*) FILTER (WHERE t1.is_correct = FALSE AND t2.is_correct = TRUE),
			COUNT(*) FILTER (WHERE t1.is_correct = t2.is_correct AND t1.is_correct IS NOT NULL),
			COUNT(*) FILTER (WHERE t1.is_correct IS NOT NULL AND t2.is_correct IS NOT NULL)
		FROM users u1
		CROSS JOIN users u2
		LEFT JOIN tips t1 ON t1.user_id = u1.id
			AND t1.round_id IN (SELECT id FROM rounds WHERE year = $3)
		LEFT JOIN tips t2 ON t2.user_id = u2.id AND t2.game_id = t1.game_id
		WHERE u1.id = $1 AND u2.id = $2
		GROUP BY u1.name, u2.name`, user1ID, user2ID, year,
	).Scan(&h.User1Name, &h.User2Name, &h.User1Wins, &h.User2Wins, &h.Draws, &h.TotalCompared)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (r *postgresLadderRepository) RoundPerformance(ctx context.Context, userID, year int) ([]*models.RoundPerformance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			r.round_number,
			r.status,
			COUNT(t.id),
			COUNT(t.id) FILTER (WHERE t.is_correct = TRUE),
			COUNT(t.id) FILTER (WHERE t.is_correct = FALSE),
			COUNT(t.id) FILTER (WHERE t.is_correct IS NULL),
			ROUND(COALESCE(
				COUNT(t.id) FILTER (WHERE t.is_correct = TRUE)::NUMERIC * 100 /
				NULLIF(COUNT(t.id) FILTER (WHERE t.is_correct IS NOT NULL), 0), 0), 2)
		FROM rounds r
		LEFT JOIN tips t ON t.round_id = r.id AND t.user_id = $1
		WHERE r.year = $2
		GROUP BY r.id, r.round_number, r.status
		ORDER BY r.round_number`, userID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	performance := make([]*models.RoundPerformance, 0)
	for rows.Next() {
		var p models.RoundPerformance
		if err := rows.Scan(
			&p.RoundNumber, &p.Status, &p.TotalTips, &p.CorrectTips,
			&p.IncorrectTips, &p.PendingTips, &p.Percentage,
		); err != nil {
			return nil, err
		}
		performance = append(performance, &p)
	}
	return performance, rows.Err()
}

func (r *postgresLadderRepository) TipPopularity(ctx context.Context, roundID int) ([]*models.TipPopularity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			g.home_team,
			g.away_team,
			g.venue,
			COUNT(t.id) FILTER (WHERE t.selected_team = g.home_team),
			COUNT(t.id) FILTER (WHERE t.selected_team = g.away_team),
			COUNT(t.id),
			ROUND(COUNT(t.id) FILTER (WHERE t.selected_team = g.home_team)::NUMERIC * 100 /
				NULLIF(COUNT(t.id), 0), 1)
		FROM games g
		LEFT JOIN tips t ON t.game_id = g.id
		WHERE g.round_id = $1
		GROUP BY g.id, g.home_team, g.away_team, g.venue
		HAVING COUNT(t.id) > 0
		ORDER BY g.start_time`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	popularity := make([]*models.TipPopularity, 0)
	for rows.Next() {
		var p models.TipPopularity
		if err := rows.Scan(
			&p.HomeTeam, &p.AwayTeam, &p.Venue,
			&p.HomeTips, &p.AwayTips, &p.TotalTips, &p.HomePercentage,
		); err != nil {
			return nil, err
		}
		popularity = append(popularity, &p)
	}
	return popularity, rows.Err()
}
