package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cookseyplate/tipping-system/models"
	"github.com/lib/pq"
)

var (
	ErrTipNotFound    = errors.New("tip not found")
	ErrTipUserInvalid = errors.New("tip references an unknown user")
	ErrTipGameInvalid = errors.New("tip references an unknown game")
)

type TipRepository interface {
	// Upsert inserts or replaces the tip keyed on (user_id, game_id).
	Upsert(ctx context.Context, exec SQLExecutor, tip *models.Tip) error
	GetByID(ctx context.Context, id int) (*models.Tip, error)
	Delete(ctx context.Context, id int) error
	ListForRound(ctx context.Context, roundID int, userID *int) ([]*models.Tip, error)
	ListUserTipsForRound(ctx context.Context, userID, roundID int) ([]*models.Tip, error)
	ListAllUserTips(ctx context.Context, userID int, year *int) ([]*models.Tip, error)
	CountUserTipsInRound(ctx context.Context, userID, roundID int) (int, error)
	// MarkCorrectness scores every still-unscored tip on the game. Tips
	// already scored are left untouched, so repeat calls change nothing.
	MarkCorrectness(ctx context.Context, exec SQLExecutor, gameKey, winner string) (int64, error)
	// ComputeMarginDifferences fills margin_difference for margin tips on the
	// game that predicted a margin and have not been computed yet.
	ComputeMarginDifferences(ctx context.Context, exec SQLExecutor, gameKey string, actualMargin int) (int64, error)
	// ListMarginContenders returns the round's margin tips that picked the
	// correct winner and have a computed margin difference.
	ListMarginContenders(ctx context.Context, roundID int) ([]*models.Tip, error)
	RoundStats(ctx context.Context, roundID int) (*models.RoundTipStats, error)
}

type postgresTipRepository struct {
	db *sql.DB
}

func NewPostgresTipRepository(db *sql.DB) TipRepository {
	return &postgresTipRepository{db: db}
}

func (r *postgresTipRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTipRepository) Upsert(ctx context.Context, exec SQLExecutor, t *models.Tip) error {
	executor := r.getExecutor(exec)
	err := executor.QueryRowContext(ctx, `
		INSERT INTO tips
			(user_id, game_id, squiggle_game_key, round_id, selected_team,
			 margin_prediction, is_margin_game, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id, game_id) DO UPDATE SET
			selected_team = EXCLUDED.selected_team,
			margin_prediction = EXCLUDED.margin_prediction,
			is_margin_game = EXCLUDED.is_margin_game,
			updated_at = NOW()
		RETURNING id`,
		t.UserID, t.GameID, t.SquiggleGameKey, t.RoundID, t.SelectedTeam,
		t.MarginPrediction, t.IsMarginGame,
	).Scan(&t.ID)
	return r.handleTipError(err)
}

func (r *postgresTipRepository) GetByID(ctx context.Context, id int) (*models.Tip, error) {
	var t models.Tip
	err := r.db.QueryRowContext(ctx, `
		SELECT t.id, t.user_id, t.game_id, t.squiggle_game_key, t.round_id,
		       t.selected_team, t.is_correct, t.margin_prediction, t.is_margin_game,
		       t.margin_difference, t.created_at, t.updated_at,
		       r.lockout_time
		FROM tips t
		JOIN rounds r ON r.id = t.round_id
		WHERE t.id = $1`, id,
	).Scan(
		&t.ID, &t.UserID, &t.GameID, &t.SquiggleGameKey, &t.RoundID,
		&t.SelectedTeam, &t.IsCorrect, &t.MarginPrediction, &t.IsMarginGame,
		&t.MarginDifference, &t.CreatedAt, &t.UpdatedAt,
		&t.LockoutTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTipNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTipRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tips WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTipNotFound)
}

const tipJoinedColumns = `
	t.id, t.user_id, t.game_id, t.squiggle_game_key, t.round_id,
	t.selected_team, t.is_correct, t.margin_prediction, t.is_margin_game,
	t.margin_difference, t.created_at, t.updated_at,
	u.name, g.home_team, g.away_team, g.venue, g.start_time, g.is_complete,
	g.home_score, g.away_score, r.round_number, r.year`

func (r *postgresTipRepository) scanJoinedTip(rowScanner interface{ Scan(...interface{}) error }) (*models.Tip, error) {
	var t models.Tip
	err := rowScanner.Scan(
		&t.ID, &t.UserID, &t.GameID, &t.SquiggleGameKey, &t.RoundID,
		&t.SelectedTeam, &t.IsCorrect, &t.MarginPrediction, &t.IsMarginGame,
		&t.MarginDifference, &t.CreatedAt, &t.UpdatedAt,
		&t.UserName, &t.HomeTeam, &t.AwayTeam, &t.Venue, &t.StartTime, &t.IsComplete,
		&t.HomeScore, &t.AwayScore, &t.RoundNumber, &t.Year,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTipNotFound
		}
		return nil, err
	}
	return &t, nil
}

const tipJoinedQuery = `
	SELECT ` + tipJoinedColumns + `
	FROM tips t
	JOIN users u ON u.id = t.user_id
	JOIN games g ON g.id = t.game_id
	JOIN rounds r ON r.id = t.round_id`

func (r *postgresTipRepository) listTips(ctx context.Context, query string, args ...interface{}) ([]*models.Tip, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tips := make([]*models.Tip, 0)
	for rows.Next() {
		t, scanErr := r.scanJoinedTip(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tips = append(tips, t)
	}
	return tips, rows.Err()
}

func (r *postgresTipRepository) ListForRound(ctx context.Context, roundID int, userID *int) ([]*models.Tip, error) {
	query := tipJoinedQuery + ` WHERE t.round_id = $1`
	args := []interface{}{roundID}
	if userID != nil {
		query += ` AND t.user_id = $2`
		args = append(args, *userID)
	}
	query += ` ORDER BY g.start_time, u.name`
	return r.listTips(ctx, query, args...)
}

func (r *postgresTipRepository) ListUserTipsForRound(ctx context.Context, userID, roundID int) ([]*models.Tip, error) {
	query := tipJoinedQuery + `
		WHERE t.user_id = $1 AND t.round_id = $2
		ORDER BY g.start_time`
	return r.listTips(ctx, query, userID, roundID)
}

func (r *postgresTipRepository) ListAllUserTips(ctx context.Context, userID int, year *int) ([]*models.Tip, error) {
	query := tipJoinedQuery + ` WHERE t.user_id = $1`
	args := []interface{}{userID}
	if year != nil {
		query += ` AND r.year = $2`
		args = append(args, *year)
	}
	query += ` ORDER BY r.round_number, g.start_time`
	return r.listTips(ctx, query, args...)
}

func (r *postgresTipRepository) CountUserTipsInRound(ctx context.Context, userID, roundID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tips WHERE user_id = $1 AND round_id = $2`,
		userID, roundID,
	).Scan(&count)
	return count, err
}

func (r *postgresTipRepository) MarkCorrectness(ctx context.Context, exec SQLExecutor, gameKey, winner string) (int64, error) {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE tips
		SET is_correct = (selected_team = $2)
		WHERE squiggle_game_key = $1 AND is_correct IS NULL`,
		gameKey, winner,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresTipRepository) ComputeMarginDifferences(ctx context.Context, exec SQLExecutor, gameKey string, actualMargin int) (int64, error) {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE tips
		SET margin_difference = ABS($2 - margin_prediction)
		WHERE squiggle_game_key = $1
		  AND is_margin_game
		  AND margin_prediction IS NOT NULL
		  AND margin_difference IS NULL`,
		gameKey, actualMargin,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresTipRepository) ListMarginContenders(ctx context.Context, roundID int) ([]*models.Tip, error) {
	query := tipJoinedQuery + `
		WHERE t.round_id = $1
		  AND t.is_margin_game
		  AND t.margin_prediction IS NOT NULL
		  AND t.margin_difference IS NOT NULL
		  AND t.is_correct = TRUE
		ORDER BY t.margin_difference, u.name`
	return r.listTips(ctx, query, roundID)
}

func (r *postgresTipRepository) RoundStats(ctx context.Context, roundID int) (*models.RoundTipStats, error) {
	var s models.RoundTipStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT t.user_id),
			COUNT(t.id),
			COUNT(t.id) FILTER (WHERE t.is_correct = TRUE),
			COUNT(t.id) FILTER (WHERE t.is_correct = FALSE),
			COUNT(t.id) FILTER (WHERE t.is_correct IS NULL),
			COUNT(DISTINCT t.game_id)
		FROM tips t
		WHERE t.round_id = $1`, roundID,
	).Scan(
		&s.UsersTipped, &s.TotalTips, &s.CorrectTips,
		&s.IncorrectTips, &s.PendingTips, &s.GamesWithTips,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *postgresTipRepository) handleTipError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		switch pqErr.Constraint {
		case "tips_user_id_fkey":
			return ErrTipUserInvalid
		case "tips_game_id_fkey":
			return ErrTipGameInvalid
		}
	}
	return err
}
