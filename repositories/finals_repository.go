package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cookseyplate/tipping-system/models"
	"github.com/lib/pq"
)

var ErrFinalsConfigNotFound = errors.New("finals config not found")

type FinalsConfigRepository interface {
	GetByRoundNumber(ctx context.Context, roundNumber int) (*models.FinalsConfig, error)
	List(ctx context.Context) ([]*models.FinalsConfig, error)
}

type postgresFinalsConfigRepository struct {
	db *sql.DB
}

func NewPostgresFinalsConfigRepository(db *sql.DB) FinalsConfigRepository {
	return &postgresFinalsConfigRepository{db: db}
}

func (r *postgresFinalsConfigRepository) GetByRoundNumber(ctx context.Context, roundNumber int) (*models.FinalsConfig, error) {
	var fc models.FinalsConfig
	err := r.db.QueryRowContext(ctx, `
		SELECT round_number, requires_margin, margin_game_position
		FROM finals_config WHERE round_number = $1`, roundNumber,
	).Scan(&fc.RoundNumber, &fc.RequiresMargin, &fc.MarginGamePosition)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFinalsConfigNotFound
		}
		return nil, err
	}
	return &fc, nil
}

func (r *postgresFinalsConfigRepository) List(ctx context.Context) ([]*models.FinalsConfig, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT round_number, requires_margin, margin_game_position
		FROM finals_config ORDER BY round_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make([]*models.FinalsConfig, 0)
	for rows.Next() {
		var fc models.FinalsConfig
		if err := rows.Scan(&fc.RoundNumber, &fc.RequiresMargin, &fc.MarginGamePosition); err != nil {
			return nil, err
		}
		configs = append(configs, &fc)
	}
	return configs, rows.Err()
}

type RoundWinnerRepository interface {
	// Upsert replaces the winner row on conflict so recomputation corrects
	// earlier results.
	Upsert(ctx context.Context, exec SQLExecutor, winner *models.RoundWinner) error
	// DeleteStale removes winners of the round no longer in the given user
	// set. Used when a recomputation shrinks the winner list.
	DeleteStale(ctx context.Context, exec SQLExecutor, roundID int, keepUserIDs []int) error
	ListByRound(ctx context.Context, roundID int) ([]*models.RoundWinner, error)
}

type postgresRoundWinnerRepository struct {
	db *sql.DB
}

func NewPostgresRoundWinnerRepository(db *sql.DB) RoundWinnerRepository {
	return &postgresRoundWinnerRepository{db: db}
}

func (r *postgresRoundWinnerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRoundWinnerRepository) Upsert(ctx context.Context, exec SQLExecutor, w *models.RoundWinner) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `
		INSERT INTO round_winners (round_id, user_id, win_type, margin_difference, points_awarded)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (round_id, user_id, win_type) DO UPDATE SET
			margin_difference = EXCLUDED.margin_difference,
			points_awarded = EXCLUDED.points_awarded`,
		w.RoundID, w.UserID, w.WinType, w.MarginDifference, w.PointsAwarded,
	)
	return err
}

func (r *postgresRoundWinnerRepository) DeleteStale(ctx context.Context, exec SQLExecutor, roundID int, keepUserIDs []int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM round_winners WHERE round_id = $1`
	args := []interface{}{roundID}
	if len(keepUserIDs) > 0 {
		query += ` AND NOT (user_id = ANY($2))`
		ids := make([]int64, len(keepUserIDs))
		for i, id := range keepUserIDs {
			ids[i] = int64(id)
		}
		args = append(args, pq.Array(ids))
	}
	_, err := executor.ExecContext(ctx, query, args...)
	return err
}

func (r *postgresRoundWinnerRepository) ListByRound(ctx context.Context, roundID int) ([]*models.RoundWinner, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rw.round_id, rw.user_id, rw.win_type, rw.margin_difference,
		       rw.points_awarded, rw.created_at, u.name
		FROM round_winners rw
		JOIN users u ON u.id = rw.user_id
		WHERE rw.round_id = $1
		ORDER BY rw.margin_difference, u.name`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	winners := make([]*models.RoundWinner, 0)
	for rows.Next() {
		var w models.RoundWinner
		if err := rows.Scan(
			&w.RoundID, &w.UserID, &w.WinType, &w.MarginDifference,
			&w.PointsAwarded, &w.CreatedAt, &w.UserName,
		); err != nil {
			return nil, err
		}
		winners = append(winners, &w)
	}
	return winners, rows.Err()
}
