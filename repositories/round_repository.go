package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cookseyplate/tipping-system/models"
)

var ErrRoundNotFound = errors.New("round not found")

type RoundRepository interface {
	GetByID(ctx context.Context, id int) (*models.Round, error)
	GetByNumberAndYear(ctx context.Context, roundNumber, year int) (*models.Round, error)
	// EnsureRound creates the round on first sight of a round/year pair and
	// returns its id either way.
	EnsureRound(ctx context.Context, exec SQLExecutor, roundNumber, year int) (int, error)
	ListByYear(ctx context.Context, year int) ([]*models.Round, error)
	ListIDsByYear(ctx context.Context, year int) ([]int, error)
	// GameStates returns the joined external completion and start time for
	// every game of the round, ordered by start time.
	GameStates(ctx context.Context, roundID int) ([]models.GameState, error)
	// UpdateStatus writes the status only when it differs from the stored one.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RoundStatus) error
	// SetLockoutTimeIfUnset sets lockout_time once; later calls are no-ops.
	SetLockoutTimeIfUnset(ctx context.Context, exec SQLExecutor, id int, lockout time.Time) error
	// OverrideLockoutTime unconditionally replaces lockout_time. Admin
	// simulate tooling only.
	OverrideLockoutTime(ctx context.Context, id int, lockout *time.Time) error
	RoundCounts(ctx context.Context, year int) (total int, completed int, err error)
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

func (r *postgresRoundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const roundAggregateQuery = `
	SELECT
		r.id, r.round_number, r.year, r.status, r.lockout_time, r.created_at,
		COUNT(g.id) AS game_count,
		COUNT(g.id) FILTER (WHERE g.is_complete) AS completed_games,
		MIN(g.start_time) AS first_game_time,
		MAX(g.start_time) AS last_game_time
	FROM rounds r
	LEFT JOIN games g ON g.round_id = r.id`

func (r *postgresRoundRepository) scanRound(rowScanner interface{ Scan(...interface{}) error }) (*models.Round, error) {
	var rd models.Round
	err := rowScanner.Scan(
		&rd.ID, &rd.RoundNumber, &rd.Year, &rd.Status, &rd.LockoutTime, &rd.CreatedAt,
		&rd.GameCount, &rd.CompletedGames, &rd.FirstGameTime, &rd.LastGameTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return &rd, nil
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, id int) (*models.Round, error) {
	query := roundAggregateQuery + `
	WHERE r.id = $1
	GROUP BY r.id`
	row := r.db.QueryRowContext(ctx, query, id)
	return r.scanRound(row)
}

func (r *postgresRoundRepository) GetByNumberAndYear(ctx context.Context, roundNumber, year int) (*models.Round, error) {
	query := roundAggregateQuery + `
	WHERE r.round_number = $1 AND r.year = $2
	GROUP BY r.id`
	row := r.db.QueryRowContext(ctx, query, roundNumber, year)
	return r.scanRound(row)
}

func (r *postgresRoundRepository) EnsureRound(ctx context.Context, exec SQLExecutor, roundNumber, year int) (int, error) {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `
		INSERT INTO rounds (round_number, year, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (round_number, year) DO NOTHING`,
		roundNumber, year, models.RoundUpcoming,
	)
	if err != nil {
		return 0, err
	}

	var id int
	err = executor.QueryRowContext(ctx,
		`SELECT id FROM rounds WHERE round_number = $1 AND year = $2`,
		roundNumber, year,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *postgresRoundRepository) ListByYear(ctx context.Context, year int) ([]*models.Round, error) {
	query := roundAggregateQuery + `
	WHERE r.year = $1
	GROUP BY r.id
	ORDER BY r.round_number`

	rows, err := r.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rounds := make([]*models.Round, 0)
	for rows.Next() {
		rd, scanErr := r.scanRound(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		rounds = append(rounds, rd)
	}
	return rounds, rows.Err()
}

func (r *postgresRoundRepository) ListIDsByYear(ctx context.Context, year int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM rounds WHERE year = $1 ORDER BY round_number`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresRoundRepository) GameStates(ctx context.Context, roundID int) ([]models.GameState, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.squiggle_game_key, g.start_time, COALESCE(sg.complete, 0)
		FROM games g
		LEFT JOIN squiggle_games sg ON sg.squiggle_game_key = g.squiggle_game_key
		WHERE g.round_id = $1
		ORDER BY g.start_time`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	states := make([]models.GameState, 0)
	for rows.Next() {
		var gs models.GameState
		if err := rows.Scan(&gs.SquiggleGameKey, &gs.StartTime, &gs.Completion); err != nil {
			return nil, err
		}
		states = append(states, gs)
	}
	return states, rows.Err()
}

func (r *postgresRoundRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RoundStatus) error {
	executor := r.getExecutor(exec)
	// Conditional write keeps repeated refresh passes cheap and idempotent.
	_, err := executor.ExecContext(ctx,
		`UPDATE rounds SET status = $1 WHERE id = $2 AND status <> $1`, status, id)
	return err
}

func (r *postgresRoundRepository) SetLockoutTimeIfUnset(ctx context.Context, exec SQLExecutor, id int, lockout time.Time) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`UPDATE rounds SET lockout_time = $1 WHERE id = $2 AND lockout_time IS NULL`, lockout, id)
	return err
}

func (r *postgresRoundRepository) OverrideLockoutTime(ctx context.Context, id int, lockout *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rounds SET lockout_time = $1 WHERE id = $2`, lockout, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) RoundCounts(ctx context.Context, year int) (int, int, error) {
	var total, completed int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $2)
		FROM rounds WHERE year = $1`, year, models.RoundCompleted,
	).Scan(&total, &completed)
	if err != nil {
		return 0, 0, err
	}
	return total, completed, nil
}
