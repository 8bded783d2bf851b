package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cookseyplate/tipping-system/models"
)

var ErrGameNotFound = errors.New("game not found")

type GameRepository interface {
	// GetByID returns the game joined with its round (round number, year,
	// lockout time) and the external completion value.
	GetByID(ctx context.Context, id int) (*models.Game, error)
	ListByRound(ctx context.Context, roundID int) ([]*models.Game, error)
	// UpsertProjection writes the application-facing row, keyed on the
	// external game key.
	UpsertProjection(ctx context.Context, exec SQLExecutor, game *models.Game) error
	UpdateScores(ctx context.Context, exec SQLExecutor, gameKey string, homeScore, awayScore int, isComplete bool) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const gameJoinedQuery = `
	SELECT
		g.id, g.squiggle_game_key, g.round_id, g.home_team, g.away_team,
		g.home_score, g.away_score, g.start_time, g.venue, g.is_complete, g.updated_at,
		r.round_number, r.status, r.lockout_time,
		COALESCE(sg.complete, 0)
	FROM games g
	JOIN rounds r ON r.id = g.round_id
	LEFT JOIN squiggle_games sg ON sg.squiggle_game_key = g.squiggle_game_key`

func (r *postgresGameRepository) scanGame(rowScanner interface{ Scan(...interface{}) error }) (*models.Game, error) {
	var g models.Game
	err := rowScanner.Scan(
		&g.ID, &g.SquiggleGameKey, &g.RoundID, &g.HomeTeam, &g.AwayTeam,
		&g.HomeScore, &g.AwayScore, &g.StartTime, &g.Venue, &g.IsComplete, &g.UpdatedAt,
		&g.RoundNumber, &g.RoundStatus, &g.LockoutTime,
		&g.Completion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	row := r.db.QueryRowContext(ctx, gameJoinedQuery+` WHERE g.id = $1`, id)
	return r.scanGame(row)
}

func (r *postgresGameRepository) ListByRound(ctx context.Context, roundID int) ([]*models.Game, error) {
	rows, err := r.db.QueryContext(ctx, gameJoinedQuery+`
		WHERE g.round_id = $1
		ORDER BY g.start_time`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		g, scanErr := r.scanGame(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (r *postgresGameRepository) UpsertProjection(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `
		INSERT INTO games
			(squiggle_game_key, round_id, home_team, away_team, home_score, away_score,
			 start_time, venue, is_complete, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (squiggle_game_key) DO UPDATE SET
			round_id = EXCLUDED.round_id,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			start_time = EXCLUDED.start_time,
			venue = EXCLUDED.venue,
			is_complete = EXCLUDED.is_complete,
			updated_at = NOW()`,
		game.SquiggleGameKey, game.RoundID, game.HomeTeam, game.AwayTeam,
		game.HomeScore, game.AwayScore, game.StartTime, game.Venue, game.IsComplete,
	)
	return err
}

func (r *postgresGameRepository) UpdateScores(ctx context.Context, exec SQLExecutor, gameKey string, homeScore, awayScore int, isComplete bool) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE games
		SET home_score = $2, away_score = $3, is_complete = $4, updated_at = NOW()
		WHERE squiggle_game_key = $1`,
		gameKey, homeScore, awayScore, isComplete,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}
