package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cookseyplate/tipping-system/models"
)

var ErrSquiggleGameNotFound = errors.New("squiggle game not found")

// SquiggleGameRepository owns the full external mirror table, keyed by the
// generated squiggle_game_key.
type SquiggleGameRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, game *models.SquiggleGame) error
	UpdateScores(ctx context.Context, exec SQLExecutor, game *models.SquiggleGame) error
	GetByKey(ctx context.Context, key string) (*models.SquiggleGame, error)
	// ListCompletedUnscored returns finished games with a known winner that
	// still have unscored tips attached.
	ListCompletedUnscored(ctx context.Context) ([]*models.SquiggleGame, error)
	// ListCompletedMarginPending returns finished games carrying margin tips
	// whose margin differences have not been computed yet.
	ListCompletedMarginPending(ctx context.Context) ([]*models.SquiggleGame, error)
}

type postgresSquiggleGameRepository struct {
	db *sql.DB
}

func NewPostgresSquiggleGameRepository(db *sql.DB) SquiggleGameRepository {
	return &postgresSquiggleGameRepository{db: db}
}

func (r *postgresSquiggleGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSquiggleGameRepository) Upsert(ctx context.Context, exec SQLExecutor, g *models.SquiggleGame) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `
		INSERT INTO squiggle_games
			(squiggle_game_key, round_number, game_number, year, complete, date, tz,
			 hteam, ateam, hscore, ascore, hgoals, agoals, hbehinds, abehinds,
			 venue, winner, localtime, hmargin, is_final, is_grand_final, raw_json, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, NOW())
		ON CONFLICT (squiggle_game_key) DO UPDATE SET
			complete = EXCLUDED.complete,
			date = EXCLUDED.date,
			tz = EXCLUDED.tz,
			hscore = EXCLUDED.hscore,
			ascore = EXCLUDED.ascore,
			hgoals = EXCLUDED.hgoals,
			agoals = EXCLUDED.agoals,
			hbehinds = EXCLUDED.hbehinds,
			abehinds = EXCLUDED.abehinds,
			venue = EXCLUDED.venue,
			winner = EXCLUDED.winner,
			localtime = EXCLUDED.localtime,
			hmargin = EXCLUDED.hmargin,
			is_final = EXCLUDED.is_final,
			is_grand_final = EXCLUDED.is_grand_final,
			raw_json = EXCLUDED.raw_json,
			updated_at = NOW()`,
		g.SquiggleGameKey, g.RoundNumber, g.GameNumber, g.Year, g.Completion, g.Date, g.Timezone,
		g.HomeTeam, g.AwayTeam, g.HomeScore, g.AwayScore, g.HomeGoals, g.AwayGoals,
		g.HomeBehinds, g.AwayBehinds, g.Venue, g.Winner, g.LocalTime, g.HomeMargin,
		g.IsFinal, g.IsGrandFinal, g.RawJSON,
	)
	return err
}

func (r *postgresSquiggleGameRepository) UpdateScores(ctx context.Context, exec SQLExecutor, g *models.SquiggleGame) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE squiggle_games
		SET hscore = $2, ascore = $3, hgoals = $4, agoals = $5, hbehinds = $6,
		    abehinds = $7, complete = $8, winner = $9, raw_json = $10, updated_at = NOW()
		WHERE squiggle_game_key = $1`,
		g.SquiggleGameKey, g.HomeScore, g.AwayScore, g.HomeGoals, g.AwayGoals,
		g.HomeBehinds, g.AwayBehinds, g.Completion, g.Winner, g.RawJSON,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSquiggleGameNotFound)
}

const squiggleColumns = `
	sg.squiggle_game_key, sg.round_number, sg.game_number, sg.year, sg.complete,
	sg.date, sg.tz, sg.hteam, sg.ateam, sg.hscore, sg.ascore, sg.hgoals, sg.agoals,
	sg.hbehinds, sg.abehinds, sg.venue, sg.winner, sg.localtime, sg.hmargin,
	sg.is_final, sg.is_grand_final, sg.raw_json, sg.updated_at`

func (r *postgresSquiggleGameRepository) scanSquiggleGame(rowScanner interface{ Scan(...interface{}) error }) (*models.SquiggleGame, error) {
	var g models.SquiggleGame
	err := rowScanner.Scan(
		&g.SquiggleGameKey, &g.RoundNumber, &g.GameNumber, &g.Year, &g.Completion,
		&g.Date, &g.Timezone, &g.HomeTeam, &g.AwayTeam, &g.HomeScore, &g.AwayScore,
		&g.HomeGoals, &g.AwayGoals, &g.HomeBehinds, &g.AwayBehinds, &g.Venue,
		&g.Winner, &g.LocalTime, &g.HomeMargin, &g.IsFinal, &g.IsGrandFinal,
		&g.RawJSON, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSquiggleGameNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *postgresSquiggleGameRepository) GetByKey(ctx context.Context, key string) (*models.SquiggleGame, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+squiggleColumns+` FROM squiggle_games sg WHERE sg.squiggle_game_key = $1`, key)
	return r.scanSquiggleGame(row)
}

func (r *postgresSquiggleGameRepository) ListCompletedUnscored(ctx context.Context) ([]*models.SquiggleGame, error) {
	query := `
		SELECT DISTINCT ` + squiggleColumns + `
		FROM squiggle_games sg
		JOIN tips t ON t.squiggle_game_key = sg.squiggle_game_key
		WHERE sg.complete = 100
		  AND sg.winner IS NOT NULL
		  AND t.is_correct IS NULL`
	return r.listGames(ctx, query)
}

func (r *postgresSquiggleGameRepository) ListCompletedMarginPending(ctx context.Context) ([]*models.SquiggleGame, error) {
	query := `
		SELECT DISTINCT ` + squiggleColumns + `
		FROM squiggle_games sg
		JOIN tips t ON t.squiggle_game_key = sg.squiggle_game_key
		WHERE sg.complete = 100
		  AND t.is_margin_game
		  AND t.margin_prediction IS NOT NULL
		  AND t.margin_difference IS NULL`
	return r.listGames(ctx, query)
}

func (r *postgresSquiggleGameRepository) listGames(ctx context.Context, query string, args ...interface{}) ([]*models.SquiggleGame, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]*models.SquiggleGame, 0)
	for rows.Next() {
		g, scanErr := r.scanSquiggleGame(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
