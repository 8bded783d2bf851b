package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cookseyplate/tipping-system/models"
)

var ErrTeamNotFound = errors.New("team not found")

type TeamRepository interface {
	Upsert(ctx context.Context, team *models.Team) error
	List(ctx context.Context) ([]*models.Team, error)
	UpdateLogoKey(ctx context.Context, teamID int, logoKey *string) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Upsert(ctx context.Context, t *models.Team) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teams (id, name, abbrev, logo, primary_colour, secondary_colour, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			abbrev = EXCLUDED.abbrev,
			logo = EXCLUDED.logo,
			primary_colour = EXCLUDED.primary_colour,
			secondary_colour = EXCLUDED.secondary_colour,
			updated_at = NOW()`,
		t.ID, t.Name, t.Abbrev, t.Logo, t.PrimaryColour, t.SecondaryColour,
	)
	return err
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, abbrev, logo, primary_colour, secondary_colour, logo_key, updated_at
		FROM teams ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Abbrev, &t.Logo, &t.PrimaryColour,
			&t.SecondaryColour, &t.LogoKey, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		teams = append(teams, &t)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, teamID int, logoKey *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE teams SET logo_key = $1 WHERE id = $2`, logoKey, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
