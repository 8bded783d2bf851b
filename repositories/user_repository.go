package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cookseyplate/tipping-system/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserNameConflict    = errors.New("user name is already taken")
	ErrUserInvalidGroup    = errors.New("invalid family group reference")
	ErrFamilyGroupNotFound = errors.New("family group not found")
)

type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByName(ctx context.Context, name string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	ListByFamilyGroup(ctx context.Context, familyGroupID int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	ListFamilyGroups(ctx context.Context) ([]*models.FamilyGroup, error)
	GetFamilyGroup(ctx context.Context, id int) (*models.FamilyGroup, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userJoinedQuery = `
	SELECT u.id, u.name, u.email, u.family_group_id, u.role, u.created_at, fg.name
	FROM users u
	LEFT JOIN family_groups fg ON fg.id = u.family_group_id`

func (r *postgresUserRepository) scanUser(rowScanner interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := rowScanner.Scan(
		&u.ID, &u.Name, &u.Email, &u.FamilyGroupID, &u.Role, &u.CreatedAt, &u.FamilyGroupName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, userJoinedQuery+` WHERE u.id = $1`, id)
	return r.scanUser(row)
}

func (r *postgresUserRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, userJoinedQuery+` WHERE u.name = $1`, name)
	return r.scanUser(row)
}

func (r *postgresUserRepository) listUsers(ctx context.Context, query string, args ...interface{}) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, scanErr := r.scanUser(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *postgresUserRepository) List(ctx context.Context) ([]*models.User, error) {
	return r.listUsers(ctx, userJoinedQuery+` ORDER BY fg.name, u.name`)
}

func (r *postgresUserRepository) ListByFamilyGroup(ctx context.Context, familyGroupID int) ([]*models.User, error) {
	return r.listUsers(ctx, userJoinedQuery+` WHERE u.family_group_id = $1 ORDER BY u.name`, familyGroupID)
}

func (r *postgresUserRepository) Create(ctx context.Context, u *models.User) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, family_group_id, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		u.Name, u.Email, u.FamilyGroupID, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	return r.handleUserError(err)
}

func (r *postgresUserRepository) Update(ctx context.Context, u *models.User) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET name = $1, email = $2, family_group_id = $3, role = $4
		WHERE id = $5`,
		u.Name, u.Email, u.FamilyGroupID, u.Role, u.ID,
	)
	if err != nil {
		return r.handleUserError(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) ListFamilyGroups(ctx context.Context) ([]*models.FamilyGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT fg.id, fg.name, fg.created_at, COUNT(u.id)
		FROM family_groups fg
		LEFT JOIN users u ON u.family_group_id = fg.id
		GROUP BY fg.id
		ORDER BY fg.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]*models.FamilyGroup, 0)
	for rows.Next() {
		var g models.FamilyGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt, &g.MemberCount); err != nil {
			return nil, err
		}
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

func (r *postgresUserRepository) GetFamilyGroup(ctx context.Context, id int) (*models.FamilyGroup, error) {
	var g models.FamilyGroup
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM family_groups WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFamilyGroupNotFound
		}
		return nil, err
	}

	members, err := r.ListByFamilyGroup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load members for family group %d: %w", id, err)
	}
	for _, m := range members {
		g.Members = append(g.Members, *m)
	}
	g.MemberCount = len(g.Members)
	return &g, nil
}

func (r *postgresUserRepository) handleUserError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return ErrUserNameConflict
		case "23503":
			return ErrUserInvalidGroup
		}
	}
	return err
}
