package repositories

import (
	"context"
	"database/sql"

	"github.com/cookseyplate/tipping-system/models"
)

type ImportLogRepository interface {
	Insert(ctx context.Context, log *models.ImportLog) error
	List(ctx context.Context, importType *string, limit int) ([]*models.ImportLog, error)
}

type postgresImportLogRepository struct {
	db *sql.DB
}

func NewPostgresImportLogRepository(db *sql.DB) ImportLogRepository {
	return &postgresImportLogRepository{db: db}
}

func (r *postgresImportLogRepository) Insert(ctx context.Context, l *models.ImportLog) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO import_logs (import_type, status, records_processed, file_name, error_message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		l.ImportType, l.Status, l.RecordsProcessed, l.FileName, l.ErrorMessage,
	).Scan(&l.ID, &l.CreatedAt)
}

func (r *postgresImportLogRepository) List(ctx context.Context, importType *string, limit int) ([]*models.ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, import_type, status, records_processed, file_name, error_message, created_at
		FROM import_logs`
	args := []interface{}{}
	if importType != nil {
		query += ` WHERE import_type = $1`
		args = append(args, *importType)
	}
	query += ` ORDER BY created_at DESC`
	if importType != nil {
		query += ` LIMIT $2`
	} else {
		query += ` LIMIT $1`
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]*models.ImportLog, 0)
	for rows.Next() {
		var l models.ImportLog
		if err := rows.Scan(
			&l.ID, &l.ImportType, &l.Status, &l.RecordsProcessed,
			&l.FileName, &l.ErrorMessage, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
