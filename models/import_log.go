package models

import "time"

const (
	ImportStatusSuccess = "success"
	ImportStatusError   = "error"
)

// ImportLog is the persistent operations log written by every sync and
// scheduler run.
type ImportLog struct {
	ID               int       `json:"id" db:"id"`
	ImportType       string    `json:"import_type" db:"import_type"`
	Status           string    `json:"status" db:"status"`
	RecordsProcessed int       `json:"records_processed" db:"records_processed"`
	FileName         *string   `json:"file_name,omitempty" db:"file_name"`
	ErrorMessage     *string   `json:"error_message,omitempty" db:"error_message"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
