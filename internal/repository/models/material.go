package models

import (
	"database/sql"
	"time"
)

// Material is a row of the materials table joined with its unit's title and code.
type Material struct {
	ID            int64          `db:"id"`
	UnitID        int64          `db:"unit_id"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	FileKey       string         `db:"file_key"`
	FileName      string         `db:"file_name"`
	FileType      string         `db:"file_type"`
	ContentType   string         `db:"content_type"`
	FileSize      int64          `db:"file_size"`
	UploadedBy    sql.NullString `db:"uploaded_by"`
	UploadDate    time.Time      `db:"upload_date"`
	Tags          StringSlice    `db:"tags"`
	IsPublic      bool           `db:"is_public"`
	DownloadCount int64          `db:"download_count"`
	UnitTitle     sql.NullString `db:"unit_title"`
	UnitCode      sql.NullString `db:"unit_code"`
}
