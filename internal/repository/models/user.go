package models

import (
	"database/sql"
	"time"
)

// User represents a user in the system.
type User struct {
	ID          string         `db:"id"` // ULID
	Email       string         `db:"email"`
	Name        sql.NullString `db:"name"`
	IsStaff     bool           `db:"is_staff"`
	IsSuperuser bool           `db:"is_superuser"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}
