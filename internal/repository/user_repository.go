package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/repository/models"
	"cpa-academy/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxUserRepository implements domain.UserRepository using sqlx.
type sqlxUserRepository struct {
	db *sqlx.DB
}

// NewSQLXUserRepository creates a new instance of sqlxUserRepository.
func NewSQLXUserRepository(db *sqlx.DB) domain.UserRepository {
	return &sqlxUserRepository{db: db}
}

func toDomainUser(m *models.User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		ID:          m.ID,
		Email:       m.Email,
		Name:        m.Name.String,
		IsStaff:     m.IsStaff,
		IsSuperuser: m.IsSuperuser,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func fromDomainUser(u *domain.User) *models.User {
	if u == nil {
		return nil
	}
	return &models.User{
		ID:          u.ID,
		Email:       u.Email,
		Name:        util.StringToNullString(u.Name),
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// CreateUser inserts a new user into the database.
func (r *sqlxUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, email, name, is_staff, is_superuser, created_at, updated_at)
	          VALUES (:id, :email, :name, :is_staff, :is_superuser, :created_at, :updated_at)`

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, fromDomainUser(user)); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their internal ID. A missing user is (nil, nil).
func (r *sqlxUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT id, email, name, is_staff, is_superuser, created_at, updated_at FROM users WHERE id = $1`, userID)
}

// GetUserByEmail retrieves a user by email. A missing user is (nil, nil).
func (r *sqlxUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT id, email, name, is_staff, is_superuser, created_at, updated_at FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *sqlxUserRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var user models.User
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toDomainUser(&user), nil
}
