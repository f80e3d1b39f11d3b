package repository

import (
	"context"
	"fmt"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/repository/models"
	"cpa-academy/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxQuizAttemptRepository implements domain.QuizAttemptRepository using sqlx.
type sqlxQuizAttemptRepository struct {
	db *sqlx.DB
}

// NewSQLXQuizAttemptRepository creates a new instance of sqlxQuizAttemptRepository.
func NewSQLXQuizAttemptRepository(db *sqlx.DB) domain.QuizAttemptRepository {
	return &sqlxQuizAttemptRepository{db: db}
}

func toDomainQuizAttempt(m *models.QuizAttempt) domain.QuizAttempt {
	return domain.QuizAttempt{
		ID:            m.ID,
		UserID:        m.UserID,
		QuestionSetID: m.QuestionSetID,
		Score:         m.Score,
		Total:         m.Total,
		StartedAt:     m.StartedAt,
		FinishedAt:    util.NullTimeToPtr(m.FinishedAt),
	}
}

func fromDomainQuizAttempt(a *domain.QuizAttempt) *models.QuizAttempt {
	return &models.QuizAttempt{
		ID:            a.ID,
		UserID:        a.UserID,
		QuestionSetID: a.QuestionSetID,
		Score:         a.Score,
		Total:         a.Total,
		StartedAt:     a.StartedAt,
		FinishedAt:    util.TimePtrToNullTime(a.FinishedAt),
	}
}

// CreateAttempt inserts a new quiz attempt.
func (r *sqlxQuizAttemptRepository) CreateAttempt(ctx context.Context, attempt *domain.QuizAttempt) error {
	query := `INSERT INTO quiz_attempts (id, user_id, question_set_id, score, total, started_at, finished_at)
		VALUES (:id, :user_id, :question_set_id, :score, :total, :started_at, :finished_at)`

	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, fromDomainQuizAttempt(attempt)); err != nil {
		return fmt.Errorf("failed to create quiz attempt: %w", err)
	}
	return nil
}

// ListAttemptsByUser returns the user's attempts, newest first.
func (r *sqlxQuizAttemptRepository) ListAttemptsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.QuizAttempt, error) {
	query := `SELECT id, user_id, question_set_id, score, total, started_at, finished_at
		FROM quiz_attempts
		WHERE user_id = $1
		ORDER BY started_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	var rows []models.QuizAttempt
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list quiz attempts: %w", err)
	}

	attempts := make([]domain.QuizAttempt, 0, len(rows))
	for i := range rows {
		attempts = append(attempts, toDomainQuizAttempt(&rows[i]))
	}
	return attempts, nil
}
