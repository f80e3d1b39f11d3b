package service

import (
	"context"
	"errors"
	"time"

	"cpa-academy/internal/cache"
	"cpa-academy/internal/domain"
	"cpa-academy/internal/logger"
	"cpa-academy/internal/metrics"
	"cpa-academy/internal/util"

	"go.uber.org/zap"
)

const (
	defaultAttemptPageSize = 20
	maxAttemptPageSize     = 100
)

// QuizService serves question sets and scores submitted attempts.
type QuizService interface {
	GetQuestionSet(ctx context.Context, id int64) (*domain.QuestionSet, error)
	SubmitAttempt(ctx context.Context, userID string, questionSetID int64, answers []domain.SubmittedAnswer, startedAt *time.Time) (*domain.QuizAttempt, error)
	ListMyAttempts(ctx context.Context, userID string, limit, offset int) ([]domain.QuizAttempt, int, int, error)
}

type quizService struct {
	repo     domain.QuizRepository
	attempts domain.QuizAttemptRepository
	cache    domain.Cache
	ttl      time.Duration
	now      func() time.Time
}

// NewQuizService creates a QuizService. cache may be nil.
func NewQuizService(repo domain.QuizRepository, attempts domain.QuizAttemptRepository, cache domain.Cache, ttl time.Duration) QuizService {
	return &quizService{repo: repo, attempts: attempts, cache: cache, ttl: ttl, now: time.Now}
}

func (s *quizService) loadQuestionSet(ctx context.Context, id int64) (*domain.QuestionSet, error) {
	set, err := s.repo.GetQuestionSetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewQuestionSetNotFoundError(id)
		}
		return nil, domain.NewInternalError("Failed to load question set", err)
	}
	return set, nil
}

// GetQuestionSet returns the set with its questions, read through the cache.
func (s *quizService) GetQuestionSet(ctx context.Context, id int64) (*domain.QuestionSet, error) {
	if id <= 0 {
		return nil, domain.NewQuestionSetNotFoundError(id)
	}
	return cachedJSON(ctx, s.cache, cache.QuestionSetKey(id), s.ttl, func() (*domain.QuestionSet, error) {
		return s.loadQuestionSet(ctx, id)
	})
}

// SubmitAttempt scores answers against the stored set and records the attempt.
func (s *quizService) SubmitAttempt(ctx context.Context, userID string, questionSetID int64, answers []domain.SubmittedAnswer, startedAt *time.Time) (*domain.QuizAttempt, error) {
	if userID == "" {
		return nil, domain.NewUnauthorizedError("Authentication required to submit a quiz attempt.")
	}
	if questionSetID <= 0 {
		return nil, domain.NewInvalidInputError("question_set is required.")
	}

	// Scoring always reads the database so a stale cache entry cannot change a grade.
	set, err := s.loadQuestionSet(ctx, questionSetID)
	if err != nil {
		return nil, err
	}

	score, total := domain.Score(set.Questions, answers)

	finished := s.now()
	started := finished
	if startedAt != nil && !startedAt.IsZero() && !startedAt.After(finished) {
		started = *startedAt
	}

	attempt := &domain.QuizAttempt{
		ID:            util.NewULID(),
		UserID:        userID,
		QuestionSetID: set.ID,
		Score:         score,
		Total:         total,
		StartedAt:     started,
		FinishedAt:    &finished,
	}
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return nil, domain.NewInternalError("Failed to save quiz attempt", err)
	}

	metrics.QuizAttemptsTotal.Inc()
	logger.Get().Info("Quiz attempt scored",
		zap.String("attemptID", attempt.ID),
		zap.String("userID", userID),
		zap.Int64("questionSetID", set.ID),
		zap.Int("score", score),
		zap.Int("total", total))
	return attempt, nil
}

// ListMyAttempts returns the user's attempts newest first, with the
// normalized limit and offset.
func (s *quizService) ListMyAttempts(ctx context.Context, userID string, limit, offset int) ([]domain.QuizAttempt, int, int, error) {
	if userID == "" {
		return nil, 0, 0, domain.NewUnauthorizedError("Authentication required.")
	}
	switch {
	case limit <= 0:
		limit = defaultAttemptPageSize
	case limit > maxAttemptPageSize:
		limit = maxAttemptPageSize
	}
	if offset < 0 {
		offset = 0
	}

	attempts, err := s.attempts.ListAttemptsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, limit, offset, domain.NewInternalError("Failed to list quiz attempts", err)
	}
	return attempts, limit, offset, nil
}
