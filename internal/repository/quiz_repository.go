package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// QuizDatabaseAdapter implements domain.QuizRepository using sqlx.DB
type QuizDatabaseAdapter struct {
	db *sqlx.DB
}

// NewQuizDatabaseAdapter creates a new instance of QuizDatabaseAdapter
func NewQuizDatabaseAdapter(db *sqlx.DB) domain.QuizRepository {
	return &QuizDatabaseAdapter{db: db}
}

func toDomainQuestion(q *models.Question) domain.Question {
	choices := make([]domain.Choice, 0, len(q.Choices))
	for _, c := range q.Choices {
		choices = append(choices, domain.Choice{ID: c.ID, Text: c.Text})
	}
	return domain.Question{
		ID:            q.ID,
		QuestionSetID: q.QuestionSetID,
		Text:          q.Text,
		Choices:       choices,
		CorrectChoice: q.CorrectChoice,
		Explanation:   q.Explanation,
		Points:        q.Points,
		Order:         q.Order,
	}
}

func fromDomainChoices(choices []domain.Choice) models.ChoiceList {
	list := make(models.ChoiceList, 0, len(choices))
	for _, c := range choices {
		list = append(list, models.Choice{ID: c.ID, Text: c.Text})
	}
	return list
}

// GetQuestionSetByID loads the set and its questions in display order.
func (a *QuizDatabaseAdapter) GetQuestionSetByID(ctx context.Context, id int64) (*domain.QuestionSet, error) {
	exec := GetExecutor(ctx, a.db)

	var set models.QuestionSet
	query := `SELECT id, unit_id, title, description FROM question_sets WHERE id = $1`
	if err := exec.GetContext(ctx, &set, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get question set %d: %w", id, err)
	}

	var questions []models.Question
	query = `SELECT id, question_set_id, text, choices, correct_choice, explanation, points, ord
		FROM questions WHERE question_set_id = $1 ORDER BY ord, id`
	if err := exec.SelectContext(ctx, &questions, query, id); err != nil {
		return nil, fmt.Errorf("failed to get questions for set %d: %w", id, err)
	}

	result := &domain.QuestionSet{
		ID:          set.ID,
		UnitID:      set.UnitID,
		Title:       set.Title,
		Description: set.Description,
		Questions:   make([]domain.Question, 0, len(questions)),
	}
	for i := range questions {
		result.Questions = append(result.Questions, toDomainQuestion(&questions[i]))
	}
	return result, nil
}

// CreateQuestionSet inserts the set and its questions. Run it inside
// TransactionManager.WithTransaction to make the insert atomic.
func (a *QuizDatabaseAdapter) CreateQuestionSet(ctx context.Context, set *domain.QuestionSet) error {
	exec := GetExecutor(ctx, a.db)

	query := `INSERT INTO question_sets (unit_id, title, description) VALUES ($1, $2, $3) RETURNING id`
	if err := exec.GetContext(ctx, &set.ID, query, set.UnitID, set.Title, set.Description); err != nil {
		return fmt.Errorf("failed to create question set: %w", err)
	}

	query = `INSERT INTO questions (question_set_id, text, choices, correct_choice, explanation, points, ord)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7) RETURNING id`
	for i := range set.Questions {
		q := &set.Questions[i]
		q.QuestionSetID = set.ID
		if q.Order == 0 {
			q.Order = i + 1
		}
		err := exec.GetContext(ctx, &q.ID, query,
			q.QuestionSetID, q.Text, fromDomainChoices(q.Choices), q.CorrectChoice, q.Explanation, q.Points, q.Order)
		if err != nil {
			return fmt.Errorf("failed to create question %d of set %d: %w", i+1, set.ID, err)
		}
	}
	return nil
}
