package domain

import (
	"context"
	"fmt"
	"time"
)

// Choice is one selectable option of a question.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a single multiple-choice item within a question set.
type Question struct {
	ID            int64
	QuestionSetID int64
	Text          string
	Choices       []Choice
	CorrectChoice string
	Explanation   string
	Points        int
	Order         int
}

// Validate checks that the question can be scored.
func (q *Question) Validate() error {
	if q.Text == "" {
		return NewInvalidInputError("question text is required")
	}
	if q.Points < 0 {
		return NewInvalidInputError("question points must not be negative")
	}
	for _, c := range q.Choices {
		if c.ID == q.CorrectChoice {
			return nil
		}
	}
	return NewInvalidInputError(fmt.Sprintf("correct choice %q is not one of the question's choices", q.CorrectChoice))
}

// QuestionSet owns an ordered collection of questions tied to a unit.
type QuestionSet struct {
	ID          int64
	UnitID      int64
	Title       string
	Description string
	Questions   []Question
}

// TotalPoints is the sum of point values of every question in the set.
func (s *QuestionSet) TotalPoints() int {
	total := 0
	for _, q := range s.Questions {
		total += q.Points
	}
	return total
}

// SubmittedAnswer is a choice the user made for one question.
type SubmittedAnswer struct {
	QuestionID int64
	Choice     string
}

// Score compares answers against the stored correct choices. total is the
// sum of all question points whether answered or not; answers for questions
// outside the set are ignored, and only the first answer to a question counts.
func Score(questions []Question, answers []SubmittedAnswer) (score int, total int) {
	byID := make(map[int64]*Question, len(questions))
	for i := range questions {
		q := &questions[i]
		byID[q.ID] = q
		total += q.Points
	}

	seen := make(map[int64]struct{}, len(answers))
	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			continue
		}
		if _, dup := seen[ans.QuestionID]; dup {
			continue
		}
		seen[ans.QuestionID] = struct{}{}
		if q.CorrectChoice == ans.Choice {
			score += q.Points
		}
	}
	return score, total
}

// QuizAttempt records a user's scored submission of a question set.
type QuizAttempt struct {
	ID            string
	UserID        string
	QuestionSetID int64
	Score         int
	Total         int
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// QuizRepository reads question sets with their questions.
type QuizRepository interface {
	GetQuestionSetByID(ctx context.Context, id int64) (*QuestionSet, error)
	CreateQuestionSet(ctx context.Context, set *QuestionSet) error
}

// QuizAttemptRepository persists scored attempts.
type QuizAttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt *QuizAttempt) error
	ListAttemptsByUser(ctx context.Context, userID string, limit, offset int) ([]QuizAttempt, error)
}
