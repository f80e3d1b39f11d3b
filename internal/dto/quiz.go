package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"cpa-academy/internal/domain"
)

// QuestionResponse is a question as shown to someone taking the quiz. The
// correct choice is never included.
type QuestionResponse struct {
	ID          int64           `json:"id"`
	Text        string          `json:"text"`
	Choices     []domain.Choice `json:"choices"`
	Points      int             `json:"points"`
	Explanation string          `json:"explanation"`
	Order       int             `json:"order"`
}

// QuestionSetResponse represents a question set in the API response
// @Description Question set with its ordered questions
type QuestionSetResponse struct {
	ID          int64              `json:"id"`
	Unit        int64              `json:"unit"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	TotalPoints int                `json:"total_points"`
	Questions   []QuestionResponse `json:"questions"`
}

// NewQuestionSetResponse converts a domain question set for the API.
func NewQuestionSetResponse(set *domain.QuestionSet) QuestionSetResponse {
	questions := make([]QuestionResponse, 0, len(set.Questions))
	for _, q := range set.Questions {
		choices := q.Choices
		if choices == nil {
			choices = []domain.Choice{}
		}
		questions = append(questions, QuestionResponse{
			ID:          q.ID,
			Text:        q.Text,
			Choices:     choices,
			Points:      q.Points,
			Explanation: q.Explanation,
			Order:       q.Order,
		})
	}
	return QuestionSetResponse{
		ID:          set.ID,
		Unit:        set.UnitID,
		Title:       set.Title,
		Description: set.Description,
		TotalPoints: set.TotalPoints(),
		Questions:   questions,
	}
}

// ChoiceValue is a submitted choice id. Clients may send it as a JSON string
// or as a bare number or boolean, which is kept as its literal text.
type ChoiceValue string

// UnmarshalJSON implements json.Unmarshaler.
func (c *ChoiceValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ChoiceValue(s)
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("choice must be a string or a number")
	default:
		*c = ChoiceValue(data)
	}
	return nil
}

// SubmittedAnswerRequest is one answer within an attempt submission.
type SubmittedAnswerRequest struct {
	QuestionID int64       `json:"question_id"`
	Choice     ChoiceValue `json:"choice" swaggertype:"string"`
}

// SubmitAttemptRequest represents a quiz attempt submission
// @Description Request body for submitting a quiz attempt
type SubmitAttemptRequest struct {
	QuestionSet int64                    `json:"question_set"`
	Answers     []SubmittedAnswerRequest `json:"answers"`
	StartedAt   *time.Time               `json:"started_at,omitempty"`
}

// ToDomainAnswers converts the submitted answers for scoring.
func (r *SubmitAttemptRequest) ToDomainAnswers() []domain.SubmittedAnswer {
	answers := make([]domain.SubmittedAnswer, 0, len(r.Answers))
	for _, a := range r.Answers {
		answers = append(answers, domain.SubmittedAnswer{QuestionID: a.QuestionID, Choice: string(a.Choice)})
	}
	return answers
}

// QuizAttemptResponse represents a scored attempt
// @Description Scored quiz attempt
type QuizAttemptResponse struct {
	ID          string     `json:"id"`
	User        string     `json:"user"`
	QuestionSet int64      `json:"question_set"`
	Score       int        `json:"score"`
	Total       int        `json:"total"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at"`
}

// NewQuizAttemptResponse converts a domain attempt for the API.
func NewQuizAttemptResponse(a *domain.QuizAttempt) QuizAttemptResponse {
	return QuizAttemptResponse{
		ID:          a.ID,
		User:        a.UserID,
		QuestionSet: a.QuestionSetID,
		Score:       a.Score,
		Total:       a.Total,
		StartedAt:   a.StartedAt,
		FinishedAt:  a.FinishedAt,
	}
}

// QuizAttemptListResponse is a page of the caller's attempts.
type QuizAttemptListResponse struct {
	Items      []QuizAttemptResponse `json:"items"`
	Pagination PaginationInfo        `json:"pagination"`
}
