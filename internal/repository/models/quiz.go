package models

import (
	"database/sql"
	"time"
)

// QuestionSet is a row of the question_sets table.
type QuestionSet struct {
	ID          int64  `db:"id"`
	UnitID      int64  `db:"unit_id"`
	Title       string `db:"title"`
	Description string `db:"description"`
}

// Question is a row of the questions table.
type Question struct {
	ID            int64      `db:"id"`
	QuestionSetID int64      `db:"question_set_id"`
	Text          string     `db:"text"`
	Choices       ChoiceList `db:"choices"`
	CorrectChoice string     `db:"correct_choice"`
	Explanation   string     `db:"explanation"`
	Points        int        `db:"points"`
	Order         int        `db:"ord"`
}

// QuizAttempt is a row of the quiz_attempts table.
type QuizAttempt struct {
	ID            string       `db:"id"` // ULID
	UserID        string       `db:"user_id"`
	QuestionSetID int64        `db:"question_set_id"`
	Score         int          `db:"score"`
	Total         int          `db:"total"`
	StartedAt     time.Time    `db:"started_at"`
	FinishedAt    sql.NullTime `db:"finished_at"`
}
