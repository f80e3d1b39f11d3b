package seedmodels

import (
	"encoding/json"
	"fmt"
	"os"

	"cpa-academy/internal/domain"
)

// SeedChoice is one option of a seeded question.
type SeedChoice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// SeedQuestion defines the structure for a question in the JSON seed file.
type SeedQuestion struct {
	Text          string       `json:"text"`
	Choices       []SeedChoice `json:"choices"`
	CorrectChoice string       `json:"correct_choice"`
	Explanation   string       `json:"explanation"`
	Points        int          `json:"points"`
}

// SeedQuestionSet defines the structure for a question set in the JSON seed file.
type SeedQuestionSet struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []SeedQuestion `json:"questions"`
}

// SeedUnit defines the structure for a unit in the JSON seed file.
type SeedUnit struct {
	Title        string            `json:"title"`
	Code         string            `json:"code"`
	Description  string            `json:"description"`
	Order        int               `json:"order"`
	QuestionSets []SeedQuestionSet `json:"question_sets"`
}

// SeedSubject defines the structure for a subject in the JSON seed file.
type SeedSubject struct {
	Name  string     `json:"name"`
	Slug  string     `json:"slug"`
	Units []SeedUnit `json:"units"`
}

// SeedUser is an account created ahead of time, typically staff.
type SeedUser struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// SeedFile is the top-level document.
type SeedFile struct {
	Users    []SeedUser    `json:"users"`
	Subjects []SeedSubject `json:"subjects"`
}

// Load reads and validates a seed file.
func Load(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	var f SeedFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seed file %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate rejects entries the repositories would fail on halfway through a transaction.
func (f *SeedFile) Validate() error {
	for i, u := range f.Users {
		if u.Email == "" {
			return fmt.Errorf("users[%d]: email is required", i)
		}
	}
	for i, s := range f.Subjects {
		if s.Name == "" {
			return fmt.Errorf("subjects[%d]: name is required", i)
		}
		for j, u := range s.Units {
			if u.Title == "" {
				return fmt.Errorf("subject %q units[%d]: title is required", s.Name, j)
			}
			for k, qs := range u.QuestionSets {
				if qs.Title == "" {
					return fmt.Errorf("unit %q question_sets[%d]: title is required", u.Title, k)
				}
				set := qs.ToDomain(0)
				for n := range set.Questions {
					if err := set.Questions[n].Validate(); err != nil {
						return fmt.Errorf("question set %q question %d: %w", qs.Title, n+1, err)
					}
				}
			}
		}
	}
	return nil
}

// ToDomain converts the seeded set for unitID. Questions keep file order.
func (qs SeedQuestionSet) ToDomain(unitID int64) *domain.QuestionSet {
	set := &domain.QuestionSet{
		UnitID:      unitID,
		Title:       qs.Title,
		Description: qs.Description,
		Questions:   make([]domain.Question, 0, len(qs.Questions)),
	}
	for i, q := range qs.Questions {
		choices := make([]domain.Choice, 0, len(q.Choices))
		for _, c := range q.Choices {
			choices = append(choices, domain.Choice{ID: c.ID, Text: c.Text})
		}
		points := q.Points
		if points == 0 {
			points = 1
		}
		set.Questions = append(set.Questions, domain.Question{
			Text:          q.Text,
			Choices:       choices,
			CorrectChoice: q.CorrectChoice,
			Explanation:   q.Explanation,
			Points:        points,
			Order:         i + 1,
		})
	}
	return set
}
