package validation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/dto"
)

const (
	maxTitleLength  = 200
	maxTagCount     = 20
	maxTagLength    = 50
	maxAnswerCount  = 500
	maxChoiceLength = 50
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ParseID parses a required positive integer identifier.
func (v *Validator) ParseID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewInvalidInputError(fmt.Sprintf("%s must be a positive integer.", field))
	}
	return id, nil
}

// ParseOptionalID is ParseID where an empty value means zero.
func (v *Validator) ParseOptionalID(field, raw string) (int64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return v.ParseID(field, raw)
}

// ParseBool parses a form boolean, returning def for an empty value.
func (v *Validator) ParseBool(field, raw string, def bool) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.NewInvalidInputError(fmt.Sprintf("%s must be true or false.", field))
	}
	return b, nil
}

// ParseTags accepts a JSON array of strings or a comma-separated list.
func (v *Validator) ParseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}

	var tags []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return nil, domain.NewInvalidInputError("tags must be a JSON array of strings or a comma-separated list.")
		}
	} else {
		tags = strings.Split(raw, ",")
	}

	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if len(t) > maxTagLength {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("tags must be at most %d characters each.", maxTagLength))
		}
		out = append(out, t)
	}
	if len(out) > maxTagCount {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("at most %d tags are allowed.", maxTagCount))
	}
	return out, nil
}

// ValidateTitle checks a material title.
func (v *Validator) ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.NewInvalidInputError("title is required.")
	}
	if len(title) > maxTitleLength {
		return domain.NewInvalidInputError(fmt.Sprintf("title must be at most %d characters.", maxTitleLength))
	}
	return nil
}

// ValidateSubmitAttempt checks the shape of an attempt submission. Answers
// naming unknown question ids are left for the scorer to skip.
func (v *Validator) ValidateSubmitAttempt(req *dto.SubmitAttemptRequest) error {
	if req.QuestionSet <= 0 {
		return domain.NewInvalidInputError("question_set is required.")
	}
	if len(req.Answers) > maxAnswerCount {
		return domain.NewInvalidInputError(fmt.Sprintf("at most %d answers are allowed.", maxAnswerCount))
	}
	for i, a := range req.Answers {
		if len(a.Choice) > maxChoiceLength {
			return domain.NewInvalidInputError(fmt.Sprintf("answers[%d].choice is too long.", i))
		}
	}
	return nil
}
