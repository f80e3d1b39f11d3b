package validation

import (
	"errors"
	"strings"
	"testing"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertInvalidInput(t *testing.T, err error) {
	t.Helper()
	var domainErr *domain.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domain.ErrInvalidInput, domainErr.Code)
}

func TestParseID(t *testing.T) {
	v := NewValidator()

	id, err := v.ParseID("id", " 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "0", "-3", "abc", "1.5"} {
		_, err := v.ParseID("id", raw)
		assertInvalidInput(t, err)
	}

	id, err = v.ParseOptionalID("unit", "")
	require.NoError(t, err)
	assert.Zero(t, id)
	_, err = v.ParseOptionalID("unit", "x")
	assertInvalidInput(t, err)
}

func TestParseBool(t *testing.T) {
	v := NewValidator()

	b, err := v.ParseBool("is_public", "", true)
	require.NoError(t, err)
	assert.True(t, b)

	b, err = v.ParseBool("is_public", "false", true)
	require.NoError(t, err)
	assert.False(t, b)

	_, err = v.ParseBool("is_public", "maybe", true)
	assertInvalidInput(t, err)
}

func TestParseTags(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		raw  string
		want []string
	}{
		{raw: "", want: []string{}},
		{raw: "far, leases ,,", want: []string{"far", "leases"}},
		{raw: `["far", " ", "aud"]`, want: []string{"far", "aud"}},
	}
	for _, tt := range tests {
		got, err := v.ParseTags(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	_, err := v.ParseTags(`["unterminated"`)
	assertInvalidInput(t, err)
	_, err = v.ParseTags(strings.Repeat("t,", 21))
	assertInvalidInput(t, err)
}

func TestValidateTitle(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateTitle("Leases"))
	assertInvalidInput(t, v.ValidateTitle("   "))
	assertInvalidInput(t, v.ValidateTitle(strings.Repeat("x", 201)))
}

func TestValidateSubmitAttempt(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateSubmitAttempt(&dto.SubmitAttemptRequest{QuestionSet: 1}))
	assertInvalidInput(t, v.ValidateSubmitAttempt(&dto.SubmitAttemptRequest{}))
	assert.NoError(t, v.ValidateSubmitAttempt(&dto.SubmitAttemptRequest{
		QuestionSet: 1,
		Answers:     []dto.SubmittedAnswerRequest{{QuestionID: 0, Choice: "A"}, {QuestionID: -5, Choice: "B"}},
	}))
	assertInvalidInput(t, v.ValidateSubmitAttempt(&dto.SubmitAttemptRequest{
		QuestionSet: 1,
		Answers:     []dto.SubmittedAnswerRequest{{QuestionID: 1, Choice: dto.ChoiceValue(strings.Repeat("x", maxChoiceLength+1))}},
	}))
}
