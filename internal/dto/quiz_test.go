package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoiceValue_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ChoiceValue
		wantErr bool
	}{
		{"String", `"B"`, "B", false},
		{"EscapedString", `"\u0041"`, "A", false},
		{"Integer", `1`, "1", false},
		{"Float", `2.5`, "2.5", false},
		{"Bool", `true`, "true", false},
		{"Null", `null`, "", false},
		{"Object", `{"id":"A"}`, "", true},
		{"Array", `["A"]`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req SubmitAttemptRequest
			err := json.Unmarshal([]byte(`{"question_set":1,"answers":[{"question_id":7,"choice":`+tt.raw+`}]}`), &req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, req.Answers, 1)
			assert.Equal(t, tt.want, req.Answers[0].Choice)

			answers := req.ToDomainAnswers()
			assert.Equal(t, int64(7), answers[0].QuestionID)
			assert.Equal(t, string(tt.want), answers[0].Choice)
		})
	}
}
