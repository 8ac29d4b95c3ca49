package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "valid JSON untouched",
			in:   `{"related_questions": ["a", "b"]}`,
			want: `{"related_questions": ["a", "b"]}`,
		},
		{
			name: "missing opening quote after brace",
			in:   `{related_questions": ["a"]}`,
			want: `{"related_questions": ["a"]}`,
		},
		{
			name: "missing opening quote after comma",
			in:   `{"a": 1, b": 2}`,
			want: `{"a": 1, "b": 2}`,
		},
		{
			name: "unquoted value left alone",
			in:   `{"a": true}`,
			want: `{"a": true}`,
		},
		{
			name: "empty string",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.in))
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
}
