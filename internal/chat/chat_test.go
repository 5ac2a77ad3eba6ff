package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReply(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		contain string
	}{
		{"greeting", "Hello there!", "list"},
		{"short greeting", "hi", ""},
		{"capabilities", "What can you do?", "organize"},
		{"identity", "who are you", "superterm"},
		{"mood", "how are you today", "files"},
		{"gratitude", "thank you so much", ""},
		{"farewell", "goodbye then", "exit"},
		{"unmatched", "the weather is nice", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reply(tt.input)
			assert.NotEmpty(t, got)
			if tt.contain != "" {
				assert.Contains(t, strings.ToLower(got), strings.ToLower(tt.contain))
			}
		})
	}
}

func TestReply_Deterministic(t *testing.T) {
	assert.Equal(t, Reply("hello"), Reply("hello"))
}

func TestReply_NoFalseKeywordHits(t *testing.T) {
	// "this" contains "hi" but is not a greeting.
	got := Reply("this does not parse")
	for _, greet := range []string{"Hello!", "Hi there!"} {
		assert.NotContains(t, got, greet)
	}
}

func TestSuggestions(t *testing.T) {
	s := Suggestions()
	assert.NotEmpty(t, s)
	for _, example := range s {
		assert.NotEmpty(t, example)
	}
}
