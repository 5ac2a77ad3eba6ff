package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superterm/internal/nlp"
)

func TestNewLibrary_DefaultsCompile(t *testing.T) {
	lib, err := NewLibrary()
	require.NoError(t, err)
	require.NotEmpty(t, lib.order)

	// Every known action kind except UNKNOWN carries patterns.
	for _, a := range registrationOrder {
		set, ok := lib.sets[a]
		require.True(t, ok, "no patterns for %s", a)
		assert.True(t, len(set.tokenPatterns) > 0 || len(set.fallback) > 0)
	}
	assert.NotContains(t, lib.sets, ActionUnknown)
}

func TestBuildLibrary_RejectsMalformedDefinitions(t *testing.T) {
	tests := []struct {
		name string
		defs []Definition
	}{
		{
			name: "bad fallback regex",
			defs: []Definition{{Action: ActionList, Fallback: []string{`([unclosed`}}},
		},
		{
			name: "bad token regex",
			defs: []Definition{{
				Action:        ActionRun,
				TokenPatterns: []TokenPattern{{{Regex: `*bad`}}},
			}},
		},
		{
			name: "invalid repetition op",
			defs: []Definition{{
				Action:        ActionRun,
				TokenPatterns: []TokenPattern{{{Lower: "run", Op: 'x'}}},
			}},
		},
		{
			name: "unknown action kind",
			defs: []Definition{{Action: Action("launch"), Fallback: []string{`^launch\b`}}},
		},
		{
			name: "unknown is not a matchable kind",
			defs: []Definition{{Action: ActionUnknown, Fallback: []string{`^x`}}},
		},
		{
			name: "empty definition",
			defs: []Definition{{Action: ActionList}},
		},
		{
			name: "empty token pattern",
			defs: []Definition{{Action: ActionList, TokenPatterns: []TokenPattern{{}}}},
		},
		{
			name: "duplicate action",
			defs: []Definition{
				{Action: ActionList, Fallback: []string{`^list\b`}},
				{Action: ActionList, Fallback: []string{`^ls\b`}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildLibrary(tt.defs)
			assert.Error(t, err)
		})
	}
}

func TestMatchSpan(t *testing.T) {
	toks := nlp.Lex("show me all python scripts now")

	tests := []struct {
		name string
		pat  TokenPattern
		span int
	}{
		{
			name: "exact sequence",
			pat:  TokenPattern{{Lower: "show"}, {Lower: "me"}},
			span: 2,
		},
		{
			name: "greedy wildcard runs to the end",
			pat:  TokenPattern{{Lower: "show"}, {Op: '*'}},
			span: 6,
		},
		{
			name: "optional token present",
			pat:  TokenPattern{{Lower: "show"}, {Lower: "me", Op: '?'}, {Lower: "all"}},
			span: 3,
		},
		{
			name: "optional token absent",
			pat:  TokenPattern{{Lower: "all"}, {Lower: "the", Op: '?'}, {Lower: "python"}},
			span: 2,
		},
		{
			name: "plus requires at least one",
			pat:  TokenPattern{{Lower: "scripts"}, {Op: '+'}},
			span: 2,
		},
		{
			name: "backtracking finds the anchored tail",
			pat:  TokenPattern{{Lower: "show"}, {Op: '*'}, {Lower: "scripts"}},
			span: 5,
		},
		{
			name: "membership constraint",
			pat:  TokenPattern{{In: []string{"display", "show"}}, {Op: '*'}},
			span: 6,
		},
		{
			name: "match can start mid-sentence",
			pat:  TokenPattern{{Lower: "python"}, {Lower: "scripts"}},
			span: 2,
		},
		{
			name: "no match",
			pat:  TokenPattern{{Lower: "delete"}},
			span: 0,
		},
		{
			name: "plus with nothing left",
			pat:  TokenPattern{{Lower: "now"}, {Op: '+'}},
			span: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.span, matchSpan(toks, tt.pat))
		})
	}
}
