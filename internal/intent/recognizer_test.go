package intent

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"superterm/internal/nlp"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newFallbackEngine builds an engine with linguistic matching disabled,
// giving deterministic regex-only behavior.
func newFallbackEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(WithFallbackOnly())
	require.NoError(t, err)
	return e
}

// newLexicalEngine builds an engine on the lexical pipeline, giving
// deterministic linguistic behavior without the full NLP model.
func newLexicalEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(WithPipeline(nlp.LexicalPipeline{}))
	require.NoError(t, err)
	return e
}

func TestRecognize_EmptyInput(t *testing.T) {
	e := newLexicalEngine(t)
	for _, input := range []string{"", "   ", "\t\n"} {
		got := e.Recognize(input)
		assert.Equal(t, ActionUnknown, got.Type, "input %q", input)
		assert.Zero(t, got.Confidence)
		assert.Empty(t, got.Target)
		assert.NotNil(t, got.Parameters)
		assert.Empty(t, got.Parameters)
		assert.Equal(t, input, got.OriginalInput)
	}
}

func TestRecognize_Linguistic(t *testing.T) {
	e := newLexicalEngine(t)

	tests := []struct {
		name   string
		input  string
		action Action
		target string
		params map[string]string
	}{
		{
			name:   "list with type and scope",
			input:  "show me all python scripts",
			action: ActionList,
			params: map[string]string{ParamFileType: "python", ParamScope: ScopeAll},
		},
		{
			name:   "every scopes to all",
			input:  "list every python script",
			action: ActionList,
			params: map[string]string{ParamFileType: "python", ParamScope: ScopeAll},
		},
		{
			name:   "pdf is a known type",
			input:  "show me the pdf documents",
			action: ActionList,
			params: map[string]string{ParamFileType: "pdf"},
		},
		{
			name:   "plain list",
			input:  "list files",
			action: ActionList,
		},
		{
			name:   "what-are phrasing routes to list",
			input:  "what are the files here",
			action: ActionList,
		},
		{
			name:   "run a script",
			input:  "run organize_ai_scripts.py",
			action: ActionRun,
			target: "organize_ai_scripts.py",
		},
		{
			name:   "run with arguments",
			input:  "run backup.sh with --dry-run",
			action: ActionRun,
			target: "backup.sh",
			params: map[string]string{ParamArgs: "--dry-run"},
		},
		{
			name:   "search with query and directory",
			input:  "search for todo markers in src",
			action: ActionSearch,
			target: "todo markers",
			params: map[string]string{ParamQuery: "todo markers", ParamDirectory: "src"},
		},
		{
			name:   "summarize latest",
			input:  "summarize the latest README",
			action: ActionSummarize,
			target: "README",
			params: map[string]string{ParamScope: ScopeRecent},
		},
		{
			name:   "organize a directory",
			input:  "clean up the downloads folder",
			action: ActionOrganize,
		},
		{
			name:   "delete a file",
			input:  "delete old_notes.txt",
			action: ActionDelete,
			target: "old_notes.txt",
		},
		{
			name:   "compound word is a target without an extension",
			input:  "delete old_meeting_notes",
			action: ActionDelete,
			target: "old_meeting_notes",
		},
		{
			name:   "quoted span is the target",
			input:  `delete "my old notes"`,
			action: ActionDelete,
			target: "my old notes",
		},
		{
			name:   "rename with destination",
			input:  "rename notes.txt to ideas.txt",
			action: ActionRename,
			target: "notes.txt",
			params: map[string]string{ParamDirectory: "ideas.txt"},
		},
		{
			name:   "capability question is chat not help",
			input:  "What can you do?",
			action: ActionChat,
		},
		{
			name:   "trailing question mark is chat without a trigger word",
			input:  "is this seat taken?",
			action: ActionChat,
		},
		{
			name:   "chat carries its topic as a query",
			input:  "tell me about the budget",
			action: ActionChat,
			params: map[string]string{ParamQuery: "the budget"},
		},
		{
			name:   "how-to is help",
			input:  "how to run scripts",
			action: ActionHelp,
		},
		{
			name:   "bare help",
			input:  "help",
			action: ActionHelp,
		},
		{
			name:   "exit",
			input:  "exit",
			action: ActionExit,
		},
		{
			name:   "greeting",
			input:  "hello there",
			action: ActionChat,
		},
		{
			name:   "gibberish",
			input:  "flurble zxqv wibble",
			action: ActionUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Recognize(tt.input)
			assert.Equal(t, tt.action, got.Type)
			assert.Equal(t, tt.input, got.OriginalInput)
			if tt.action == ActionUnknown {
				assert.Zero(t, got.Confidence)
				return
			}
			assert.Greater(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 0.9)
			if tt.target != "" {
				assert.Equal(t, tt.target, got.Target)
			}
			for k, v := range tt.params {
				assert.Equal(t, v, got.Parameters[k], "parameter %s", k)
			}
		})
	}
}

func TestRecognize_FallbackOnly(t *testing.T) {
	e := newFallbackEngine(t)

	tests := []struct {
		input  string
		action Action
	}{
		{"show me all python scripts", ActionList},
		{"ls", ActionList},
		{"run organize_ai_scripts.py", ActionRun},
		{"find my tax documents", ActionSearch},
		{"help", ActionHelp},
		{"quit", ActionExit},
		{"make a new folder called archive", ActionCreate},
		{"remove temp.log", ActionDelete},
		{"sort these files by type", ActionOrganize},
		{"open config.yaml", ActionShow},
		{"preview report.md", ActionPreview},
		{"move draft.md to archive", ActionMove},
		{"tldr the meeting notes", ActionSummarize},
		{"What can you do?", ActionChat},
		{"is this seat taken?", ActionChat},
		{"flurble zxqv", ActionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := e.Recognize(tt.input)
			assert.Equal(t, tt.action, got.Type)
			if tt.action == ActionUnknown {
				assert.Zero(t, got.Confidence)
			} else {
				assert.LessOrEqual(t, got.Confidence, 0.8)
			}
		})
	}
}

func TestRecognize_ConfidenceCaps(t *testing.T) {
	t.Run("linguistic full-span match caps at 0.9", func(t *testing.T) {
		got := newLexicalEngine(t).Recognize("list")
		require.Equal(t, ActionList, got.Type)
		assert.InDelta(t, 0.9, got.Confidence, 1e-9)
	})
	t.Run("fallback full match caps at 0.8", func(t *testing.T) {
		got := newFallbackEngine(t).Recognize("list")
		require.Equal(t, ActionList, got.Type)
		assert.InDelta(t, 0.8, got.Confidence, 1e-9)
	})
	t.Run("linguistic chat caps at 0.65", func(t *testing.T) {
		got := newLexicalEngine(t).Recognize("What can you do?")
		require.Equal(t, ActionChat, got.Type)
		assert.InDelta(t, 0.65, got.Confidence, 1e-9)
	})
	t.Run("fallback chat caps at 0.5", func(t *testing.T) {
		got := newFallbackEngine(t).Recognize("What can you do?")
		require.Equal(t, ActionChat, got.Type)
		assert.InDelta(t, 0.5, got.Confidence, 1e-9)
	})
	t.Run("linguistic question cue scores 0.65", func(t *testing.T) {
		got := newLexicalEngine(t).Recognize("is this seat taken?")
		require.Equal(t, ActionChat, got.Type)
		assert.InDelta(t, 0.65, got.Confidence, 1e-9)
	})
	t.Run("fallback question cue scores 0.5", func(t *testing.T) {
		got := newFallbackEngine(t).Recognize("is this seat taken?")
		require.Equal(t, ActionChat, got.Type)
		assert.InDelta(t, 0.5, got.Confidence, 1e-9)
	})
}

// Fallback coverage must discriminate on input length: a short command
// scores near the cap, a command buried in chatter lands in the
// confirmation band instead of executing outright.
func TestRecognize_FallbackCoverageScales(t *testing.T) {
	e := newFallbackEngine(t)

	short := e.Recognize("delete junk.txt")
	require.Equal(t, ActionDelete, short.Type)
	assert.InDelta(t, 0.8, short.Confidence, 1e-9)

	long := e.Recognize("delete junk.txt whenever you happen to find a spare moment")
	require.Equal(t, ActionDelete, long.Type)
	assert.Less(t, long.Confidence, short.Confidence)
	assert.Greater(t, long.Confidence, RejectThreshold)
	assert.Less(t, long.Confidence, ExecuteThreshold)
	assert.Equal(t, Confirm, Gate(long))
}

// tie-break check: two actions whose patterns cover the same span must
// resolve to the one registered first.
func TestRecognize_RegistrationOrderBreaksTies(t *testing.T) {
	lib, err := buildLibrary([]Definition{
		{
			Action:        ActionShow,
			TokenPatterns: []TokenPattern{{{Lower: "display"}, {Op: '*'}}},
			Fallback:      []string{`^display\b.*`},
		},
		{
			Action:        ActionList,
			TokenPatterns: []TokenPattern{{{Lower: "display"}, {Op: '*'}}},
			Fallback:      []string{`^display\b.*`},
		},
	})
	require.NoError(t, err)

	e, err := NewEngine(WithLibrary(lib), WithPipeline(nlp.LexicalPipeline{}))
	require.NoError(t, err)
	assert.Equal(t, ActionList, e.Recognize("display everything").Type,
		"LIST registers before SHOW and must keep the tie")

	fe, err := NewEngine(WithLibrary(lib), WithFallbackOnly())
	require.NoError(t, err)
	assert.Equal(t, ActionList, fe.Recognize("display everything").Type)
}

type failingPipeline struct{ panics bool }

func (p failingPipeline) Annotate(string) (*nlp.Annotation, error) {
	if p.panics {
		panic("annotator blew up")
	}
	return nil, errors.New("model not loaded")
}

func TestRecognize_PipelineFailureFallsBack(t *testing.T) {
	for _, panics := range []bool{false, true} {
		t.Run(fmt.Sprintf("panics=%v", panics), func(t *testing.T) {
			e, err := NewEngine(WithPipeline(failingPipeline{panics: panics}))
			require.NoError(t, err)

			got := e.Recognize("list files")
			assert.Equal(t, ActionList, got.Type)
			assert.LessOrEqual(t, got.Confidence, 0.8, "broken pipeline must score via fallback")
		})
	}
}

func TestRecognize_Concurrent(t *testing.T) {
	e := newLexicalEngine(t)
	inputs := []string{
		"list files", "run cleanup.py", "what can you do", "organize downloads",
		"", "delete junk.txt", "flurble", "summarize the latest report",
	}

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for n := 0; n < 200; n++ {
				in := inputs[n%len(inputs)]
				got := e.Recognize(in)
				if got.OriginalInput != in {
					return fmt.Errorf("input %q echoed back as %q", in, got.OriginalInput)
				}
				if got.Type == ActionUnknown && got.Confidence != 0 {
					return fmt.Errorf("unknown intent with confidence %v", got.Confidence)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
