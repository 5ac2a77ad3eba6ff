package terminal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superterm/internal/config"
	"superterm/internal/intent"
	"superterm/internal/memory"
	"superterm/internal/nlp"
)

// newTestSession builds a plain-output session over a temp workspace
// with a deterministic lexical engine.
func newTestSession(t *testing.T, opts ...SessionOption) (*Session, string) {
	t.Helper()
	ws := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Workspace = ws
	cfg.Scripts.Interpreters = map[string]string{".sh": "bash"}

	e, err := intent.NewEngine(intent.WithPipeline(nlp.LexicalPipeline{}))
	require.NoError(t, err)

	opts = append([]SessionOption{WithEngine(e), WithPlainOutput()}, opts...)
	s, err := NewSession(cfg, opts...)
	require.NoError(t, err)
	return s, ws
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0755))
}

func TestHandle_List(t *testing.T) {
	s, ws := newTestSession(t)
	writeFile(t, ws, "alpha.py", "print()")
	writeFile(t, ws, "notes.txt", "hi")

	out, err := s.Handle(context.Background(), "list all python scripts")
	require.NoError(t, err)
	assert.Contains(t, out, "alpha.py")
	assert.NotContains(t, out, "notes.txt")
}

func TestHandle_Run(t *testing.T) {
	s, ws := newTestSession(t)
	writeFile(t, ws, "hello.sh", "echo hfrom-script\n")

	out, err := s.Handle(context.Background(), "run hello.sh")
	require.NoError(t, err)
	assert.Contains(t, out, "hello.sh finished")
	assert.Contains(t, out, "from-script")
}

func TestHandle_Help(t *testing.T) {
	s, _ := newTestSession(t)
	out, err := s.Handle(context.Background(), "help")
	require.NoError(t, err)
	assert.Contains(t, out, "superterm")
	assert.Contains(t, out, "summarize")
}

func TestHandle_Exit(t *testing.T) {
	s, _ := newTestSession(t)
	out, err := s.Handle(context.Background(), "exit")
	assert.ErrorIs(t, err, ErrExit)
	assert.Contains(t, out, "Goodbye")
}

func TestHandle_Chat(t *testing.T) {
	s, _ := newTestSession(t)
	out, err := s.Handle(context.Background(), "What can you do?")
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(out), "organize")
}

func TestHandle_RejectsGibberish(t *testing.T) {
	s, _ := newTestSession(t)
	out, err := s.Handle(context.Background(), "flurble zxqv wibble")
	require.NoError(t, err)
	assert.Contains(t, out, "didn't understand")
}

func TestHandle_EmptyLine(t *testing.T) {
	s, _ := newTestSession(t)
	out, err := s.Handle(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestHandle_ConfirmFlow(t *testing.T) {
	// A verb buried past the midpoint of the sentence scores in the
	// confirm band.
	const hedged = "please would maybe delete junk.txt"

	t.Run("confirmed", func(t *testing.T) {
		s, ws := newTestSession(t)
		writeFile(t, ws, "junk.txt", "x")

		out, err := s.Handle(context.Background(), hedged)
		require.NoError(t, err)
		assert.Contains(t, out, "Did you mean DELETE")

		out, err = s.Handle(context.Background(), "y")
		require.NoError(t, err)
		assert.Contains(t, out, "Deleted")
		assert.NoFileExists(t, filepath.Join(ws, "junk.txt"))
	})

	t.Run("declined", func(t *testing.T) {
		s, ws := newTestSession(t)
		writeFile(t, ws, "junk.txt", "x")

		_, err := s.Handle(context.Background(), hedged)
		require.NoError(t, err)
		out, err := s.Handle(context.Background(), "n")
		require.NoError(t, err)
		assert.Contains(t, out, "Cancelled")
		assert.FileExists(t, filepath.Join(ws, "junk.txt"))
	})
}

func TestHandle_LogsTasks(t *testing.T) {
	store, err := memory.Open(filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	defer store.Close()

	s, _ := newTestSession(t, WithStore(store))
	_, err = s.Handle(context.Background(), "list files")
	require.NoError(t, err)

	recs, err := store.RecentTasks(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "list files", recs[0].Input)
	assert.Equal(t, "list", recs[0].Action)
	assert.Equal(t, "execute", recs[0].Decision)
	assert.Equal(t, "ok", recs[0].Outcome)
}

func TestRun_REPL(t *testing.T) {
	ws := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Workspace = ws

	e, err := intent.NewEngine(intent.WithFallbackOnly())
	require.NoError(t, err)

	var out bytes.Buffer
	in := strings.NewReader("help\nexit\n")
	s, err := NewSession(cfg, WithEngine(e), WithPlainOutput(), WithIO(in, &out))
	require.NoError(t, err)

	require.NoError(t, s.Run(context.Background()))
	assert.Contains(t, out.String(), "superterm")
	assert.Contains(t, out.String(), "Goodbye")
}

func TestRun_EOFEndsSession(t *testing.T) {
	ws := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Workspace = ws

	e, err := intent.NewEngine(intent.WithFallbackOnly())
	require.NoError(t, err)

	var out bytes.Buffer
	s, err := NewSession(cfg, WithEngine(e), WithPlainOutput(), WithIO(strings.NewReader(""), &out))
	require.NoError(t, err)
	assert.NoError(t, s.Run(context.Background()))
}
