// Package terminal is the interactive surface: it reads plain-English
// lines, runs them through intent recognition and the confidence gate,
// and dispatches confident intents to the file, script, and chat
// handlers.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"superterm/internal/chat"
	"superterm/internal/config"
	"superterm/internal/intent"
	"superterm/internal/logging"
	"superterm/internal/memory"
	"superterm/internal/script"
)

// ErrExit signals a clean end of the session.
var ErrExit = errors.New("session ended")

// Session is one interactive terminal session. Not safe for concurrent
// use; the engine behind it is.
type Session struct {
	cfg    *config.Config
	engine *intent.Engine
	runner *script.Runner
	store  *memory.Store // optional

	in    io.Reader
	out   io.Writer
	st    styles
	plain bool

	// pending holds a confirm-gated intent awaiting a yes/no answer,
	// together with its task log id.
	pending   *intent.Intent
	pendingID string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithIO redirects the session's input and output streams.
func WithIO(in io.Reader, out io.Writer) SessionOption {
	return func(s *Session) { s.in, s.out = in, out }
}

// WithStore attaches a session store for task history.
func WithStore(st *memory.Store) SessionOption {
	return func(s *Session) { s.store = st }
}

// WithEngine substitutes a preconfigured recognition engine.
func WithEngine(e *intent.Engine) SessionOption {
	return func(s *Session) { s.engine = e }
}

// WithPlainOutput disables markdown rendering and color.
func WithPlainOutput() SessionOption {
	return func(s *Session) { s.plain = true }
}

// NewSession builds a session over the configured workspace.
func NewSession(cfg *config.Config, opts ...SessionOption) (*Session, error) {
	s := &Session{
		cfg: cfg,
		in:  os.Stdin,
		out: os.Stdout,
		st:  newStyles(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		var engineOpts []intent.Option
		if cfg.Recognition.ForceFallback {
			engineOpts = append(engineOpts, intent.WithFallbackOnly())
		}
		e, err := intent.NewEngine(engineOpts...)
		if err != nil {
			return nil, err
		}
		s.engine = e
	}
	s.runner = script.NewRunner(cfg.Workspace, cfg.Scripts, cfg.GetScriptTimeout())
	return s, nil
}

// Run drives the read-recognize-dispatch loop until exit or EOF.
func (s *Session) Run(ctx context.Context) error {
	logging.Session("session started in %s", s.cfg.Workspace)
	fmt.Fprintln(s.out, s.st.Title.Render("superterm")+" "+
		s.st.Muted.Render("— talk to your files. Type \"help\" to start."))

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, s.st.Prompt.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		reply, err := s.Handle(ctx, scanner.Text())
		if reply != "" {
			fmt.Fprintln(s.out, reply)
		}
		if errors.Is(err, ErrExit) {
			logging.Session("session ended")
			return nil
		}
		if err != nil {
			fmt.Fprintln(s.out, s.st.Error.Render("error: ")+err.Error())
		}
	}
}

// Handle processes one line of input and returns the text to show.
// ErrExit is returned when the user asked to leave.
func (s *Session) Handle(ctx context.Context, line string) (string, error) {
	if s.pending != nil {
		return s.resolvePending(ctx, line)
	}

	it := s.engine.Recognize(line)
	decision := intent.Gate(it)
	id := s.logTask(ctx, it, decision)

	switch decision {
	case intent.Reject:
		if strings.TrimSpace(line) == "" {
			return "", nil
		}
		return s.rejectMessage(), nil
	case intent.Confirm:
		s.pending = &it
		s.pendingID = id
		return s.st.Warning.Render(
			fmt.Sprintf("Did you mean %s %s? [y/N]", strings.ToUpper(string(it.Type)), it.Target)), nil
	}

	out, err := s.dispatch(ctx, it)
	s.setOutcome(ctx, id, err)
	return out, err
}

func (s *Session) resolvePending(ctx context.Context, line string) (string, error) {
	it, id := *s.pending, s.pendingID
	s.pending, s.pendingID = nil, ""

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		out, err := s.dispatch(ctx, it)
		s.setOutcome(ctx, id, err)
		return out, err
	}
	if s.store != nil {
		s.store.SetOutcome(ctx, id, "cancelled")
	}
	return s.st.Muted.Render("Cancelled."), nil
}

func (s *Session) rejectMessage() string {
	var b strings.Builder
	b.WriteString("I didn't understand that. Try one of:\n")
	for _, ex := range chat.Suggestions() {
		b.WriteString("  • " + ex + "\n")
	}
	return s.st.Muted.Render(strings.TrimRight(b.String(), "\n"))
}

func (s *Session) logTask(ctx context.Context, it intent.Intent, d intent.Decision) string {
	if s.store == nil || strings.TrimSpace(it.OriginalInput) == "" {
		return ""
	}
	id, err := s.store.LogTask(ctx, memory.TaskRecord{
		Input:      it.OriginalInput,
		Action:     string(it.Type),
		Confidence: it.Confidence,
		Target:     it.Target,
		Decision:   d.String(),
	})
	if err != nil {
		logging.StoreError("log task: %v", err)
		return ""
	}
	return id
}

func (s *Session) setOutcome(ctx context.Context, id string, err error) {
	if s.store == nil || id == "" {
		return
	}
	outcome := "ok"
	if err != nil && !errors.Is(err, ErrExit) {
		outcome = "error: " + err.Error()
	}
	if serr := s.store.SetOutcome(ctx, id, outcome); serr != nil {
		logging.StoreError("set outcome: %v", serr)
	}
}

// renderMarkdown renders markdown for the terminal, falling back to the
// raw text when rendering is disabled or fails.
func (s *Session) renderMarkdown(md string) string {
	if s.plain {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
