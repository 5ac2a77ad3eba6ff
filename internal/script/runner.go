// Package script executes workspace scripts through a fixed interpreter
// table. It backs the RUN action: a script name is resolved inside the
// workspace, dispatched to its interpreter, and its output captured with
// a hard size bound.
package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"superterm/internal/config"
	"superterm/internal/logging"
)

// Result captures one script execution.
type Result struct {
	Path      string
	Args      []string
	ExitCode  int
	Stdout    string
	Stderr    string
	Truncated bool
	Duration  time.Duration
}

// Runner executes scripts found in a workspace directory.
type Runner struct {
	workspace    string
	interpreters map[string]string
	timeout      time.Duration
	maxOutput    int
}

// NewRunner builds a runner from the scripts configuration.
func NewRunner(workspace string, cfg config.ScriptsConfig, timeout time.Duration) *Runner {
	r := &Runner{
		workspace:    workspace,
		interpreters: make(map[string]string, len(cfg.Interpreters)),
		timeout:      timeout,
		maxOutput:    cfg.MaxOutputBytes,
	}
	for ext, bin := range cfg.Interpreters {
		r.interpreters[strings.ToLower(ext)] = bin
	}
	if r.maxOutput <= 0 {
		r.maxOutput = 64 * 1024
	}
	return r
}

// Resolve locates a script by name inside the workspace. Paths escaping
// the workspace are rejected.
func (r *Runner) Resolve(name string) (string, error) {
	if name == "" {
		return "", errors.New("script: empty name")
	}
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("script: %s is outside the workspace", name)
	}
	path := filepath.Join(r.workspace, clean)
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("script: %s not found", name)
	}
	if info.IsDir() {
		return "", fmt.Errorf("script: %s is a directory", name)
	}
	return path, nil
}

// interpreter returns the configured binary for a script's extension.
func (r *Runner) interpreter(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	bin, ok := r.interpreters[ext]
	if !ok {
		return "", fmt.Errorf("script: no interpreter for %s files", ext)
	}
	return bin, nil
}

// Run executes a workspace script and returns its bounded output. A
// nonzero exit is reported in the Result, not as an error; errors mean
// the script never ran or was cut off.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	path, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	bin, err := r.interpreter(path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	stdout := &boundedBuffer{limit: r.maxOutput}
	stderr := &boundedBuffer{limit: r.maxOutput}

	cmd := exec.CommandContext(ctx, bin, append([]string{path}, args...)...)
	cmd.Dir = r.workspace
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	runErr := cmd.Run()
	res := &Result{
		Path:      path,
		Args:      args,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.truncated || stderr.truncated,
		Duration:  time.Since(start),
	}

	if ctx.Err() == context.DeadlineExceeded {
		logging.ToolsError("script %s timed out after %s", name, r.timeout)
		return res, fmt.Errorf("script: %s timed out after %s: %w", name, r.timeout, ctx.Err())
	}
	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
	case errors.As(runErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, fmt.Errorf("script: run %s: %w", name, runErr)
	}

	logging.Tools("ran %s exit=%d in %s", name, res.ExitCode, res.Duration.Round(time.Millisecond))
	return res, nil
}

// boundedBuffer keeps the first limit bytes and drops the rest.
type boundedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.buf.Len()
	if room <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > room {
		b.truncated = true
		b.buf.Write(p[:room])
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *boundedBuffer) String() string { return b.buf.String() }
