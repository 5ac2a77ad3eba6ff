package terminal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"superterm/internal/chat"
	"superterm/internal/intent"
	"superterm/internal/logging"
	"superterm/internal/organize"
)

// maxShowBytes bounds how much of a file SHOW and SUMMARIZE will read.
const maxShowBytes = 256 * 1024

const helpText = `# superterm

Talk to your files in plain English. Some things to try:

- **list** — "list all python scripts", "show me recent files"
- **run** — "run backup.sh with --dry-run"
- **search** — "find notes about the budget"
- **organize** — "clean up the downloads folder"
- **show / preview** — "open config.yaml", "preview report.md"
- **create / delete / rename / move** — "rename notes.txt to ideas.txt"
- **summarize** — "summarize the latest README"

Type **exit** to leave.`

// dispatch routes a confident intent to its handler. The switch is
// exhaustive over the action kinds; UNKNOWN never reaches here because
// the gate rejects it.
func (s *Session) dispatch(ctx context.Context, it intent.Intent) (string, error) {
	logging.Routing("dispatch %s target=%q", it.Type, it.Target)
	switch it.Type {
	case intent.ActionList:
		return s.handleList(it)
	case intent.ActionRun:
		return s.handleRun(ctx, it)
	case intent.ActionSearch:
		return s.handleSearch(it)
	case intent.ActionHelp:
		return s.renderMarkdown(helpText), nil
	case intent.ActionExit:
		return s.st.Muted.Render("Goodbye!"), ErrExit
	case intent.ActionCreate:
		return s.handleCreate(it)
	case intent.ActionDelete:
		return s.handleDelete(it)
	case intent.ActionOrganize:
		return s.handleOrganize(ctx, it)
	case intent.ActionShow:
		return s.handleShow(it)
	case intent.ActionPreview:
		return s.handlePreview(it)
	case intent.ActionRename, intent.ActionMove:
		return s.handleMove(it)
	case intent.ActionSummarize:
		return s.handleSummarize(ctx, it)
	case intent.ActionChat:
		return chat.Reply(it.OriginalInput), nil
	case intent.ActionUnknown:
		return s.rejectMessage(), nil
	}
	return "", fmt.Errorf("no handler for action %q", it.Type)
}

// workspacePath resolves a user-supplied name inside the workspace and
// rejects anything that escapes it.
func (s *Session) workspacePath(name string) (string, error) {
	if name == "" {
		return "", errors.New("no file named in that request")
	}
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%s is outside the workspace", name)
	}
	return filepath.Join(s.cfg.Workspace, clean), nil
}

func (s *Session) handleList(it intent.Intent) (string, error) {
	dir := s.cfg.Workspace
	if sub := it.Param(intent.ParamDirectory); sub != "" && sub != "." {
		p, err := s.workspacePath(sub)
		if err != nil {
			return "", err
		}
		dir = p
	}
	files, err := listFiles(dir, it.Param(intent.ParamFileType), it.Param(intent.ParamScope))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return s.st.Muted.Render("No matching files."), nil
	}

	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "%s  %s  %s\n",
			s.st.Info.Render(fmt.Sprintf("%-32s", f.Name)),
			fmt.Sprintf("%6s", formatSize(f.Size)),
			s.st.Muted.Render(f.ModTime.Format("2006-01-02 15:04")))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (s *Session) handleRun(ctx context.Context, it intent.Intent) (string, error) {
	if it.Target == "" {
		return "", errors.New("which script should I run?")
	}
	res, err := s.runner.Run(ctx, it.Target, strings.Fields(it.Param(intent.ParamArgs))...)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if res.ExitCode == 0 {
		b.WriteString(s.st.Success.Render(fmt.Sprintf("✓ %s finished in %s", it.Target, res.Duration.Round(time.Millisecond))))
	} else {
		b.WriteString(s.st.Warning.Render(fmt.Sprintf("✗ %s exited with code %d", it.Target, res.ExitCode)))
	}
	if out := strings.TrimSpace(res.Stdout); out != "" {
		b.WriteString("\n" + out)
	}
	if errOut := strings.TrimSpace(res.Stderr); errOut != "" {
		b.WriteString("\n" + s.st.Error.Render(errOut))
	}
	if res.Truncated {
		b.WriteString("\n" + s.st.Muted.Render("(output truncated)"))
	}
	return b.String(), nil
}

func (s *Session) handleSearch(it intent.Intent) (string, error) {
	query := it.Param(intent.ParamQuery)
	if query == "" {
		query = it.Target
	}
	if query == "" {
		return "", errors.New("what should I search for?")
	}
	root := s.cfg.Workspace
	if sub := it.Param(intent.ParamDirectory); sub != "" && sub != "." {
		p, err := s.workspacePath(sub)
		if err != nil {
			return "", err
		}
		root = p
	}
	hits, err := searchFiles(root, query)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return s.st.Muted.Render(fmt.Sprintf("Nothing matching %q.", query)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.st.Title.Render(fmt.Sprintf("%d match(es) for %q:", len(hits), query)))
	for _, h := range hits {
		b.WriteString("  " + h + "\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (s *Session) handleCreate(it intent.Intent) (string, error) {
	path, err := s.workspacePath(it.Target)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", it.Target)
	}

	// A name with an extension becomes a file, anything else a directory.
	if filepath.Ext(path) != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return "", err
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			return "", err
		}
		return s.st.Success.Render("Created file " + it.Target), nil
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}
	return s.st.Success.Render("Created directory " + it.Target), nil
}

func (s *Session) handleDelete(it intent.Intent) (string, error) {
	path, err := s.workspacePath(it.Target)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%s not found", it.Target)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory; I only delete files", it.Target)
	}
	if err := os.Remove(path); err != nil {
		return "", err
	}
	return s.st.Success.Render("Deleted " + it.Target), nil
}

func (s *Session) handleOrganize(ctx context.Context, it intent.Intent) (string, error) {
	root := s.cfg.Organize.Root
	if root == "" {
		root = s.cfg.Workspace
	}
	if sub := it.Param(intent.ParamDirectory); sub != "" && sub != "." {
		p, err := s.workspacePath(sub)
		if err != nil {
			return "", err
		}
		root = p
	}

	org := organize.New(root, s.cfg.Organize)
	res, err := org.Run(ctx)
	if err != nil {
		return "", err
	}
	if len(res.Moves) == 0 {
		return s.st.Muted.Render("Nothing to organize."), nil
	}
	var b strings.Builder
	b.WriteString(s.st.Success.Render(fmt.Sprintf("Organized %d file(s):", len(res.Moves))) + "\n")
	for _, mv := range res.Moves {
		fmt.Fprintf(&b, "  %s → %s\n", mv.From, mv.To)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (s *Session) readTarget(it intent.Intent) (string, []byte, error) {
	path, err := s.workspacePath(it.Target)
	if err != nil {
		return "", nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("%s not found", it.Target)
	}
	defer f.Close()
	data := make([]byte, maxShowBytes)
	n, err := f.Read(data)
	if err != nil && n == 0 {
		return "", nil, fmt.Errorf("read %s: %w", it.Target, err)
	}
	return path, data[:n], nil
}

func (s *Session) handleShow(it intent.Intent) (string, error) {
	path, data, err := s.readTarget(it)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(filepath.Ext(path), ".md") {
		return s.renderMarkdown(string(data)), nil
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func (s *Session) handlePreview(it intent.Intent) (string, error) {
	_, data, err := s.readTarget(it)
	if err != nil {
		return "", err
	}
	lines := strings.Split(string(data), "\n")
	const previewLines = 20
	if len(lines) > previewLines {
		lines = append(lines[:previewLines], s.st.Muted.Render("…"))
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n"), nil
}

func (s *Session) handleMove(it intent.Intent) (string, error) {
	dest := it.Param(intent.ParamDirectory)
	if dest == "" {
		return "", errors.New("where should it go? Try \"rename a.txt to b.txt\"")
	}
	src, err := s.workspacePath(it.Target)
	if err != nil {
		return "", err
	}
	dst, err := s.workspacePath(dest)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		dst = filepath.Join(dst, filepath.Base(src))
	}
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("%s not found", it.Target)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}
	if err := os.Rename(src, dst); err != nil {
		return "", err
	}
	rel, rerr := filepath.Rel(s.cfg.Workspace, dst)
	if rerr != nil {
		rel = dest
	}
	return s.st.Success.Render(fmt.Sprintf("%s → %s", it.Target, rel)), nil
}

func (s *Session) handleSummarize(ctx context.Context, it intent.Intent) (string, error) {
	target := it.Target
	if target == "" {
		return "", errors.New("which document should I summarize?")
	}

	// A bare name like "README" resolves to the best workspace match,
	// newest first when the scope asks for recent.
	if _, err := os.Stat(filepath.Join(s.cfg.Workspace, target)); err != nil {
		hits, herr := searchFiles(s.cfg.Workspace, target)
		if herr != nil || len(hits) == 0 {
			return "", fmt.Errorf("%s not found", target)
		}
		target = hits[0]
	}

	path, data, err := s.readTarget(intent.Intent{Target: target})
	if err != nil {
		return "", err
	}

	if s.store != nil {
		if doc, err := s.store.Summary(ctx, target); err == nil && doc != nil {
			if info, serr := os.Stat(path); serr == nil && !info.ModTime().After(doc.UpdatedAt) {
				return s.st.Info.Render(doc.Summary), nil
			}
		}
	}

	sum := summarize(filepath.Base(target), data)
	if s.store != nil {
		if err := s.store.SaveSummary(ctx, target, sum); err != nil {
			logging.StoreError("cache summary: %v", err)
		}
	}
	return s.st.Info.Render(sum), nil
}
