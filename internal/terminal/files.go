package terminal

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// typeExts maps spoken file_type parameter values ("python", "shell")
// to the extensions they cover. The recognizer keeps the type as the
// user said it; the extension translation happens here.
var typeExts = map[string][]string{
	"python":   {".py"},
	"shell":    {".sh", ".bash"},
	"text":     {".txt"},
	"markdown": {".md"},
	"pdf":      {".pdf"},
	"json":     {".json"},
	"yaml":     {".yaml", ".yml"},
	"csv":      {".csv"},
	"log":      {".log"},
	"image":    {".png", ".jpg", ".jpeg", ".gif", ".svg"},
	"document": {".md", ".txt", ".pdf", ".doc", ".docx"},
}

// recentLimit bounds listings scoped to recent files.
const recentLimit = 10

type fileEntry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

func matchesType(name, fileType string) bool {
	if fileType == "" {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range typeExts[fileType] {
		if ext == e {
			return true
		}
	}
	return false
}

// listFiles returns the visible files directly under dir, filtered by
// file type and scope. Scope "recent" keeps the newest few, everything
// else returns all matches sorted by name.
func listFiles(dir, fileType, scope string) ([]fileEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var out []fileEntry
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !matchesType(name, fileType) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, fileEntry{Name: name, Size: info.Size(), ModTime: info.ModTime()})
	}

	if scope == "recent" {
		sort.Slice(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
		if len(out) > recentLimit {
			out = out[:recentLimit]
		}
		return out, nil
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// searchFiles walks root looking for file names containing every word
// of the query. Hidden directories are skipped.
func searchFiles(root, query string) ([]string, error) {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil, nil
	}

	var hits []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are not fatal to a search
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		lowered := strings.ToLower(name)
		for _, w := range words {
			if !strings.Contains(lowered, w) {
				return nil
			}
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			rel = path
		}
		hits = append(hits, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", root, err)
	}
	sort.Strings(hits)
	return hits, nil
}

// summarize produces a short plain-text summary of a document: its
// title, opening text, and size stats.
func summarize(name string, data []byte) string {
	text := string(data)
	lines := strings.Split(text, "\n")

	title := name
	var opening []string
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" {
			if len(opening) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(t, "#") && title == name {
			title = strings.TrimSpace(strings.TrimLeft(t, "# "))
			continue
		}
		opening = append(opening, t)
		if len(opening) == 3 {
			break
		}
	}

	words := len(strings.Fields(text))
	var b strings.Builder
	fmt.Fprintf(&b, "%s — %d lines, %d words%s\n", title, len(lines), words, structuralStats(name, lines))
	if len(opening) > 0 {
		b.WriteString(strings.Join(opening, " "))
	}
	return strings.TrimSpace(b.String())
}

// structuralStats counts the structural landmarks of a document by
// language: headers for markdown, functions and imports for code.
func structuralStats(name string, lines []string) string {
	ext := strings.ToLower(filepath.Ext(name))
	var headers, funcs, imports int
	for _, line := range lines {
		t := strings.TrimSpace(line)
		switch ext {
		case ".md":
			if strings.HasPrefix(t, "#") {
				headers++
			}
		case ".py":
			if strings.HasPrefix(t, "def ") || strings.HasPrefix(t, "class ") {
				funcs++
			}
			if strings.HasPrefix(t, "import ") || strings.HasPrefix(t, "from ") {
				imports++
			}
		case ".go":
			if strings.HasPrefix(t, "func ") {
				funcs++
			}
			if strings.HasPrefix(t, "import ") || t == "import (" {
				imports++
			}
		case ".sh", ".bash":
			if strings.HasPrefix(t, "function ") || strings.Contains(t, "() {") {
				funcs++
			}
		}
	}

	var parts []string
	if headers > 0 {
		parts = append(parts, fmt.Sprintf("%d headers", headers))
	}
	if funcs > 0 {
		parts = append(parts, fmt.Sprintf("%d functions", funcs))
	}
	if imports > 0 {
		parts = append(parts, fmt.Sprintf("%d imports", imports))
	}
	if len(parts) == 0 {
		return ""
	}
	return ", " + strings.Join(parts, ", ")
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fM", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fK", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%dB", n)
}
