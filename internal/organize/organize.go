// Package organize sorts loose files into category directories by
// extension. It backs the ORGANIZE action: a scan plans moves, a run
// applies them, and watch mode keeps a directory tidy as files arrive.
package organize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"superterm/internal/config"
	"superterm/internal/logging"
)

// defaultMappings routes known extensions to category directories.
// Config mappings are merged over these.
var defaultMappings = map[string]string{
	".py":   "python",
	".sh":   "shell",
	".txt":  "docs",
	".md":   "docs",
	".pdf":  "docs",
	".doc":  "docs",
	".docx": "docs",
	".json": "data",
	".yaml": "data",
	".yml":  "data",
	".csv":  "data",
	".log":  "logs",
	".png":  "images",
	".jpg":  "images",
	".jpeg": "images",
	".gif":  "images",
	".svg":  "images",
	".zip":  "archives",
	".tar":  "archives",
	".gz":   "archives",
}

// Move is one planned or applied relocation.
type Move struct {
	From string // path relative to the organizer root
	To   string
}

// Result summarizes an organize run.
type Result struct {
	Moves   []Move
	Skipped int
}

// Organizer plans and applies extension-based file moves within a root
// directory. It only touches regular files at the top level; category
// directories and protected names are left alone.
type Organizer struct {
	root      string
	mappings  map[string]string
	miscDir   string
	protected map[string]bool
	dryRun    bool

	mu sync.Mutex // serializes Run against the watcher
}

// Option configures an Organizer.
type Option func(*Organizer)

// WithDryRun plans moves without applying them.
func WithDryRun() Option {
	return func(o *Organizer) { o.dryRun = true }
}

// New builds an organizer for root using cfg's mappings merged over the
// defaults.
func New(root string, cfg config.OrganizeConfig, opts ...Option) *Organizer {
	o := &Organizer{
		root:      root,
		mappings:  make(map[string]string, len(defaultMappings)+len(cfg.Mappings)),
		miscDir:   cfg.MiscDir,
		protected: make(map[string]bool, len(cfg.Protected)),
	}
	for ext, dir := range defaultMappings {
		o.mappings[ext] = dir
	}
	for ext, dir := range cfg.Mappings {
		o.mappings[strings.ToLower(ext)] = dir
	}
	if o.miscDir == "" {
		o.miscDir = "misc"
	}
	for _, name := range cfg.Protected {
		o.protected[name] = true
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DestDir returns the category directory for a filename.
func (o *Organizer) DestDir(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if dir, ok := o.mappings[ext]; ok {
		return dir
	}
	return o.miscDir
}

// Plan scans the root and returns the moves a run would apply, sorted by
// source name. Hidden files, directories, and protected names are
// counted as skipped.
func (o *Organizer) Plan() ([]Move, int, error) {
	entries, err := os.ReadDir(o.root)
	if err != nil {
		return nil, 0, fmt.Errorf("organize: read %s: %w", o.root, err)
	}

	var moves []Move
	skipped := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || o.protected[name] || strings.HasPrefix(name, ".") {
			skipped++
			continue
		}
		dest := o.DestDir(name)
		moves = append(moves, Move{From: name, To: filepath.Join(dest, name)})
	}
	sort.Slice(moves, func(i, j int) bool { return moves[i].From < moves[j].From })
	return moves, skipped, nil
}

// Run plans and applies moves, creating category directories as needed.
// Moves are applied concurrently; the first failure cancels the rest.
func (o *Organizer) Run(ctx context.Context) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	moves, skipped, err := o.Plan()
	if err != nil {
		return Result{}, err
	}
	res := Result{Skipped: skipped}
	if len(moves) == 0 {
		return res, nil
	}
	if o.dryRun {
		res.Moves = moves
		return res, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	var done sync.Mutex
	for _, mv := range moves {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := o.apply(mv); err != nil {
				return err
			}
			done.Lock()
			res.Moves = append(res.Moves, mv)
			done.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	sort.Slice(res.Moves, func(i, j int) bool { return res.Moves[i].From < res.Moves[j].From })
	logging.Organize("organized %d files under %s (%d skipped)", len(res.Moves), o.root, res.Skipped)
	return res, nil
}

func (o *Organizer) apply(mv Move) error {
	dst := filepath.Join(o.root, mv.To)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("organize: create %s: %w", filepath.Dir(mv.To), err)
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("organize: %s already exists", mv.To)
	}
	if err := os.Rename(filepath.Join(o.root, mv.From), dst); err != nil {
		return fmt.Errorf("organize: move %s: %w", mv.From, err)
	}
	return nil
}
