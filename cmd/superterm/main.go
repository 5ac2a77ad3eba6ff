package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"superterm/internal/config"
	"superterm/internal/intent"
	"superterm/internal/logging"
	"superterm/internal/memory"
	"superterm/internal/organize"
	"superterm/internal/terminal"
)

const version = "1.0.0"

var (
	// Global flags
	verbose   bool
	workspace string
	fallback  bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "superterm",
	Short: "superterm - a terminal that understands plain English",
	Long: `superterm turns natural language into file and script commands.

Type what you want ("show me all python scripts", "organize my downloads",
"summarize the latest README") and superterm recognizes the intent, asks
for confirmation when it is unsure, and does the work.

Run without arguments to start the interactive session.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive session does its own output; keep zap for the
		// one-shot subcommands.
		if cmd.Name() == "superterm" {
			return nil
		}
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession()
	},
}

// recognizeCmd classifies one input line and prints the intent as JSON
var recognizeCmd = &cobra.Command{
	Use:   "recognize [text]",
	Short: "Classify a line of input and print the recognized intent",
	Long: `Runs the recognition engine on the given text and prints the intent,
its confidence, and the gate decision as JSON.

Example:
  superterm recognize "show me all python scripts"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecognize,
}

// organizeCmd organizes a directory without entering the session
var organizeCmd = &cobra.Command{
	Use:   "organize [dir]",
	Short: "Sort a directory's files into category folders",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runOrganize,
}

// historyCmd prints recent tasks from the session store
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent recognized tasks",
	RunE:  runHistory,
}

// healthCmd reports component status
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check recognition pipeline, workspace, and store health",
	RunE:  runHealth,
}

// versionCmd prints the version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the superterm version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("superterm %s\n", version)
	},
}

var (
	organizeWatch  bool
	organizeDryRun bool
	historyLimit   int
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: current)")
	rootCmd.PersistentFlags().BoolVar(&fallback, "fallback", false, "disable the NLP pipeline, use regex matching only")

	organizeCmd.Flags().BoolVar(&organizeWatch, "watch", false, "keep watching and organizing as files arrive")
	organizeCmd.Flags().BoolVar(&organizeDryRun, "dry-run", false, "plan moves without applying them")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of tasks to show")

	rootCmd.AddCommand(recognizeCmd)
	rootCmd.AddCommand(organizeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves the workspace and loads its configuration.
func loadConfig() (*config.Config, error) {
	ws := workspace
	if ws == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		ws = cwd
	}
	cfg, err := config.LoadWorkspace(ws)
	if err != nil {
		return nil, err
	}
	if fallback {
		cfg.Recognition.ForceFallback = true
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runSession() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if err := logging.Initialize(cfg.Workspace); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	}
	defer logging.CloseAll()

	store, err := memory.Open(cfg.DatabaseFile())
	if err != nil {
		// The session works without history; say so and continue.
		fmt.Fprintf(os.Stderr, "warning: session store unavailable: %v\n", err)
		logging.BootWarn("session store unavailable: %v", err)
		store = nil
	}
	opts := []terminal.SessionOption{}
	if store != nil {
		defer store.Close()
		opts = append(opts, terminal.WithStore(store))
	}

	sess, err := terminal.NewSession(cfg, opts...)
	if err != nil {
		return err
	}
	return sess.Run(ctx)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var engineOpts []intent.Option
	if cfg.Recognition.ForceFallback {
		engineOpts = append(engineOpts, intent.WithFallbackOnly())
	}
	engine, err := intent.NewEngine(engineOpts...)
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	it := engine.Recognize(text)
	decision := intent.Gate(it)
	logger.Debug("recognized intent",
		zap.String("action", string(it.Type)),
		zap.Float64("confidence", it.Confidence),
		zap.String("decision", decision.String()))

	out := struct {
		intent.Intent
		Decision string `json:"decision"`
	}{Intent: it, Decision: decision.String()}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runOrganize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	root := cfg.Organize.Root
	if root == "" {
		root = cfg.Workspace
	}
	if len(args) == 1 {
		root = args[0]
	}

	var opts []organize.Option
	if organizeDryRun {
		opts = append(opts, organize.WithDryRun())
	}
	org := organize.New(root, cfg.Organize, opts...)

	ctx, cancel := signalContext()
	defer cancel()

	res, err := org.Run(ctx)
	if err != nil {
		return err
	}
	for _, mv := range res.Moves {
		verb := "moved"
		if organizeDryRun {
			verb = "would move"
		}
		fmt.Printf("%s %s -> %s\n", verb, mv.From, mv.To)
	}
	logger.Info("organize complete",
		zap.Int("moved", len(res.Moves)),
		zap.Int("skipped", res.Skipped),
		zap.Bool("dry_run", organizeDryRun))

	if organizeWatch && !organizeDryRun {
		if err := org.Watch(ctx, cfg.GetWatchDebounce()); err != nil && ctx.Err() == nil {
			return err
		}
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := memory.Open(cfg.DatabaseFile())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	recs, err := store.RecentTasks(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No task history yet.")
		return nil
	}
	for _, r := range recs {
		fmt.Printf("%s  %-9s %.2f  %-8s %s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.Action, r.Confidence, r.Decision, r.Input)
	}
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	report := func(name string, err error) {
		if err != nil {
			fmt.Printf("✗ %-12s %v\n", name, err)
			return
		}
		fmt.Printf("✓ %-12s ok\n", name)
	}

	_, err = os.Stat(cfg.Workspace)
	report("workspace", err)

	_, err = intent.NewEngine()
	report("patterns", err)

	probe, err := intent.NewEngine()
	if err == nil {
		it := probe.Recognize("list files")
		if it.Type != intent.ActionList {
			err = fmt.Errorf("probe classified as %s", it.Type)
		}
	}
	report("recognition", err)

	store, err := memory.Open(cfg.DatabaseFile())
	if err == nil {
		store.Close()
	}
	report("store", err)

	if err := logging.Initialize(cfg.Workspace); err == nil && logging.IsDebugMode() {
		fmt.Println("  debug logging enabled")
	}
	return nil
}
