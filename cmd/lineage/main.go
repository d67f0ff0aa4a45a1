package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jward/lineage"
	"github.com/jward/lineage/internal/config"
	"github.com/jward/lineage/internal/fault"
	"github.com/jward/lineage/internal/store"
)

var (
	flagDB         string
	flagFormat     string
	flagConfig     string
	flagScriptsDir string
	flagVerbose    bool
)

var (
	cfg    = config.Default()
	logger = zap.NewNop()
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps lookup failures to 2 and contract violations to 3.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case fault.CodeOf(err) == fault.ResourceNotFound, fault.CodeOf(err) == fault.MultipleResourcesFound:
		return 2
	case fault.IsContract(err):
		return 3
	}
	return 1
}

var rootCmd = &cobra.Command{
	Use:           "lineage",
	Short:         "Resolve persons and file dependencies in a genealogy fact graph",
	Long:          "Lineage loads GEDCOM X style Turtle files into a SQLite fact store, resolves persons with their parents, partners and children, checks the data with Risor scripts and computes which files each person depends on.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd); err != nil {
			return err
		}
		return validateFormat(cmd.Name(), flagFormat)
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .lineage/lineage.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .lineage.yaml at repo root)")
	rootCmd.PersistentFlags().StringVar(&flagScriptsDir, "scripts-dir", "", "load check scripts from disk path instead of embedded")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging on stderr")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(personCmd)
	rootCmd.AddCommand(personsCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(checkCmd)
}

// setup reads the config file, applies it under the flags and builds the
// logger.
func setup(cmd *cobra.Command) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	path := flagConfig
	if path == "" {
		path = filepath.Join(root, config.FileName)
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded

	if cmd.Flags().Changed("db") {
		cfg.DB = flagDB
	}
	if cmd.Flags().Changed("scripts-dir") {
		cfg.ScriptsDir = flagScriptsDir
	}
	if !cmd.Flags().Changed("format") && cfg.Format != "" {
		flagFormat = cfg.Format
	}

	l, err := newLogger(flagVerbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	logger = l
	return nil
}

// newLogger builds a development logger on stderr. Without verbose only
// warnings and errors are shown.
func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zc.OutputPaths = []string{"stderr"}
	zc.DisableStacktrace = !verbose
	return zc.Build()
}

// repoRoot returns the repository containing the working directory.
func repoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}
	return findRepoRoot(cwd), nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolvePath anchors a configured path at the repo root.
func resolvePath(root, p string) string {
	if p == store.MemoryPath || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// openEngine opens the database and brings it up to date with the sources.
func openEngine(ctx context.Context) (*lineage.Engine, error) {
	root, err := repoRoot()
	if err != nil {
		return nil, err
	}
	dbPath := resolvePath(root, cfg.DB)
	if dbPath != store.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
		}
	}

	opts := []lineage.Option{lineage.WithLogger(logger)}
	if cfg.ScriptsDir != "" {
		opts = append(opts, lineage.WithScriptsDir(resolvePath(root, cfg.ScriptsDir)))
	}
	e, err := lineage.New(dbPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	report, err := e.LoadSources(ctx, sourceRoots(root)...)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("loading sources: %w", err)
	}
	logger.Debug("sources up to date",
		zap.Int("loaded", len(report.Loaded)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("removed", len(report.Removed)),
	)
	return e, nil
}

func sourceRoots(root string) []string {
	roots := make([]string, len(cfg.Sources))
	for i, s := range cfg.Sources {
		roots[i] = resolvePath(root, s)
	}
	if len(roots) == 0 {
		roots = []string{root}
	}
	return roots
}
