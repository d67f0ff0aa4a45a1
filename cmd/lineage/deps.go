package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/lineage"
	"github.com/jward/lineage/internal/source"
)

var (
	flagTargetDir string
	flagWatch     bool
	flagDebounce  time.Duration
)

var depsCmd = &cobra.Command{
	Use:   "deps [uri|id...]",
	Short: "List the files each person depends on",
	Long: `Lists, for each person, the files describing them or anyone they share a
relationship with. Only direct relationships count.

With --format make the output is one Make rule per person:

    <target-dir>/<unique_id>.json: file...

With --watch the command re-runs whenever a source file changes.`,
	RunE: runDeps,
}

func init() {
	depsCmd.Flags().StringVar(&flagTargetDir, "target-dir", "", "directory prefix of Make targets (default from config: build)")
	depsCmd.Flags().BoolVar(&flagWatch, "watch", false, "re-run when sources change")
	depsCmd.Flags().DurationVar(&flagDebounce, "debounce", 0, "watch debounce interval (default from config: 500ms)")
}

func runDeps(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if cmd.Flags().Changed("target-dir") {
		cfg.Deps.TargetDir = flagTargetDir
	}
	if cmd.Flags().Changed("debounce") {
		cfg.Deps.Debounce = flagDebounce
	}

	if err := printDeps(ctx, os.Stdout, args); err != nil {
		return outputError("deps", err)
	}
	if !flagWatch {
		return nil
	}

	root, err := repoRoot()
	if err != nil {
		return err
	}
	color.New(color.FgCyan).Fprintf(os.Stderr, "Watching %s\n", strings.Join(sourceRoots(root), ", "))
	err = source.Watch(ctx, sourceRoots(root), cfg.Deps.Debounce, logger, func(ctx context.Context, changed []string) error {
		logger.Info("sources changed", zap.Strings("paths", changed))
		return printDeps(ctx, os.Stdout, args)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// printDeps loads the sources and writes the dependencies of the persons
// named by refs, or of everyone.
func printDeps(ctx context.Context, w io.Writer, refs []string) error {
	e, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	deps, err := e.Dependencies(ctx)
	if err != nil {
		return err
	}
	ids, err := selectPersons(ctx, e.Resolver(), deps, refs)
	if err != nil {
		return err
	}
	out := make([]CLIDeps, 0, len(ids))
	for _, id := range ids {
		files, err := deps.Lookup(id)
		if err != nil {
			// A person no file describes and with no relatives has no entry.
			files = []string{}
		}
		out = append(out, CLIDeps{URI: id.URI(), UniqueID: id.UniqueID(), Files: files})
	}
	if flagFormat == "make" {
		formatDepsMake(w, cfg.Deps.TargetDir, out)
		return nil
	}
	return outputResult(CLIResult{Command: "deps", Results: out, TotalCount: intPtr(len(out))})
}

func selectPersons(ctx context.Context, r *lineage.Resolver, deps lineage.FileDeps, refs []string) ([]lineage.Resource, error) {
	if len(refs) == 0 {
		return r.Persons(ctx)
	}
	ids := make([]lineage.Resource, 0, len(refs))
	for _, ref := range refs {
		id, err := r.FindPerson(ctx, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// formatDepsMake writes one rule per person. Spaces in paths are escaped.
func formatDepsMake(w io.Writer, targetDir string, deps []CLIDeps) {
	for _, d := range deps {
		target := path.Join(filepath.ToSlash(targetDir), d.UniqueID+".json")
		files := make([]string, len(d.Files))
		for i, f := range d.Files {
			files[i] = makeEscape(f)
		}
		fmt.Fprintf(w, "%s: %s\n", makeEscape(target), strings.Join(files, " "))
	}
}

func makeEscape(s string) string {
	return strings.ReplaceAll(s, " ", `\ `)
}
