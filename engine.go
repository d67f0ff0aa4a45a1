package lineage

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/jward/lineage/internal/runtime"
	"github.com/jward/lineage/internal/source"
	"github.com/jward/lineage/internal/store"
	"github.com/jward/lineage/scripts"
)

// Engine ties the lineage pipeline together: loading Turtle sources into
// the SQLite fact store, resolving persons, building per-person file
// dependencies and running check scripts.
type Engine struct {
	store      *store.Store
	resolver   *Resolver
	scriptsDir string
	scriptsFS  fs.FS
	opener     GraphOpener
	log        *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine and its resolver.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithScriptsFS loads check scripts from fsys instead of the built-in set.
// Checks live under checks/ within fsys.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// WithScriptsDir loads check scripts from dir on disk. Checks live under
// dir/checks. It takes precedence over the built-in set but not over
// WithScriptsFS.
func WithScriptsDir(dir string) Option {
	return func(e *Engine) {
		e.scriptsDir = dir
	}
}

// WithGraphOpener overrides how Dependencies builds its per-file graphs.
func WithGraphOpener(open GraphOpener) Option {
	return func(e *Engine) {
		e.opener = open
	}
}

// New creates an Engine backed by a SQLite database at dbPath. Use
// store.MemoryPath (":memory:") for a throwaway database.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("lineage: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("lineage: migrate: %w", err)
	}

	e := &Engine{
		store:  s,
		opener: OpenFileGraph,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.scriptsFS == nil && e.scriptsDir == "" {
		e.scriptsFS = scripts.FS
	}
	e.resolver = NewResolver(s, e.log)
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Resolver returns the person resolver over the engine's store.
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// LoadReport summarises one load pass.
type LoadReport struct {
	Loaded  []string `json:"loaded"`
	Skipped []string `json:"skipped"`
	Removed []string `json:"removed"`
}

const lastLoadKey = "last_load"

// LoadFiles loads the given Turtle files. Files whose content is unchanged
// since the last load are skipped. Errors on individual files are collected;
// the remaining files are still loaded.
func (e *Engine) LoadFiles(ctx context.Context, paths []string) (*LoadReport, error) {
	report := &LoadReport{}
	var errs []error
	for _, path := range paths {
		loaded, err := e.store.LoadFile(ctx, path)
		if err != nil {
			e.log.Warn("load failed", zap.String("path", path), zap.Error(err))
			errs = append(errs, fmt.Errorf("load %s: %w", path, err))
			continue
		}
		if loaded {
			e.log.Debug("loaded", zap.String("path", path))
			report.Loaded = append(report.Loaded, path)
		} else {
			report.Skipped = append(report.Skipped, path)
		}
	}
	if err := e.store.SetMetadata(lastLoadKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return report, fmt.Errorf("loading had %d error(s): %w", len(errs), errs[0])
	}
	return report, nil
}

// LoadSources walks roots for Turtle files, loads them and forgets every
// previously loaded file no longer found under roots.
func (e *Engine) LoadSources(ctx context.Context, roots ...string) (*LoadReport, error) {
	paths, err := source.Walk(roots...)
	if err != nil {
		return nil, fmt.Errorf("lineage: %w", err)
	}
	report, loadErr := e.LoadFiles(ctx, paths)
	removed, err := e.store.PruneFiles(ctx, paths)
	report.Removed = removed
	if err != nil {
		return report, fmt.Errorf("lineage: prune: %w", err)
	}
	if len(removed) > 0 {
		e.log.Info("forgot removed sources", zap.Strings("paths", removed))
	}
	return report, loadErr
}

// Status describes the contents of the store.
type Status struct {
	Files    int    `json:"files"`
	Triples  int    `json:"triples"`
	Persons  int    `json:"persons"`
	LastLoad string `json:"last_load,omitempty"`
}

// Status counts the loaded files, facts and persons.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	files, err := e.store.Files(ctx)
	if err != nil {
		return nil, err
	}
	triples, err := e.store.TripleCount(ctx)
	if err != nil {
		return nil, err
	}
	persons, err := e.resolver.Persons(ctx)
	if err != nil {
		return nil, err
	}
	last, err := e.store.GetMetadata(lastLoadKey)
	if err != nil {
		return nil, err
	}
	return &Status{Files: len(files), Triples: triples, Persons: len(persons), LastLoad: last}, nil
}

// Sources returns the loaded files stating facts about id, ordered by path.
func (e *Engine) Sources(ctx context.Context, id Resource) ([]string, error) {
	paths, err := e.store.FilesDescribing(ctx, store.IRI(id.URI()))
	if err != nil {
		return nil, fmt.Errorf("lineage: %w", err)
	}
	return paths, nil
}

// Dependencies computes, for every person, the files describing them or
// anyone directly related to them.
func (e *Engine) Dependencies(ctx context.Context) (FileDeps, error) {
	persons, err := e.resolver.Persons(ctx)
	if err != nil {
		return nil, err
	}
	pd, err := BuildPersonDeps(ctx, e.store)
	if err != nil {
		return nil, err
	}
	files, err := e.store.Files(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	fd, err := BuildFileDeps(ctx, persons, paths, e.opener)
	if err != nil {
		return nil, err
	}
	merged := MergeDependencies(pd, fd)
	e.log.Debug("built dependencies",
		zap.Int("persons", len(persons)),
		zap.Int("files", len(paths)),
	)
	return merged, nil
}

// Check resolves every person, then runs each check script. The returned
// list holds the resolver's notes followed by the scripts' notes.
func (e *Engine) Check(ctx context.Context) (NoteList, error) {
	host, err := newCheckHost(ctx, e.resolver)
	if err != nil {
		return nil, err
	}

	var rtOpts []runtime.RuntimeOption
	if e.scriptsFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.scriptsFS))
	}
	rtOpts = append(rtOpts, runtime.WithRuntimeLogger(e.log))
	rt := runtime.NewRuntime(host, e.scriptsDir, rtOpts...)

	checks, err := rt.Checks()
	if err != nil {
		return nil, fmt.Errorf("lineage: %w", err)
	}
	var errs []error
	for _, path := range checks {
		if err := rt.RunScript(ctx, path, nil); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return host.notes, fmt.Errorf("checks had %d error(s): %w", len(errs), errs[0])
	}
	return host.notes, nil
}
