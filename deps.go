package lineage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jward/lineage/internal/fault"
	"github.com/jward/lineage/internal/store"
	"github.com/jward/lineage/internal/vocab"
)

// ResourceSet is a set of resources.
type ResourceSet map[Resource]struct{}

// FileSet is a set of source file paths.
type FileSet map[string]struct{}

// Sorted returns the paths in lexical order.
func (s FileSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// PersonDeps relates each person to the persons they share a relationship
// fact with. It is symmetric.
type PersonDeps map[Resource]ResourceSet

// FileDeps maps each person to the files that describe them.
type FileDeps map[Resource]FileSet

func (d PersonDeps) add(a, b Resource) {
	if d[a] == nil {
		d[a] = make(ResourceSet)
	}
	d[a][b] = struct{}{}
}

func (d FileDeps) add(r Resource, path string) {
	if d[r] == nil {
		d[r] = make(FileSet)
	}
	d[r][path] = struct{}{}
}

// Lookup returns r's files in sorted order. A person without an entry is a
// ResourceNotFound error.
func (d FileDeps) Lookup(r Resource) ([]string, error) {
	files, ok := d[r]
	if !ok {
		return nil, fault.New(fault.ResourceNotFound, "no dependency entry for %s", r)
	}
	return files.Sorted(), nil
}

// Persons returns the persons with an entry, sorted.
func (d FileDeps) Persons() []Resource {
	out := make([]Resource, 0, len(d))
	for r := range d {
		out = append(out, r)
	}
	SortResources(out)
	return out
}

// Paths returns every file named by any entry, sorted.
func (d FileDeps) Paths() []string {
	all := make(FileSet)
	for _, files := range d {
		for p := range files {
			all[p] = struct{}{}
		}
	}
	return all.Sorted()
}

// BuildPersonDeps relates the two endpoints of every relationship fact in
// both directions.
func BuildPersonDeps(ctx context.Context, g Graph) (PersonDeps, error) {
	rows, err := g.Select(ctx, &Query{
		Where: []Pattern{
			pat(vr("rel"), iri(vocab.Type), iri(vocab.Relationship)),
			pat(vr("rel"), iri(vocab.Person1), vr("a")),
			pat(vr("rel"), iri(vocab.Person2), vr("b")),
		},
		Select:   []string{"a", "b"},
		Distinct: true,
	})
	if err != nil {
		return nil, err
	}
	deps := make(PersonDeps)
	for _, row := range rows {
		a, okA, err := rowResource(row, "a")
		if err != nil {
			return nil, err
		}
		b, okB, err := rowResource(row, "b")
		if err != nil {
			return nil, err
		}
		if !okA || !okB {
			continue
		}
		deps.add(a, b)
		deps.add(b, a)
	}
	return deps, nil
}

// FileGraph is a graph holding the facts of a single file.
type FileGraph interface {
	Graph
	Close() error
}

// GraphOpener loads one file into a graph of its own.
type GraphOpener func(ctx context.Context, path string) (FileGraph, error)

// OpenFileGraph loads path into a fresh in-memory store.
func OpenFileGraph(ctx context.Context, path string) (FileGraph, error) {
	s, err := store.NewMemoryStore()
	if err != nil {
		return nil, fmt.Errorf("lineage: open graph for %s: %w", path, err)
	}
	if _, err := s.LoadFile(ctx, path); err != nil {
		s.Close()
		return nil, fmt.Errorf("lineage: load %s: %w", path, err)
	}
	return s, nil
}

// BuildFileDeps records, for each person, the files among files that state
// at least one fact about them. Each file is examined in a graph of its own
// which is closed before the next file is opened.
func BuildFileDeps(ctx context.Context, persons []Resource, files []string, open GraphOpener) (FileDeps, error) {
	if open == nil {
		return nil, fault.New(fault.InputContract, "graph opener is nil")
	}
	deps := make(FileDeps)
	for _, path := range files {
		if err := describedIn(ctx, deps, persons, path, open); err != nil {
			return nil, err
		}
	}
	return deps, nil
}

func describedIn(ctx context.Context, deps FileDeps, persons []Resource, path string, open GraphOpener) (err error) {
	g, err := open(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := g.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("lineage: close graph for %s: %w", path, cerr))
		}
	}()
	for _, r := range persons {
		ok, err := g.Ask(ctx, &Query{
			Where: []Pattern{pat(res(r), vr("pred"), vr("obj"))},
		})
		if err != nil {
			return err
		}
		if ok {
			deps.add(r, path)
		}
	}
	return nil
}

// MergeDependencies extends each person's files with the files of the
// persons directly related to them. Only the input maps are read, so the
// result is a single hop: a relative of a relative contributes nothing.
func MergeDependencies(pd PersonDeps, fd FileDeps) FileDeps {
	merged := make(FileDeps, len(fd))
	for r, files := range fd {
		set := make(FileSet, len(files))
		for p := range files {
			set[p] = struct{}{}
		}
		merged[r] = set
	}
	for r, related := range pd {
		for other := range related {
			for p := range fd[other] {
				merged.add(r, p)
			}
		}
	}
	return merged
}
