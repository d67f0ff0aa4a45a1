package lineage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileSet(paths ...string) FileSet {
	s := make(FileSet)
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

func resourceSet(rs ...Resource) ResourceSet {
	s := make(ResourceSet)
	for _, r := range rs {
		s[r] = struct{}{}
	}
	return s
}

func TestMergeDependencies_SingleHop(t *testing.T) {
	a, b, c := ex("a"), ex("b"), ex("c")
	pd := PersonDeps{
		a: resourceSet(b),
		b: resourceSet(c),
	}
	fd := FileDeps{
		a: fileSet("f1"),
		b: fileSet("f2"),
		c: fileSet("f3"),
	}

	merged := MergeDependencies(pd, fd)

	got, err := merged.Lookup(a)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2"}, got)

	got, err = merged.Lookup(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"f2", "f3"}, got)

	got, err = merged.Lookup(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"f3"}, got)

	// Inputs are untouched.
	assert.Equal(t, fileSet("f1"), fd[a])
}

func TestMergeDependencies_RelatedOnly(t *testing.T) {
	a, b := ex("a"), ex("b")
	merged := MergeDependencies(PersonDeps{a: resourceSet(b)}, FileDeps{b: fileSet("f2")})
	got, err := merged.Lookup(a)
	require.NoError(t, err)
	assert.Equal(t, []string{"f2"}, got)
}

func TestFileDeps_Lookup(t *testing.T) {
	fd := FileDeps{ex("a"): fileSet("z.ttl", "a.ttl"), ex("b"): fileSet()}

	got, err := fd.Lookup(ex("a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ttl", "z.ttl"}, got)

	got, err = fd.Lookup(ex("b"))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = fd.Lookup(ex("nobody"))
	assert.ErrorIs(t, err, ErrResourceNotFound)

	assert.Equal(t, []Resource{ex("a"), ex("b")}, fd.Persons())
	assert.Equal(t, []string{"a.ttl", "z.ttl"}, fd.Paths())
}

func TestBuildPersonDeps_Symmetric(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t,
		personTTL("john", "")+personTTL("mary", "")+personTTL("jim", "")+personTTL("solo", "")+
			parentChildTTL("r1", "john", "jim")+
			coupleTTL("c1", "john", "mary"),
	)
	pd, err := BuildPersonDeps(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, resourceSet(ex("jim"), ex("mary")), pd[ex("john")])
	assert.Equal(t, resourceSet(ex("john")), pd[ex("jim")])
	assert.Equal(t, resourceSet(ex("john")), pd[ex("mary")])
	assert.NotContains(t, pd, ex("solo"))
}

func TestBuildPersonDeps_SkipsAnonymousEndpoints(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t,
		personTTL("john", "")+personTTL("jim", "")+
			parentChildTTL("r1", "john", "jim")+
			"ex:r2 a gx:Relationship ; gx:type gx:ParentChild ; gx:person1 _:m ; gx:person2 ex:jim .\n",
	)
	pd, err := BuildPersonDeps(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, resourceSet(ex("john")), pd[ex("jim")])
	assert.Len(t, pd, 2)
}

func writeTTL(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(ttlPrefixes+body), 0o644))
	return path
}

func TestBuildFileDeps_PerFileIsolation(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	f1 := writeTTL(t, dir, "john.ttl", personTTL("john", "Male"))
	f2 := writeTTL(t, dir, "family.ttl", parentChildTTL("r1", "john", "jim"))
	f3 := writeTTL(t, dir, "jim.ttl", personTTL("jim", "")+`ex:jim gx:birthDate "1930" .`)

	persons := []Resource{ex("john"), ex("jim"), ex("mary")}
	fd, err := BuildFileDeps(context.Background(), persons, []string{f1, f2, f3}, OpenFileGraph)
	require.NoError(t, err)

	got, err := fd.Lookup(ex("john"))
	require.NoError(t, err)
	assert.Equal(t, []string{f1}, got, "john is only an object in family.ttl")

	got, err = fd.Lookup(ex("jim"))
	require.NoError(t, err)
	assert.Equal(t, []string{f3}, got)

	_, err = fd.Lookup(ex("mary"))
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

type countingGraph struct {
	FileGraph
	closed *int
}

func (g countingGraph) Close() error {
	*g.closed++
	return g.FileGraph.Close()
}

func TestBuildFileDeps_ClosesEveryGraph(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	files := []string{
		writeTTL(t, dir, "a.ttl", personTTL("a", "")),
		writeTTL(t, dir, "b.ttl", personTTL("b", "")),
	}
	closed := 0
	open := func(ctx context.Context, path string) (FileGraph, error) {
		g, err := OpenFileGraph(ctx, path)
		if err != nil {
			return nil, err
		}
		return countingGraph{FileGraph: g, closed: &closed}, nil
	}
	_, err := BuildFileDeps(context.Background(), []Resource{ex("a"), ex("b")}, files, open)
	require.NoError(t, err)
	assert.Equal(t, 2, closed)
}

func TestBuildFileDeps_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := BuildFileDeps(ctx, nil, nil, nil)
	assert.ErrorIs(t, err, ErrInputContract)

	_, err = BuildFileDeps(ctx, []Resource{ex("a")}, []string{filepath.Join(t.TempDir(), "missing.ttl")}, OpenFileGraph)
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = BuildFileDeps(ctx, nil, []string{"x.ttl"}, func(context.Context, string) (FileGraph, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestDependencies_EndToEnd(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	f1 := writeTTL(t, dir, "a.ttl", personTTL("a", ""))
	f2 := writeTTL(t, dir, "b.ttl", personTTL("b", ""))
	f3 := writeTTL(t, dir, "c.ttl", personTTL("c", ""))
	rels := writeTTL(t, dir, "rels.ttl", coupleTTL("ab", "a", "b")+coupleTTL("bc", "b", "c"))

	ctx := context.Background()
	g := newTestGraph(t)
	for _, f := range []string{f1, f2, f3, rels} {
		_, err := g.LoadFile(ctx, f)
		require.NoError(t, err)
	}
	persons, err := NewResolver(g, nil).Persons(ctx)
	require.NoError(t, err)

	pd, err := BuildPersonDeps(ctx, g)
	require.NoError(t, err)
	fd, err := BuildFileDeps(ctx, persons, []string{f1, f2, f3, rels}, OpenFileGraph)
	require.NoError(t, err)
	merged := MergeDependencies(pd, fd)

	got, err := merged.Lookup(ex("a"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{f1, f2}, got)
}
