package main_test

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles the lineage binary and returns the path.
// The binary is placed in t.TempDir() so it's cleaned up automatically.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "lineage"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "lineage")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot returns the root of the project by walking up from the test
// file's directory to find go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "could not find project root")
		dir = parent
	}
}

const fixturePrefixes = `@prefix gx: <http://gedcomx.org/> .
@prefix ex: <http://example.org/people/> .
`

// createFamilyFixture creates a repo with a .git dir and three Turtle files.
func createFamilyFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	files := map[string]string{
		"john.ttl": `ex:john a gx:Person ; gx:gender gx:Male ; gx:name ex:jN .
ex:jN gx:part ex:jP .
ex:jP gx:type gx:Given ; gx:value "John" .
`,
		"jim.ttl": `ex:jim a gx:Person ; gx:gender gx:Male ; gx:birthDate "1930" .
`,
		"rels.ttl": `ex:r1 a gx:Relationship ; gx:type gx:ParentChild ; gx:person1 ex:john ; gx:person2 ex:jim .
`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(fixturePrefixes+body), 0o644))
	}
	return dir
}

func run(t *testing.T, bin, dir string, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode()
	}
	require.NoError(t, err)
	return string(out), 0
}

func TestCLI_Person(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFamilyFixture(t)

	out, code := run(t, bin, dir, "person", "people/jim")
	require.Equal(t, 0, code, out)

	var result struct {
		Command string `json:"command"`
		Results struct {
			Person struct {
				URI    string `json:"uri"`
				Father struct {
					Name string `json:"name"`
				} `json:"father"`
			} `json:"person"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "person", result.Command)
	assert.Equal(t, "http://example.org/people/jim", result.Results.Person.URI)
	assert.Equal(t, "John", result.Results.Person.Father.Name)

	_, err := os.Stat(filepath.Join(dir, ".lineage", "lineage.db"))
	assert.NoError(t, err, "database is created at the repo root")
}

func TestCLI_PersonNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFamilyFixture(t)

	out, code := run(t, bin, dir, "person", "nobody")
	assert.Equal(t, 2, code)
	assert.Contains(t, out, `"error"`)
}

func TestCLI_DepsMake(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFamilyFixture(t)

	out, code := run(t, bin, dir, "deps", "--format", "make", "--target-dir", "out")
	require.Equal(t, 0, code, out)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "out/example.org/people/jim.json: "+filepath.Join(dir, "jim.ttl")+" "+filepath.Join(dir, "john.ttl"), lines[0])
}

func TestCLI_CheckUsesConfig(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFamilyFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".lineage.yaml"), []byte("format: text\n"), 0o644))

	out, code := run(t, bin, dir, "check")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "MISSING_NAME")
	assert.Contains(t, out, "0 error(s), 1 warning(s)")

	_, code = run(t, bin, dir, "check", "--strict")
	assert.Equal(t, 1, code)
}
