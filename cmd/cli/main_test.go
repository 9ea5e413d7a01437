package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/burstgraph/internal/cli"
	"github.com/specialistvlad/burstgraph/internal/testutil"
)

func writeWorkspace(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600), "failed to set up test file")
	return path
}

func TestRun_Traversal(t *testing.T) {
	t.Parallel()
	path := writeWorkspace(t, testutil.NeighborGraphHCL)
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(out, logs, []string{"run", "-t", "distinct_neighbour_names", path})

	require.NoError(t, err)
	assert.Equal(t, 3, bytes.Count(out.Bytes(), []byte(`"traversal":"distinct_neighbour_names"`)))
	assert.Contains(t, logs.String(), "Traversal finished.")
}

func TestRun_InvalidWorkspace(t *testing.T) {
	t.Parallel()
	// Missing closing brace.
	path := writeWorkspace(t, `
		vertex "1" {
			label = "person"
	`)

	err := run(&bytes.Buffer{}, &bytes.Buffer{}, []string{"run", path})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	err := run(out, &bytes.Buffer{}, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(&bytes.Buffer{}, &bytes.Buffer{}, []string{"run", "--this-is-not-a-valid-flag"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "unknown flag: --this-is-not-a-valid-flag")
}
