package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Run(t *testing.T) {
	out := &bytes.Buffer{}
	inv, shouldExit, err := Parse([]string{"--log-level", "debug", "run", "-t", "people", "-p", "4", "./graph"}, out)
	require.NoError(t, err)
	require.False(t, shouldExit)

	assert.Equal(t, ModeRun, inv.Mode)
	assert.Equal(t, "./graph", inv.Config.GraphPath)
	assert.Equal(t, "people", inv.Config.Traversal)
	assert.Equal(t, 4, inv.Config.Partitions)
	assert.Equal(t, "DEBUG", inv.Config.LogLevel)
	assert.Equal(t, "text", inv.Config.LogFormat)
	assert.Equal(t, DefaultAdjacencyCache, inv.Config.AdjacencyCacheSize)
	assert.Zero(t, inv.Config.EvaluationTimeout)
	assert.Zero(t, inv.Config.ServerPort)
	assert.Empty(t, out.String())
}

func TestParse_Serve(t *testing.T) {
	inv, _, err := Parse([]string{"serve", "--graph", "g.hcl", "--port", "9000", "--timeout", "2s", "--log-format", "json", "--adjacency-cache", "0"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, ModeServe, inv.Mode)
	assert.Equal(t, "serve", inv.Mode.String())
	assert.Equal(t, "g.hcl", inv.Config.GraphPath)
	assert.Equal(t, 9000, inv.Config.ServerPort)
	assert.Equal(t, 2*time.Second, inv.Config.EvaluationTimeout)
	assert.Equal(t, "json", inv.Config.LogFormat)
	assert.Zero(t, inv.Config.AdjacencyCacheSize)
}

func TestParse_ServeDefaults(t *testing.T) {
	inv, _, err := Parse([]string{"serve", "g.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, DefaultServerPort, inv.Config.ServerPort)
	assert.Equal(t, DefaultEvaluationTimeout, inv.Config.EvaluationTimeout)
}

func TestParse_GraphFlagWinsOverArgument(t *testing.T) {
	inv, _, err := Parse([]string{"run", "-g", "flag.hcl", "arg.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "flag.hcl", inv.Config.GraphPath)
}

func TestParse_Help(t *testing.T) {
	for _, args := range [][]string{nil, {"-h"}, {"run", "--help"}} {
		out := &bytes.Buffer{}
		inv, shouldExit, err := Parse(args, out)
		require.NoError(t, err)
		assert.True(t, shouldExit)
		assert.Nil(t, inv)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]struct {
		args []string
		want string
	}{
		"unknown flag":       {[]string{"run", "--nope", "g"}, "unknown flag: --nope"},
		"unknown command":    {[]string{"walk"}, `unknown command "walk"`},
		"missing graph path": {[]string{"run"}, "GraphPath is a required"},
		"too many args":      {[]string{"run", "a", "b"}, "accepts at most 1 arg"},
		"bad log level":      {[]string{"--log-level", "loud", "run", "g"}, "invalid log-level"},
		"bad log format":     {[]string{"--log-format", "xml", "run", "g"}, "invalid log-format"},
		"negative partition": {[]string{"run", "-p", "-1", "g"}, "invalid partitions"},
		"bad port":           {[]string{"serve", "--port", "70000", "g"}, "invalid server port"},
		"bad duration":       {[]string{"serve", "--timeout", "soon", "g"}, "invalid argument"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, shouldExit, err := Parse(tc.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.False(t, shouldExit)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}
