package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/burstgraph/internal/hcl"
	"github.com/specialistvlad/burstgraph/internal/testutil"
)

const extraTraversals = `
traversal "names" {
  step "values" {
    keys = ["name"]
  }
}

traversal "count_partitioned" {
  partitions = 2
  step "count" {}
}

traversal "oldest_first" {
  step "order" {
    by   = "age"
    desc = true
  }
  step "id" {}
}

traversal "nobody" {
  step "has_label" {
    labels = ["robot"]
  }
}
`

func workspace() map[string]string {
	return map[string]string{
		"graph.hcl":            testutil.NeighborGraphHCL,
		"traversals/extra.hcl": extraTraversals,
	}
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(Config{GraphPath: "g", Partitions: 2, EvaluationTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Partitions)

	cases := map[string]struct {
		cfg  Config
		want string
	}{
		"missing path":       {Config{}, "GraphPath is a required"},
		"negative partition": {Config{GraphPath: "g", Partitions: -1}, "invalid partitions"},
		"port out of range":  {Config{GraphPath: "g", ServerPort: 70000}, "invalid server port"},
		"negative timeout":   {Config{GraphPath: "g", EvaluationTimeout: -time.Second}, "invalid evaluation timeout"},
		"negative cache":     {Config{GraphPath: "g", AdjacencyCacheSize: -1}, "invalid adjacency cache size"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewConfig(tc.cfg)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestParseLogSettings(t *testing.T) {
	level, err := ParseLogLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = ParseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = ParseLogLevel("verbose")
	assert.ErrorContains(t, err, "invalid log-level")

	format, err := ParseLogFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, LogFormatJSON, format)

	_, err = ParseLogFormat("xml")
	assert.ErrorContains(t, err, "invalid log-format")
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	newLogger("warn", "json", &buf).Info("hidden")
	newLogger("warn", "json", &buf).Warn("shown", "key", "value")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "value", line["key"])
}

func TestNewApp_Failures(t *testing.T) {
	cases := map[string]struct {
		files map[string]string
		want  string
	}{
		"invalid hcl": {
			files: map[string]string{"bad.hcl": `vertex "1" {`},
			want:  "failed to load configuration",
		},
		"unknown step kind": {
			files: map[string]string{"t.hcl": "traversal \"t\" {\n step \"warp\" {}\n}"},
			want:  `unknown step kind "warp"`,
		},
		"unpartitionable definition": {
			files: map[string]string{"t.hcl": "traversal \"t\" {\n partitions = 2\n step \"order\" {}\n}"},
			want:  "cannot be partitioned",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := &Config{GraphPath: testutil.WriteFiles(t, tc.files)}
			_, err := NewApp(&bytes.Buffer{}, &testutil.SafeBuffer{}, cfg, hcl.NewLoader(), hcl.NewConverter())
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestRun_WritesResultLines(t *testing.T) {
	a, out, logs := SetupAppTest(t, workspace(), func(c *Config) { c.Traversal = "names" })
	require.NoError(t, a.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		`{"traversal":"names","result":"marko"}`,
		`{"traversal":"names","result":"josh"}`,
		`{"traversal":"names","result":"marko"}`,
	}, lines)
	assert.Contains(t, logs.String(), "Traversal finished.")
}

func TestRun_AllTraversals(t *testing.T) {
	a, out, _ := SetupAppTest(t, workspace(), nil)
	assert.Equal(t, []string{"count_partitioned", "distinct_neighbour_names", "names", "nobody", "oldest_first"}, a.Traversals())
	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, out.String(), `{"traversal":"count_partitioned","result":3}`)
	assert.Equal(t, 3, strings.Count(out.String(), `"traversal":"distinct_neighbour_names"`))
	assert.NotContains(t, out.String(), `"traversal":"nobody"`)
	assert.Contains(t, out.String(), `{"traversal":"oldest_first","result":3}`+"\n"+`{"traversal":"oldest_first","result":2}`)
}

func TestRun_UnknownTraversal(t *testing.T) {
	a, _, _ := SetupAppTest(t, workspace(), func(c *Config) { c.Traversal = "missing" })
	err := a.Run(context.Background())
	assert.ErrorIs(t, err, ErrUnknownTraversal)
}

func TestExecute_Partitions(t *testing.T) {
	ctx := context.Background()
	a, _, logs := SetupAppTest(t, workspace(), nil)

	single, err := a.Execute(ctx, "names", 1)
	require.NoError(t, err)
	split, err := a.Execute(ctx, "names", 3)
	require.NoError(t, err)
	assert.ElementsMatch(t, single, split)
	assert.Contains(t, logs.String(), "Running partitioned traversal.")

	counted, err := a.Execute(ctx, "count_partitioned", 0)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3)}, counted)
}

func TestExecute_TemplateIsReusable(t *testing.T) {
	ctx := context.Background()
	a, _, _ := SetupAppTest(t, workspace(), nil)
	for range 3 {
		out, err := a.Execute(ctx, "distinct_neighbour_names", 0)
		require.NoError(t, err)
		assert.Len(t, out, 3)
	}
}

func TestExecute_Timeout(t *testing.T) {
	a, _, _ := SetupAppTest(t, workspace(), func(c *Config) { c.EvaluationTimeout = time.Nanosecond })
	_, err := a.Execute(context.Background(), "names", 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecute_ConcurrentRequestsShareTemplates(t *testing.T) {
	ctx := context.Background()
	a, _, _ := SetupAppTest(t, workspace(), nil)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Alternate single and partitioned runs of one template.
			out, err := a.Execute(ctx, "count_partitioned", i%2+1)
			if assert.NoError(t, err) {
				assert.Equal(t, []any{int64(3)}, out)
			}
		}()
	}
	wg.Wait()
}

func TestCompileTraversals_TemplatesAreStrategized(t *testing.T) {
	a, _, _ := SetupAppTest(t, map[string]string{
		"graph.hcl": testutil.NeighborGraphHCL,
		"t.hcl":     "traversal \"ids\" {\n step \"identity\" {}\n step \"id\" {}\n}",
	}, nil)

	assert.Equal(t, []string{"IDStep"}, a.templates["ids"].StepNames()[1:])
}
