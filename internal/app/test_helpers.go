package app

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/burstgraph/internal/hcl"
	"github.com/specialistvlad/burstgraph/internal/testutil"
)

// SetupAppTest writes files to a temporary workspace and creates an app
// over it for system testing. mutate may adjust the configuration before the
// app is built. It returns the app, its result output and its log output.
func SetupAppTest(t *testing.T, files map[string]string, mutate func(*Config)) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()

	cfg := &Config{
		GraphPath: testutil.WriteFiles(t, files),
		LogLevel:  "debug",
		LogFormat: LogFormatText,
	}
	if mutate != nil {
		mutate(cfg)
	}

	out := &bytes.Buffer{}
	logBuffer := &testutil.SafeBuffer{}
	testApp, err := NewApp(out, logBuffer, cfg, hcl.NewLoader(), hcl.NewConverter())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = testApp.Close()
		if os.Getenv("BURSTGRAPH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, out, logBuffer
}
