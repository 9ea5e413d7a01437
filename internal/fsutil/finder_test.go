package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/burstgraph/internal/testutil"
)

func TestFindFilesByExtension(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"b.hcl":           "",
		"a/c.hcl":         "",
		"a/d.txt":         "",
		".git/config.hcl": "",
	})

	files, err := FindFilesByExtension(dir, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a", "c.hcl"), filepath.Join(dir, "b.hcl")}, files)

	_, err = FindFilesByExtension(dir, "")
	assert.ErrorContains(t, err, "extension must not be empty")

	_, err = FindFilesByExtension(filepath.Join(dir, "missing"), ".hcl")
	assert.Error(t, err)
}
