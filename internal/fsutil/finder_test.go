package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adroit-lang/adroit/internal/testutil"
)

func TestFindFilesByExtension(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"b.adroit":          "",
		"a.adroit":          "",
		"notes.txt":         "",
		"lib/vec.adroit":    "",
		".git/hook.adroit":  "",
		"lib/deep/m.adroit": "",
	})

	files, err := FindFilesByExtension(dir, ".adroit")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.adroit"),
		filepath.Join(dir, "b.adroit"),
		filepath.Join(dir, "lib", "deep", "m.adroit"),
		filepath.Join(dir, "lib", "vec.adroit"),
	}, files)
}

func TestFindFilesByExtension_Errors(t *testing.T) {
	_, err := FindFilesByExtension(t.TempDir(), "")
	assert.ErrorIs(t, err, ErrNoExtension)

	_, err = FindFilesByExtension(filepath.Join(t.TempDir(), "missing"), ".adroit")
	assert.Error(t, err)
}
