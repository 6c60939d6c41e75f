package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadVersionFrom(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	dir := t.TempDir()

	// No file: the compiled-in version stands
	assert.Equal(t, orig, loadVersionFrom(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".version"), []byte("1.2.3\n"), 0644))
	assert.Equal(t, "1.2.3", loadVersionFrom(dir))
	assert.Equal(t, "1.2.3", GetVersion())
}

func TestLoadVersionFrom_EmptyFileIgnored(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".version"), []byte("  \n"), 0644))
	assert.Equal(t, orig, loadVersionFrom(dir))
}
