package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestManagerIsReady(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, ".crdownload", nil)

	assert.False(t, m.IsReady("contracts-flow.xlsx"))

	touch(t, filepath.Join(dir, "contracts-flow.xlsx.crdownload"))
	assert.False(t, m.IsReady("contracts-flow.xlsx"))

	touch(t, filepath.Join(dir, "contracts-flow.xlsx"))
	assert.False(t, m.IsReady("contracts-flow.xlsx"), "partial marker still present")

	require.NoError(t, os.Remove(filepath.Join(dir, "contracts-flow.xlsx.crdownload")))
	assert.True(t, m.IsReady("contracts-flow.xlsx"))
	assert.True(t, m.IsReady(filepath.Join(dir, "contracts-flow.xlsx")))
}

func TestManagerClearStale(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, ".crdownload", nil)

	for _, name := range []string{
		"contracts-flow.xlsx",
		"contracts-flow (1).xlsx",
		"contracts-flow.xlsx.crdownload",
		"other.xlsx",
	} {
		touch(t, filepath.Join(dir, name))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "contracts-flow-dir.xlsx"), 0755))

	removed := m.ClearStale("contracts-flow*.xlsx")
	assert.Equal(t, 3, removed)

	assert.False(t, m.FileExists("contracts-flow.xlsx"))
	assert.False(t, m.FileExists("contracts-flow (1).xlsx"))
	assert.False(t, m.FileExists("contracts-flow.xlsx.crdownload"))
	assert.True(t, m.FileExists("other.xlsx"))
	assert.DirExists(t, filepath.Join(dir, "contracts-flow-dir.xlsx"))

	assert.Zero(t, m.ClearStale("contracts-flow*.xlsx"))
}

func TestManagerDeleteFile(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, "", nil)

	touch(t, filepath.Join(dir, "a.xlsx"))
	require.NoError(t, m.DeleteFile("a.xlsx"))
	assert.False(t, m.FileExists("a.xlsx"))

	assert.NoError(t, m.DeleteFile("a.xlsx"), "already gone")
	assert.False(t, m.IsReady("missing.xlsx"))
}

func TestManagerEnsureDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "downloads")
	m := NewManager(dir, ".crdownload", nil)

	require.NoError(t, m.EnsureDirectory())
	assert.DirExists(t, dir)
	assert.Equal(t, dir, m.Dir())
}

func TestFindByPattern(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.xlsx"))
	touch(t, filepath.Join(dir, "c.csv"))

	found, err := FindByPattern(filepath.Join(dir, "*.xlsx"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "b.xlsx", found[0].Name)
	assert.Equal(t, int64(1), found[0].Size)

	_, err = FindByPattern("[")
	assert.Error(t, err)
}
