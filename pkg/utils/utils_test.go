package utils

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(tempFile, []byte("PORT=1"), 0o644))

	assert.True(t, FileExists(tempFile))
	assert.False(t, FileExists(filepath.Join(t.TempDir(), "missing.env")))
	assert.False(t, FileExists(t.TempDir()))
}

func TestEnsureParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "ledger.db")

	require.NoError(t, EnsureParentDir(path))
	assert.True(t, DirExists(filepath.Dir(path)))

	// second call is a no-op
	require.NoError(t, EnsureParentDir(path))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"long", "short"}, "short"))
	assert.False(t, Contains([]int{1, 2, 3}, 4))
}

func TestMap(t *testing.T) {
	got := Map([]int{1, 2, 3}, strconv.Itoa)
	assert.Equal(t, []string{"1", "2", "3"}, got)
}

func TestFilter(t *testing.T) {
	got := Filter([]int{1, 2, 3, 4}, func(i int) bool { return i%2 == 0 })
	assert.Equal(t, []int{2, 4}, got)
	assert.Nil(t, Filter([]int{1}, func(int) bool { return false }))
}
