package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckArgs(t *testing.T) {
	assert.NoError(t, checkArgs(nil))
	assert.NoError(t, checkArgs([]string{"results/dbsize_results.csv"}))

	err := checkArgs([]string{"results/dbsize_results.csv", "--output", "out"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output")
}

func TestScanFiltersAveraged(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"dbsize_results.csv", "dbsize_avg_results.csv", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x\n1\n"), 0o644))
	}

	all, err := scan(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "dbsize_avg_results.csv"),
		filepath.Join(dir, "dbsize_results.csv"),
	}, all)

	avg, err := scan(dir, true)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "dbsize_avg_results.csv")}, avg)

	_, err = scan(filepath.Join(dir, "missing"), false)
	assert.Error(t, err)
}
