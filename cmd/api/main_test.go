package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-repo-finder/internal/config"
)

func TestRunInvalidConfig(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "memory")

	err := run()

	var cfgErr *config.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "STORAGE_TYPE", cfgErr.Field)
}

func TestRunStorageFailureReturnsError(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "api.log")
	t.Setenv("STORAGE_TYPE", "bolt")
	t.Setenv("BOLT_PATH", filepath.Join(dir, "missing", "finder.bolt"))
	t.Setenv("LOG_FILE", logFile)

	require.Error(t, run())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "failed to open storage")
}
