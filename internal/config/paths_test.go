package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Ingest.TaxonomyFile = "headers.yaml"
	cfg.Paths.LogsDir = filepath.Join(base, "abs-logs")

	p := NewPaths(base, cfg)

	assert.Equal(t, filepath.Join(base, "data"), p.DataDir)
	assert.Equal(t, filepath.Join(base, "data", "exports"), p.ExportsDir)
	assert.Equal(t, filepath.Join(base, "abs-logs"), p.LogsDir, "absolute paths kept")
	assert.Equal(t, filepath.Join(base, "credentials.json"), p.CredentialsFile)
	assert.Equal(t, filepath.Join(base, "headers.yaml"), p.TaxonomyFile)
	assert.Equal(t, filepath.Join(p.ExportsDir, "fuel.csv"), p.ExportPath("fuel.csv"))
}

func TestNewPaths_EmptyTaxonomy(t *testing.T) {
	p := NewPaths(t.TempDir(), Default())
	assert.Empty(t, p.TaxonomyFile)
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	p := NewPaths(base, Default())

	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.DataDir, p.ExportsDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.True(t, FileExists(p.DataDir))
	assert.False(t, FileExists(p.CredentialsFile))
}

func TestGetPaths(t *testing.T) {
	p, err := GetPaths(Default())
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(p.BaseDir))
	assert.Equal(t, filepath.Join(p.BaseDir, DefaultDataDir), p.DataDir)
}
