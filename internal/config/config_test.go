package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typeeval/core/internal/config"
	"github.com/typeeval/core/internal/diagnostics"
)

func TestDefaultUsesRegistrySeverities(t *testing.T) {
	cfg := config.Default()
	require.Equal(t, diagnostics.SeverityWarning, cfg.SeverityFor(diagnostics.TC007))
	require.Equal(t, diagnostics.SeverityError, cfg.SeverityFor(diagnostics.TC001))
}

func TestLoadAppliesSeverityOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
severities:
  TC007: error
print:
  pep604: false
numeric_defaulting: float
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, diagnostics.SeverityError, cfg.SeverityFor(diagnostics.TC007))
	require.False(t, cfg.Print.PEP604)
	require.Equal(t, config.NumericDefaultFloat, cfg.NumericDefaulting)
}

func TestLoadRejectsUnknownSeverityName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("severities:\n  TC001: fatal\n"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestFindConfigFileWalksUpward(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".typeeval.yaml"), []byte("{}"), 0o644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, ok := config.FindConfigFile(nested)
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, ".typeeval.yaml"), found)
}
