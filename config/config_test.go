package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: postgres://localhost/silver
windows:
  reference_start: "2023-01-01"
  reference_end: "2023-12-31"
  prediction_start: "2024-01-01"
  prediction_end: "2024-12-31"
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, "info", c.LogLevel)

	refStart, _, _, predEnd, err := c.ParseWindows()
	require.NoError(t, err)
	assert.Equal(t, 2023, refStart.Year())
	assert.Equal(t, 2024, predEnd.Year())
}

func TestLoadRejectsMissingDSN(t *testing.T) {
	path := writeConfig(t, `
windows:
  reference_start: "2023-01-01"
  reference_end: "2023-12-31"
  prediction_start: "2024-01-01"
  prediction_end: "2024-12-31"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadDate(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: postgres://localhost/silver
windows:
  reference_start: "01/01/2023"
  reference_end: "2023-12-31"
  prediction_start: "2024-01-01"
  prediction_end: "2024-12-31"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ANNUALREF_DATABASE_DSN", "postgres://env/silver")
	path := writeConfig(t, `
database:
  dsn: postgres://file/silver
windows:
  reference_start: "2023-01-01"
  reference_end: "2023-12-31"
  prediction_start: "2024-01-01"
  prediction_end: "2024-12-31"
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/silver", c.Database.DSN)
}
