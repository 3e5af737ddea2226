package config

import (
	"os"
	"path/filepath"
	"testing"

	"pagegraph/internal/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "pagegraph_", cfg.Sqlite.Prefix)
	assert.Equal(t, rules.DefaultExclusions(), cfg.Graph.Exclude)

	e, err := cfg.ExclusionEngine()
	require.NoError(t, err)
	assert.True(t, e.Match("chrome-extension://id/bg.js"))
}

func TestLoadOverlay(t *testing.T) {
	p := writeFile(t, `
version: "2"
storage:
  driver: memory
log:
  level: debug
  writer: [console, file]
graph:
  exclude:
    - mode: prefix
      pattern: "moz-extension:"
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "2", cfg.Version)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "pagegraph.sqlite3", cfg.Sqlite.Dsn)
	assert.Equal(t, []string{"console", "file"}, cfg.Log.Writer)
	require.Len(t, cfg.Graph.Exclude, 1)

	e, err := cfg.ExclusionEngine()
	require.NoError(t, err)
	assert.True(t, e.Match("moz-extension://x"))
	assert.False(t, e.Match("chrome-extension://x"))
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"driver": "storage:\n  driver: redis\n",
		"level":  "log:\n  level: loud\n",
		"writer": "log:\n  writer: [syslog]\n",
		"mode":   "graph:\n  exclude:\n    - mode: suffix\n      pattern: x\n",
		"yaml":   "log: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
