package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "syncly.db", cfg.DBPath)
	assert.Equal(t, "definitions", cfg.DefinitionsDir)
	assert.Equal(t, "cli", cfg.Actor)
}

func TestLoadConfigExplicitPathMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncly.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db: /data/meet.db
definitions: /data/defs
calendar_dir: /data/ics
actor: ops
mentions:
  - display: Ana
    id: u1
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/meet.db", cfg.DBPath)
	assert.Equal(t, "/data/defs", cfg.DefinitionsDir)
	assert.Equal(t, "/data/ics", cfg.CalendarDir)
	assert.Equal(t, "ops", cfg.Actor)

	mentions := cfg.MentionCandidates()
	require.Len(t, mentions, 1)
	assert.Equal(t, "u1", mentions[0].ID)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncly.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db: from-file.db\n"), 0644))

	t.Setenv(EnvDBPath, "from-env.db")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.DBPath)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncly.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db: [unclosed\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}
