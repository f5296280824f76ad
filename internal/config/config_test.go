package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/feeling-system/internal/feeling"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, feeling.DefaultConfig(), cfg.Feeling())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeling.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  key: /tmp/feeling/state
memory:
  max_memories: 12
weights:
  relational: 0.5
logging:
  level: debug
  format: console
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/feeling/state", cfg.Storage.Key)
	assert.Equal(t, 12, cfg.Memory.MaxMemories)
	assert.Equal(t, 0.5, cfg.Weights.Relational)
	assert.Equal(t, 0.15, cfg.Weights.Memory)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)

	fc := cfg.Feeling()
	assert.Equal(t, 12, fc.Memory.MaxMemories)
	assert.Equal(t, "/tmp/feeling/state", fc.StorageKey)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeling.yaml")
	require.NoError(t, os.WriteFile(path, []byte("memory:\n  max_memories: 12\n"), 0o644))
	t.Setenv("FEELING_MEMORY_MAX_MEMORIES", "7")
	t.Setenv("FEELING_SERVER_ADDR", "0.0.0.0:9000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Memory.MaxMemories)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeling.yaml")
	require.NoError(t, os.WriteFile(path, []byte("memory: [unclosed\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "feeling.yaml")
	want := DefaultConfig()
	want.Ethics.MoralSensitivity = 0.4
	want.Storage.DBPath = "history.db"

	require.NoError(t, want.SaveToFile(path))
	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestFeelingCopiesValues(t *testing.T) {
	cfg := DefaultConfig()
	fc := cfg.Feeling()
	fc.Ethics.Values["compassion"] = 0

	assert.Equal(t, 0.9, cfg.Ethics.Values["compassion"])
	assert.Equal(t, fc.Ethics.ValueNames(), fc.Narrative.CoreValues)
}

func TestConvertedConfigBuildsSystem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.Ethical = 0.3

	sys, err := feeling.New(cfg.Feeling())
	require.NoError(t, err)
	assert.NotNil(t, sys)

	cfg.Weights.Ethical = 3
	_, err = feeling.New(cfg.Feeling())
	assert.Error(t, err)
}
