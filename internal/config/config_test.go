package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9000\"\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "linear", cfg.Model.Backend)
	assert.Equal(t, "./artifacts/ridge_model_columns.json", cfg.Model.ColumnsPath)
	assert.Equal(t, "csv", cfg.Storage.Type)
	assert.Equal(t, "./data/user_predictions.csv", cfg.Storage.Path)
	assert.Equal(t, 10, cfg.Model.Remote.TimeoutSeconds)
	assert.False(t, cfg.Telegram.Enabled)
}

func TestLoadConfig_ExpandsEnv(t *testing.T) {
	t.Setenv("PRODUCTIVITY_TEST_TOKEN", "123:abc")
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
storage:
  type: sqlite
  path: /tmp/p.db
telegram:
  enabled: true
  bot_token: ${PRODUCTIVITY_TEST_TOKEN}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "/tmp/p.db", cfg.Storage.Path)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
