package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 10, cfg.MaxHistory)
	assert.Equal(t, 40, cfg.ContextLimit)
	assert.Equal(t, 100, cfg.DescriptionBudget)
	assert.Equal(t, 10*time.Second, cfg.DedupeWindow)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".kai", "kai.db"), cfg.DB)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("KAI_MODEL", "gemini-2.5-flash")
	t.Setenv("KAI_PROVIDER", "gemini")
	t.Setenv("KAI_DEDUPE_WINDOW", "0s")
	t.Setenv("KAI_MAX_HISTORY", "3")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Zero(t, cfg.DedupeWindow)
	assert.Equal(t, 3, cfg.MaxHistory)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "kai.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: local-llama\nbase_url: http://localhost:11434/v1\ntimeout: 5s\n"), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "local-llama", cfg.Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit config file must exist")

	t.Setenv("KAI_TEMPERATURE", "3.5")
	_, err = Load(viper.New(), "")
	assert.Error(t, err)
}
