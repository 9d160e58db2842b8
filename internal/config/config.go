// Package config loads KAI settings from flags, KAI_* environment variables
// and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/viper"

	"github.com/rcliao/kai/internal/action"
	"github.com/rcliao/kai/internal/alarm"
	"github.com/rcliao/kai/internal/assistant"
	"github.com/rcliao/kai/internal/memory"
	"github.com/rcliao/kai/internal/snapshot"
)

// EnvPrefix is prepended to every environment variable, e.g. KAI_MODEL.
const EnvPrefix = "KAI"

// Config holds every setting.
type Config struct {
	DB                string        `mapstructure:"db"`
	Provider          string        `mapstructure:"provider"`
	Model             string        `mapstructure:"model"`
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Temperature       float64       `mapstructure:"temperature"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxHistory        int           `mapstructure:"max_history"`
	ContextLimit      int           `mapstructure:"context_limit"`
	DescriptionBudget int           `mapstructure:"description_budget"`
	DedupeWindow      time.Duration `mapstructure:"dedupe_window"`
	AlarmInterval     time.Duration `mapstructure:"alarm_interval"`
	PersonaFile       string        `mapstructure:"persona_file"`
	LogLevel          string        `mapstructure:"log_level"`
	LogFormat         string        `mapstructure:"log_format"`
}

// DefaultDBPath returns ~/.kai/kai.db.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "kai.db"
	}
	return filepath.Join(home, ".kai", "kai.db")
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db", DefaultDBPath())
	v.SetDefault("provider", "openai")
	v.SetDefault("model", "")
	v.SetDefault("base_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("timeout", assistant.DefaultTimeout)
	v.SetDefault("max_history", memory.DefaultMaxHistory)
	v.SetDefault("context_limit", snapshot.DefaultLimit)
	v.SetDefault("description_budget", snapshot.DefaultDescriptionBudget)
	v.SetDefault("dedupe_window", action.DefaultDedupeWindow)
	v.SetDefault("alarm_interval", alarm.DefaultInterval)
	v.SetDefault("persona_file", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
}

// Load reads the configuration into a Config. An explicit file must exist;
// without one, ~/.kai/config.yaml is read when present.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".kai"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("read config: %v", err)).
				WithCause(err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("decode config").
			WithCause(err)
	}
	if err := cfg.validate(); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(err.Error()).
			WithCause(err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DB == "":
		return errors.New("db path is empty")
	case c.Temperature < 0 || c.Temperature > 2:
		return fmt.Errorf("temperature %v out of range [0, 2]", c.Temperature)
	case c.Timeout < 0, c.DedupeWindow < 0, c.AlarmInterval < 0:
		return errors.New("durations must not be negative")
	}
	return nil
}
