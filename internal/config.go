package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIHost    = "http://127.0.0.1:8000"
	DefaultGamePrefix = "/api/core"
)

// Config holds the client settings
type Config struct {
	APIHost           string        `yaml:"api_host"`
	GamePrefix        string        `yaml:"game_prefix"`
	Locale            string        `yaml:"locale"`
	DataDir           string        `yaml:"data_dir"`
	Timeout           time.Duration `yaml:"timeout"`
	DefaultDifficulty Difficulty    `yaml:"default_difficulty"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	dataDir := ".medsim"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".medsim")
	}
	return &Config{
		APIHost:           DefaultAPIHost,
		GamePrefix:        DefaultGamePrefix,
		DataDir:           dataDir,
		DefaultDifficulty: DifficultyEasy,
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/medsim/config.yaml
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "medsim", "config.yaml")
}

// LoadConfig layers defaults, the yaml file at path and MEDSIM_* env vars.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, &ConfigError{Source: path, Err: err}
			}
			LogDebug("Loaded config from %s", path)
		case errors.Is(err, os.ErrNotExist):
			LogDebug("No config file at %s, using defaults", path)
		default:
			return nil, &ConfigError{Source: path, Err: err}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (c *Config) applyEnv() error {
	if v, ok := getEnv("MEDSIM_API_HOST"); ok {
		c.APIHost = v
	}
	if v, ok := getEnv("MEDSIM_GAME_PREFIX"); ok {
		c.GamePrefix = v
	}
	if v, ok := getEnv("MEDSIM_LOCALE"); ok {
		c.Locale = v
	}
	if v, ok := getEnv("MEDSIM_DATA_DIR"); ok {
		c.DataDir = v
	}
	if v, ok := getEnv("MEDSIM_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{Source: "MEDSIM_TIMEOUT", Err: err}
		}
		c.Timeout = d
	}
	if v, ok := getEnv("MEDSIM_DIFFICULTY"); ok {
		d, err := ParseDifficulty(v)
		if err != nil {
			return &ConfigError{Source: "MEDSIM_DIFFICULTY", Err: err}
		}
		c.DefaultDifficulty = d
	}
	return nil
}

// Validate normalizes and checks the settings
func (c *Config) Validate() error {
	c.APIHost = strings.TrimRight(strings.TrimSpace(c.APIHost), "/")
	if c.APIHost == "" {
		return &ConfigError{Source: "api_host", Err: errors.New("must not be empty")}
	}
	if !strings.HasPrefix(c.APIHost, "http://") && !strings.HasPrefix(c.APIHost, "https://") {
		return &ConfigError{Source: "api_host", Err: fmt.Errorf("%q is not an http(s) URL", c.APIHost)}
	}

	c.GamePrefix = "/" + strings.Trim(strings.TrimSpace(c.GamePrefix), "/")
	if c.Timeout < 0 {
		return &ConfigError{Source: "timeout", Err: errors.New("must not be negative")}
	}
	if c.DefaultDifficulty == "" {
		c.DefaultDifficulty = DifficultyEasy
	} else if _, err := ParseDifficulty(string(c.DefaultDifficulty)); err != nil {
		return &ConfigError{Source: "default_difficulty", Err: err}
	}
	if c.DataDir == "" {
		return &ConfigError{Source: "data_dir", Err: errors.New("must not be empty")}
	}
	return nil
}

// StateDBPath returns the sqlite file holding credentials and the outbox
func (c *Config) StateDBPath() string {
	return filepath.Join(c.DataDir, "state.db")
}

// CacheDir returns the offline cache directory
func (c *Config) CacheDir() string {
	return filepath.Join(c.DataDir, "cache")
}

// LogPath returns the log file used by the interactive screen
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "medsim.log")
}
