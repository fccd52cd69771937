package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIHost, cfg.APIHost)
	assert.Equal(t, DefaultGamePrefix, cfg.GamePrefix)
	assert.Equal(t, DifficultyEasy, cfg.DefaultDifficulty)
	assert.Zero(t, cfg.Timeout)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
api_host: https://sim.example.com/
game_prefix: api/game/
locale: ru
timeout: 15s
default_difficulty: hard
data_dir: /tmp/medsim-test
`)
	t.Setenv("MEDSIM_API_HOST", "http://localhost:9000")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.APIHost)
	assert.Equal(t, "/api/game", cfg.GamePrefix)
	assert.Equal(t, "ru", cfg.Locale)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, DifficultyHard, cfg.DefaultDifficulty)
	assert.Equal(t, filepath.Join("/tmp/medsim-test", "state.db"), cfg.StateDBPath())
	assert.Equal(t, filepath.Join("/tmp/medsim-test", "cache"), cfg.CacheDir())
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		env    map[string]string
		source string
	}{
		{
			name:   "malformed yaml",
			body:   "api_host: [unclosed",
			source: "config.yaml",
		},
		{
			name:   "bad host scheme",
			body:   "api_host: ftp://example.com",
			source: "api_host",
		},
		{
			name:   "bad timeout env",
			env:    map[string]string{"MEDSIM_TIMEOUT": "soon"},
			source: "MEDSIM_TIMEOUT",
		},
		{
			name:   "bad difficulty in file",
			body:   "default_difficulty: nightmare",
			source: "default_difficulty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeConfig(t, tt.body)

			_, err := LoadConfig(path)
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "want ConfigError, got %T", err)
			assert.Contains(t, cfgErr.Source, tt.source)
		})
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in      string
		want    Difficulty
		wantErr bool
	}{
		{in: "easy", want: DifficultyEasy},
		{in: " Medium ", want: DifficultyMedium},
		{in: "HARD", want: DifficultyHard},
		{in: "", wantErr: true},
		{in: "extreme", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDifficulty(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
