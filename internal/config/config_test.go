package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "story_notes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeFile(t, `
database_url: sqlite:notes.db
port: 9090
log:
  level: debug
  format: console
rate_limit:
  enabled: false
  default_window: 30s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "sqlite:notes.db", cfg.DatabaseURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.DefaultWindow)
	assert.Equal(t, 120, cfg.RateLimit.WriteLimit, "unset fields keep their defaults")
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "port: [8080"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/story_notes.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestApplyEnv_OverridesFile(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "port: 9090\nlog:\n  level: debug\n"))
	require.NoError(t, err)

	err = cfg.ApplyEnv(envMap(map[string]string{
		"DATABASE_URL":         "postgres://notes@localhost/notes",
		"PORT":                 "7000",
		"LOG_LEVEL":            "WARN",
		"RATE_LIMIT_ENABLED":   "false",
		"RATE_LIMIT_WINDOW":    "2m",
		"RATE_LIMIT_WHITELIST": "127.0.0.1",
		"LOG_FORMAT":           "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres://notes@localhost/notes", cfg.DatabaseURL)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format, "empty variables are ignored")
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.DefaultWindow)
	assert.Equal(t, "127.0.0.1", cfg.RateLimit.Whitelist)
}

func TestApplyEnv_MalformedValues(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"PORT":               "eighty",
		"RATE_LIMIT_WINDOW":  "soon",
		"RATE_LIMIT_ENABLED": "maybe",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "RATE_LIMIT_WINDOW")
	assert.Contains(t, err.Error(), "RATE_LIMIT_ENABLED")
	assert.Equal(t, 8080, cfg.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port out of range", func(c *Config) { c.Port = 70000 }, "Port"},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }, "Level"},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, "Format"},
		{"negative write limit", func(c *Config) { c.RateLimit.WriteLimit = -1 }, "WriteLimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequireDatabase(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.RequireDatabase())
	cfg.DatabaseURL = "sqlite:notes.db"
	assert.NoError(t, cfg.RequireDatabase())
}

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "6060")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load(writeFile(t, "port: 9090\ndatabase_url: sqlite:notes.db\n"))
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Port)
	assert.Equal(t, "sqlite:notes.db", cfg.DatabaseURL)

	t.Setenv("LOG_FORMAT", "xml")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLimiterConfig(t *testing.T) {
	cfg := Default()
	rl := cfg.LimiterConfig()
	assert.True(t, rl.Enabled)
	assert.NotEmpty(t, rl.Rules)

	cfg.RateLimit.Enabled = false
	assert.False(t, cfg.LimiterConfig().Enabled)
}
