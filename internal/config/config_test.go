package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envLookup(env map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8001, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.Vision.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Search.Timeout)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.NoError(t, cfg.validate())
	assert.False(t, cfg.VisionEnabled())
	assert.False(t, cfg.SearchEnabled())
	assert.False(t, cfg.LLMEnabled())
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envLookup(map[string]string{
		"PORT":                    "9000",
		"DB_DRIVER":               "postgres",
		"DB_DSN":                  "postgres://localhost/thrifter",
		"GOOGLE_VISION_API_KEY":   "vision-key",
		"GOOGLE_SEARCH_API_KEY":   "search-key",
		"GOOGLE_SEARCH_ENGINE_ID": "cx",
		"LLM_PROVIDER":            "openai",
		"OPENAI_API_KEY":          "sk-test",
		"VISION_TIMEOUT":          "10",
		"LLM_TIMEOUT":             "1m30s",
		"CORS_ORIGINS":            "http://localhost:3000, https://app.example.com",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/thrifter", cfg.Database.DSN)
	assert.Equal(t, 10*time.Second, cfg.Vision.Timeout)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.VisionEnabled())
	assert.True(t, cfg.SearchEnabled())
	assert.True(t, cfg.LLMEnabled())
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envLookup(map[string]string{
		"PORT":           "eighty",
		"SEARCH_TIMEOUT": "soon",
	}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "SEARCH_TIMEOUT")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "mysql"
	cfg.LLM.Provider = "claude"

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
	assert.Contains(t, err.Error(), "LLM_PROVIDER")
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
database:
  driver: sqlite
  dsn: /tmp/scans.db
vision:
  timeout: 5s
llm:
  provider: gemini
  geminiModel: gemini-2.5-flash
`), 0o600))

	t.Setenv("PORT", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("VISION_TIMEOUT", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/tmp/scans.db", cfg.Database.DSN)
	assert.Equal(t, 5*time.Second, cfg.Vision.Timeout)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.GeminiModel)
	assert.Equal(t, 15*time.Second, cfg.Search.Timeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o600))
	t.Setenv("PORT", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8001, cfg.Server.Port)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
