// Package config loads service settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AppName     = "thrifters-eye"
	EnvFileName = "config.env"
)

type Config struct {
	Server struct {
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"corsOrigins"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	Vision struct {
		APIKey    string        `yaml:"apiKey"`
		Timeout   time.Duration `yaml:"timeout"`
		CacheSize int           `yaml:"cacheSize"`
		CacheTTL  time.Duration `yaml:"cacheTTL"`
	} `yaml:"vision"`

	Search struct {
		APIKey   string        `yaml:"apiKey"`
		EngineID string        `yaml:"engineId"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"search"`

	LLM struct {
		Provider     string        `yaml:"provider"`
		GeminiAPIKey string        `yaml:"geminiApiKey"`
		GeminiModel  string        `yaml:"geminiModel"`
		OpenAIAPIKey string        `yaml:"openaiApiKey"`
		OpenAIModel  string        `yaml:"openaiModel"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8001
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "scans.db"
	cfg.Vision.Timeout = 30 * time.Second
	cfg.Vision.CacheSize = 256
	cfg.Vision.CacheTTL = time.Hour
	cfg.Search.Timeout = 15 * time.Second
	cfg.LLM.Provider = "gemini"
	cfg.LLM.Timeout = 60 * time.Second
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return &cfg
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory and from .env in the working directory. Errors are
// ignored since the files may not exist.
func LoadEnvFile() {
	if configBase, err := os.UserConfigDir(); err == nil {
		_ = godotenv.Load(filepath.Join(configBase, AppName, EnvFileName))
	}
	_ = godotenv.Load(".env")
}

// Load reads the YAML file at path, if it exists, over the defaults and
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s must be an integer: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := parseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	integer("PORT", &c.Server.Port)
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	str("DB_DRIVER", &c.Database.Driver)
	str("DB_DSN", &c.Database.DSN)
	str("GOOGLE_VISION_API_KEY", &c.Vision.APIKey)
	duration("VISION_TIMEOUT", &c.Vision.Timeout)
	integer("VISION_CACHE_SIZE", &c.Vision.CacheSize)
	duration("VISION_CACHE_TTL", &c.Vision.CacheTTL)
	str("GOOGLE_SEARCH_API_KEY", &c.Search.APIKey)
	str("GOOGLE_SEARCH_ENGINE_ID", &c.Search.EngineID)
	duration("SEARCH_TIMEOUT", &c.Search.Timeout)
	str("LLM_PROVIDER", &c.LLM.Provider)
	str("GEMINI_API_KEY", &c.LLM.GeminiAPIKey)
	str("GEMINI_MODEL", &c.LLM.GeminiModel)
	str("OPENAI_API_KEY", &c.LLM.OpenAIAPIKey)
	str("OPENAI_MODEL", &c.LLM.OpenAIModel)
	duration("LLM_TIMEOUT", &c.LLM.Timeout)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	return errors.Join(errs...)
}

func (c *Config) validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Server.Port))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.Database.Driver))
	}
	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be gemini or openai, got %q", c.LLM.Provider))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// VisionEnabled reports whether recognition credentials are present.
func (c *Config) VisionEnabled() bool { return c.Vision.APIKey != "" }

// SearchEnabled reports whether search credentials are present.
func (c *Config) SearchEnabled() bool {
	return c.Search.APIKey != "" && c.Search.EngineID != ""
}

// LLMEnabled reports whether the selected provider has an API key.
func (c *Config) LLMEnabled() bool {
	if c.LLM.Provider == "openai" {
		return c.LLM.OpenAIAPIKey != ""
	}
	return c.LLM.GeminiAPIKey != ""
}

// parseDuration accepts Go durations ("45s") or plain seconds ("45").
func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
