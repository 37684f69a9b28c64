package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port        string `toml:"port"`
	FrontendURL string `toml:"frontend_url"`
	MaxUploadMB int64  `toml:"max_upload_mb"`
}

// OracleConfig selects and configures the extraction oracle. Endpoint and
// APIKey apply to whichever kind is active: the LLM provider's base URL
// and key, or the verification backend's base URL and key.
type OracleConfig struct {
	Kind      string `toml:"kind"`
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	Endpoint  string `toml:"endpoint"`
	APIKey    string `toml:"api_key"`
	TimeoutMs int    `toml:"timeout_ms"`
	Retries   int    `toml:"retries"`
	BackoffMs int    `toml:"backoff_ms"`
	MaxTokens int    `toml:"max_tokens"`
}

func (o OracleConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutMs) * time.Millisecond
}

func (o OracleConfig) Backoff() time.Duration {
	return time.Duration(o.BackoffMs) * time.Millisecond
}

type PromptConfig struct {
	Extraction string `toml:"extraction"`
}

type SchemaConfig struct {
	Version string `toml:"version"`
	Path    string `toml:"path"`
}

type ToleranceConfig struct {
	AlcoholEpsilon float64 `toml:"alcohol_epsilon"`
	VolumeRelative float64 `toml:"volume_relative"`
}

type ConcurrencyConfig struct {
	Batch         int     `toml:"batch"`
	RatePerSecond float64 `toml:"rate_per_second"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

type Config struct {
	Server      ServerConfig      `toml:"server"`
	Oracle      OracleConfig      `toml:"oracle"`
	Prompts     PromptConfig      `toml:"prompts"`
	Schema      SchemaConfig      `toml:"schema"`
	Tolerance   ToleranceConfig   `toml:"tolerance"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
	Log         LogConfig         `toml:"log"`
}

const (
	OracleLLM     = "llm"
	OracleBackend = "backend"
)

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			FrontendURL: "http://localhost:5173",
			MaxUploadMB: 20,
		},
		Oracle: OracleConfig{
			Kind:      OracleLLM,
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			TimeoutMs: 30000,
			Retries:   2,
			BackoffMs: 500,
			MaxTokens: 1024,
		},
		Prompts: PromptConfig{
			Extraction: DefaultExtractionPrompt,
		},
		Concurrency: ConcurrencyConfig{
			Batch:         5,
			RatePerSecond: 2,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault is Load, falling back to defaults when the file does not
// exist. The bool reports whether the file was read.
func LoadOrDefault(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// ApplyEnv overrides settings from environment variables read by getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	str(&c.Server.Port, "PORT")
	str(&c.Server.FrontendURL, "FRONTEND_URL")
	str(&c.Oracle.Kind, "ORACLE_KIND")
	str(&c.Oracle.Provider, "ORACLE_PROVIDER", "LLM_PROVIDER")
	str(&c.Oracle.Model, "ORACLE_MODEL", "LLM_MODEL")
	str(&c.Oracle.Endpoint, "ORACLE_ENDPOINT", "VITE_API_URL")
	str(&c.Oracle.APIKey, "ORACLE_API_KEY", "LLM_API_KEY", "OPENAI_API_KEY")
	str(&c.Schema.Version, "SCHEMA_VERSION")
	str(&c.Schema.Path, "SCHEMA_PATH")
	str(&c.Log.Level, "LOG_LEVEL")

	if v := strings.TrimSpace(getenv("ORACLE_TIMEOUT_MS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ORACLE_TIMEOUT_MS: %w", err)
		}
		c.Oracle.TimeoutMs = n
	}
	return nil
}

func (c *Config) Validate() error {
	var problems []string

	switch c.Oracle.Kind {
	case OracleLLM:
		if c.Oracle.Model == "" {
			problems = append(problems, "oracle.model is required for the llm oracle")
		}
	case OracleBackend:
		if c.Oracle.Endpoint == "" {
			problems = append(problems, "oracle.endpoint is required for the backend oracle")
		}
	default:
		problems = append(problems, fmt.Sprintf("oracle.kind must be %q or %q, got %q", OracleLLM, OracleBackend, c.Oracle.Kind))
	}
	if c.Oracle.TimeoutMs <= 0 {
		problems = append(problems, "oracle.timeout_ms must be positive")
	}
	if c.Oracle.Retries < 0 {
		problems = append(problems, "oracle.retries must not be negative")
	}
	if c.Oracle.BackoffMs < 0 {
		problems = append(problems, "oracle.backoff_ms must not be negative")
	}
	if c.Oracle.Kind == OracleLLM && strings.Count(c.Prompts.Extraction, "%s") != 2 {
		problems = append(problems, "prompts.extraction must contain exactly two %s verbs (fields, then expected values)")
	}
	if c.Concurrency.Batch < 1 {
		problems = append(problems, "concurrency.batch must be at least 1")
	}
	if c.Concurrency.RatePerSecond < 0 {
		problems = append(problems, "concurrency.rate_per_second must not be negative")
	}
	if c.Tolerance.AlcoholEpsilon < 0 || c.Tolerance.VolumeRelative < 0 {
		problems = append(problems, "tolerances must not be negative")
	}
	if c.Server.MaxUploadMB < 1 {
		problems = append(problems, "server.max_upload_mb must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
