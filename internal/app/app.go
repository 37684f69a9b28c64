// Package app wires configuration into a ready verifier and batch runner.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/agenthands/labelcheck/internal/backend"
	"github.com/agenthands/labelcheck/internal/config"
	"github.com/agenthands/labelcheck/internal/core"
	"github.com/agenthands/labelcheck/internal/core/batch"
	"github.com/agenthands/labelcheck/internal/core/compare"
	"github.com/agenthands/labelcheck/internal/core/extraction"
	"github.com/agenthands/labelcheck/internal/core/schema"
	"github.com/agenthands/labelcheck/internal/llm"
)

const DefaultConfigPath = "config/config.toml"

// LoadConfig reads the config file at path (or CONFIG_PATH, or the
// default path), applies environment overrides and validates the result.
func LoadConfig(path string) (*config.Config, bool, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultConfigPath
	}
	cfg, found, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, false, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, found, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, found, err
	}
	return cfg, found, nil
}

func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

func LoadSchema(cfg config.SchemaConfig) (*schema.Schema, error) {
	if cfg.Path != "" {
		return schema.LoadFile(cfg.Path)
	}
	version := cfg.Version
	if version == "" {
		version = schema.DefaultVersion
	}
	return schema.Load(version)
}

// NewOracle builds the configured oracle wrapped with timeout and retry.
func NewOracle(ctx context.Context, cfg config.OracleConfig, prompt string, logger *zap.Logger) (extraction.Oracle, error) {
	var base extraction.Oracle
	switch strings.ToLower(cfg.Kind) {
	case config.OracleLLM:
		client, err := llm.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
		}
		base = extraction.NewExtractor(client, prompt)
	case config.OracleBackend:
		base = backend.NewClient(cfg.Endpoint, cfg.APIKey, &http.Client{}, logger)
	default:
		return nil, fmt.Errorf("unknown oracle kind %q", cfg.Kind)
	}
	return extraction.WithRetry(base, cfg, logger), nil
}

type Components struct {
	Schema   *schema.Schema
	Verifier *core.Verifier
	Runner   *batch.Runner
}

func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	s, err := LoadSchema(cfg.Schema)
	if err != nil {
		return nil, err
	}
	if strings.ToLower(cfg.Oracle.Kind) == config.OracleBackend {
		if err := backend.CheckSchema(s); err != nil {
			return nil, err
		}
	}
	oracle, err := NewOracle(ctx, cfg.Oracle, cfg.Prompts.Extraction, logger)
	if err != nil {
		return nil, err
	}
	cmp := compare.NewComparator(compare.Tolerance{
		AlcoholEpsilon: cfg.Tolerance.AlcoholEpsilon,
		VolumeRelative: cfg.Tolerance.VolumeRelative,
	})
	v := core.NewVerifier(oracle, s, cmp, logger)
	return &Components{
		Schema:   s,
		Verifier: v,
		Runner:   batch.NewRunner(v, cfg.Concurrency.Batch, cfg.Concurrency.RatePerSecond, logger),
	}, nil
}
