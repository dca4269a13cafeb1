// Package config handles loading and validation of outcome.yaml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dwsmith1983/outcome/pkg/outcome"
	"github.com/dwsmith1983/outcome/pkg/problem"
	"github.com/dwsmith1983/outcome/pkg/types"
)

// FileName is the configuration file Load looks for.
const FileName = "outcome.yaml"

// Environment variables that override file values.
const (
	EnvAddr         = "OUTCOME_ADDR"
	EnvAPIKey       = "OUTCOME_API_KEY"
	EnvLogLevel     = "OUTCOME_LOG_LEVEL"
	EnvOTLPEndpoint = "OUTCOME_OTLP_ENDPOINT"
)

// Load reads and parses outcome.yaml from the given directory, applies
// environment overrides and defaults, then validates the result.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvOTLPEndpoint); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.MaxRequestBody == 0 {
		cfg.Server.MaxRequestBody = DefaultMaxRequestBody
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Aggregation.Concurrency == 0 {
		cfg.Aggregation.Concurrency = DefaultConcurrency
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultServiceName
	}
}

func validate(cfg *Config) error {
	if cfg.Server.MaxRequestBody < 0 {
		return fmt.Errorf("server.maxRequestBody must not be negative")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Log.Format)
	}
	if _, err := outcome.ParseFidelity(cfg.Aggregation.Fidelity); err != nil {
		return fmt.Errorf("aggregation.fidelity: %w", err)
	}
	if cfg.Aggregation.Concurrency < 0 {
		return fmt.Errorf("aggregation.concurrency must not be negative")
	}
	for kind, uri := range cfg.Problem.Types {
		if kind == "" || uri == "" {
			return fmt.Errorf("problem.types entries need a kind and a URI")
		}
	}

	switch cfg.Store.Type {
	case "memory":
	case "dynamodb":
		if cfg.Store.DynamoDB == nil {
			return fmt.Errorf("dynamodb config is required when store type is dynamodb")
		}
		if cfg.Store.DynamoDB.TableName == "" {
			return fmt.Errorf("store.dynamodb.tableName is required")
		}
	default:
		return fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}

	if b := cfg.Breaker; b != nil {
		if _, err := b.IntervalDuration(); err != nil {
			return fmt.Errorf("breaker.interval: %w", err)
		}
		if _, err := b.TimeoutDuration(); err != nil {
			return fmt.Errorf("breaker.timeout: %w", err)
		}
	}

	for i, r := range cfg.Reports {
		switch r.Type {
		case "log", "console":
		case "sqs":
			if r.QueueURL == "" {
				return fmt.Errorf("reports[%d]: queueUrl is required for sqs", i)
			}
		case "eventbridge":
			if r.BusName == "" {
				return fmt.Errorf("reports[%d]: busName is required for eventbridge", i)
			}
		default:
			return fmt.Errorf("reports[%d]: unknown report type %q", i, r.Type)
		}
	}
	return nil
}

// FidelityValue returns the parsed aggregation fidelity. Load has already
// validated it.
func (c *Config) FidelityValue() outcome.Fidelity {
	f, _ := outcome.ParseFidelity(c.Aggregation.Fidelity)
	return f
}

// ProblemOptions converts the problem section into renderer options.
func (c *Config) ProblemOptions() []problem.Option {
	var opts []problem.Option
	if c.Problem.ErrorTitle != "" {
		opts = append(opts, problem.WithErrorTitle(c.Problem.ErrorTitle))
	}
	if len(c.Problem.Types) > 0 {
		uris := make(map[types.Kind]string, len(c.Problem.Types))
		for k, v := range c.Problem.Types {
			uris[types.Kind(k)] = v
		}
		opts = append(opts, problem.WithProblemTypes(uris))
	}
	return opts
}
