// Package commands implements the CLI subcommands for the outcome binary.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/dwsmith1983/outcome/internal/config"
	"github.com/dwsmith1983/outcome/internal/member"
	"github.com/dwsmith1983/outcome/internal/metrics"
	"github.com/dwsmith1983/outcome/internal/store"
)

// loadConfig reads outcome.yaml from dir, falling back to the defaults when the
// file does not exist.
func loadConfig(dir string) (*config.Config, error) {
	cfg, err := config.Load(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

// newLogger builds the slog logger described by cfg.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newStore creates the configured member store, wrapped in a circuit breaker
// when one is configured.
func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, rec *metrics.Recorder) (store.Store, error) {
	var st store.Store
	switch cfg.Store.Type {
	case "memory":
		st = store.NewMemory()
	case "dynamodb":
		if cfg.Store.DynamoDB == nil {
			return nil, fmt.Errorf("dynamodb config is required when store type is dynamodb")
		}
		ddb, err := store.NewDynamo(ctx, cfg.Store.DynamoDB)
		if err != nil {
			return nil, err
		}
		ddb.SetLogger(logger)
		if err := ddb.Start(ctx); err != nil {
			return nil, fmt.Errorf("connecting to DynamoDB: %w", err)
		}
		st = ddb
	default:
		return nil, fmt.Errorf("unsupported store: %s", cfg.Store.Type)
	}

	if cfg.Breaker == nil {
		return st, nil
	}
	return store.WithBreaker(st, *cfg.Breaker,
		store.WithBreakerLogger(logger), store.WithBreakerMetrics(rec))
}

// readBatchFile reads member inputs from a JSON file holding either an array or
// an object with a "members" array.
func readBatchFile(path string) ([]member.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		var inputs []member.Input
		if err := json.Unmarshal(data, &inputs); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return inputs, nil
	}

	var wrapped struct {
		Members []member.Input `json:"members"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return wrapped.Members, nil
}
