package config

import "time"

// Config represents the top-level outcome.yaml configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Problem     ProblemConfig     `yaml:"problem"`
	Store       StoreConfig       `yaml:"store"`
	Breaker     *BreakerConfig    `yaml:"breaker,omitempty"`
	Reports     []ReportConfig    `yaml:"reports,omitempty"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	APIKey          string `yaml:"apiKey,omitempty"`
	APIKeySecretARN string `yaml:"apiKeySecretArn,omitempty"`
	MaxRequestBody  int64  `yaml:"maxRequestBody,omitempty"` // bytes
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// AggregationConfig controls batch reports.
type AggregationConfig struct {
	Fidelity    string `yaml:"fidelity"` // flat or detailed
	Concurrency int    `yaml:"concurrency,omitempty"`
}

// ProblemConfig customises problem bodies.
type ProblemConfig struct {
	ErrorTitle string            `yaml:"errorTitle,omitempty"`
	Types      map[string]string `yaml:"types,omitempty"` // kind → problem type URI
}

// StoreConfig selects the member store.
type StoreConfig struct {
	Type     string          `yaml:"type"` // memory or dynamodb
	DynamoDB *DynamoDBConfig `yaml:"dynamodb,omitempty"`
}

// DynamoDBConfig holds DynamoDB connection and table settings.
type DynamoDBConfig struct {
	TableName   string `yaml:"tableName"`
	Region      string `yaml:"region,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	CreateTable bool   `yaml:"createTable,omitempty"`
}

// BreakerConfig configures the circuit breaker around the store.
type BreakerConfig struct {
	MaxRequests      uint32 `yaml:"maxRequests,omitempty"`
	Interval         string `yaml:"interval,omitempty"`
	Timeout          string `yaml:"timeout,omitempty"`
	FailureThreshold uint32 `yaml:"failureThreshold,omitempty"`
}

// ReportConfig defines a grouped-report sink.
type ReportConfig struct {
	Type     string `yaml:"type"` // log, console, sqs or eventbridge
	QueueURL string `yaml:"queueUrl,omitempty"`
	BusName  string `yaml:"busName,omitempty"`
	Source   string `yaml:"source,omitempty"`
}

// TelemetryConfig configures OTLP export. An empty endpoint disables export.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlpEndpoint,omitempty"`
	Insecure     bool   `yaml:"insecure,omitempty"`
	ServiceName  string `yaml:"serviceName,omitempty"`
}

// Defaults applied by Load.
const (
	DefaultAddr           = ":8080"
	DefaultMaxRequestBody = 1 << 20
	DefaultConcurrency    = 8
	DefaultServiceName    = "outcome"
)

// IntervalDuration parses Interval, or returns 0 when unset.
func (b *BreakerConfig) IntervalDuration() (time.Duration, error) {
	return parseOptionalDuration(b.Interval)
}

// TimeoutDuration parses Timeout, or returns 0 when unset.
func (b *BreakerConfig) TimeoutDuration() (time.Duration, error) {
	return parseOptionalDuration(b.Timeout)
}

func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
