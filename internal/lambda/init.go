package lambda

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/dwsmith1983/outcome/internal/config"
	"github.com/dwsmith1983/outcome/internal/member"
	"github.com/dwsmith1983/outcome/internal/metrics"
	"github.com/dwsmith1983/outcome/internal/report"
	"github.com/dwsmith1983/outcome/internal/store"
	"github.com/dwsmith1983/outcome/pkg/outcome"
	"github.com/dwsmith1983/outcome/pkg/problem"
)

// Deps holds shared dependencies for Lambda handlers.
type Deps struct {
	Store          store.Store
	Members        *member.Service
	Reports        *report.Dispatcher
	Fidelity       outcome.Fidelity
	ProblemOptions []problem.Option
	Metrics        *metrics.Recorder
	Logger         *slog.Logger

	SNSClient      SNSAPI
	EventsTopicARN string
}

// Init creates shared dependencies from environment variables.
// Reads: TABLE_NAME, AWS_REGION, REPORT_QUEUE_URL, REPORT_BUS_NAME,
// MEMBER_EVENTS_TOPIC_ARN, REPORT_FIDELITY
func Init(ctx context.Context) (*Deps, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	tableName := os.Getenv("TABLE_NAME")
	region := os.Getenv("AWS_REGION")
	if tableName == "" {
		return nil, fmt.Errorf("TABLE_NAME environment variable required")
	}
	if region == "" {
		return nil, fmt.Errorf("AWS_REGION environment variable required")
	}

	fidelity, err := outcome.ParseFidelity(envOrDefault("REPORT_FIDELITY", "flat"))
	if err != nil {
		return nil, fmt.Errorf("REPORT_FIDELITY: %w", err)
	}

	ddb, err := store.NewDynamo(ctx, &config.DynamoDBConfig{TableName: tableName, Region: region})
	if err != nil {
		return nil, fmt.Errorf("creating DynamoDB store: %w", err)
	}
	ddb.SetLogger(logger)

	rec := metrics.Global()
	st, err := store.WithBreaker(ddb, config.BreakerConfig{},
		store.WithBreakerLogger(logger), store.WithBreakerMetrics(rec))
	if err != nil {
		return nil, fmt.Errorf("creating store breaker: %w", err)
	}

	reportCfgs := []config.ReportConfig{{Type: "log"}}
	if queueURL := os.Getenv("REPORT_QUEUE_URL"); queueURL != "" {
		reportCfgs = append(reportCfgs, config.ReportConfig{Type: "sqs", QueueURL: queueURL})
	}
	if bus := os.Getenv("REPORT_BUS_NAME"); bus != "" {
		reportCfgs = append(reportCfgs, config.ReportConfig{Type: "eventbridge", BusName: bus})
	}
	dispatcher, err := report.NewDispatcher(reportCfgs, report.WithLogger(logger), report.WithMetrics(rec))
	if err != nil {
		return nil, fmt.Errorf("creating report dispatcher: %w", err)
	}

	d := &Deps{
		Store:    st,
		Members:  member.NewService(st, member.WithLogger(logger)),
		Reports:  dispatcher,
		Fidelity: fidelity,
		Metrics:  rec,
		Logger:   logger,
	}

	if topicARN := os.Getenv("MEMBER_EVENTS_TOPIC_ARN"); topicARN != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		d.SNSClient = sns.NewFromConfig(awsCfg)
		d.EventsTopicARN = topicARN
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
