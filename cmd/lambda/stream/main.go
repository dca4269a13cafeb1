// stream Lambda receives DynamoDB Stream events from the member table and
// publishes member events to SNS.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	intlambda "github.com/dwsmith1983/outcome/internal/lambda"
)

var (
	deps     *intlambda.Deps
	depsOnce sync.Once
	depsErr  error
)

func getDeps() (*intlambda.Deps, error) {
	depsOnce.Do(func() {
		deps, depsErr = intlambda.Init(context.Background())
	})
	return deps, depsErr
}

func handler(ctx context.Context, event intlambda.StreamEvent) error {
	d, err := getDeps()
	if err != nil {
		return err
	}
	if d.SNSClient == nil {
		return fmt.Errorf("MEMBER_EVENTS_TOPIC_ARN environment variable required")
	}
	return intlambda.HandleStream(ctx, d, event)
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	awslambda.Start(handler)
}
