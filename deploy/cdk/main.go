package main

import (
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	cfg := DefaultConfig()

	if name := os.Getenv("OUTCOME_TABLE_NAME"); name != "" {
		cfg.TableName = name
	}
	if fidelity := os.Getenv("OUTCOME_REPORT_FIDELITY"); fidelity != "" {
		cfg.ReportFidelity = fidelity
	}
	cfg.EventBusName = os.Getenv("OUTCOME_EVENT_BUS_NAME")
	cfg.DestroyOnDelete = os.Getenv("OUTCOME_DESTROY_ON_DELETE") == "true"

	stackName := "OutcomeStack"
	if name := os.Getenv("OUTCOME_STACK_NAME"); name != "" {
		stackName = name
	}

	NewOutcomeStack(app, stackName, cfg)
	app.Synth(nil)
}
