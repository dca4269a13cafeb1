package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/require"
)

// setupTestDirs creates temp directories with dummy bootstrap files so CDK asset
// resolution succeeds without a real build.
func setupTestDirs(t *testing.T) StackConfig {
	t.Helper()
	tmp := t.TempDir()

	lambdaDir := filepath.Join(tmp, "lambda")
	for _, h := range []string{"api", "stream"} {
		dir := filepath.Join(lambdaDir, h)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bootstrap"), []byte("#!/bin/sh\n"), 0o755))
	}

	cfg := DefaultConfig()
	cfg.LambdaDistDir = lambdaDir
	return cfg
}

func synthTemplate(t *testing.T, cfg StackConfig) assertions.Template {
	t.Helper()
	app := awscdk.NewApp(nil)
	stack := NewOutcomeStack(app, "TestStack", cfg)
	return assertions.Template_FromStack(stack, nil)
}

func TestDynamoDBTable(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	tmpl.HasResourceProperties(jsii.String("AWS::DynamoDB::GlobalTable"), map[string]interface{}{
		"TableName": jsii.String("outcome-members"),
		"KeySchema": &[]interface{}{
			map[string]interface{}{"AttributeName": jsii.String("PK"), "KeyType": jsii.String("HASH")},
			map[string]interface{}{"AttributeName": jsii.String("SK"), "KeyType": jsii.String("RANGE")},
		},
		"StreamSpecification": map[string]interface{}{
			"StreamViewType": jsii.String("NEW_IMAGE"),
		},
	})
}

func TestTopicAndQueue(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	tmpl.HasResourceProperties(jsii.String("AWS::SNS::Topic"), map[string]interface{}{
		"TopicName": jsii.String("outcome-members-events"),
	})
	tmpl.HasResourceProperties(jsii.String("AWS::SQS::Queue"), map[string]interface{}{
		"QueueName": jsii.String("outcome-members-reports"),
	})
}

func TestLambdaFunctionCount(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	// 2 handler functions + 1 CDK log-retention custom resource
	tmpl.ResourceCountIs(jsii.String("AWS::Lambda::Function"), jsii.Number(3))
}

func TestLambdaRuntimeAndArch(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	for _, name := range []string{"api", "stream"} {
		t.Run(name, func(t *testing.T) {
			tmpl.HasResourceProperties(jsii.String("AWS::Lambda::Function"), map[string]interface{}{
				"FunctionName": jsii.String("outcome-members-" + name),
				"Runtime":      jsii.String("provided.al2023"),
				"Architectures": &[]interface{}{
					jsii.String("arm64"),
				},
				"Handler": jsii.String("bootstrap"),
			})
		})
	}
}

func TestAPIEnvVars(t *testing.T) {
	cfg := setupTestDirs(t)
	cfg.ReportFidelity = "detailed"
	tmpl := synthTemplate(t, cfg)

	tmpl.HasResourceProperties(jsii.String("AWS::Lambda::Function"), map[string]interface{}{
		"FunctionName": jsii.String("outcome-members-api"),
		"Environment": assertions.Match_ObjectLike(&map[string]interface{}{
			"Variables": assertions.Match_ObjectLike(&map[string]interface{}{
				"REPORT_FIDELITY":  jsii.String("detailed"),
				"REPORT_QUEUE_URL": assertions.Match_ObjectLike(&map[string]interface{}{}),
			}),
		}),
	})
}

func TestHTTPRoutes(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	tmpl.ResourceCountIs(jsii.String("AWS::ApiGatewayV2::Route"), jsii.Number(float64(len(apiRoutes))))
	for _, key := range []string{
		"POST /members",
		"GET /members/{memberID}",
		"POST /members/batch",
		"POST /members/batch/report",
	} {
		tmpl.HasResourceProperties(jsii.String("AWS::ApiGatewayV2::Route"), map[string]interface{}{
			"RouteKey": jsii.String(key),
		})
	}
}

func TestEventSourceMapping(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	tmpl.HasResourceProperties(jsii.String("AWS::Lambda::EventSourceMapping"), map[string]interface{}{
		"StartingPosition": jsii.String("LATEST"),
		"BatchSize":        jsii.Number(10),
	})
}

func TestStackOutputs(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	tmpl.HasOutput(jsii.String("TableName"), map[string]interface{}{})
	tmpl.HasOutput(jsii.String("ApiUrl"), map[string]interface{}{})
	tmpl.HasOutput(jsii.String("TopicArn"), map[string]interface{}{})
	tmpl.HasOutput(jsii.String("ReportQueueUrl"), map[string]interface{}{})
}

func TestNoEventBridgeGrantWhenDisabled(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	tplBytes, _ := json.Marshal(tmpl.ToJSON())
	require.NotContains(t, string(tplBytes), "events:PutEvents")
	require.NotContains(t, string(tplBytes), "REPORT_BUS_NAME")
}

func TestEventBridgeGrantWhenEnabled(t *testing.T) {
	cfg := setupTestDirs(t)
	cfg.EventBusName = "members-bus"
	tmpl := synthTemplate(t, cfg)

	tplBytes, _ := json.Marshal(tmpl.ToJSON())
	require.Contains(t, string(tplBytes), "events:PutEvents")
	require.Contains(t, string(tplBytes), "members-bus")
}

func TestStreamPublishGrant(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	tmpl.HasResourceProperties(jsii.String("AWS::IAM::Policy"), map[string]interface{}{
		"PolicyDocument": assertions.Match_ObjectLike(&map[string]interface{}{
			"Statement": assertions.Match_ArrayWith(&[]interface{}{
				assertions.Match_ObjectLike(&map[string]interface{}{
					"Action": jsii.String("sns:Publish"),
				}),
			}),
		}),
	})
}
