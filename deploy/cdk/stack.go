package main

import (
	"path/filepath"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigatewayv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigatewayv2integrations"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambdaeventsources"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssqs"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// Routes served by the api function. They match the route keys in
// internal/lambda.
var apiRoutes = []struct {
	path   string
	method awsapigatewayv2.HttpMethod
}{
	{"/members", awsapigatewayv2.HttpMethod_POST},
	{"/members/{memberID}", awsapigatewayv2.HttpMethod_GET},
	{"/members/batch", awsapigatewayv2.HttpMethod_POST},
	{"/members/batch/report", awsapigatewayv2.HttpMethod_POST},
}

func NewOutcomeStack(scope constructs.Construct, id string, cfg StackConfig) awscdk.Stack {
	stack := awscdk.NewStack(scope, &id, nil)

	// Member table
	table := awsdynamodb.NewTableV2(stack, jsii.String("Table"), &awsdynamodb.TablePropsV2{
		TableName: jsii.String(cfg.TableName),
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String("PK"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		SortKey: &awsdynamodb.Attribute{
			Name: jsii.String("SK"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		Billing:       awsdynamodb.Billing_OnDemand(nil),
		DynamoStream:  awsdynamodb.StreamViewType_NEW_IMAGE,
		RemovalPolicy: removalPolicy(cfg.DestroyOnDelete),
	})

	// Member events and batch reports
	topic := awssns.NewTopic(stack, jsii.String("MemberEventsTopic"), &awssns.TopicProps{
		TopicName: jsii.String(cfg.TableName + "-events"),
	})
	queue := awssqs.NewQueue(stack, jsii.String("ReportQueue"), &awssqs.QueueProps{
		QueueName:       jsii.String(cfg.TableName + "-reports"),
		RetentionPeriod: awscdk.Duration_Days(jsii.Number(4)),
	})

	timeout := awscdk.Duration_Seconds(jsii.Number(cfg.Timeout))
	memorySize := jsii.Number(cfg.MemorySize)
	logRetention := logRetentionDays(cfg.LogRetentionDays)

	makeFn := func(name string, env *map[string]*string) awslambda.Function {
		return awslambda.NewFunction(stack, jsii.String(name), &awslambda.FunctionProps{
			FunctionName: jsii.String(cfg.TableName + "-" + name),
			Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
			Handler:      jsii.String("bootstrap"),
			Code:         awslambda.Code_FromAsset(jsii.String(filepath.Join(cfg.LambdaDistDir, name)), nil),
			Architecture: awslambda.Architecture_ARM_64(),
			MemorySize:   memorySize,
			Timeout:      timeout,
			Environment:  env,
			LogRetention: logRetention,
		})
	}

	// Functions
	apiEnv := map[string]*string{
		"TABLE_NAME":       table.TableName(),
		"REPORT_QUEUE_URL": queue.QueueUrl(),
		"REPORT_FIDELITY":  jsii.String(cfg.ReportFidelity),
	}
	if cfg.EventBusName != "" {
		apiEnv["REPORT_BUS_NAME"] = jsii.String(cfg.EventBusName)
	}
	apiFn := makeFn("api", &apiEnv)
	streamFn := makeFn("stream", &map[string]*string{
		"TABLE_NAME":              table.TableName(),
		"MEMBER_EVENTS_TOPIC_ARN": topic.TopicArn(),
	})

	// Grants
	table.GrantReadWriteData(apiFn)
	queue.GrantSendMessages(apiFn)
	topic.GrantPublish(streamFn)
	if cfg.EventBusName != "" {
		bus := awsevents.EventBus_FromEventBusName(stack, jsii.String("ReportBus"), jsii.String(cfg.EventBusName))
		bus.GrantPutEventsTo(apiFn, nil)
	}

	// HTTP API
	api := awsapigatewayv2.NewHttpApi(stack, jsii.String("HttpApi"), &awsapigatewayv2.HttpApiProps{
		ApiName: jsii.String(cfg.TableName + "-api"),
	})
	integration := awsapigatewayv2integrations.NewHttpLambdaIntegration(jsii.String("ApiIntegration"), apiFn, nil)
	for _, r := range apiRoutes {
		api.AddRoutes(&awsapigatewayv2.AddRoutesOptions{
			Path:        jsii.String(r.path),
			Methods:     &[]awsapigatewayv2.HttpMethod{r.method},
			Integration: integration,
		})
	}

	// DynamoDB Stream -> stream
	streamFn.AddEventSource(awslambdaeventsources.NewDynamoEventSource(table, &awslambdaeventsources.DynamoEventSourceProps{
		StartingPosition: awslambda.StartingPosition_LATEST,
		BatchSize:        jsii.Number(10),
	}))

	// Outputs
	awscdk.NewCfnOutput(stack, jsii.String("TableName"), &awscdk.CfnOutputProps{
		Value: table.TableName(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("ApiUrl"), &awscdk.CfnOutputProps{
		Value: api.Url(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("TopicArn"), &awscdk.CfnOutputProps{
		Value: topic.TopicArn(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("ReportQueueUrl"), &awscdk.CfnOutputProps{
		Value: queue.QueueUrl(),
	})

	return stack
}

func removalPolicy(destroy bool) awscdk.RemovalPolicy {
	if destroy {
		return awscdk.RemovalPolicy_DESTROY
	}
	return awscdk.RemovalPolicy_RETAIN
}

func logRetentionDays(days float64) awslogs.RetentionDays {
	switch days {
	case 1:
		return awslogs.RetentionDays_ONE_DAY
	case 3:
		return awslogs.RetentionDays_THREE_DAYS
	case 7:
		return awslogs.RetentionDays_ONE_WEEK
	case 14:
		return awslogs.RetentionDays_TWO_WEEKS
	case 30:
		return awslogs.RetentionDays_ONE_MONTH
	case 90:
		return awslogs.RetentionDays_THREE_MONTHS
	case 365:
		return awslogs.RetentionDays_ONE_YEAR
	default:
		return awslogs.RetentionDays_ONE_WEEK
	}
}
