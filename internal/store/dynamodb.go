package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dwsmith1983/outcome/internal/config"
)

var _ Store = (*DynamoStore)(nil)

// DDBAPI is the subset of the DynamoDB client used by DynamoStore.
type DDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// DynamoStore keeps members in a single DynamoDB table. Each member has a profile
// item and an email item, written in one transaction so the email stays unique.
type DynamoStore struct {
	client      DDBAPI
	tableName   string
	logger      *slog.Logger
	createTable bool
}

// NewDynamo creates a DynamoStore from configuration, loading AWS credentials the
// default way. A custom endpoint selects DynamoDB Local with static credentials.
func NewDynamo(ctx context.Context, cfg *config.DynamoDBConfig) (*DynamoStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	var clientOpts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	s := NewDynamoWithClient(dynamodb.NewFromConfig(awsCfg, clientOpts...), cfg.TableName)
	s.createTable = cfg.CreateTable
	return s, nil
}

// NewDynamoWithClient creates a DynamoStore on an existing client.
func NewDynamoWithClient(client DDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName, logger: slog.Default()}
}

// SetLogger overrides the default logger.
func (s *DynamoStore) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Start optionally creates the table, then pings it.
func (s *DynamoStore) Start(ctx context.Context) error {
	if s.createTable {
		if err := s.ensureTable(ctx); err != nil {
			return err
		}
	}
	return s.Ping(ctx)
}

// Ping checks connectivity by describing the table.
func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &s.tableName})
	if err != nil {
		return fmt.Errorf("dynamodb ping failed: %w", err)
	}
	return nil
}

func (s *DynamoStore) ensureTable(ctx context.Context) error {
	_, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &s.tableName,
		KeySchema: []ddbtypes.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: ddbtypes.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: ddbtypes.KeyTypeRange},
		},
		AttributeDefinitions: []ddbtypes.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: ddbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: ddbtypes.ScalarAttributeTypeS},
		},
		BillingMode: ddbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		var riue *ddbtypes.ResourceInUseException
		if errors.As(err, &riue) {
			return nil // table already exists
		}
		return fmt.Errorf("creating table: %w", err)
	}
	s.logger.Info("created member table", "table", s.tableName)
	return nil
}

// Create implements Store.
func (s *DynamoStore) Create(ctx context.Context, m Member) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshaling member: %w", err)
	}
	item["PK"] = &ddbtypes.AttributeValueMemberS{Value: memberPK(m.ID)}
	item["SK"] = &ddbtypes.AttributeValueMemberS{Value: skProfile}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []ddbtypes.TransactWriteItem{
			{Put: &ddbtypes.Put{
				TableName:           &s.tableName,
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
			{Put: &ddbtypes.Put{
				TableName: &s.tableName,
				Item: map[string]ddbtypes.AttributeValue{
					"PK":       &ddbtypes.AttributeValueMemberS{Value: emailPK(m.Email)},
					"SK":       &ddbtypes.AttributeValueMemberS{Value: skEmail},
					"memberId": &ddbtypes.AttributeValueMemberS{Value: m.ID},
				},
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return fmt.Errorf("member %s (%s): %w", m.ID, m.Email, ErrConflict)
		}
		return fmt.Errorf("creating member %s: %w", m.ID, err)
	}
	return nil
}

// Get implements Store.
func (s *DynamoStore) Get(ctx context.Context, id string) (Member, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: memberPK(id)},
			"SK": &ddbtypes.AttributeValueMemberS{Value: skProfile},
		},
	})
	if err != nil {
		return Member{}, fmt.Errorf("getting member %s: %w", id, err)
	}
	if out.Item == nil {
		return Member{}, fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	var m Member
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return Member{}, fmt.Errorf("unmarshaling member %s: %w", id, err)
	}
	return m, nil
}

// isConditionFailure reports whether a write failed on its condition expression,
// either directly or as a reason of a cancelled transaction.
func isConditionFailure(err error) bool {
	var ccfe *ddbtypes.ConditionalCheckFailedException
	if errors.As(err, &ccfe) {
		return true
	}
	var tce *ddbtypes.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	for _, r := range tce.CancellationReasons {
		if aws.ToString(r.Code) == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}
