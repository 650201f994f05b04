package test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"philcali.me/compliance/internal/backoff"
)

const LOCAL_DDB_PORT = 8000

const GSI1 = "GS1"

// NewExecutor is a retry executor that never sleeps, for deterministic
// tests.
func NewExecutor(maxRetries int) *backoff.Executor {
	return &backoff.Executor{
		Config: backoff.Config{
			MaxRetries: maxRetries,
			BaseDelay:  time.Millisecond,
			MaxDelay:   time.Second,
			Jitter:     backoff.JitterNone,
		},
		Sleep: func(time.Duration) {},
	}
}

// FakeDynamoDB scripts the store operation surface per test. Unset
// operations succeed with empty output. Calls counts invocations by
// operation name.
type FakeDynamoDB struct {
	mutex              sync.Mutex
	Calls              map[string]int
	GetItemFunc        func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	PutItemFunc        func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	UpdateItemFunc     func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	DeleteItemFunc     func(*dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	QueryFunc          func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	ScanFunc           func(*dynamodb.ScanInput) (*dynamodb.ScanOutput, error)
	BatchGetItemFunc   func(*dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItemFunc func(*dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error)
}

func (f *FakeDynamoDB) count(operation string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.Calls == nil {
		f.Calls = make(map[string]int)
	}
	f.Calls[operation]++
}

func (f *FakeDynamoDB) CallCount(operation string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.Calls[operation]
}

func (f *FakeDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.count("GetItem")
	if f.GetItemFunc == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.GetItemFunc(params)
}

func (f *FakeDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.count("PutItem")
	if f.PutItemFunc == nil {
		return &dynamodb.PutItemOutput{}, nil
	}
	return f.PutItemFunc(params)
}

func (f *FakeDynamoDB) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.count("UpdateItem")
	if f.UpdateItemFunc == nil {
		return &dynamodb.UpdateItemOutput{}, nil
	}
	return f.UpdateItemFunc(params)
}

func (f *FakeDynamoDB) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.count("DeleteItem")
	if f.DeleteItemFunc == nil {
		return &dynamodb.DeleteItemOutput{}, nil
	}
	return f.DeleteItemFunc(params)
}

func (f *FakeDynamoDB) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.count("Query")
	if f.QueryFunc == nil {
		return &dynamodb.QueryOutput{}, nil
	}
	return f.QueryFunc(params)
}

func (f *FakeDynamoDB) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.count("Scan")
	if f.ScanFunc == nil {
		return &dynamodb.ScanOutput{}, nil
	}
	return f.ScanFunc(params)
}

func (f *FakeDynamoDB) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	f.count("BatchGetItem")
	if f.BatchGetItemFunc == nil {
		return &dynamodb.BatchGetItemOutput{}, nil
	}
	return f.BatchGetItemFunc(params)
}

func (f *FakeDynamoDB) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.count("BatchWriteItem")
	if f.BatchWriteItemFunc == nil {
		return &dynamodb.BatchWriteItemOutput{}, nil
	}
	return f.BatchWriteItemFunc(params)
}

func CreateTable(client *dynamodb.Client) (string, error) {
	keySchema := []types.KeySchemaElement{
		{
			AttributeName: aws.String("PK"),
			KeyType:       types.KeyTypeHash,
		},
		{
			AttributeName: aws.String("SK"),
			KeyType:       types.KeyTypeRange,
		},
	}
	attributes := []types.AttributeDefinition{
		{
			AttributeName: aws.String("PK"),
			AttributeType: types.ScalarAttributeTypeS,
		},
		{
			AttributeName: aws.String("SK"),
			AttributeType: types.ScalarAttributeTypeS,
		},
		{
			AttributeName: aws.String("GS1-PK"),
			AttributeType: types.ScalarAttributeTypeS,
		},
	}
	indexes := []types.GlobalSecondaryIndex{
		{
			IndexName: aws.String(GSI1),
			KeySchema: []types.KeySchemaElement{
				{
					AttributeName: aws.String("GS1-PK"),
					KeyType:       types.KeyTypeHash,
				},
				{
					AttributeName: aws.String("SK"),
					KeyType:       types.KeyTypeRange,
				},
			},
			Projection: &types.Projection{
				ProjectionType: types.ProjectionTypeAll,
			},
		},
	}
	output, err := client.CreateTable(context.TODO(), &dynamodb.CreateTableInput{
		TableName:              aws.String("ComplianceData"),
		KeySchema:              keySchema,
		BillingMode:            types.BillingModePayPerRequest,
		AttributeDefinitions:   attributes,
		GlobalSecondaryIndexes: indexes,
	})
	if err != nil {
		return "", err
	}
	waiter := dynamodb.NewTableExistsWaiter(client, func(tewo *dynamodb.TableExistsWaiterOptions) {
		tewo.LogWaitAttempts = true
	})
	_, err = waiter.WaitForOutput(context.TODO(), &dynamodb.DescribeTableInput{
		TableName: output.TableDescription.TableName,
	}, time.Second*5)
	return *output.TableDescription.TableName, err
}

type LocalDynamoServer struct {
	Process *os.Process
	Port    int
}

func (l *LocalDynamoServer) CreateLocalClient() (*dynamodb.Client, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRetryMaxAttempts(10),
		config.WithRegion("us-east-1"),
		config.WithEndpointResolver(aws.EndpointResolverFunc(
			func(service, region string) (aws.Endpoint, error) {
				return aws.Endpoint{URL: fmt.Sprintf("http://localhost:%d", l.Port)}, nil
			})),
		config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     "fake",
				SecretAccessKey: "fake",
				SessionToken:    "fake",
			}}),
	)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg), nil
}

func StartLocalServer(port int, t *testing.T) *LocalDynamoServer {
	workingDir := os.Getenv("PWD")
	cmd := exec.Command(
		"java", fmt.Sprintf("-Djava.library.path=%s/../../dynamodb/DynamoDBLocal_list", workingDir),
		"-jar", fmt.Sprintf("%s/../../dynamodb/DynamoDBLocal.jar", workingDir),
		"-port", strconv.Itoa(port),
		"-inMemory",
	)
	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start local DDB server: %s", err)
	}
	t.Cleanup(func() {
		if err := cmd.Process.Kill(); err != nil {
			t.Fatalf("Failed to terminate local DDB server: %s", err)
		}
	})
	return &LocalDynamoServer{Port: port, Process: cmd.Process}
}
