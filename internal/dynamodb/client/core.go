package client

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"philcali.me/compliance/internal/backoff"
	"philcali.me/compliance/internal/data"
	"philcali.me/compliance/internal/dynamodb/token"
	"philcali.me/compliance/internal/exceptions"
	"philcali.me/compliance/internal/metrics"
)

const (
	MaxBatchWriteSize = 25
	MaxBatchGetSize   = 100
)

// DynamoDB is the operation surface the core depends on. *dynamodb.Client
// satisfies it; tests script it.
type DynamoDB interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Config carries the shared collaborators every entity store needs.
// Constructed once per process and injected, never global.
type Config struct {
	DynamoDB       DynamoDB
	TableName      string
	IndexName      string
	TokenMarshaler token.TokenMarshaler
	Executor       *backoff.Executor
	Metrics        metrics.Recorder
}

func NewStore[T interface{}](name string, config Config) *Store[T] {
	return &Store[T]{
		DynamoDB:       config.DynamoDB,
		TableName:      config.TableName,
		IndexName:      config.IndexName,
		Name:           name,
		Executor:       config.Executor,
		Metrics:        config.Metrics,
		TokenMarshaler: config.TokenMarshaler,
	}
}

type QueryOptions struct {
	IndexName     string
	SortCondition *expression.KeyConditionBuilder
	Filter        *expression.ConditionBuilder
	Backward      bool
	Params        data.QueryParams
}

// Store wraps every table operation with retry, error classification and
// metrics for one item shape. It holds only configuration, so a single
// value serves concurrent callers.
type Store[T interface{}] struct {
	DynamoDB       DynamoDB
	TableName      string
	IndexName      string
	Name           string
	Executor       *backoff.Executor
	Metrics        metrics.Recorder
	TokenMarshaler token.TokenMarshaler
}

func _getKey(pks string, sks string) (map[string]types.AttributeValue, error) {
	pk, err := attributevalue.Marshal(pks)
	if err != nil {
		return nil, err
	}
	sk, err := attributevalue.Marshal(sks)
	if err != nil {
		return nil, err
	}
	return map[string]types.AttributeValue{"PK": pk, "SK": sk}, nil
}

func (rs *Store[T]) label(operation string) string {
	return rs.Name + "." + operation
}

func (rs *Store[T]) record(label string, attempts int, start time.Time, err error) {
	if rs.Metrics == nil {
		return
	}
	rs.Metrics.Observe(label, attempts, time.Since(start), err)
}

func (rs *Store[T]) fail(label string, err error) error {
	if err == nil {
		return nil
	}
	return exceptions.Classify(err, label)
}

// PutItem is an unconditional upsert by the item's own key.
func (rs *Store[T]) PutItem(item T) error {
	label := rs.label("PutItem")
	start := time.Now()
	marshaled, err := attributevalue.MarshalMap(item)
	if err != nil {
		return rs.fail(label, err)
	}
	result, err := rs.Executor.Execute(label, func() error {
		_, err := rs.DynamoDB.PutItem(context.TODO(), &dynamodb.PutItemInput{
			TableName: aws.String(rs.TableName),
			Item:      marshaled,
		})
		return err
	})
	rs.record(label, result.Attempts, start, err)
	return rs.fail(label, err)
}

// GetItem returns nil on absence; errors are reserved for failure.
func (rs *Store[T]) GetItem(pk string, sk string) (*T, error) {
	label := rs.label("GetItem")
	start := time.Now()
	key, err := _getKey(pk, sk)
	if err != nil {
		return nil, rs.fail(label, err)
	}
	output, result, err := backoff.Call(rs.Executor, label, func() (*dynamodb.GetItemOutput, error) {
		return rs.DynamoDB.GetItem(context.TODO(), &dynamodb.GetItemInput{
			TableName: aws.String(rs.TableName),
			Key:       key,
		})
	})
	rs.record(label, result.Attempts, start, err)
	if err != nil {
		return nil, rs.fail(label, err)
	}
	if output.Item == nil {
		return nil, nil
	}
	var item T
	if err := attributevalue.UnmarshalMap(output.Item, &item); err != nil {
		return nil, rs.fail(label, err)
	}
	return &item, nil
}

// UpdateItem applies only the attributes the caller set on the builder and
// requires the item to exist already.
func (rs *Store[T]) UpdateItem(pk string, sk string, update expression.UpdateBuilder) (T, error) {
	label := rs.label("UpdateItem")
	start := time.Now()
	var item T
	key, err := _getKey(pk, sk)
	if err != nil {
		return item, rs.fail(label, err)
	}
	condition := expression.Name("PK").AttributeExists().And(expression.Name("SK").AttributeExists())
	expr, err := expression.NewBuilder().WithCondition(condition).WithUpdate(update).Build()
	if err != nil {
		return item, rs.fail(label, err)
	}
	output, result, err := backoff.Call(rs.Executor, label, func() (*dynamodb.UpdateItemOutput, error) {
		return rs.DynamoDB.UpdateItem(context.TODO(), &dynamodb.UpdateItemInput{
			TableName:                 aws.String(rs.TableName),
			Key:                       key,
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ReturnValues:              types.ReturnValueAllNew,
		})
	})
	rs.record(label, result.Attempts, start, err)
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return item, exceptions.NotFound(strings.ToLower(rs.Name), sk)
		}
		return item, rs.fail(label, err)
	}
	err = attributevalue.UnmarshalMap(output.Attributes, &item)
	return item, rs.fail(label, err)
}

// DeleteItem is unconditional; deleting an absent key succeeds.
func (rs *Store[T]) DeleteItem(pk string, sk string) error {
	label := rs.label("DeleteItem")
	start := time.Now()
	key, err := _getKey(pk, sk)
	if err != nil {
		return rs.fail(label, err)
	}
	result, err := rs.Executor.Execute(label, func() error {
		_, err := rs.DynamoDB.DeleteItem(context.TODO(), &dynamodb.DeleteItemInput{
			TableName: aws.String(rs.TableName),
			Key:       key,
		})
		return err
	})
	rs.record(label, result.Attempts, start, err)
	return rs.fail(label, err)
}

// Query is bounded to one partition key, on the primary key or on GS1.
func (rs *Store[T]) Query(pk string, options QueryOptions) (data.QueryResults[T], error) {
	label := rs.label("Query")
	start := time.Now()
	keyName := "PK"
	if options.IndexName != "" {
		keyName = "GS1-PK"
	}
	keyEx := expression.Key(keyName).Equal(expression.Value(pk))
	if options.SortCondition != nil {
		keyEx = keyEx.And(*options.SortCondition)
	}
	builder := expression.NewBuilder().WithKeyCondition(keyEx)
	if options.Filter != nil {
		builder = builder.WithFilter(*options.Filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return data.QueryResults[T]{}, rs.fail(label, err)
	}
	startKey, err := rs.TokenMarshaler.Unmarshal(pk, options.Params.NextToken)
	if err != nil {
		return data.QueryResults[T]{}, rs.fail(label, err)
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(rs.TableName),
		Limit:                     options.Params.GetLimit(),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ExclusiveStartKey:         startKey,
		ScanIndexForward:          aws.Bool(!options.Backward),
	}
	if options.IndexName != "" {
		input.IndexName = aws.String(options.IndexName)
	}
	output, result, err := backoff.Call(rs.Executor, label, func() (*dynamodb.QueryOutput, error) {
		return rs.DynamoDB.Query(context.TODO(), input)
	})
	rs.record(label, result.Attempts, start, err)
	if err != nil {
		return data.QueryResults[T]{}, rs.fail(label, err)
	}
	return rs.results(label, pk, output.Items, output.LastEvaluatedKey)
}

// Scan filters across the whole table. It is the most expensive access
// path and crosses entity boundaries, so callers filter on their own key
// prefix and bound the result with a limit.
func (rs *Store[T]) Scan(filter *expression.ConditionBuilder, params data.QueryParams) (data.QueryResults[T], error) {
	label := rs.label("Scan")
	start := time.Now()
	input := &dynamodb.ScanInput{
		TableName: aws.String(rs.TableName),
		Limit:     params.GetLimit(),
	}
	if filter != nil {
		expr, err := expression.NewBuilder().WithFilter(*filter).Build()
		if err != nil {
			return data.QueryResults[T]{}, rs.fail(label, err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}
	startKey, err := rs.TokenMarshaler.Unmarshal(rs.Name, params.NextToken)
	if err != nil {
		return data.QueryResults[T]{}, rs.fail(label, err)
	}
	input.ExclusiveStartKey = startKey
	output, result, err := backoff.Call(rs.Executor, label, func() (*dynamodb.ScanOutput, error) {
		return rs.DynamoDB.Scan(context.TODO(), input)
	})
	rs.record(label, result.Attempts, start, err)
	if err != nil {
		return data.QueryResults[T]{}, rs.fail(label, err)
	}
	return rs.results(label, rs.Name, output.Items, output.LastEvaluatedKey)
}

func (rs *Store[T]) results(label string, scope string, raw []map[string]types.AttributeValue, lastKey map[string]types.AttributeValue) (data.QueryResults[T], error) {
	var items []T
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return data.QueryResults[T]{}, rs.fail(label, err)
	}
	nextToken, err := rs.TokenMarshaler.Marshal(scope, lastKey)
	if err != nil {
		return data.QueryResults[T]{}, rs.fail(label, err)
	}
	return data.QueryResults[T]{
		Items:     items,
		Count:     len(items),
		NextToken: nextToken,
	}, nil
}

// BatchGet reads keys in store-imposed chunks, re-queueing unprocessed
// keys until the batch drains. A round that makes no progress backs off
// before the next one; the retry budget bounds consecutive stalled rounds.
func (rs *Store[T]) BatchGet(keys []data.Key) ([]T, error) {
	label := rs.label("BatchGet")
	start := time.Now()
	pending := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		key, err := _getKey(k.PK, k.SK)
		if err != nil {
			return nil, rs.fail(label, err)
		}
		pending = append(pending, key)
	}
	items := make([]T, 0, len(keys))
	stalls := 0
	for len(pending) > 0 {
		size := len(pending)
		if size > MaxBatchGetSize {
			size = MaxBatchGetSize
		}
		chunk := pending[:size]
		pending = pending[size:]
		output, result, err := backoff.Call(rs.Executor, label, func() (*dynamodb.BatchGetItemOutput, error) {
			return rs.DynamoDB.BatchGetItem(context.TODO(), &dynamodb.BatchGetItemInput{
				RequestItems: map[string]types.KeysAndAttributes{
					rs.TableName: {Keys: chunk},
				},
			})
		})
		rs.record(label, result.Attempts, start, err)
		if err != nil {
			return nil, rs.fail(label, err)
		}
		var page []T
		if err := attributevalue.UnmarshalListOfMaps(output.Responses[rs.TableName], &page); err != nil {
			return nil, rs.fail(label, err)
		}
		items = append(items, page...)
		requeued := 0
		if unprocessed, ok := output.UnprocessedKeys[rs.TableName]; ok {
			requeued = len(unprocessed.Keys)
			pending = append(pending, unprocessed.Keys...)
		}
		if requeued < size {
			stalls = 0
			continue
		}
		if stalls >= rs.Executor.Config.MaxRetries {
			return items, rs.fail(label, exceptions.Throttled(label, errors.New("every key came back unprocessed")))
		}
		rs.Executor.Pause(stalls)
		stalls++
	}
	return items, nil
}

// BatchWrite upserts and deletes in chunks of at most 25 requests,
// sequentially, re-queueing whatever the store leaves unprocessed. A round
// that makes no progress backs off before the next one; the retry budget
// bounds consecutive stalled rounds. The count of applied requests is
// returned alongside any terminal error.
func (rs *Store[T]) BatchWrite(puts []T, deletes []data.Key) (int, error) {
	label := rs.label("BatchWrite")
	start := time.Now()
	pending := make([]types.WriteRequest, 0, len(puts)+len(deletes))
	for _, item := range puts {
		marshaled, err := attributevalue.MarshalMap(item)
		if err != nil {
			return 0, rs.fail(label, err)
		}
		pending = append(pending, types.WriteRequest{PutRequest: &types.PutRequest{Item: marshaled}})
	}
	for _, k := range deletes {
		key, err := _getKey(k.PK, k.SK)
		if err != nil {
			return 0, rs.fail(label, err)
		}
		pending = append(pending, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}})
	}
	applied := 0
	stalls := 0
	for len(pending) > 0 {
		size := len(pending)
		if size > MaxBatchWriteSize {
			size = MaxBatchWriteSize
		}
		chunk := pending[:size]
		pending = pending[size:]
		output, result, err := backoff.Call(rs.Executor, label, func() (*dynamodb.BatchWriteItemOutput, error) {
			return rs.DynamoDB.BatchWriteItem(context.TODO(), &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{
					rs.TableName: chunk,
				},
			})
		})
		rs.record(label, result.Attempts, start, err)
		if err != nil {
			return applied, rs.fail(label, err)
		}
		retried := 0
		if unprocessed, ok := output.UnprocessedItems[rs.TableName]; ok {
			retried = len(unprocessed)
			pending = append(pending, unprocessed...)
		}
		applied += size - retried
		if retried < size {
			stalls = 0
			continue
		}
		if stalls >= rs.Executor.Config.MaxRetries {
			return applied, rs.fail(label, exceptions.Throttled(label, errors.New("every request came back unprocessed")))
		}
		rs.Executor.Pause(stalls)
		stalls++
	}
	return applied, nil
}
