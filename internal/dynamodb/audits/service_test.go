package audits

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"philcali.me/compliance/internal/data"
	"philcali.me/compliance/internal/dynamodb/client"
	"philcali.me/compliance/internal/dynamodb/token"
	"philcali.me/compliance/internal/exceptions"
	"philcali.me/compliance/internal/test"

	"github.com/aws/aws-sdk-go-v2/aws"
)

func newService(fake *test.FakeDynamoDB) data.AuditLogRepository {
	return NewAuditLogService(client.Config{
		DynamoDB:       fake,
		TableName:      "ComplianceData",
		IndexName:      test.GSI1,
		TokenMarshaler: token.NewGCM(),
		Executor:       test.NewExecutor(0),
	})
}

func marshalEntry(t *testing.T, entry data.AuditLogDTO) map[string]types.AttributeValue {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		t.Fatalf("Failed to marshal entry: %s", err)
	}
	return item
}

func TestCreate(t *testing.T) {
	t.Run("KeysPartitionByDay", func(t *testing.T) {
		var written map[string]types.AttributeValue
		fake := &test.FakeDynamoDB{
			PutItemFunc: func(input *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
				written = input.Item
				return &dynamodb.PutItemOutput{}, nil
			},
		}
		entry, err := newService(fake).Create(data.AuditLogInputDTO{
			Actor:  aws.String("user-1"),
			Action: aws.String("login"),
		})
		if err != nil {
			t.Fatalf("Failed to create an entry: %s", err)
		}
		day := time.Now().UTC().Format(DayFormat)
		if entry.PK != day+":Audit" {
			t.Fatalf("Expected a day partition, got %s", entry.PK)
		}
		if !strings.Contains(entry.SK, "#user-1#login#") {
			t.Fatalf("Expected the sort key to carry actor and action, got %s", entry.SK)
		}
		if entry.ActorIndex != "user-1:Audit" {
			t.Fatalf("Expected the actor index key, got %s", entry.ActorIndex)
		}
		if entry.Result != data.AuditResultSuccess {
			t.Fatalf("Expected the default result, got %s", entry.Result)
		}
		if written == nil {
			t.Fatalf("Expected the entry to reach the table")
		}
	})

	t.Run("SortKeysNeverCollide", func(t *testing.T) {
		service := newService(&test.FakeDynamoDB{})
		input := data.AuditLogInputDTO{
			Actor:  aws.String("user-1"),
			Action: aws.String("login"),
		}
		first, err := service.Create(input)
		if err != nil {
			t.Fatalf("Failed to create an entry: %s", err)
		}
		second, err := service.Create(input)
		if err != nil {
			t.Fatalf("Failed to create an entry: %s", err)
		}
		if first.SK == second.SK {
			t.Fatalf("Two identical actions produced the same sort key: %s", first.SK)
		}
	})

	t.Run("SortKeysOrderChronologically", func(t *testing.T) {
		base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		instants := []time.Time{
			base,
			base.Add(100 * time.Millisecond),
			base.Add(120 * time.Millisecond),
			base.Add(time.Second),
		}
		previous := _getSortKey(instants[0], "user-1", "login")
		for _, instant := range instants[1:] {
			next := _getSortKey(instant, "user-1", "login")
			if next <= previous {
				t.Fatalf("Entry at %s sorts before its predecessor: %s <= %s", instant, next, previous)
			}
			previous = next
		}
	})

	t.Run("RequiresActorAndAction", func(t *testing.T) {
		service := newService(&test.FakeDynamoDB{})
		var ie *exceptions.InvalidInputError
		if _, err := service.Create(data.AuditLogInputDTO{Actor: aws.String("user-1")}); !errors.As(err, &ie) {
			t.Fatalf("Expected an invalid input error, got %v", err)
		}
	})
}

func TestListByActor(t *testing.T) {
	var captured *dynamodb.QueryInput
	fake := &test.FakeDynamoDB{
		QueryFunc: func(input *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			captured = input
			return &dynamodb.QueryOutput{}, nil
		},
	}
	if _, err := newService(fake).ListByActor("user-1", data.QueryParams{}); err != nil {
		t.Fatalf("Failed to list: %s", err)
	}
	if captured.IndexName == nil || *captured.IndexName != test.GSI1 {
		t.Fatalf("Expected the query to use the actor index, got %v", captured.IndexName)
	}
	found := false
	for _, value := range captured.ExpressionAttributeValues {
		if sv, ok := value.(*types.AttributeValueMemberS); ok && sv.Value == "user-1:Audit" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Expected the actor index key in the condition, got %v", captured.ExpressionAttributeValues)
	}
}

func TestStatistics(t *testing.T) {
	day := "2026-08-01"
	pageOne := []data.AuditLogDTO{
		{PK: day + ":Audit", SK: "a", Actor: "user-1", Action: "login", Result: data.AuditResultSuccess},
		{PK: day + ":Audit", SK: "b", Actor: "user-1", Action: "login", Result: data.AuditResultFailure},
	}
	pageTwo := []data.AuditLogDTO{
		{PK: day + ":Audit", SK: "c", Actor: "user-2", Action: "data_export", Result: data.AuditResultSuccess},
	}
	fake := &test.FakeDynamoDB{}
	fake.QueryFunc = func(input *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		output := &dynamodb.QueryOutput{}
		if input.ExclusiveStartKey == nil {
			for _, entry := range pageOne {
				output.Items = append(output.Items, marshalEntry(t, entry))
			}
			lastKey, _ := attributevalue.MarshalMap(map[string]string{"PK": day + ":Audit", "SK": "b"})
			output.LastEvaluatedKey = lastKey
		} else {
			for _, entry := range pageTwo {
				output.Items = append(output.Items, marshalEntry(t, entry))
			}
		}
		return output, nil
	}
	stats, err := newService(fake).Statistics(day)
	if err != nil {
		t.Fatalf("Failed to fold statistics: %s", err)
	}
	if stats.Total != 3 {
		t.Fatalf("Expected 3 entries across pages, got %d", stats.Total)
	}
	if stats.ByAction["login"] != 2 || stats.ByAction["data_export"] != 1 {
		t.Fatalf("Unexpected action counts: %v", stats.ByAction)
	}
	if stats.ByResult[data.AuditResultFailure] != 1 {
		t.Fatalf("Unexpected result counts: %v", stats.ByResult)
	}
}

func TestCleanup(t *testing.T) {
	cutoff := time.Now().UTC().AddDate(0, 0, -90)
	expired := []data.AuditLogDTO{
		{PK: "2026-01-01:Audit", SK: "a", Actor: "user-1", Action: "login"},
		{PK: "2026-01-02:Audit", SK: "b", Actor: "user-2", Action: "login"},
	}
	var deletes int
	fake := &test.FakeDynamoDB{}
	fake.ScanFunc = func(input *dynamodb.ScanInput) (*dynamodb.ScanOutput, error) {
		if input.FilterExpression == nil {
			t.Fatalf("Expected a bounded filter scan")
		}
		numeric := false
		for _, value := range input.ExpressionAttributeValues {
			if _, ok := value.(*types.AttributeValueMemberN); ok {
				numeric = true
			}
		}
		if !numeric {
			t.Fatalf("Expected an epoch cutoff, got %v", input.ExpressionAttributeValues)
		}
		output := &dynamodb.ScanOutput{}
		for _, entry := range expired {
			output.Items = append(output.Items, marshalEntry(t, entry))
		}
		return output, nil
	}
	fake.BatchWriteItemFunc = func(input *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
		for _, requests := range input.RequestItems {
			for _, request := range requests {
				if request.DeleteRequest != nil {
					deletes++
				}
			}
		}
		return &dynamodb.BatchWriteItemOutput{}, nil
	}
	deleted, err := newService(fake).Cleanup(cutoff, 25)
	if err != nil {
		t.Fatalf("Failed to clean up: %s", err)
	}
	if deleted != 2 || deletes != 2 {
		t.Fatalf("Expected 2 deletions, got %d applied and %d requested", deleted, deletes)
	}
}
