package audits

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/google/uuid"
	"philcali.me/compliance/internal/data"
	"philcali.me/compliance/internal/dynamodb/client"
	"philcali.me/compliance/internal/exceptions"
)

const DayFormat = "2006-01-02"

// SortableTimeFormat is fixed-width, unlike RFC3339Nano which trims
// trailing fractional zeros, so encoded timestamps compare
// lexicographically in chronological order.
const SortableTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func _getPrimaryKey(day string) string {
	return fmt.Sprintf("%s:Audit", day)
}

func _getActorIndex(actor string) string {
	return fmt.Sprintf("%s:Audit", actor)
}

// The sort key starts with the timestamp so entries order chronologically
// within a day. A random suffix keeps two entries by the same actor for the
// same action in the same instant from overwriting each other.
func _getSortKey(timestamp time.Time, actor string, action string) string {
	return fmt.Sprintf("%s#%s#%s#%s",
		timestamp.Format(SortableTimeFormat), actor, action, uuid.NewString()[:8])
}

type AuditLogDynamoDBService struct {
	Store *client.Store[data.AuditLogDTO]
}

func NewAuditLogService(config client.Config) data.AuditLogRepository {
	return &AuditLogDynamoDBService{
		Store: client.NewStore[data.AuditLogDTO]("Audit", config),
	}
}

func (as *AuditLogDynamoDBService) Create(input data.AuditLogInputDTO) (data.AuditLogDTO, error) {
	if input.Actor == nil || input.Action == nil {
		return data.AuditLogDTO{}, exceptions.InvalidInput("An audit entry requires an actor and an action")
	}
	now := time.Now().UTC()
	entry := data.AuditLogDTO{
		PK:         _getPrimaryKey(now.Format(DayFormat)),
		SK:         _getSortKey(now, *input.Actor, *input.Action),
		ActorIndex: _getActorIndex(*input.Actor),
		Actor:      *input.Actor,
		Action:     *input.Action,
		Result:     data.AuditResultSuccess,
		Details:    input.Details,
		Timestamp:  now,
		CreateTime: now,
	}
	if input.ActorType != nil {
		entry.ActorType = *input.ActorType
	}
	if input.ResourceType != nil {
		entry.ResourceType = *input.ResourceType
	}
	if input.ResourceId != nil {
		entry.ResourceId = *input.ResourceId
	}
	if input.Result != nil {
		entry.Result = *input.Result
	}
	if input.IpAddress != nil {
		entry.IpAddress = *input.IpAddress
	}
	if input.UserAgent != nil {
		entry.UserAgent = *input.UserAgent
	}
	err := as.Store.PutItem(entry)
	return entry, err
}

func (as *AuditLogDynamoDBService) ListByDay(day string, params data.QueryParams) (data.QueryResults[data.AuditLogDTO], error) {
	return as.Store.Query(_getPrimaryKey(day), client.QueryOptions{Params: params})
}

// ListByDateRange walks the day partitions between start and end,
// inclusive, oldest first, until the limit fills.
func (as *AuditLogDynamoDBService) ListByDateRange(start time.Time, end time.Time, limit int) ([]data.AuditLogDTO, error) {
	if end.Before(start) {
		return nil, exceptions.InvalidInput("The range end precedes its start")
	}
	if limit <= 0 {
		limit = 100
	}
	entries := make([]data.AuditLogDTO, 0, limit)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		params := data.QueryParams{Limit: limit - len(entries)}
		for {
			page, err := as.ListByDay(day.Format(DayFormat), params)
			if err != nil {
				return entries, err
			}
			entries = append(entries, page.Items...)
			if len(entries) >= limit || len(page.NextToken) == 0 {
				break
			}
			params = data.QueryParams{Limit: limit - len(entries), NextToken: page.NextToken}
		}
		if len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

func (as *AuditLogDynamoDBService) ListByActor(actor string, params data.QueryParams) (data.QueryResults[data.AuditLogDTO], error) {
	return as.Store.Query(_getActorIndex(actor), client.QueryOptions{
		IndexName: as.Store.IndexName,
		Params:    params,
	})
}

func (as *AuditLogDynamoDBService) ListByAction(day string, action string, params data.QueryParams) (data.QueryResults[data.AuditLogDTO], error) {
	filter := expression.Name("action").Equal(expression.Value(action))
	return as.Store.Query(_getPrimaryKey(day), client.QueryOptions{
		Filter: &filter,
		Params: params,
	})
}

func (as *AuditLogDynamoDBService) ListByResult(day string, result string, params data.QueryParams) (data.QueryResults[data.AuditLogDTO], error) {
	filter := expression.Name("result").Equal(expression.Value(result))
	return as.Store.Query(_getPrimaryKey(day), client.QueryOptions{
		Filter: &filter,
		Params: params,
	})
}

// Statistics folds one whole day partition into counts by action and by
// outcome.
func (as *AuditLogDynamoDBService) Statistics(day string) (data.AuditStatistics, error) {
	stats := data.AuditStatistics{
		Day:      day,
		ByAction: make(map[string]int),
		ByResult: make(map[string]int),
	}
	params := data.QueryParams{Limit: 100}
	for {
		page, err := as.ListByDay(day, params)
		if err != nil {
			return stats, err
		}
		for _, entry := range page.Items {
			stats.Total++
			stats.ByAction[entry.Action]++
			stats.ByResult[entry.Result]++
		}
		if len(page.NextToken) == 0 {
			return stats, nil
		}
		params = data.QueryParams{Limit: 100, NextToken: page.NextToken}
	}
}

// Cleanup removes entries older than the cutoff, one bounded batch per
// call. No index covers "all partitions older than", so this is a bounded
// filter scan by design.
func (as *AuditLogDynamoDBService) Cleanup(before time.Time, batchSize int) (int, error) {
	if batchSize <= 0 || batchSize > client.MaxBatchGetSize {
		batchSize = client.MaxBatchWriteSize
	}
	filter := expression.Name("PK").Contains(":Audit").
		And(expression.Name("timestamp").LessThan(expression.Value(before.UTC().Unix())))
	page, err := as.Store.Scan(&filter, data.QueryParams{Limit: batchSize})
	if err != nil {
		return 0, err
	}
	keys := make([]data.Key, 0, len(page.Items))
	for _, entry := range page.Items {
		keys = append(keys, data.Key{PK: entry.PK, SK: entry.SK})
	}
	return as.Store.BatchWrite(nil, keys)
}

// PurgeActor removes a bounded batch of one actor's entries, newest last.
func (as *AuditLogDynamoDBService) PurgeActor(actor string, limit int) (int, error) {
	page, err := as.ListByActor(actor, data.QueryParams{Limit: limit})
	if err != nil {
		return 0, err
	}
	keys := make([]data.Key, 0, len(page.Items))
	for _, entry := range page.Items {
		keys = append(keys, data.Key{PK: entry.PK, SK: entry.SK})
	}
	return as.Store.BatchWrite(nil, keys)
}
