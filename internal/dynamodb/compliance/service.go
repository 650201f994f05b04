package compliance

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/google/uuid"
	"philcali.me/compliance/internal/data"
	"philcali.me/compliance/internal/dynamodb/audits"
	"philcali.me/compliance/internal/dynamodb/client"
	"philcali.me/compliance/internal/exceptions"
)

func _getPrimaryKey(day string) string {
	return fmt.Sprintf("%s:Compliance", day)
}

func _getUserIndex(userId string) string {
	return fmt.Sprintf("%s:Compliance", userId)
}

func _getSortKey(timestamp time.Time, eventType string, eventId string) string {
	return fmt.Sprintf("%s#%s#%s", timestamp.Format(audits.SortableTimeFormat), eventType, eventId[:8])
}

// ComplianceEventDynamoDBService writes the append-only, day-partitioned
// record of privacy-relevant occurrences. Events are never updated; only
// the retention sweep removes them.
type ComplianceEventDynamoDBService struct {
	Store *client.Store[data.ComplianceEventDTO]
}

func NewComplianceEventService(config client.Config) data.ComplianceEventRepository {
	return &ComplianceEventDynamoDBService{
		Store: client.NewStore[data.ComplianceEventDTO]("Compliance", config),
	}
}

func (cs *ComplianceEventDynamoDBService) Create(input data.ComplianceEventInputDTO) (data.ComplianceEventDTO, error) {
	if input.EventType == nil || input.UserId == nil {
		return data.ComplianceEventDTO{}, exceptions.InvalidInput("A compliance event requires an event type and a user")
	}
	now := time.Now().UTC()
	eventId := uuid.NewString()
	event := data.ComplianceEventDTO{
		PK:         _getPrimaryKey(now.Format(audits.DayFormat)),
		SK:         _getSortKey(now, *input.EventType, eventId),
		UserIndex:  _getUserIndex(*input.UserId),
		EventId:    eventId,
		EventType:  *input.EventType,
		UserId:     *input.UserId,
		LegalBasis: data.LegalBasisLegitimateInterest,
		Details:    input.Details,
		Timestamp:  now,
		CreateTime: now,
	}
	if input.LegalBasis != nil {
		event.LegalBasis = *input.LegalBasis
	}
	err := cs.Store.PutItem(event)
	return event, err
}

func (cs *ComplianceEventDynamoDBService) ListByDay(day string, params data.QueryParams) (data.QueryResults[data.ComplianceEventDTO], error) {
	return cs.Store.Query(_getPrimaryKey(day), client.QueryOptions{Params: params})
}

func (cs *ComplianceEventDynamoDBService) ListByUser(userId string, params data.QueryParams) (data.QueryResults[data.ComplianceEventDTO], error) {
	return cs.Store.Query(_getUserIndex(userId), client.QueryOptions{
		IndexName: cs.Store.IndexName,
		Params:    params,
	})
}

// Cleanup removes one bounded batch of events older than the cutoff; the
// retention sweep is its only caller.
func (cs *ComplianceEventDynamoDBService) Cleanup(before time.Time, batchSize int) (int, error) {
	if batchSize <= 0 || batchSize > client.MaxBatchGetSize {
		batchSize = client.MaxBatchWriteSize
	}
	filter := expression.Name("PK").Contains(":Compliance").
		And(expression.Name("timestamp").LessThan(expression.Value(before.UTC().Unix())))
	page, err := cs.Store.Scan(&filter, data.QueryParams{Limit: batchSize})
	if err != nil {
		return 0, err
	}
	keys := make([]data.Key, 0, len(page.Items))
	for _, event := range page.Items {
		keys = append(keys, data.Key{PK: event.PK, SK: event.SK})
	}
	return cs.Store.BatchWrite(nil, keys)
}
