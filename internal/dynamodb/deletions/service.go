package deletions

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/google/uuid"
	"philcali.me/compliance/internal/data"
	"philcali.me/compliance/internal/dynamodb/client"
	"philcali.me/compliance/internal/exceptions"
)

func _getPrimaryKey(userId string) string {
	return fmt.Sprintf("%s:DeletionRequest", userId)
}

func _getStatusIndex(status string) string {
	return fmt.Sprintf("%s:DeletionRequest", status)
}

var _statuses = map[string]bool{
	data.DeletionStatusPending:    true,
	data.DeletionStatusProcessing: true,
	data.DeletionStatusCompleted:  true,
	data.DeletionStatusFailed:     true,
}

type DeletionRequestDynamoDBService struct {
	Store *client.Store[data.DeletionRequestDTO]
}

func NewDeletionRequestService(config client.Config) data.DeletionRequestRepository {
	return &DeletionRequestDynamoDBService{
		Store: client.NewStore[data.DeletionRequestDTO]("DeletionRequest", config),
	}
}

// Create always starts a request in the pending state.
func (ds *DeletionRequestDynamoDBService) Create(userId string, input data.DeletionRequestInputDTO) (data.DeletionRequestDTO, error) {
	if input.DataTypes == nil || len(*input.DataTypes) == 0 {
		return data.DeletionRequestDTO{}, exceptions.InvalidInput("A deletion request requires at least one data type")
	}
	gid, _ := uuid.NewUUID()
	now := time.Now()
	request := data.DeletionRequestDTO{
		PK:          _getPrimaryKey(userId),
		SK:          gid.String(),
		StatusIndex: _getStatusIndex(data.DeletionStatusPending),
		RequestId:   gid.String(),
		UserId:      userId,
		DataTypes:   *input.DataTypes,
		Status:      data.DeletionStatusPending,
		RequestedAt: now,
		CreateTime:  now,
		UpdateTime:  now,
	}
	if input.RequestedBy != nil {
		request.RequestedBy = *input.RequestedBy
	}
	if input.Reason != nil {
		request.Reason = *input.Reason
	}
	err := ds.Store.PutItem(request)
	return request, err
}

func (ds *DeletionRequestDynamoDBService) Get(userId string, requestId string) (*data.DeletionRequestDTO, error) {
	return ds.Store.GetItem(_getPrimaryKey(userId), requestId)
}

// UpdateStatus is the only transition function. It does not validate the
// prior state; the scheduled processor owns the calling order
// pending -> processing -> completed or failed.
func (ds *DeletionRequestDynamoDBService) UpdateStatus(userId string, requestId string, status string, failureReason *string) (data.DeletionRequestDTO, error) {
	if !_statuses[status] {
		return data.DeletionRequestDTO{}, exceptions.InvalidInput(fmt.Sprintf("Unknown deletion request status: %s", status))
	}
	now := time.Now()
	update := expression.Set(expression.Name("status"), expression.Value(status)).
		Set(expression.Name("GS1-PK"), expression.Value(_getStatusIndex(status))).
		Set(expression.Name("updateTime"), expression.Value(now))
	switch status {
	case data.DeletionStatusProcessing:
		update = update.Set(expression.Name("processedAt"), expression.Value(now))
	case data.DeletionStatusCompleted:
		update = update.Set(expression.Name("completedAt"), expression.Value(now)).
			Remove(expression.Name("failureReason"))
	case data.DeletionStatusFailed:
		if failureReason == nil {
			return data.DeletionRequestDTO{}, exceptions.InvalidInput("A failed deletion request requires a failure reason")
		}
		update = update.Set(expression.Name("failureReason"), expression.Value(*failureReason)).
			Remove(expression.Name("completedAt"))
	}
	return ds.Store.UpdateItem(_getPrimaryKey(userId), requestId, update)
}

func (ds *DeletionRequestDynamoDBService) ListByStatus(status string, params data.QueryParams) (data.QueryResults[data.DeletionRequestDTO], error) {
	return ds.Store.Query(_getStatusIndex(status), client.QueryOptions{
		IndexName: ds.Store.IndexName,
		Params:    params,
	})
}
