package data

import "time"

const (
	DeletionStatusPending    = "pending"
	DeletionStatusProcessing = "processing"
	DeletionStatusCompleted  = "completed"
	DeletionStatusFailed     = "failed"
)

type DeletionRequestDTO struct {
	PK            string     `dynamodbav:"PK"`
	SK            string     `dynamodbav:"SK"`
	StatusIndex   string     `dynamodbav:"GS1-PK"`
	RequestId     string     `dynamodbav:"requestId"`
	UserId        string     `dynamodbav:"userId"`
	RequestedBy   string     `dynamodbav:"requestedBy"`
	Reason        string     `dynamodbav:"reason"`
	DataTypes     []string   `dynamodbav:"dataTypes"`
	Status        string     `dynamodbav:"status"`
	RequestedAt   time.Time  `dynamodbav:"requestedAt"`
	ProcessedAt   *time.Time `dynamodbav:"processedAt"`
	CompletedAt   *time.Time `dynamodbav:"completedAt"`
	FailureReason *string    `dynamodbav:"failureReason"`
	CreateTime    time.Time  `dynamodbav:"createTime"`
	UpdateTime    time.Time  `dynamodbav:"updateTime"`
}

type DeletionRequestInputDTO struct {
	RequestedBy *string   `dynamodbav:"requestedBy"`
	Reason      *string   `dynamodbav:"reason"`
	DataTypes   *[]string `dynamodbav:"dataTypes"`
}

type DeletionRequestRepository interface {
	Create(userId string, input DeletionRequestInputDTO) (DeletionRequestDTO, error)
	Get(userId string, requestId string) (*DeletionRequestDTO, error)
	UpdateStatus(userId string, requestId string, status string, failureReason *string) (DeletionRequestDTO, error)
	ListByStatus(status string, params QueryParams) (QueryResults[DeletionRequestDTO], error)
}
