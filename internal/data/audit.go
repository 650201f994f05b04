package data

import "time"

const (
	AuditResultSuccess = "success"
	AuditResultFailure = "failure"
)

type AuditLogDTO struct {
	PK           string                  `dynamodbav:"PK"`
	SK           string                  `dynamodbav:"SK"`
	ActorIndex   string                  `dynamodbav:"GS1-PK"`
	Actor        string                  `dynamodbav:"actor"`
	ActorType    string                  `dynamodbav:"actorType"`
	Action       string                  `dynamodbav:"action"`
	ResourceType string                  `dynamodbav:"resourceType"`
	ResourceId   string                  `dynamodbav:"resourceId"`
	Result       string                  `dynamodbav:"result"`
	IpAddress    string                  `dynamodbav:"ipAddress"`
	UserAgent    string                  `dynamodbav:"userAgent"`
	Details      *map[string]interface{} `dynamodbav:"details"`
	// Stored as epoch seconds so retention filters compare numerically.
	Timestamp  time.Time `dynamodbav:"timestamp,unixtime"`
	CreateTime time.Time `dynamodbav:"createTime"`
}

type AuditLogInputDTO struct {
	Actor        *string                 `dynamodbav:"actor"`
	ActorType    *string                 `dynamodbav:"actorType"`
	Action       *string                 `dynamodbav:"action"`
	ResourceType *string                 `dynamodbav:"resourceType"`
	ResourceId   *string                 `dynamodbav:"resourceId"`
	Result       *string                 `dynamodbav:"result"`
	IpAddress    *string                 `dynamodbav:"ipAddress"`
	UserAgent    *string                 `dynamodbav:"userAgent"`
	Details      *map[string]interface{} `dynamodbav:"details"`
}

// AuditStatistics aggregates one day partition of the trail.
type AuditStatistics struct {
	Day      string         `json:"day"`
	Total    int            `json:"total"`
	ByAction map[string]int `json:"byAction"`
	ByResult map[string]int `json:"byResult"`
}

type AuditLogRepository interface {
	Create(input AuditLogInputDTO) (AuditLogDTO, error)
	ListByDay(day string, params QueryParams) (QueryResults[AuditLogDTO], error)
	ListByDateRange(start time.Time, end time.Time, limit int) ([]AuditLogDTO, error)
	ListByActor(actor string, params QueryParams) (QueryResults[AuditLogDTO], error)
	ListByAction(day string, action string, params QueryParams) (QueryResults[AuditLogDTO], error)
	ListByResult(day string, result string, params QueryParams) (QueryResults[AuditLogDTO], error)
	Statistics(day string) (AuditStatistics, error)
	Cleanup(before time.Time, batchSize int) (int, error)
	PurgeActor(actor string, limit int) (int, error)
}
