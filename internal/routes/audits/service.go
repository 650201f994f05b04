package audits

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"philcali.me/compliance/internal/audit"
	"philcali.me/compliance/internal/data"
	"philcali.me/compliance/internal/dynamodb/audits"
	"philcali.me/compliance/internal/exceptions"
	"philcali.me/compliance/internal/routes"
	"philcali.me/compliance/internal/routes/util"
)

type AuditLogInput struct {
	Actor        *string                 `json:"actor"`
	ActorType    *string                 `json:"actorType"`
	Action       *string                 `json:"action"`
	ResourceType *string                 `json:"resourceType"`
	ResourceId   *string                 `json:"resourceId"`
	Result       *string                 `json:"result"`
	IpAddress    *string                 `json:"ipAddress"`
	UserAgent    *string                 `json:"userAgent"`
	Details      *map[string]interface{} `json:"details"`
	ErrorMessage *string                 `json:"errorMessage"`
}

type AuditLog struct {
	Id           string                  `json:"id"`
	Actor        string                  `json:"actor"`
	ActorType    string                  `json:"actorType,omitempty"`
	Action       string                  `json:"action"`
	ResourceType string                  `json:"resourceType,omitempty"`
	ResourceId   string                  `json:"resourceId,omitempty"`
	Result       string                  `json:"result"`
	Details      *map[string]interface{} `json:"details,omitempty"`
	Timestamp    time.Time               `json:"timestamp"`
}

func NewAuditLog(dto data.AuditLogDTO) AuditLog {
	return AuditLog{
		Id:           dto.SK,
		Actor:        dto.Actor,
		ActorType:    dto.ActorType,
		Action:       dto.Action,
		ResourceType: dto.ResourceType,
		ResourceId:   dto.ResourceId,
		Result:       dto.Result,
		Details:      dto.Details,
		Timestamp:    dto.Timestamp,
	}
}

type AuditService struct {
	audits   data.AuditLogRepository
	enhancer *audit.Enhancer
}

func NewRoute(repository data.AuditLogRepository, enhancer *audit.Enhancer) routes.Service {
	return &AuditService{
		audits:   repository,
		enhancer: enhancer,
	}
}

func (as *AuditService) GetRoutes() map[string]routes.Route {
	return map[string]routes.Route{
		"POST:/audit-logs":           as.LogAction,
		"GET:/audit-logs":            as.ListAuditLogs,
		"GET:/audit-logs/range":      as.ListByDateRange,
		"GET:/audit-logs/statistics": as.GetStatistics,
	}
}

func (as *AuditService) LogAction(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	var input AuditLogInput
	if err := util.DeserializeBody(event, &input); err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	if input.Actor == nil || input.Action == nil {
		return events.APIGatewayV2HTTPResponse{}, exceptions.InvalidInput("An audit entry requires an actor and an action")
	}
	action := audit.ActionContext{
		Actor:  *input.Actor,
		Action: *input.Action,
	}
	if input.ActorType != nil {
		action.ActorType = *input.ActorType
	}
	if input.ResourceType != nil {
		action.ResourceType = *input.ResourceType
	}
	if input.ResourceId != nil {
		action.ResourceId = *input.ResourceId
	}
	if input.IpAddress != nil {
		action.IpAddress = *input.IpAddress
	}
	if input.UserAgent != nil {
		action.UserAgent = *input.UserAgent
	}
	outcome := ""
	if input.Result != nil {
		outcome = *input.Result
	}
	result := as.enhancer.LogUserAction(action, outcome, input.Details, input.ErrorMessage)
	if result.AuditLogId == "" {
		return events.APIGatewayV2HTTPResponse{}, exceptions.InternalServer(result.Error)
	}
	return util.SerializeResponse(util.Identity[audit.Result], result, nil, 201)
}

func (as *AuditService) ListAuditLogs(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	params, err := util.QueryParams(event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	day := time.Now().UTC().Format(audits.DayFormat)
	if value, ok := event.QueryStringParameters["day"]; ok {
		day = value
	}
	var items data.QueryResults[data.AuditLogDTO]
	if actor, ok := event.QueryStringParameters["actor"]; ok {
		items, err = as.audits.ListByActor(actor, params)
	} else if action, ok := event.QueryStringParameters["action"]; ok {
		items, err = as.audits.ListByAction(day, action, params)
	} else if result, ok := event.QueryStringParameters["result"]; ok {
		items, err = as.audits.ListByResult(day, result, params)
	} else {
		items, err = as.audits.ListByDay(day, params)
	}
	return util.SerializeResponseOK(util.ConvertQueryResultsPartial(NewAuditLog), items, err)
}

func (as *AuditService) ListByDateRange(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	params, err := util.QueryParams(event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	start, err := time.Parse(time.RFC3339, event.QueryStringParameters["start"])
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, exceptions.InvalidInput("Start parameter was not a RFC3339 timestamp.")
	}
	end, err := time.Parse(time.RFC3339, event.QueryStringParameters["end"])
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, exceptions.InvalidInput("End parameter was not a RFC3339 timestamp.")
	}
	items, err := as.audits.ListByDateRange(start, end, params.Limit)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	logs := make([]AuditLog, len(items))
	for i, item := range items {
		logs[i] = NewAuditLog(item)
	}
	return util.SerializeResponseOK(util.Identity[[]AuditLog], logs, nil)
}

func (as *AuditService) GetStatistics(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	day := time.Now().UTC().Format(audits.DayFormat)
	if value, ok := event.QueryStringParameters["day"]; ok {
		day = value
	}
	statistics, err := as.audits.Statistics(day)
	return util.SerializeResponseOK(util.Identity[data.AuditStatistics], statistics, err)
}
