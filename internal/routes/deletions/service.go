package deletions

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"philcali.me/compliance/internal/data"
	"philcali.me/compliance/internal/exceptions"
	"philcali.me/compliance/internal/lifecycle"
	"philcali.me/compliance/internal/notifications"
	"philcali.me/compliance/internal/routes"
	"philcali.me/compliance/internal/routes/util"
)

type DeletionRequestInput struct {
	RequestedBy *string   `json:"requestedBy"`
	Reason      *string   `json:"reason"`
	DataTypes   *[]string `json:"dataTypes"`
}

type StatusInput struct {
	Status        *string `json:"status"`
	FailureReason *string `json:"failureReason"`
}

type DeletionRequest struct {
	RequestId     string     `json:"requestId"`
	UserId        string     `json:"userId"`
	RequestedBy   string     `json:"requestedBy,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	DataTypes     []string   `json:"dataTypes"`
	Status        string     `json:"status"`
	RequestedAt   time.Time  `json:"requestedAt"`
	ProcessedAt   *time.Time `json:"processedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	FailureReason *string    `json:"failureReason,omitempty"`
}

func NewDeletionRequest(dto data.DeletionRequestDTO) DeletionRequest {
	return DeletionRequest{
		RequestId:     dto.RequestId,
		UserId:        dto.UserId,
		RequestedBy:   dto.RequestedBy,
		Reason:        dto.Reason,
		DataTypes:     dto.DataTypes,
		Status:        dto.Status,
		RequestedAt:   dto.RequestedAt,
		ProcessedAt:   dto.ProcessedAt,
		CompletedAt:   dto.CompletedAt,
		FailureReason: dto.FailureReason,
	}
}

type DeletionService struct {
	manager  *lifecycle.Manager
	notifier notifications.NotificationService
	logger   *slog.Logger
}

func NewRoute(manager *lifecycle.Manager, notifier notifications.NotificationService, logger *slog.Logger) routes.Service {
	return &DeletionService{
		manager:  manager,
		notifier: notifier,
		logger:   logger,
	}
}

func (ds *DeletionService) GetRoutes() map[string]routes.Route {
	return map[string]routes.Route{
		"POST:/users/:userId/deletion-requests":                  ds.CreateDeletionRequest,
		"GET:/users/:userId/deletion-requests/:requestId":        ds.GetDeletionRequest,
		"PUT:/users/:userId/deletion-requests/:requestId/status": ds.UpdateStatus,
		"GET:/deletion-requests":                                 ds.ListByStatus,
	}
}

func (ds *DeletionService) CreateDeletionRequest(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	userId, err := util.PathParam(ctx, "userId")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	var input DeletionRequestInput
	if err := util.DeserializeBody(event, &input); err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	request, err := ds.manager.CreateDeletionRequest(userId, data.DeletionRequestInputDTO{
		RequestedBy: input.RequestedBy,
		Reason:      input.Reason,
		DataTypes:   input.DataTypes,
	})
	if err == nil && ds.notifier != nil {
		output := ds.notifier.PublishDual(notifications.PublishInput{
			Subject:   "Deletion request received",
			EventType: data.EventDataDeletion,
			Detail: map[string]interface{}{
				"requestId": request.RequestId,
				"userId":    request.UserId,
				"dataTypes": request.DataTypes,
			},
		})
		if len(output.Errors) > 0 {
			ds.logger.Warn("deletion request notification incomplete",
				"requestId", request.RequestId,
				"delivered", output.Delivered,
				"errors", output.Errors)
		}
	}
	return util.SerializeResponse(NewDeletionRequest, request, err, 201)
}

func (ds *DeletionService) GetDeletionRequest(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	userId, err := util.PathParam(ctx, "userId")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	requestId, err := util.PathParam(ctx, "requestId")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	request, err := ds.manager.GetDeletionRequest(userId, requestId)
	if err == nil && request == nil {
		err = exceptions.NotFound("deletion request", requestId)
	}
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	return util.SerializeResponseOK(NewDeletionRequest, *request, nil)
}

func (ds *DeletionService) UpdateStatus(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	userId, err := util.PathParam(ctx, "userId")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	requestId, err := util.PathParam(ctx, "requestId")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	var input StatusInput
	if err := util.DeserializeBody(event, &input); err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	if input.Status == nil {
		return events.APIGatewayV2HTTPResponse{}, exceptions.InvalidInput("A status transition requires a status")
	}
	request, err := ds.manager.UpdateDeletionRequestStatus(userId, requestId, *input.Status, input.FailureReason)
	return util.SerializeResponseOK(NewDeletionRequest, request, err)
}

func (ds *DeletionService) ListByStatus(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	params, err := util.QueryParams(event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	status := data.DeletionStatusPending
	if value, ok := event.QueryStringParameters["status"]; ok {
		status = value
	}
	items, err := ds.manager.Deletions.ListByStatus(status, params)
	return util.SerializeResponseOK(util.ConvertQueryResultsPartial(NewDeletionRequest), items, err)
}
