package consents

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"philcali.me/compliance/internal/data"
	"philcali.me/compliance/internal/exceptions"
	"philcali.me/compliance/internal/lifecycle"
	"philcali.me/compliance/internal/routes"
	"philcali.me/compliance/internal/routes/util"
)

type ConsentInput struct {
	Granted       *bool   `json:"granted"`
	PolicyVersion *string `json:"policyVersion"`
	IpAddress     *string `json:"ipAddress"`
	UserAgent     *string `json:"userAgent"`
}

func (ci *ConsentInput) ToData(category string) data.ConsentInputDTO {
	return data.ConsentInputDTO{
		Category:      &category,
		Granted:       ci.Granted,
		PolicyVersion: ci.PolicyVersion,
		IpAddress:     ci.IpAddress,
		UserAgent:     ci.UserAgent,
	}
}

type Consent struct {
	UserId        string     `json:"userId"`
	Category      string     `json:"category"`
	Granted       bool       `json:"granted"`
	GrantedAt     *time.Time `json:"grantedAt,omitempty"`
	RevokedAt     *time.Time `json:"revokedAt,omitempty"`
	PolicyVersion string     `json:"policyVersion,omitempty"`
	CreateTime    time.Time  `json:"createTime"`
	UpdateTime    time.Time  `json:"updateTime"`
}

func NewConsent(dto data.ConsentDTO) Consent {
	return Consent{
		UserId:        dto.UserId,
		Category:      dto.Category,
		Granted:       dto.Granted,
		GrantedAt:     dto.GrantedAt,
		RevokedAt:     dto.RevokedAt,
		PolicyVersion: dto.PolicyVersion,
		CreateTime:    dto.CreateTime,
		UpdateTime:    dto.UpdateTime,
	}
}

type ConsentService struct {
	manager *lifecycle.Manager
}

func NewRoute(manager *lifecycle.Manager) routes.Service {
	return &ConsentService{
		manager: manager,
	}
}

func (cs *ConsentService) GetRoutes() map[string]routes.Route {
	return map[string]routes.Route{
		"GET:/users/:userId/consents":            cs.ListConsents,
		"GET:/users/:userId/consents/:category":  cs.GetConsent,
		"POST:/users/:userId/consents/:category": cs.CreateConsent,
		"PUT:/users/:userId/consents/:category":  cs.UpdateConsent,
	}
}

func (cs *ConsentService) ListConsents(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	userId, err := util.PathParam(ctx, "userId")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	params, err := util.QueryParams(event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	items, err := cs.manager.ListConsents(userId, params)
	return util.SerializeResponseOK(util.ConvertQueryResultsPartial(NewConsent), items, err)
}

func (cs *ConsentService) GetConsent(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	userId, err := util.PathParam(ctx, "userId")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	category, err := util.PathParam(ctx, "category")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	consent, err := cs.manager.GetConsent(userId, category)
	if err == nil && consent == nil {
		err = exceptions.NotFound("consent", category)
	}
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	return util.SerializeResponseOK(NewConsent, *consent, nil)
}

func (cs *ConsentService) CreateConsent(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	return cs.upsert(event, ctx, cs.manager.CreateConsent, 201)
}

func (cs *ConsentService) UpdateConsent(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	return cs.upsert(event, ctx, cs.manager.UpdateConsent, 200)
}

func (cs *ConsentService) upsert(event events.APIGatewayV2HTTPRequest, ctx context.Context, apply func(string, data.ConsentInputDTO) (data.ConsentDTO, error), statusCode int) (events.APIGatewayV2HTTPResponse, error) {
	userId, err := util.PathParam(ctx, "userId")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	category, err := util.PathParam(ctx, "category")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	var input ConsentInput
	if err := util.DeserializeBody(event, &input); err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	record, err := apply(userId, input.ToData(category))
	return util.SerializeResponse(NewConsent, record, err, statusCode)
}
