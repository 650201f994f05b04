package retention

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

type RetentionPolicyInput struct {
	RetentionDays *int    `json:"retentionDays"`
	LegalBasis    *string `json:"legalBasis"`
	AutoDelete    *bool   `json:"autoDelete"`
	UpdatedBy     *string `json:"updatedBy"`
}

type RetentionPolicy struct {
	DataType      string    `json:"dataType"`
	RetentionDays int       `json:"retentionDays"`
	LegalBasis    string    `json:"legalBasis,omitempty"`
	AutoDelete    bool      `json:"autoDelete"`
	UpdatedBy     string    `json:"updatedBy,omitempty"`
	CreateTime    time.Time `json:"createTime"`
	UpdateTime    time.Time `json:"updateTime"`
}

func NewRetentionPolicy(dto data.RetentionPolicyDTO) RetentionPolicy {
	return RetentionPolicy{
		DataType:      dto.DataType,
		RetentionDays: dto.RetentionDays,
		LegalBasis:    dto.LegalBasis,
		AutoDelete:    dto.AutoDelete,
		UpdatedBy:     dto.UpdatedBy,
		CreateTime:    dto.CreateTime,
		UpdateTime:    dto.UpdateTime,
	}
}

type RetentionService struct {
	manager *lifecycle.Manager
}

func NewRoute(manager *lifecycle.Manager) routes.Service {
	return &RetentionService{
		manager: manager,
	}
}

func (rs *RetentionService) GetRoutes() map[string]routes.Route {
	return map[string]routes.Route{
		"GET:/retention-policies":              rs.ListPolicies,
		"GET:/retention-policies/:dataType":    rs.GetPolicy,
		"PUT:/retention-policies/:dataType":    rs.PutPolicy,
		"DELETE:/retention-policies/:dataType": rs.DeletePolicy,
		"POST:/retention-policies/apply":       rs.ApplyPolicies,
	}
}

func (rs *RetentionService) ListPolicies(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	params, err := util.QueryParams(event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	items, err := rs.manager.ListRetentionPolicies(params)
	return util.SerializeResponseOK(util.ConvertQueryResultsPartial(NewRetentionPolicy), items, err)
}

func (rs *RetentionService) GetPolicy(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	dataType, err := util.PathParam(ctx, "dataType")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	policy, err := rs.manager.GetRetentionPolicy(dataType)
	if err == nil && policy == nil {
		err = exceptions.NotFound("retention policy", dataType)
	}
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	return util.SerializeResponseOK(NewRetentionPolicy, *policy, nil)
}

func (rs *RetentionService) PutPolicy(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	dataType, err := util.PathParam(ctx, "dataType")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	var input RetentionPolicyInput
	if err := util.DeserializeBody(event, &input); err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	policy, err := rs.manager.PutRetentionPolicy(data.RetentionPolicyInputDTO{
		DataType:      &dataType,
		RetentionDays: input.RetentionDays,
		LegalBasis:    input.LegalBasis,
		AutoDelete:    input.AutoDelete,
		UpdatedBy:     input.UpdatedBy,
	})
	return util.SerializeResponseOK(NewRetentionPolicy, policy, err)
}

func (rs *RetentionService) DeletePolicy(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	dataType, err := util.PathParam(ctx, "dataType")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	return util.SerializeResponseNoContent(rs.manager.DeleteRetentionPolicy(dataType))
}

func (rs *RetentionService) ApplyPolicies(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	result := rs.manager.ApplyRetentionPolicies()
	return util.SerializeResponseOK(util.Identity[data.RetentionResult], result, nil)
}
