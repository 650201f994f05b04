package privacy

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"philcali.me/compliance/internal/data"
	"philcali.me/compliance/internal/exceptions"
	"philcali.me/compliance/internal/lifecycle"
	"philcali.me/compliance/internal/routes"
	"philcali.me/compliance/internal/routes/util"
)

type ErasureInput struct {
	DataTypes *[]string `json:"dataTypes"`
}

// PrivacyService surfaces the subject-access operations: the full data
// export and the direct erasure path.
type PrivacyService struct {
	manager *lifecycle.Manager
}

func NewRoute(manager *lifecycle.Manager) routes.Service {
	return &PrivacyService{
		manager: manager,
	}
}

func (ps *PrivacyService) GetRoutes() map[string]routes.Route {
	return map[string]routes.Route{
		"GET:/users/:userId/export":   ps.ExportUserData,
		"POST:/users/:userId/erasure": ps.EraseUserData,
	}
}

func (ps *PrivacyService) ExportUserData(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	userId, err := util.PathParam(ctx, "userId")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	bundle, err := ps.manager.ExportUserData(userId)
	return util.SerializeResponseOK(util.Identity[data.ExportBundle], bundle, err)
}

func (ps *PrivacyService) EraseUserData(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	userId, err := util.PathParam(ctx, "userId")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	var input ErasureInput
	if err := util.DeserializeBody(event, &input); err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	if input.DataTypes == nil || len(*input.DataTypes) == 0 {
		return events.APIGatewayV2HTTPResponse{}, exceptions.InvalidInput("An erasure requires at least one data type")
	}
	result := ps.manager.DeleteUserData(userId, *input.DataTypes)
	return util.SerializeResponseOK(util.Identity[data.DeletionResult], result, nil)
}
