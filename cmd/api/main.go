package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"philcali.me/compliance/internal/audit"
	"philcali.me/compliance/internal/backoff"
	"philcali.me/compliance/internal/config"
	auditData "philcali.me/compliance/internal/dynamodb/audits"
	"philcali.me/compliance/internal/dynamodb/client"
	eventData "philcali.me/compliance/internal/dynamodb/compliance"
	consentData "philcali.me/compliance/internal/dynamodb/consents"
	deletionData "philcali.me/compliance/internal/dynamodb/deletions"
	documentData "philcali.me/compliance/internal/dynamodb/documents"
	profileData "philcali.me/compliance/internal/dynamodb/profiles"
	retentionData "philcali.me/compliance/internal/dynamodb/retention"
	"philcali.me/compliance/internal/dynamodb/token"
	"philcali.me/compliance/internal/lifecycle"
	"philcali.me/compliance/internal/metrics"
	"philcali.me/compliance/internal/routes"
	auditRoutes "philcali.me/compliance/internal/routes/audits"
	"philcali.me/compliance/internal/routes/consents"
	"philcali.me/compliance/internal/routes/deletions"
	"philcali.me/compliance/internal/routes/privacy"
	"philcali.me/compliance/internal/routes/retention"
	"philcali.me/compliance/internal/sns/services"
)

type App struct {
	Router routes.Router
}

func NewApp() App {
	logger := slog.New(tint.NewHandler(os.Stderr, nil))
	slog.SetDefault(logger)
	cfg := config.Load()
	awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		panic("Failed to load AWS config.")
	}
	storeConfig := client.Config{
		DynamoDB:       dynamodb.NewFromConfig(awsCfg),
		TableName:      cfg.TableName,
		IndexName:      cfg.IndexName,
		TokenMarshaler: token.NewGCM(),
		Executor: &backoff.Executor{
			Config: cfg.Retry,
			Logger: logger,
		},
		Metrics: metrics.NewPrometheusRecorder(prometheus.DefaultRegisterer),
	}
	audits := auditData.NewAuditLogService(storeConfig)
	complianceEvents := eventData.NewComplianceEventService(storeConfig)
	documents := documentData.NewDocumentService(storeConfig)
	manager := &lifecycle.Manager{
		Consents:       consentData.NewConsentService(storeConfig),
		Deletions:      deletionData.NewDeletionRequestService(storeConfig),
		Policies:       retentionData.NewRetentionPolicyService(storeConfig),
		Profiles:       profileData.NewProfileService(storeConfig),
		Documents:      documents,
		Audits:         audits,
		Events:         complianceEvents,
		Sweepers:       lifecycle.DefaultSweepers(audits, complianceEvents, documents),
		SweepBatchSize: cfg.SweepBatchSize,
		Logger:         logger,
	}
	notifier := &services.NotificationSNSService{
		Sns:                 *sns.NewFromConfig(awsCfg),
		ComplianceTopicArn:  cfg.ComplianceTopicArn,
		OperationalTopicArn: cfg.OperationalTopicArn,
	}
	router := routes.NewRouter(
		consents.NewRoute(manager),
		deletions.NewRoute(manager, notifier, logger),
		retention.NewRoute(manager),
		privacy.NewRoute(manager),
		auditRoutes.NewRoute(audits, audit.NewEnhancer(audits, complianceEvents, logger)),
	)
	return App{
		Router: *router,
	}
}

func (app *App) HandleRequest(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return app.Router.Invoke(request, ctx), nil
}

func main() {
	app := NewApp()
	lambda.Start(app.HandleRequest)
}
