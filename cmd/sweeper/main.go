package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"philcali.me/compliance/internal/backoff"
	"philcali.me/compliance/internal/config"
	"philcali.me/compliance/internal/data"
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
	"philcali.me/compliance/internal/notifications"
	"philcali.me/compliance/internal/sns/services"
)

// SweepOutput is the scheduled run's report, surfaced in the invocation
// result for operator inspection and mirrored to both topics.
type SweepOutput struct {
	Retention data.RetentionResult     `json:"retention"`
	Deletions lifecycle.ProcessSummary `json:"deletions"`
}

func NewManager(logger *slog.Logger) (*lifecycle.Manager, notifications.NotificationService) {
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
	return manager, notifier
}

// publishSummary mirrors the run's report to both topics. Delivery
// problems are logged, never thrown, so a flaky topic cannot fail a
// sweep that already ran.
func publishSummary(notifier notifications.NotificationService, logger *slog.Logger, output SweepOutput) {
	delivery := notifier.PublishDual(notifications.PublishInput{
		Subject:   "Scheduled compliance sweep",
		EventType: data.EventRetentionApplied,
		Detail: map[string]interface{}{
			"retention": output.Retention,
			"deletions": output.Deletions,
		},
	})
	if len(delivery.Errors) > 0 {
		logger.Warn("sweep summary delivery degraded",
			"delivered", delivery.Delivered,
			"errors", delivery.Errors)
	}
}

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, nil))
	slog.SetDefault(logger)
	manager, notifier := NewManager(logger)
	lambda.Start(func(ctx context.Context) (SweepOutput, error) {
		retention := manager.ApplyRetentionPolicies()
		logger.Info("retention sweep finished",
			"processedPolicies", retention.ProcessedPolicies,
			"deletedItems", retention.DeletedItems,
			"errors", len(retention.Errors))
		deletions := manager.ProcessPendingDeletionRequests(0)
		logger.Info("deletion queue drained",
			"processed", deletions.Processed,
			"completed", deletions.Completed,
			"failed", deletions.Failed)
		output := SweepOutput{
			Retention: retention,
			Deletions: deletions,
		}
		publishSummary(notifier, logger, output)
		return output, nil
	})
}
