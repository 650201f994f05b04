package main

import (
	"context"
	"log/slog"
	"os"

	lambdaEvents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/lmittmann/tint"
	"philcali.me/compliance/internal/backoff"
	"philcali.me/compliance/internal/config"
	auditData "philcali.me/compliance/internal/dynamodb/audits"
	"philcali.me/compliance/internal/dynamodb/client"
	"philcali.me/compliance/internal/dynamodb/token"
	"philcali.me/compliance/internal/events"
	"philcali.me/compliance/internal/metrics"
)

func NewHandlers(logger *slog.Logger) []events.EventFilter {
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
		Metrics: &metrics.Noop{},
	}
	return []events.EventFilter{
		events.DefaultChangeAuditHandler(auditData.NewAuditLogService(storeConfig)),
	}
}

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, nil))
	slog.SetDefault(logger)
	handlers := NewHandlers(logger)
	lambda.Start(func(ctx context.Context, event lambdaEvents.DynamoDBEvent) error {
		for _, record := range event.Records {
			for _, handler := range handlers {
				if !handler.Filter(record) {
					continue
				}
				// A failed mirror write never fails the batch; the
				// stream would otherwise redrive every record in it.
				if err := handler.Apply(record); err != nil {
					logger.Error("failed to mirror change record",
						"eventName", record.EventName,
						"error", err)
				}
			}
		}
		return nil
	})
}
