package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"philcali.me/compliance/internal/backoff"
)

// Config is everything a process entry point needs from its
// environment. A local .env file is honored when present; in Lambda the
// variables come from the function configuration.
type Config struct {
	TableName           string
	IndexName           string
	ComplianceTopicArn  string
	OperationalTopicArn string
	SweepBatchSize      int
	Retry               backoff.Config
}

func _env(name string, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}

func _envInt(name string, fallback int) int {
	if value, err := strconv.Atoi(os.Getenv(name)); err == nil {
		return value
	}
	return fallback
}

func _envDuration(name string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(name)); err == nil {
		return value
	}
	return fallback
}

func Load() Config {
	godotenv.Load()
	retry := backoff.DefaultConfig()
	retry.MaxRetries = _envInt("RETRY_MAX_ATTEMPTS", retry.MaxRetries)
	retry.BaseDelay = _envDuration("RETRY_BASE_DELAY", retry.BaseDelay)
	retry.MaxDelay = _envDuration("RETRY_MAX_DELAY", retry.MaxDelay)
	retry.Jitter = backoff.JitterType(_env("RETRY_JITTER", string(retry.Jitter)))
	return Config{
		TableName:           _env("TABLE_NAME", "ComplianceData"),
		IndexName:           _env("INDEX_NAME_1", "GS1"),
		ComplianceTopicArn:  os.Getenv("COMPLIANCE_TOPIC_ARN"),
		OperationalTopicArn: os.Getenv("OPERATIONAL_TOPIC_ARN"),
		SweepBatchSize:      _envInt("SWEEP_BATCH_SIZE", 25),
		Retry:               retry,
	}
}
