package lifecycle

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"philcali.me/compliance/internal/data"
)

func TestApplyRetentionPolicies(t *testing.T) {
	t.Run("SweepsExpiredItemsOnly", func(t *testing.T) {
		h := newHarness()
		h.policies.Put(data.RetentionPolicyInputDTO{
			DataType:      aws.String(data.DataTypeKycDocuments),
			RetentionDays: aws.Int(30),
			AutoDelete:    aws.Bool(true),
		})
		now := time.Now().UTC()
		h.documents.Put(data.DocumentDTO{UserId: "user-1", DocumentId: "old", UploadedAt: now.AddDate(0, 0, -60)})
		h.documents.Put(data.DocumentDTO{UserId: "user-1", DocumentId: "fresh", UploadedAt: now.AddDate(0, 0, -5)})
		result := h.manager.ApplyRetentionPolicies()
		if len(result.Errors) != 0 {
			t.Fatalf("Unexpected errors: %v", result.Errors)
		}
		if result.ProcessedPolicies != 1 || result.DeletedItems != 1 {
			t.Fatalf("Unexpected result: %+v", result)
		}
		if fresh, _ := h.documents.Get("user-1", "fresh"); fresh == nil {
			t.Fatalf("Sweep deleted an item inside the retention window")
		}
		event, err := h.events.lastOfType(data.EventRetentionApplied)
		if err != nil {
			t.Fatalf("Expected a retention_applied event: %v", err)
		}
		if event.UserId != "system" {
			t.Fatalf("Expected the system attribution, got %s", event.UserId)
		}
	})

	t.Run("SkipsManualPolicies", func(t *testing.T) {
		h := newHarness()
		h.policies.Put(data.RetentionPolicyInputDTO{
			DataType:      aws.String(data.DataTypeAuditLogs),
			RetentionDays: aws.Int(30),
			AutoDelete:    aws.Bool(false),
		})
		h.audits.Create(data.AuditLogInputDTO{Actor: aws.String("user-1"), Action: aws.String("login")})
		result := h.manager.ApplyRetentionPolicies()
		if result.ProcessedPolicies != 0 || result.DeletedItems != 0 {
			t.Fatalf("Expected a manual policy to be skipped, got %+v", result)
		}
	})

	t.Run("UnknownDataTypeIsReported", func(t *testing.T) {
		h := newHarness()
		h.policies.Put(data.RetentionPolicyInputDTO{
			DataType:      aws.String("browsing_history"),
			RetentionDays: aws.Int(7),
			AutoDelete:    aws.Bool(true),
		})
		result := h.manager.ApplyRetentionPolicies()
		if result.ProcessedPolicies != 0 {
			t.Fatalf("Expected no processed policies, got %+v", result)
		}
		if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "browsing_history") {
			t.Fatalf("Expected one error naming the data type, got %v", result.Errors)
		}
	})

	t.Run("SweeperFailureIsIsolated", func(t *testing.T) {
		h := newHarness()
		h.policies.Put(data.RetentionPolicyInputDTO{
			DataType:      aws.String(data.DataTypeAuditLogs),
			RetentionDays: aws.Int(7),
			AutoDelete:    aws.Bool(true),
		})
		h.policies.Put(data.RetentionPolicyInputDTO{
			DataType:      aws.String(data.DataTypeKycDocuments),
			RetentionDays: aws.Int(30),
			AutoDelete:    aws.Bool(true),
		})
		h.manager.Sweepers[data.DataTypeAuditLogs] = func(cutoff time.Time, limit int) (int, error) {
			return 0, errors.New("scan failed")
		}
		result := h.manager.ApplyRetentionPolicies()
		if result.ProcessedPolicies != 1 {
			t.Fatalf("Expected the surviving policy to process, got %+v", result)
		}
		if len(result.Errors) != 1 || result.Errors[0] != "scan failed" {
			t.Fatalf("Expected the sweep failure to be recorded, got %v", result.Errors)
		}
	})

	t.Run("PolicyListFailure", func(t *testing.T) {
		h := newHarness()
		h.policies.listErr = errors.New("table offline")
		result := h.manager.ApplyRetentionPolicies()
		if result.ProcessedPolicies != 0 || result.DeletedItems != 0 || len(result.Errors) != 1 {
			t.Fatalf("Expected an empty result with one error, got %+v", result)
		}
	})

	t.Run("CutoffMatchesRetentionDays", func(t *testing.T) {
		h := newHarness()
		h.policies.Put(data.RetentionPolicyInputDTO{
			DataType:      aws.String(data.DataTypeAuditLogs),
			RetentionDays: aws.Int(90),
			AutoDelete:    aws.Bool(true),
		})
		var observed time.Time
		h.manager.Sweepers[data.DataTypeAuditLogs] = func(cutoff time.Time, limit int) (int, error) {
			observed = cutoff
			return 0, nil
		}
		h.manager.ApplyRetentionPolicies()
		expected := time.Now().UTC().AddDate(0, 0, -90)
		if observed.Sub(expected).Abs() > time.Minute {
			t.Fatalf("Expected a cutoff near %v, got %v", expected, observed)
		}
	})
}
