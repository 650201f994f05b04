package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"philcali.me/compliance/internal/data"
)

// ApplyRetentionPolicies loads every policy and sweeps the ones with
// auto-delete enabled. One policy failing never aborts the rest; partial
// success is the steady state of a scheduled sweep, so failures accumulate
// in the result instead of propagating.
func (m *Manager) ApplyRetentionPolicies() data.RetentionResult {
	result := data.RetentionResult{Errors: []string{}}
	policies, err := _drain(m.Policies.List)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	now := time.Now().UTC()
	for _, policy := range policies {
		if !policy.AutoDelete {
			continue
		}
		sweeper, ok := m.Sweepers[policy.DataType]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("No sweeper registered for data type: %s", policy.DataType))
			continue
		}
		cutoff := now.AddDate(0, 0, -policy.RetentionDays)
		deleted, err := sweeper(cutoff, m.batchSize())
		result.DeletedItems += deleted
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.ProcessedPolicies++
		m.logger().Info("applied retention policy",
			"dataType", policy.DataType,
			"retentionDays", policy.RetentionDays,
			"deleted", deleted)
	}
	if result.ProcessedPolicies > 0 {
		if _, err := m.Events.Create(data.ComplianceEventInputDTO{
			EventType:  aws.String(data.EventRetentionApplied),
			UserId:     aws.String("system"),
			LegalBasis: aws.String(data.LegalBasisLegalObligation),
			Details: &map[string]interface{}{
				"processedPolicies": result.ProcessedPolicies,
				"deletedItems":      result.DeletedItems,
			},
		}); err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}
	return result
}

// ProcessSummary reports one pass over the deletion request work queue.
type ProcessSummary struct {
	Processed int      `json:"processed"`
	Completed int      `json:"completed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// ProcessPendingDeletionRequests drives each pending request through
// processing and into completed or failed. The caller owns the transition
// order; nothing here re-validates prior state.
func (m *Manager) ProcessPendingDeletionRequests(limit int) ProcessSummary {
	summary := ProcessSummary{Errors: []string{}}
	pending, err := m.GetPendingDeletionRequests(data.QueryParams{Limit: limit})
	if err != nil {
		summary.Errors = append(summary.Errors, err.Error())
		return summary
	}
	for _, request := range pending.Items {
		summary.Processed++
		if _, err := m.Deletions.UpdateStatus(request.UserId, request.RequestId, data.DeletionStatusProcessing, nil); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, err.Error())
			continue
		}
		result := m.DeleteUserData(request.UserId, request.DataTypes)
		if len(result.Errors) > 0 {
			reason := strings.Join(result.Errors, "; ")
			summary.Failed++
			summary.Errors = append(summary.Errors, reason)
			if _, err := m.Deletions.UpdateStatus(request.UserId, request.RequestId, data.DeletionStatusFailed, &reason); err != nil {
				summary.Errors = append(summary.Errors, err.Error())
			}
			continue
		}
		if _, err := m.Deletions.UpdateStatus(request.UserId, request.RequestId, data.DeletionStatusCompleted, nil); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, err.Error())
			continue
		}
		summary.Completed++
		if _, err := m.Events.Create(data.ComplianceEventInputDTO{
			EventType:  aws.String(data.EventDataDeletion),
			UserId:     aws.String(request.UserId),
			LegalBasis: aws.String(data.LegalBasisLegalObligation),
			Details: &map[string]interface{}{
				"requestId":    request.RequestId,
				"dataTypes":    request.DataTypes,
				"deletedItems": result.DeletedItems,
			},
		}); err != nil {
			summary.Errors = append(summary.Errors, err.Error())
		}
	}
	return summary
}
