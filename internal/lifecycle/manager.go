package lifecycle

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"philcali.me/compliance/internal/data"
	"philcali.me/compliance/internal/exceptions"
)

// Manager owns the compliance lifecycle: it is the sole mutator of consent
// records, deletion requests and retention policies, and a writer of
// compliance events.
type Manager struct {
	Consents       data.ConsentRepository
	Deletions      data.DeletionRequestRepository
	Policies       data.RetentionPolicyRepository
	Profiles       data.ProfileRepository
	Documents      data.DocumentRepository
	Audits         data.AuditLogRepository
	Events         data.ComplianceEventRepository
	Sweepers       map[string]Sweeper
	SweepBatchSize int
	Logger         *slog.Logger
}

// Sweeper removes one bounded batch of a data type older than the cutoff.
type Sweeper func(cutoff time.Time, limit int) (int, error)

func DefaultSweepers(audits data.AuditLogRepository, events data.ComplianceEventRepository, documents data.DocumentRepository) map[string]Sweeper {
	return map[string]Sweeper{
		data.DataTypeAuditLogs:        audits.Cleanup,
		data.DataTypeComplianceEvents: events.Cleanup,
		data.DataTypeKycDocuments:     documents.DeleteOlderThan,
	}
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func (m *Manager) batchSize() int {
	if m.SweepBatchSize <= 0 {
		return 25
	}
	return m.SweepBatchSize
}

func _drain[T interface{}](list func(data.QueryParams) (data.QueryResults[T], error)) ([]T, error) {
	items := make([]T, 0)
	params := data.QueryParams{Limit: 100}
	for {
		page, err := list(params)
		if err != nil {
			return items, err
		}
		items = append(items, page.Items...)
		if len(page.NextToken) == 0 {
			return items, nil
		}
		params = data.QueryParams{Limit: 100, NextToken: page.NextToken}
	}
}

// CreateConsent records the first decision for a (user, category) pair and
// refuses to clobber an existing one.
func (m *Manager) CreateConsent(userId string, input data.ConsentInputDTO) (data.ConsentDTO, error) {
	if input.Category == nil || *input.Category == "" {
		return data.ConsentDTO{}, exceptions.InvalidInput("A consent record requires a category")
	}
	existing, err := m.Consents.Get(userId, *input.Category)
	if err != nil {
		return data.ConsentDTO{}, err
	}
	if existing != nil {
		return data.ConsentDTO{}, exceptions.Conflict("consent", *input.Category)
	}
	return m.UpdateConsent(userId, input)
}

// UpdateConsent overwrites the record in place. Exactly one of grantedAt
// and revokedAt is populated, matching the flag; repeating a call with the
// same arguments converges to the same final record.
func (m *Manager) UpdateConsent(userId string, input data.ConsentInputDTO) (data.ConsentDTO, error) {
	if userId == "" {
		return data.ConsentDTO{}, exceptions.InvalidInput("A consent record requires a user")
	}
	if input.Category == nil || *input.Category == "" {
		return data.ConsentDTO{}, exceptions.InvalidInput("A consent record requires a category")
	}
	if input.Granted == nil {
		return data.ConsentDTO{}, exceptions.InvalidInput("A consent record requires the granted flag")
	}
	existing, err := m.Consents.Get(userId, *input.Category)
	if err != nil {
		return data.ConsentDTO{}, err
	}
	now := time.Now().UTC()
	record := data.ConsentDTO{
		UserId:     userId,
		Category:   *input.Category,
		Granted:    *input.Granted,
		CreateTime: now,
		UpdateTime: now,
	}
	if input.PolicyVersion != nil {
		record.PolicyVersion = *input.PolicyVersion
	}
	if input.IpAddress != nil {
		record.IpAddress = *input.IpAddress
	}
	if input.UserAgent != nil {
		record.UserAgent = *input.UserAgent
	}
	if existing != nil {
		record.CreateTime = existing.CreateTime
		if existing.Granted == record.Granted {
			// Same decision again: keep the original timestamps so the
			// write converges instead of shifting grantedAt forever.
			record.GrantedAt = existing.GrantedAt
			record.RevokedAt = existing.RevokedAt
			record.UpdateTime = existing.UpdateTime
		}
	}
	if record.GrantedAt == nil && record.RevokedAt == nil {
		if record.Granted {
			record.GrantedAt = &now
		} else {
			record.RevokedAt = &now
		}
	}
	record, err = m.Consents.Put(record)
	if err != nil {
		return record, err
	}
	eventType := data.EventConsentRevoked
	if record.Granted {
		eventType = data.EventConsentGranted
	}
	_, err = m.Events.Create(data.ComplianceEventInputDTO{
		EventType:  aws.String(eventType),
		UserId:     aws.String(userId),
		LegalBasis: aws.String(data.LegalBasisConsent),
		Details: &map[string]interface{}{
			"category":      record.Category,
			"granted":       record.Granted,
			"policyVersion": record.PolicyVersion,
		},
	})
	return record, err
}

func (m *Manager) GetConsent(userId string, category string) (*data.ConsentDTO, error) {
	return m.Consents.Get(userId, category)
}

func (m *Manager) ListConsents(userId string, params data.QueryParams) (data.QueryResults[data.ConsentDTO], error) {
	return m.Consents.List(userId, params)
}

func (m *Manager) CreateDeletionRequest(userId string, input data.DeletionRequestInputDTO) (data.DeletionRequestDTO, error) {
	if userId == "" {
		return data.DeletionRequestDTO{}, exceptions.InvalidInput("A deletion request requires a user")
	}
	return m.Deletions.Create(userId, input)
}

func (m *Manager) UpdateDeletionRequestStatus(userId string, requestId string, status string, failureReason *string) (data.DeletionRequestDTO, error) {
	return m.Deletions.UpdateStatus(userId, requestId, status, failureReason)
}

func (m *Manager) GetDeletionRequest(userId string, requestId string) (*data.DeletionRequestDTO, error) {
	return m.Deletions.Get(userId, requestId)
}

// GetPendingDeletionRequests surfaces the scheduled processor's work queue.
func (m *Manager) GetPendingDeletionRequests(params data.QueryParams) (data.QueryResults[data.DeletionRequestDTO], error) {
	return m.Deletions.ListByStatus(data.DeletionStatusPending, params)
}

func (m *Manager) PutRetentionPolicy(input data.RetentionPolicyInputDTO) (data.RetentionPolicyDTO, error) {
	return m.Policies.Put(input)
}

func (m *Manager) GetRetentionPolicy(dataType string) (*data.RetentionPolicyDTO, error) {
	return m.Policies.Get(dataType)
}

func (m *Manager) ListRetentionPolicies(params data.QueryParams) (data.QueryResults[data.RetentionPolicyDTO], error) {
	return m.Policies.List(params)
}

func (m *Manager) DeleteRetentionPolicy(dataType string) error {
	return m.Policies.Delete(dataType)
}
