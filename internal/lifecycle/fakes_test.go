package lifecycle

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"philcali.me/compliance/internal/data"
	"philcali.me/compliance/internal/exceptions"
)

type memConsents struct {
	items    map[string]data.ConsentDTO
	getErr   error
	putErr   error
	pageSize int
}

func newMemConsents() *memConsents {
	return &memConsents{items: make(map[string]data.ConsentDTO)}
}

func (m *memConsents) _key(userId string, category string) string {
	return userId + "/" + category
}

func (m *memConsents) Get(userId string, category string) (*data.ConsentDTO, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if item, ok := m.items[m._key(userId, category)]; ok {
		return &item, nil
	}
	return nil, nil
}

func (m *memConsents) Put(record data.ConsentDTO) (data.ConsentDTO, error) {
	if m.putErr != nil {
		return record, m.putErr
	}
	m.items[m._key(record.UserId, record.Category)] = record
	return record, nil
}

func (m *memConsents) List(userId string, params data.QueryParams) (data.QueryResults[data.ConsentDTO], error) {
	all := make([]data.ConsentDTO, 0)
	for _, item := range m.items {
		if item.UserId == userId {
			all = append(all, item)
		}
	}
	if m.pageSize <= 0 {
		return data.QueryResults[data.ConsentDTO]{Items: all, Count: len(all)}, nil
	}
	offset := 0
	if len(params.NextToken) > 0 {
		offset, _ = strconv.Atoi(string(params.NextToken))
	}
	end := offset + m.pageSize
	if end > len(all) {
		end = len(all)
	}
	results := data.QueryResults[data.ConsentDTO]{Items: all[offset:end], Count: end - offset}
	if end < len(all) {
		results.NextToken = []byte(strconv.Itoa(end))
	}
	return results, nil
}

func (m *memConsents) Delete(userId string, category string) error {
	delete(m.items, m._key(userId, category))
	return nil
}

func (m *memConsents) DeleteAll(userId string) (int, error) {
	deleted := 0
	for key, item := range m.items {
		if item.UserId == userId {
			delete(m.items, key)
			deleted++
		}
	}
	return deleted, nil
}

type memDeletions struct {
	items     map[string]data.DeletionRequestDTO
	updateErr error
	listErr   error
}

func newMemDeletions() *memDeletions {
	return &memDeletions{items: make(map[string]data.DeletionRequestDTO)}
}

func (m *memDeletions) _key(userId string, requestId string) string {
	return userId + "/" + requestId
}

func (m *memDeletions) Create(userId string, input data.DeletionRequestInputDTO) (data.DeletionRequestDTO, error) {
	if input.DataTypes == nil || len(*input.DataTypes) == 0 {
		return data.DeletionRequestDTO{}, exceptions.InvalidInput("A deletion request requires at least one data type")
	}
	now := time.Now().UTC()
	request := data.DeletionRequestDTO{
		RequestId:   uuid.NewString(),
		UserId:      userId,
		DataTypes:   *input.DataTypes,
		Status:      data.DeletionStatusPending,
		RequestedAt: now,
		CreateTime:  now,
		UpdateTime:  now,
	}
	if input.RequestedBy != nil {
		request.RequestedBy = *input.RequestedBy
	}
	if input.Reason != nil {
		request.Reason = *input.Reason
	}
	m.items[m._key(userId, request.RequestId)] = request
	return request, nil
}

func (m *memDeletions) Get(userId string, requestId string) (*data.DeletionRequestDTO, error) {
	if item, ok := m.items[m._key(userId, requestId)]; ok {
		return &item, nil
	}
	return nil, nil
}

func (m *memDeletions) UpdateStatus(userId string, requestId string, status string, failureReason *string) (data.DeletionRequestDTO, error) {
	if m.updateErr != nil {
		return data.DeletionRequestDTO{}, m.updateErr
	}
	request, ok := m.items[m._key(userId, requestId)]
	if !ok {
		return data.DeletionRequestDTO{}, exceptions.NotFound("deletion request", requestId)
	}
	now := time.Now().UTC()
	request.Status = status
	request.UpdateTime = now
	switch status {
	case data.DeletionStatusProcessing:
		request.ProcessedAt = &now
	case data.DeletionStatusCompleted:
		request.CompletedAt = &now
		request.FailureReason = nil
	case data.DeletionStatusFailed:
		request.FailureReason = failureReason
		request.CompletedAt = nil
	}
	m.items[m._key(userId, requestId)] = request
	return request, nil
}

func (m *memDeletions) ListByStatus(status string, params data.QueryParams) (data.QueryResults[data.DeletionRequestDTO], error) {
	if m.listErr != nil {
		return data.QueryResults[data.DeletionRequestDTO]{}, m.listErr
	}
	matches := make([]data.DeletionRequestDTO, 0)
	for _, item := range m.items {
		if item.Status == status {
			matches = append(matches, item)
		}
	}
	return data.QueryResults[data.DeletionRequestDTO]{Items: matches, Count: len(matches)}, nil
}

type memPolicies struct {
	items   map[string]data.RetentionPolicyDTO
	listErr error
}

func newMemPolicies() *memPolicies {
	return &memPolicies{items: make(map[string]data.RetentionPolicyDTO)}
}

func (m *memPolicies) Put(input data.RetentionPolicyInputDTO) (data.RetentionPolicyDTO, error) {
	if input.DataType == nil || input.RetentionDays == nil {
		return data.RetentionPolicyDTO{}, exceptions.InvalidInput("A retention policy requires a data type and days")
	}
	now := time.Now().UTC()
	policy := data.RetentionPolicyDTO{
		DataType:      *input.DataType,
		RetentionDays: *input.RetentionDays,
		CreateTime:    now,
		UpdateTime:    now,
	}
	if input.LegalBasis != nil {
		policy.LegalBasis = *input.LegalBasis
	}
	if input.AutoDelete != nil {
		policy.AutoDelete = *input.AutoDelete
	}
	if input.UpdatedBy != nil {
		policy.UpdatedBy = *input.UpdatedBy
	}
	m.items[policy.DataType] = policy
	return policy, nil
}

func (m *memPolicies) Get(dataType string) (*data.RetentionPolicyDTO, error) {
	if item, ok := m.items[dataType]; ok {
		return &item, nil
	}
	return nil, nil
}

func (m *memPolicies) List(params data.QueryParams) (data.QueryResults[data.RetentionPolicyDTO], error) {
	if m.listErr != nil {
		return data.QueryResults[data.RetentionPolicyDTO]{}, m.listErr
	}
	all := make([]data.RetentionPolicyDTO, 0)
	for _, item := range m.items {
		all = append(all, item)
	}
	return data.QueryResults[data.RetentionPolicyDTO]{Items: all, Count: len(all)}, nil
}

func (m *memPolicies) Delete(dataType string) error {
	delete(m.items, dataType)
	return nil
}

type memProfiles struct {
	items map[string]data.ProfileDTO
}

func newMemProfiles() *memProfiles {
	return &memProfiles{items: make(map[string]data.ProfileDTO)}
}

func (m *memProfiles) Get(userId string) (*data.ProfileDTO, error) {
	if item, ok := m.items[userId]; ok {
		return &item, nil
	}
	return nil, nil
}

func (m *memProfiles) Put(profile data.ProfileDTO) (data.ProfileDTO, error) {
	m.items[profile.UserId] = profile
	return profile, nil
}

func (m *memProfiles) Delete(userId string) error {
	delete(m.items, userId)
	return nil
}

type memDocuments struct {
	items map[string]data.DocumentDTO
}

func newMemDocuments() *memDocuments {
	return &memDocuments{items: make(map[string]data.DocumentDTO)}
}

func (m *memDocuments) _key(userId string, documentId string) string {
	return userId + "/" + documentId
}

func (m *memDocuments) Get(userId string, documentId string) (*data.DocumentDTO, error) {
	if item, ok := m.items[m._key(userId, documentId)]; ok {
		return &item, nil
	}
	return nil, nil
}

func (m *memDocuments) Put(document data.DocumentDTO) (data.DocumentDTO, error) {
	m.items[m._key(document.UserId, document.DocumentId)] = document
	return document, nil
}

func (m *memDocuments) List(userId string, params data.QueryParams) (data.QueryResults[data.DocumentDTO], error) {
	matches := make([]data.DocumentDTO, 0)
	for _, item := range m.items {
		if item.UserId == userId {
			matches = append(matches, item)
		}
	}
	return data.QueryResults[data.DocumentDTO]{Items: matches, Count: len(matches)}, nil
}

func (m *memDocuments) Delete(userId string, documentId string) error {
	delete(m.items, m._key(userId, documentId))
	return nil
}

func (m *memDocuments) DeleteAll(userId string) (int, error) {
	deleted := 0
	for key, item := range m.items {
		if item.UserId == userId {
			delete(m.items, key)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memDocuments) DeleteOlderThan(cutoff time.Time, limit int) (int, error) {
	deleted := 0
	for key, item := range m.items {
		if item.UploadedAt.Before(cutoff) {
			delete(m.items, key)
			deleted++
		}
	}
	return deleted, nil
}

type memAudits struct {
	items []data.AuditLogDTO
}

func newMemAudits() *memAudits {
	return &memAudits{items: make([]data.AuditLogDTO, 0)}
}

func (m *memAudits) Create(input data.AuditLogInputDTO) (data.AuditLogDTO, error) {
	log := data.AuditLogDTO{Timestamp: time.Now().UTC()}
	if input.Actor != nil {
		log.Actor = *input.Actor
	}
	if input.Action != nil {
		log.Action = *input.Action
	}
	if input.Result != nil {
		log.Result = *input.Result
	}
	m.items = append(m.items, log)
	return log, nil
}

func (m *memAudits) _filter(match func(data.AuditLogDTO) bool) []data.AuditLogDTO {
	matches := make([]data.AuditLogDTO, 0)
	for _, item := range m.items {
		if match(item) {
			matches = append(matches, item)
		}
	}
	return matches
}

func (m *memAudits) ListByDay(day string, params data.QueryParams) (data.QueryResults[data.AuditLogDTO], error) {
	matches := m._filter(func(item data.AuditLogDTO) bool {
		return item.Timestamp.Format("2006-01-02") == day
	})
	return data.QueryResults[data.AuditLogDTO]{Items: matches, Count: len(matches)}, nil
}

func (m *memAudits) ListByDateRange(start time.Time, end time.Time, limit int) ([]data.AuditLogDTO, error) {
	return m._filter(func(item data.AuditLogDTO) bool {
		return !item.Timestamp.Before(start) && item.Timestamp.Before(end)
	}), nil
}

func (m *memAudits) ListByActor(actor string, params data.QueryParams) (data.QueryResults[data.AuditLogDTO], error) {
	matches := m._filter(func(item data.AuditLogDTO) bool {
		return item.Actor == actor
	})
	return data.QueryResults[data.AuditLogDTO]{Items: matches, Count: len(matches)}, nil
}

func (m *memAudits) ListByAction(day string, action string, params data.QueryParams) (data.QueryResults[data.AuditLogDTO], error) {
	matches := m._filter(func(item data.AuditLogDTO) bool {
		return item.Action == action
	})
	return data.QueryResults[data.AuditLogDTO]{Items: matches, Count: len(matches)}, nil
}

func (m *memAudits) ListByResult(day string, result string, params data.QueryParams) (data.QueryResults[data.AuditLogDTO], error) {
	matches := m._filter(func(item data.AuditLogDTO) bool {
		return item.Result == result
	})
	return data.QueryResults[data.AuditLogDTO]{Items: matches, Count: len(matches)}, nil
}

func (m *memAudits) Statistics(day string) (data.AuditStatistics, error) {
	return data.AuditStatistics{Day: day, Total: len(m.items)}, nil
}

func (m *memAudits) Cleanup(before time.Time, batchSize int) (int, error) {
	kept := make([]data.AuditLogDTO, 0)
	deleted := 0
	for _, item := range m.items {
		if item.Timestamp.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, item)
	}
	m.items = kept
	return deleted, nil
}

func (m *memAudits) PurgeActor(actor string, limit int) (int, error) {
	kept := make([]data.AuditLogDTO, 0)
	deleted := 0
	for _, item := range m.items {
		if item.Actor == actor {
			deleted++
			continue
		}
		kept = append(kept, item)
	}
	m.items = kept
	return deleted, nil
}

type memEvents struct {
	items     []data.ComplianceEventDTO
	createErr error
}

func newMemEvents() *memEvents {
	return &memEvents{items: make([]data.ComplianceEventDTO, 0)}
}

func (m *memEvents) Create(input data.ComplianceEventInputDTO) (data.ComplianceEventDTO, error) {
	if m.createErr != nil {
		return data.ComplianceEventDTO{}, m.createErr
	}
	if input.EventType == nil || input.UserId == nil {
		return data.ComplianceEventDTO{}, exceptions.InvalidInput("A compliance event requires a type and a user")
	}
	event := data.ComplianceEventDTO{
		EventId:   uuid.NewString(),
		EventType: *input.EventType,
		UserId:    *input.UserId,
		Details:   input.Details,
		Timestamp: time.Now().UTC(),
	}
	if input.LegalBasis != nil {
		event.LegalBasis = *input.LegalBasis
	}
	m.items = append(m.items, event)
	return event, nil
}

func (m *memEvents) ListByDay(day string, params data.QueryParams) (data.QueryResults[data.ComplianceEventDTO], error) {
	return data.QueryResults[data.ComplianceEventDTO]{Items: m.items, Count: len(m.items)}, nil
}

func (m *memEvents) ListByUser(userId string, params data.QueryParams) (data.QueryResults[data.ComplianceEventDTO], error) {
	matches := make([]data.ComplianceEventDTO, 0)
	for _, item := range m.items {
		if item.UserId == userId {
			matches = append(matches, item)
		}
	}
	return data.QueryResults[data.ComplianceEventDTO]{Items: matches, Count: len(matches)}, nil
}

func (m *memEvents) Cleanup(before time.Time, batchSize int) (int, error) {
	kept := make([]data.ComplianceEventDTO, 0)
	deleted := 0
	for _, item := range m.items {
		if item.Timestamp.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, item)
	}
	m.items = kept
	return deleted, nil
}

func (m *memEvents) lastOfType(eventType string) (data.ComplianceEventDTO, error) {
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].EventType == eventType {
			return m.items[i], nil
		}
	}
	return data.ComplianceEventDTO{}, fmt.Errorf("no event of type %s", eventType)
}

type harness struct {
	consents  *memConsents
	deletions *memDeletions
	policies  *memPolicies
	profiles  *memProfiles
	documents *memDocuments
	audits    *memAudits
	events    *memEvents
	manager   *Manager
}

func newHarness() *harness {
	h := &harness{
		consents:  newMemConsents(),
		deletions: newMemDeletions(),
		policies:  newMemPolicies(),
		profiles:  newMemProfiles(),
		documents: newMemDocuments(),
		audits:    newMemAudits(),
		events:    newMemEvents(),
	}
	h.manager = &Manager{
		Consents:  h.consents,
		Deletions: h.deletions,
		Policies:  h.policies,
		Profiles:  h.profiles,
		Documents: h.documents,
		Audits:    h.audits,
		Events:    h.events,
		Sweepers:  DefaultSweepers(h.audits, h.events, h.documents),
	}
	return h
}
