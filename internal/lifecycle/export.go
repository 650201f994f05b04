package lifecycle

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"golang.org/x/sync/errgroup"
	"philcali.me/compliance/internal/data"
)

// ExportUserData assembles the subject-access snapshot for one user with
// parallel reads of the independent collections. There is no transactional
// guarantee across the reads; absent collections come back as empty
// slices, never nil.
func (m *Manager) ExportUserData(userId string) (data.ExportBundle, error) {
	bundle := data.ExportBundle{
		UserId:           userId,
		GeneratedAt:      time.Now().UTC(),
		Consents:         []data.ConsentDTO{},
		Documents:        []data.DocumentDTO{},
		AuditLogs:        []data.AuditLogDTO{},
		ComplianceEvents: []data.ComplianceEventDTO{},
	}
	var group errgroup.Group
	group.Go(func() error {
		profile, err := m.Profiles.Get(userId)
		bundle.Profile = profile
		return err
	})
	group.Go(func() error {
		consents, err := _drain(func(params data.QueryParams) (data.QueryResults[data.ConsentDTO], error) {
			return m.Consents.List(userId, params)
		})
		if consents != nil {
			bundle.Consents = consents
		}
		return err
	})
	group.Go(func() error {
		documents, err := _drain(func(params data.QueryParams) (data.QueryResults[data.DocumentDTO], error) {
			return m.Documents.List(userId, params)
		})
		if documents != nil {
			bundle.Documents = documents
		}
		return err
	})
	group.Go(func() error {
		logs, err := _drain(func(params data.QueryParams) (data.QueryResults[data.AuditLogDTO], error) {
			return m.Audits.ListByActor(userId, params)
		})
		if logs != nil {
			bundle.AuditLogs = logs
		}
		return err
	})
	group.Go(func() error {
		events, err := _drain(func(params data.QueryParams) (data.QueryResults[data.ComplianceEventDTO], error) {
			return m.Events.ListByUser(userId, params)
		})
		if events != nil {
			bundle.ComplianceEvents = events
		}
		return err
	})
	if err := group.Wait(); err != nil {
		return bundle, err
	}
	_, err := m.Events.Create(data.ComplianceEventInputDTO{
		EventType:  aws.String(data.EventDataExport),
		UserId:     aws.String(userId),
		LegalBasis: aws.String(data.LegalBasisLegalObligation),
		Details: &map[string]interface{}{
			"consents":         len(bundle.Consents),
			"documents":        len(bundle.Documents),
			"auditLogs":        len(bundle.AuditLogs),
			"complianceEvents": len(bundle.ComplianceEvents),
		},
	})
	return bundle, err
}
