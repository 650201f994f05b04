package events

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"philcali.me/compliance/internal/data"
)

type fakeAudits struct {
	data.AuditLogRepository
	created []data.AuditLogInputDTO
}

func (f *fakeAudits) Create(input data.AuditLogInputDTO) (data.AuditLogDTO, error) {
	f.created = append(f.created, input)
	return data.AuditLogDTO{}, nil
}

func _record(eventName string, image map[string]events.DynamoDBAttributeValue) events.DynamoDBEventRecord {
	change := events.DynamoDBStreamRecord{}
	if eventName == "REMOVE" {
		change.OldImage = image
	} else {
		change.NewImage = image
	}
	return events.DynamoDBEventRecord{
		EventName: eventName,
		Change:    change,
	}
}

func TestChangeAuditHandler(t *testing.T) {
	audits := &fakeAudits{}
	handler := DefaultChangeAuditHandler(audits)

	t.Run("ConsentInsert", func(t *testing.T) {
		record := _record("INSERT", map[string]events.DynamoDBAttributeValue{
			"PK":      events.NewStringAttribute("user-1:Consent"),
			"SK":      events.NewStringAttribute("marketing"),
			"userId":  events.NewStringAttribute("user-1"),
			"granted": events.NewBooleanAttribute(true),
		})
		if !handler.Filter(record) {
			t.Fatalf("Expected consent records to pass the filter")
		}
		if err := handler.Apply(record); err != nil {
			t.Fatalf("Failed to apply: %s", err)
		}
		entry := audits.created[len(audits.created)-1]
		if *entry.Action != "consent_record_created" || *entry.Actor != "user-1" {
			t.Fatalf("Unexpected audit entry: %+v", entry)
		}
		if (*entry.Details)["granted"] != true {
			t.Fatalf("Expected the granted flag in details, got %+v", entry.Details)
		}
	})

	t.Run("DeletionRequestRemove", func(t *testing.T) {
		record := _record("REMOVE", map[string]events.DynamoDBAttributeValue{
			"PK":     events.NewStringAttribute("user-2:DeletionRequest"),
			"SK":     events.NewStringAttribute("req-1"),
			"userId": events.NewStringAttribute("user-2"),
			"status": events.NewStringAttribute("completed"),
		})
		if err := handler.Apply(record); err != nil {
			t.Fatalf("Failed to apply: %s", err)
		}
		entry := audits.created[len(audits.created)-1]
		if *entry.Action != "deletion_request_deleted" || *entry.ResourceId != "req-1" {
			t.Fatalf("Unexpected audit entry: %+v", entry)
		}
	})

	t.Run("RetentionPolicyAttributesAdmin", func(t *testing.T) {
		record := _record("MODIFY", map[string]events.DynamoDBAttributeValue{
			"PK":            events.NewStringAttribute("Global:RetentionPolicy"),
			"SK":            events.NewStringAttribute("audit_logs"),
			"updatedBy":     events.NewStringAttribute("admin-7"),
			"retentionDays": events.NewNumberAttribute("90"),
		})
		if err := handler.Apply(record); err != nil {
			t.Fatalf("Failed to apply: %s", err)
		}
		entry := audits.created[len(audits.created)-1]
		if *entry.Actor != "admin-7" || *entry.Action != "retention_policy_updated" {
			t.Fatalf("Unexpected audit entry: %+v", entry)
		}
	})

	t.Run("IgnoresOtherEntities", func(t *testing.T) {
		record := _record("INSERT", map[string]events.DynamoDBAttributeValue{
			"PK": events.NewStringAttribute("2024-01-01:Audit"),
			"SK": events.NewStringAttribute("whatever"),
		})
		if handler.Filter(record) {
			t.Fatalf("Expected audit partitions to be filtered out")
		}
	})

	t.Run("IgnoresMalformedKeys", func(t *testing.T) {
		record := _record("INSERT", map[string]events.DynamoDBAttributeValue{
			"SK": events.NewStringAttribute("orphan"),
		})
		if handler.Filter(record) {
			t.Fatalf("Expected records without a partition key to be filtered out")
		}
	})
}
