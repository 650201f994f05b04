package events

import (
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"philcali.me/compliance/internal/data"
)

// ChangeFormat turns one stream record into an audit entry, or nil to
// skip the record.
type ChangeFormat func(record events.DynamoDBEventRecord) *data.AuditLogInputDTO

func _getRecordImage(record events.DynamoDBEventRecord) map[string]events.DynamoDBAttributeValue {
	if record.Change.NewImage != nil {
		return record.Change.NewImage
	} else {
		return record.Change.OldImage
	}
}

func _changeVerb(record events.DynamoDBEventRecord) string {
	switch record.EventName {
	case "INSERT":
		return "created"
	case "REMOVE":
		return "deleted"
	default:
		return "updated"
	}
}

func _actor(record events.DynamoDBEventRecord) string {
	image := _getRecordImage(record)
	if userId, ok := image["userId"]; ok {
		return userId.String()
	}
	parts := strings.Split(image["PK"].String(), ":")
	return parts[0]
}

func _formatConsent(record events.DynamoDBEventRecord) *data.AuditLogInputDTO {
	image := _getRecordImage(record)
	details := map[string]interface{}{}
	if granted, ok := image["granted"]; ok {
		details["granted"] = granted.Boolean()
	}
	return &data.AuditLogInputDTO{
		Actor:        aws.String(_actor(record)),
		ActorType:    aws.String("system"),
		Action:       aws.String("consent_record_" + _changeVerb(record)),
		ResourceType: aws.String("consent"),
		ResourceId:   aws.String(image["SK"].String()),
		Details:      &details,
	}
}

func _formatDeletionRequest(record events.DynamoDBEventRecord) *data.AuditLogInputDTO {
	image := _getRecordImage(record)
	details := map[string]interface{}{}
	if status, ok := image["status"]; ok {
		details["status"] = status.String()
	}
	return &data.AuditLogInputDTO{
		Actor:        aws.String(_actor(record)),
		ActorType:    aws.String("system"),
		Action:       aws.String("deletion_request_" + _changeVerb(record)),
		ResourceType: aws.String("deletion_request"),
		ResourceId:   aws.String(image["SK"].String()),
		Details:      &details,
	}
}

func _formatRetentionPolicy(record events.DynamoDBEventRecord) *data.AuditLogInputDTO {
	image := _getRecordImage(record)
	actor := "system"
	if updatedBy, ok := image["updatedBy"]; ok && updatedBy.String() != "" {
		actor = updatedBy.String()
	}
	details := map[string]interface{}{}
	if days, ok := image["retentionDays"]; ok {
		details["retentionDays"] = days.Number()
	}
	return &data.AuditLogInputDTO{
		Actor:        aws.String(actor),
		ActorType:    aws.String("admin"),
		Action:       aws.String("retention_policy_" + _changeVerb(record)),
		ResourceType: aws.String("retention_policy"),
		ResourceId:   aws.String(image["SK"].String()),
		Details:      &details,
	}
}

func _formatKycDocument(record events.DynamoDBEventRecord) *data.AuditLogInputDTO {
	image := _getRecordImage(record)
	details := map[string]interface{}{}
	if status, ok := image["status"]; ok {
		details["status"] = status.String()
	}
	return &data.AuditLogInputDTO{
		Actor:        aws.String(_actor(record)),
		ActorType:    aws.String("system"),
		Action:       aws.String("kyc_document_" + _changeVerb(record)),
		ResourceType: aws.String("kyc_document"),
		ResourceId:   aws.String(image["SK"].String()),
		Details:      &details,
	}
}

// ChangeAuditHandler mirrors table mutations into the audit trail. The
// entity name embedded in the partition key selects the format.
type ChangeAuditHandler struct {
	Audits  data.AuditLogRepository
	Formats map[string]ChangeFormat
}

func (ch *ChangeAuditHandler) Filter(record events.DynamoDBEventRecord) bool {
	pk, ok := _getRecordImage(record)["PK"]
	if !ok {
		return false
	}
	parts := strings.Split(pk.String(), ":")
	if len(parts) < 2 {
		return false
	}
	_, ok = ch.Formats[parts[1]]
	return ok
}

func (ch *ChangeAuditHandler) Apply(record events.DynamoDBEventRecord) error {
	pk := _getRecordImage(record)["PK"]
	parts := strings.Split(pk.String(), ":")
	input := ch.Formats[parts[1]](record)
	if input == nil {
		return nil
	}
	_, err := ch.Audits.Create(*input)
	return err
}

func DefaultChangeAuditHandler(audits data.AuditLogRepository) *ChangeAuditHandler {
	return &ChangeAuditHandler{
		Audits: audits,
		Formats: map[string]ChangeFormat{
			"Consent":         _formatConsent,
			"DeletionRequest": _formatDeletionRequest,
			"RetentionPolicy": _formatRetentionPolicy,
			"KycDocument":     _formatKycDocument,
		},
	}
}
