package audit

import (
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"philcali.me/compliance/internal/data"
)

// Actions containing one of these fragments are privacy sensitive and
// must leave compliance evidence alongside the audit entry.
var _sensitiveActions = []string{
	"consent",
	"export",
	"delete",
	"erasure",
	"kyc",
	"retention",
}

type _eventRule struct {
	Fragment  string
	EventType string
}

// First match wins, so the more specific fragments come first.
var _eventRules = []_eventRule{
	{Fragment: "revoke", EventType: data.EventConsentRevoked},
	{Fragment: "consent", EventType: data.EventConsentGranted},
	{Fragment: "export", EventType: data.EventDataExport},
	{Fragment: "delete", EventType: data.EventDataDeletion},
	{Fragment: "erasure", EventType: data.EventDataDeletion},
	{Fragment: "retention", EventType: data.EventRetentionApplied},
	{Fragment: "kyc", EventType: data.EventKycVerification},
}

type _basisRule struct {
	Fragment   string
	LegalBasis string
}

var _basisRules = []_basisRule{
	{Fragment: "consent", LegalBasis: data.LegalBasisConsent},
	{Fragment: "delete", LegalBasis: data.LegalBasisLegalObligation},
	{Fragment: "erasure", LegalBasis: data.LegalBasisLegalObligation},
	{Fragment: "retention", LegalBasis: data.LegalBasisLegalObligation},
	{Fragment: "export", LegalBasis: data.LegalBasisLegalObligation},
	{Fragment: "kyc", LegalBasis: data.LegalBasisLegalObligation},
}

// ActionContext describes who did what to which resource.
type ActionContext struct {
	Actor        string
	ActorType    string
	Action       string
	ResourceType string
	ResourceId   string
	IpAddress    string
	UserAgent    string
}

type Result struct {
	Success           bool   `json:"success"`
	AuditLogId        string `json:"auditLogId,omitempty"`
	ComplianceEventId string `json:"complianceEventId,omitempty"`
	Error             string `json:"error,omitempty"`
}

// Enhancer couples the audit trail with the compliance record. Both
// repositories are required.
type Enhancer struct {
	Audits data.AuditLogRepository
	Events data.ComplianceEventRepository
	Logger *slog.Logger
}

func NewEnhancer(audits data.AuditLogRepository, events data.ComplianceEventRepository, logger *slog.Logger) *Enhancer {
	return &Enhancer{
		Audits: audits,
		Events: events,
		Logger: logger,
	}
}

func (e *Enhancer) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func _isSensitive(action string) bool {
	lowered := strings.ToLower(action)
	for _, fragment := range _sensitiveActions {
		if strings.Contains(lowered, fragment) {
			return true
		}
	}
	return false
}

func _eventType(action string) string {
	lowered := strings.ToLower(action)
	for _, rule := range _eventRules {
		if strings.Contains(lowered, rule.Fragment) {
			return rule.EventType
		}
	}
	return data.EventKycVerification
}

func _legalBasis(action string) string {
	lowered := strings.ToLower(action)
	for _, rule := range _basisRules {
		if strings.Contains(lowered, rule.Fragment) {
			return rule.LegalBasis
		}
	}
	return data.LegalBasisLegitimateInterest
}

// LogUserAction writes the audit entry and, for privacy sensitive
// actions, a compliance event. The audit write failing fails the whole
// call. The compliance write failing after a durable audit entry still
// reports failure: the evidence is as mandatory as the action.
func (e *Enhancer) LogUserAction(action ActionContext, outcome string, details *map[string]interface{}, errorMessage *string) Result {
	if outcome == "" {
		outcome = data.AuditResultSuccess
	}
	if errorMessage != nil {
		outcome = data.AuditResultFailure
		enriched := map[string]interface{}{"errorMessage": *errorMessage}
		if details != nil {
			for key, value := range *details {
				enriched[key] = value
			}
		}
		details = &enriched
	}
	entry, err := e.Audits.Create(data.AuditLogInputDTO{
		Actor:        aws.String(action.Actor),
		ActorType:    aws.String(action.ActorType),
		Action:       aws.String(action.Action),
		ResourceType: aws.String(action.ResourceType),
		ResourceId:   aws.String(action.ResourceId),
		Result:       aws.String(outcome),
		IpAddress:    aws.String(action.IpAddress),
		UserAgent:    aws.String(action.UserAgent),
		Details:      details,
	})
	if err != nil {
		e.logger().Error("audit log write failed", "actor", action.Actor, "action", action.Action, "error", err)
		return Result{Error: err.Error()}
	}
	result := Result{Success: true, AuditLogId: entry.SK}
	if !_isSensitive(action.Action) {
		return result
	}
	event, err := e.Events.Create(data.ComplianceEventInputDTO{
		EventType:  aws.String(_eventType(action.Action)),
		UserId:     aws.String(action.Actor),
		LegalBasis: aws.String(_legalBasis(action.Action)),
		Details: &map[string]interface{}{
			"action":       action.Action,
			"resourceType": action.ResourceType,
			"resourceId":   action.ResourceId,
			"result":       outcome,
		},
	})
	if err != nil {
		e.logger().Error("compliance event write failed", "actor", action.Actor, "action", action.Action, "error", err)
		result.Success = false
		result.Error = err.Error()
		return result
	}
	result.ComplianceEventId = event.EventId
	return result
}
