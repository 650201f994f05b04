package data

import "time"

const (
	EventConsentGranted   = "consent_granted"
	EventConsentRevoked   = "consent_revoked"
	EventDataExport       = "data_export"
	EventDataDeletion     = "data_deletion"
	EventRetentionApplied = "retention_applied"
	EventKycVerification  = "kyc_verification"
)

const (
	LegalBasisConsent            = "consent"
	LegalBasisLegalObligation    = "legal_obligation"
	LegalBasisLegitimateInterest = "legitimate_interest"
	LegalBasisContract           = "contract"
)

type ComplianceEventDTO struct {
	PK         string                  `dynamodbav:"PK"`
	SK         string                  `dynamodbav:"SK"`
	UserIndex  string                  `dynamodbav:"GS1-PK"`
	EventId    string                  `dynamodbav:"eventId"`
	EventType  string                  `dynamodbav:"eventType"`
	UserId     string                  `dynamodbav:"userId"`
	LegalBasis string                  `dynamodbav:"legalBasis"`
	Details    *map[string]interface{} `dynamodbav:"details"`
	// Stored as epoch seconds so retention filters compare numerically.
	Timestamp  time.Time `dynamodbav:"timestamp,unixtime"`
	CreateTime time.Time `dynamodbav:"createTime"`
}

type ComplianceEventInputDTO struct {
	EventType  *string                 `dynamodbav:"eventType"`
	UserId     *string                 `dynamodbav:"userId"`
	LegalBasis *string                 `dynamodbav:"legalBasis"`
	Details    *map[string]interface{} `dynamodbav:"details"`
}

type ComplianceEventRepository interface {
	Create(input ComplianceEventInputDTO) (ComplianceEventDTO, error)
	ListByDay(day string, params QueryParams) (QueryResults[ComplianceEventDTO], error)
	ListByUser(userId string, params QueryParams) (QueryResults[ComplianceEventDTO], error)
	Cleanup(before time.Time, batchSize int) (int, error)
}
