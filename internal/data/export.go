package data

import "time"

// ExportBundle is the subject-access-request snapshot for one user. The
// collections are assembled by parallel reads with no transactional
// guarantee across them.
type ExportBundle struct {
	UserId           string               `json:"userId"`
	GeneratedAt      time.Time            `json:"generatedAt"`
	Profile          *ProfileDTO          `json:"profile"`
	Consents         []ConsentDTO         `json:"consents"`
	Documents        []DocumentDTO        `json:"documents"`
	AuditLogs        []AuditLogDTO        `json:"auditLogs"`
	ComplianceEvents []ComplianceEventDTO `json:"complianceEvents"`
}
