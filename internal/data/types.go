package data

type QueryParams struct {
	Limit     int    `json:"limit"`
	NextToken []byte `json:"nextToken"`
}

func (q *QueryParams) GetLimit() *int32 {
	limit := int32(q.Limit)
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return &limit
}

type QueryResults[T interface{}] struct {
	Items     []T    `json:"items"`
	Count     int    `json:"count"`
	NextToken []byte `json:"nextToken"`
}

type NextToken map[string]map[string]string

// Key addresses one item in the table by its composite primary key.
type Key struct {
	PK string
	SK string
}

// Data types a deletion request or retention policy may target.
const (
	DataTypeProfile          = "profile"
	DataTypeConsents         = "consents"
	DataTypeKycDocuments     = "kyc_documents"
	DataTypeAuditLogs        = "audit_logs"
	DataTypeComplianceEvents = "compliance_events"
)

type RetentionResult struct {
	ProcessedPolicies int      `json:"processedPolicies"`
	DeletedItems      int      `json:"deletedItems"`
	Errors            []string `json:"errors"`
}

type DeletionResult struct {
	DeletedItems int      `json:"deletedItems"`
	Errors       []string `json:"errors"`
}
