package lifecycle

import (
	"fmt"

	"philcali.me/compliance/internal/data"
)

// DeleteUserData erases the requested data types for one user. Each type
// is attempted independently; a partial erasure is reported through the
// result, never thrown and never silently swallowed.
func (m *Manager) DeleteUserData(userId string, dataTypes []string) data.DeletionResult {
	result := data.DeletionResult{Errors: []string{}}
	for _, dataType := range dataTypes {
		switch dataType {
		case data.DataTypeProfile:
			if err := m.Profiles.Delete(userId); err != nil {
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.DeletedItems++
		case data.DataTypeConsents:
			deleted, err := m.Consents.DeleteAll(userId)
			result.DeletedItems += deleted
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
			}
		case data.DataTypeKycDocuments:
			deleted, err := m.Documents.DeleteAll(userId)
			result.DeletedItems += deleted
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
			}
		case data.DataTypeAuditLogs:
			deleted, err := m.Audits.PurgeActor(userId, m.batchSize())
			result.DeletedItems += deleted
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
			}
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("Unknown data type: %s", dataType))
		}
	}
	return result
}
