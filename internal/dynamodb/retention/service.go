package retention

import (
	"time"

	"philcali.me/compliance/internal/data"
	"philcali.me/compliance/internal/dynamodb/client"
	"philcali.me/compliance/internal/exceptions"
)

// Retention policies are a global singleton collection; at most one policy
// exists per data type.
const _primaryKey = "Global:RetentionPolicy"

type RetentionPolicyDynamoDBService struct {
	Store *client.Store[data.RetentionPolicyDTO]
}

func NewRetentionPolicyService(config client.Config) data.RetentionPolicyRepository {
	return &RetentionPolicyDynamoDBService{
		Store: client.NewStore[data.RetentionPolicyDTO]("RetentionPolicy", config),
	}
}

func (rs *RetentionPolicyDynamoDBService) Put(input data.RetentionPolicyInputDTO) (data.RetentionPolicyDTO, error) {
	if input.DataType == nil || *input.DataType == "" {
		return data.RetentionPolicyDTO{}, exceptions.InvalidInput("A retention policy requires a data type")
	}
	if input.RetentionDays == nil || *input.RetentionDays <= 0 {
		return data.RetentionPolicyDTO{}, exceptions.InvalidInput("A retention policy requires a positive retention period")
	}
	now := time.Now()
	policy := data.RetentionPolicyDTO{
		PK:            _primaryKey,
		SK:            *input.DataType,
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
	err := rs.Store.PutItem(policy)
	return policy, err
}

func (rs *RetentionPolicyDynamoDBService) Get(dataType string) (*data.RetentionPolicyDTO, error) {
	return rs.Store.GetItem(_primaryKey, dataType)
}

func (rs *RetentionPolicyDynamoDBService) List(params data.QueryParams) (data.QueryResults[data.RetentionPolicyDTO], error) {
	return rs.Store.Query(_primaryKey, client.QueryOptions{Params: params})
}

func (rs *RetentionPolicyDynamoDBService) Delete(dataType string) error {
	return rs.Store.DeleteItem(_primaryKey, dataType)
}
