package data

import "time"

type RetentionPolicyDTO struct {
	PK            string    `dynamodbav:"PK"`
	SK            string    `dynamodbav:"SK"`
	DataType      string    `dynamodbav:"dataType"`
	RetentionDays int       `dynamodbav:"retentionDays"`
	LegalBasis    string    `dynamodbav:"legalBasis"`
	AutoDelete    bool      `dynamodbav:"autoDelete"`
	UpdatedBy     string    `dynamodbav:"updatedBy"`
	CreateTime    time.Time `dynamodbav:"createTime"`
	UpdateTime    time.Time `dynamodbav:"updateTime"`
}

type RetentionPolicyInputDTO struct {
	DataType      *string `dynamodbav:"dataType"`
	RetentionDays *int    `dynamodbav:"retentionDays"`
	LegalBasis    *string `dynamodbav:"legalBasis"`
	AutoDelete    *bool   `dynamodbav:"autoDelete"`
	UpdatedBy     *string `dynamodbav:"updatedBy"`
}

type RetentionPolicyRepository interface {
	Put(input RetentionPolicyInputDTO) (RetentionPolicyDTO, error)
	Get(dataType string) (*RetentionPolicyDTO, error)
	List(params QueryParams) (QueryResults[RetentionPolicyDTO], error)
	Delete(dataType string) error
}
