package data

import "time"

type ConsentDTO struct {
	PK            string     `dynamodbav:"PK"`
	SK            string     `dynamodbav:"SK"`
	UserId        string     `dynamodbav:"userId"`
	Category      string     `dynamodbav:"category"`
	Granted       bool       `dynamodbav:"granted"`
	GrantedAt     *time.Time `dynamodbav:"grantedAt"`
	RevokedAt     *time.Time `dynamodbav:"revokedAt"`
	PolicyVersion string     `dynamodbav:"policyVersion"`
	IpAddress     string     `dynamodbav:"ipAddress"`
	UserAgent     string     `dynamodbav:"userAgent"`
	CreateTime    time.Time  `dynamodbav:"createTime"`
	UpdateTime    time.Time  `dynamodbav:"updateTime"`
}

type ConsentInputDTO struct {
	Category      *string `dynamodbav:"category"`
	Granted       *bool   `dynamodbav:"granted"`
	PolicyVersion *string `dynamodbav:"policyVersion"`
	IpAddress     *string `dynamodbav:"ipAddress"`
	UserAgent     *string `dynamodbav:"userAgent"`
}

type ConsentRepository interface {
	Get(userId string, category string) (*ConsentDTO, error)
	Put(record ConsentDTO) (ConsentDTO, error)
	List(userId string, params QueryParams) (QueryResults[ConsentDTO], error)
	Delete(userId string, category string) error
	DeleteAll(userId string) (int, error)
}
