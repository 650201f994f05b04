package data

import "time"

type ProfileDTO struct {
	PK         string    `dynamodbav:"PK"`
	SK         string    `dynamodbav:"SK"`
	UserId     string    `dynamodbav:"userId"`
	Email      string    `dynamodbav:"email"`
	FullName   string    `dynamodbav:"fullName"`
	Country    string    `dynamodbav:"country"`
	KycStatus  string    `dynamodbav:"kycStatus"`
	CreateTime time.Time `dynamodbav:"createTime"`
	UpdateTime time.Time `dynamodbav:"updateTime"`
}

type ProfileRepository interface {
	Get(userId string) (*ProfileDTO, error)
	Put(profile ProfileDTO) (ProfileDTO, error)
	Delete(userId string) error
}
