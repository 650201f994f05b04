package data

import "time"

// KYC document metadata only; document content lives in object storage
// owned by another service.
type DocumentDTO struct {
	PK           string    `dynamodbav:"PK"`
	SK           string    `dynamodbav:"SK"`
	DocumentId   string    `dynamodbav:"documentId"`
	UserId       string    `dynamodbav:"userId"`
	DocumentType string    `dynamodbav:"documentType"`
	ContentType  string    `dynamodbav:"contentType"`
	Status       string    `dynamodbav:"status"`
	// Stored as epoch seconds so retention filters compare numerically.
	UploadedAt time.Time `dynamodbav:"uploadedAt,unixtime"`
	CreateTime time.Time `dynamodbav:"createTime"`
	UpdateTime time.Time `dynamodbav:"updateTime"`
}

type DocumentRepository interface {
	Get(userId string, documentId string) (*DocumentDTO, error)
	Put(document DocumentDTO) (DocumentDTO, error)
	List(userId string, params QueryParams) (QueryResults[DocumentDTO], error)
	Delete(userId string, documentId string) error
	DeleteAll(userId string) (int, error)
	DeleteOlderThan(cutoff time.Time, limit int) (int, error)
}
