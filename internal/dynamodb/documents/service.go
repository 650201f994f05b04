package documents

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"philcali.me/compliance/internal/data"
	"philcali.me/compliance/internal/dynamodb/client"
)

func _getPrimaryKey(userId string) string {
	return fmt.Sprintf("%s:KycDocument", userId)
}

type DocumentDynamoDBService struct {
	Store *client.Store[data.DocumentDTO]
}

func NewDocumentService(config client.Config) data.DocumentRepository {
	return &DocumentDynamoDBService{
		Store: client.NewStore[data.DocumentDTO]("KycDocument", config),
	}
}

func (ds *DocumentDynamoDBService) Get(userId string, documentId string) (*data.DocumentDTO, error) {
	return ds.Store.GetItem(_getPrimaryKey(userId), documentId)
}

func (ds *DocumentDynamoDBService) Put(document data.DocumentDTO) (data.DocumentDTO, error) {
	document.PK = _getPrimaryKey(document.UserId)
	document.SK = document.DocumentId
	if document.CreateTime.IsZero() {
		document.CreateTime = time.Now()
	}
	document.UpdateTime = time.Now()
	err := ds.Store.PutItem(document)
	return document, err
}

func (ds *DocumentDynamoDBService) List(userId string, params data.QueryParams) (data.QueryResults[data.DocumentDTO], error) {
	return ds.Store.Query(_getPrimaryKey(userId), client.QueryOptions{Params: params})
}

func (ds *DocumentDynamoDBService) Delete(userId string, documentId string) error {
	return ds.Store.DeleteItem(_getPrimaryKey(userId), documentId)
}

func (ds *DocumentDynamoDBService) DeleteAll(userId string) (int, error) {
	deleted := 0
	params := data.QueryParams{Limit: client.MaxBatchGetSize}
	for {
		page, err := ds.List(userId, params)
		if err != nil {
			return deleted, err
		}
		keys := make([]data.Key, 0, len(page.Items))
		for _, document := range page.Items {
			keys = append(keys, data.Key{PK: document.PK, SK: document.SK})
		}
		applied, err := ds.Store.BatchWrite(nil, keys)
		deleted += applied
		if err != nil {
			return deleted, err
		}
		if len(page.NextToken) == 0 {
			return deleted, nil
		}
		params.NextToken = page.NextToken
	}
}

// DeleteOlderThan removes one bounded batch of stale document metadata. No
// index orders documents by age across users, so this is a filter scan.
func (ds *DocumentDynamoDBService) DeleteOlderThan(cutoff time.Time, limit int) (int, error) {
	if limit <= 0 || limit > client.MaxBatchGetSize {
		limit = client.MaxBatchWriteSize
	}
	filter := expression.Name("PK").Contains(":KycDocument").
		And(expression.Name("uploadedAt").LessThan(expression.Value(cutoff.UTC().Unix())))
	page, err := ds.Store.Scan(&filter, data.QueryParams{Limit: limit})
	if err != nil {
		return 0, err
	}
	keys := make([]data.Key, 0, len(page.Items))
	for _, document := range page.Items {
		keys = append(keys, data.Key{PK: document.PK, SK: document.SK})
	}
	return ds.Store.BatchWrite(nil, keys)
}
