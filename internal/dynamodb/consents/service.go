package consents

import (
	"fmt"

	"philcali.me/compliance/internal/data"
	"philcali.me/compliance/internal/dynamodb/client"
)

func _getPrimaryKey(userId string) string {
	return fmt.Sprintf("%s:Consent", userId)
}

type ConsentDynamoDBService struct {
	Store *client.Store[data.ConsentDTO]
}

func NewConsentService(config client.Config) data.ConsentRepository {
	return &ConsentDynamoDBService{
		Store: client.NewStore[data.ConsentDTO]("Consent", config),
	}
}

func (cs *ConsentDynamoDBService) Get(userId string, category string) (*data.ConsentDTO, error) {
	return cs.Store.GetItem(_getPrimaryKey(userId), category)
}

func (cs *ConsentDynamoDBService) Put(record data.ConsentDTO) (data.ConsentDTO, error) {
	record.PK = _getPrimaryKey(record.UserId)
	record.SK = record.Category
	err := cs.Store.PutItem(record)
	return record, err
}

func (cs *ConsentDynamoDBService) List(userId string, params data.QueryParams) (data.QueryResults[data.ConsentDTO], error) {
	return cs.Store.Query(_getPrimaryKey(userId), client.QueryOptions{Params: params})
}

func (cs *ConsentDynamoDBService) Delete(userId string, category string) error {
	return cs.Store.DeleteItem(_getPrimaryKey(userId), category)
}

func (cs *ConsentDynamoDBService) DeleteAll(userId string) (int, error) {
	deleted := 0
	params := data.QueryParams{Limit: client.MaxBatchGetSize}
	for {
		page, err := cs.List(userId, params)
		if err != nil {
			return deleted, err
		}
		keys := make([]data.Key, 0, len(page.Items))
		for _, item := range page.Items {
			keys = append(keys, data.Key{PK: item.PK, SK: item.SK})
		}
		applied, err := cs.Store.BatchWrite(nil, keys)
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
