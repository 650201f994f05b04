package profiles

import (
	"fmt"
	"time"

	"philcali.me/compliance/internal/data"
	"philcali.me/compliance/internal/dynamodb/client"
)

func _getPrimaryKey(userId string) string {
	return fmt.Sprintf("%s:Profile", userId)
}

type ProfileDynamoDBService struct {
	Store *client.Store[data.ProfileDTO]
}

func NewProfileService(config client.Config) data.ProfileRepository {
	return &ProfileDynamoDBService{
		Store: client.NewStore[data.ProfileDTO]("Profile", config),
	}
}

func (ps *ProfileDynamoDBService) Get(userId string) (*data.ProfileDTO, error) {
	return ps.Store.GetItem(_getPrimaryKey(userId), userId)
}

func (ps *ProfileDynamoDBService) Put(profile data.ProfileDTO) (data.ProfileDTO, error) {
	profile.PK = _getPrimaryKey(profile.UserId)
	profile.SK = profile.UserId
	if profile.CreateTime.IsZero() {
		profile.CreateTime = time.Now()
	}
	profile.UpdateTime = time.Now()
	err := ps.Store.PutItem(profile)
	return profile, err
}

func (ps *ProfileDynamoDBService) Delete(userId string) error {
	return ps.Store.DeleteItem(_getPrimaryKey(userId), userId)
}
