package auth

import (
	"context"
	"errors"
	"time"

	"github.com/harsh-haria/unified-event-analytics-engine/model"
	"gorm.io/gorm"
)

// KeyDetails is the resolved binding of a stored key: the application it
// belongs to and that application's owner.
type KeyDetails struct {
	AppID   uint      `json:"appID"`
	OwnerID uint      `json:"ownerID"`
	Expiry  time.Time `json:"expiry"`
}

type KeyRepository interface {
	WithTx(tx *gorm.DB) KeyRepository
	Create(ctx context.Context, key *model.ApiKey) error
	// FirstDetails resolves an active, unexpired key digest to its
	// application and owner. Stale keys are filtered in the query itself,
	// never post-hoc.
	FirstDetails(ctx context.Context, digest string) (*KeyDetails, error)
	FindActive(ctx context.Context, appID uint) ([]*model.ApiKey, error)
	Deactivate(ctx context.Context, digest string) (int64, error)
}

type keyRepository struct {
	db *gorm.DB
}

func (r *keyRepository) Create(ctx context.Context, key *model.ApiKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}

func (r *keyRepository) FirstDetails(ctx context.Context, digest string) (*KeyDetails, error) {
	var details KeyDetails
	err := r.db.WithContext(ctx).
		Model(&model.ApiKey{}).
		Select("api_key.app_id AS app_id, application.user_id AS owner_id, api_key.expiry AS expiry").
		Joins("JOIN application ON application.id = api_key.app_id").
		Where("api_key.api_key = ? AND api_key.active = ? AND api_key.expiry > ?", digest, true, time.Now()).
		First(&details).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &details, nil
}

func (r *keyRepository) FindActive(ctx context.Context, appID uint) ([]*model.ApiKey, error) {
	var keys []*model.ApiKey
	err := r.db.WithContext(ctx).
		Where("app_id = ? AND active = ? AND expiry > ?", appID, true, time.Now()).
		Find(&keys).Error
	return keys, err
}

func (r *keyRepository) Deactivate(ctx context.Context, digest string) (int64, error) {
	ret := r.db.WithContext(ctx).
		Model(&model.ApiKey{}).
		Where("api_key = ?", digest).
		Update("active", false)
	return ret.RowsAffected, ret.Error
}

func (r *keyRepository) WithTx(tx *gorm.DB) KeyRepository {
	return NewKeyRepository(tx)
}

func NewKeyRepository(db *gorm.DB) KeyRepository {
	return &keyRepository{db}
}
