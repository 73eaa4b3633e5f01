package accounts

import (
	"context"

	"github.com/harsh-haria/unified-event-analytics-engine/model"
	"gorm.io/gorm"
)

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	First(ctx context.Context, conds ...interface{}) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) First(ctx context.Context, conds ...interface{}) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, conds...).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return NewUserRepository(tx)
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db}
}
