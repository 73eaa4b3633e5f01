package apps

import (
	"context"

	"github.com/harsh-haria/unified-event-analytics-engine/model"
	"gorm.io/gorm"
)

type AppRepository interface {
	WithTx(tx *gorm.DB) AppRepository
	First(ctx context.Context, conds ...interface{}) (*model.Application, error)
	Find(ctx context.Context, conds ...interface{}) ([]*model.Application, error)
	Create(ctx context.Context, app *model.Application) error
}

type appRepository struct {
	db *gorm.DB
}

func (r *appRepository) First(ctx context.Context, conds ...interface{}) (*model.Application, error) {
	var app model.Application
	if err := r.db.WithContext(ctx).First(&app, conds...).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *appRepository) Find(ctx context.Context, conds ...interface{}) ([]*model.Application, error) {
	var list []*model.Application
	if err := r.db.WithContext(ctx).Find(&list, conds...).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *appRepository) Create(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *appRepository) WithTx(tx *gorm.DB) AppRepository {
	return NewAppRepository(tx)
}

func NewAppRepository(db *gorm.DB) AppRepository {
	return &appRepository{db}
}
