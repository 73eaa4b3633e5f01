package apps

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/harsh-haria/unified-event-analytics-engine/model"
	"gorm.io/gorm"
)

type AppService struct {
	appRepo AppRepository
}

func NewAppService(appRepo AppRepository) *AppService {
	return &AppService{appRepo: appRepo}
}

// CreateApplication registers an application for userID. The (owner, name)
// pair is unique; a duplicate reports ErrAppNameTaken and leaves the existing
// row untouched.
func (s *AppService) CreateApplication(ctx context.Context, userID uint, name string) (*model.Application, error) {
	existing, err := s.appRepo.First(ctx, "user_id = ? AND app_name = ?", userID, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAppNameTaken
	}

	app := model.Application{
		UserID:  userID,
		AppName: name,
	}
	err = s.appRepo.Create(ctx, &app)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 &&
		strings.Contains(mysqlErr.Message, model.IdxApplicationOwnerName) {
		// lost the race against a concurrent insert of the same name
		return nil, ErrAppNameTaken
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// GetUserApplication fetches an application only when it is owned by userID.
func (s *AppService) GetUserApplication(ctx context.Context, userID uint, appID uint) (*model.Application, error) {
	app, err := s.appRepo.First(ctx, "user_id = ? AND id = ?", userID, appID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAppNotFound
	}
	return app, err
}

func (s *AppService) ListUserApplications(ctx context.Context, userID uint) ([]*model.Application, error) {
	return s.appRepo.Find(ctx, "user_id = ?", userID)
}

func (s *AppService) WithTx(tx *gorm.DB) *AppService {
	return NewAppService(s.appRepo.WithTx(tx))
}
