package accounts

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/apps"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/auth"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/oauth"
	"github.com/harsh-haria/unified-event-analytics-engine/model"
	"github.com/harsh-haria/unified-event-analytics-engine/params"
	"gorm.io/gorm"
)

// AccountService binds external OAuth identities to internal users and
// provisions a default application with an initial api key on first login.
type AccountService struct {
	db         *gorm.DB
	userRepo   UserRepository
	appService *apps.AppService
	keyring    *auth.Keyring
}

func NewAccountService(db *gorm.DB, userRepo UserRepository, appService *apps.AppService, keyring *auth.Keyring) *AccountService {
	return &AccountService{
		db:         db,
		userRepo:   userRepo,
		appService: appService,
		keyring:    keyring,
	}
}

func (s *AccountService) GetUserByID(ctx context.Context, userID uint) (*model.User, error) {
	return s.userRepo.First(ctx, "id = ?", userID)
}

// LoginWithOAuth resolves a verified provider profile to an internal user.
// A first login runs create user, create default application and issue the
// initial api key as one transaction: a failure at any step rolls the whole
// sequence back, so a user never exists without an application.
func (s *AccountService) LoginWithOAuth(ctx context.Context, profile *oauth.UserProfile) (*model.User, bool, error) {
	user, err := s.userRepo.First(ctx, "oauth_id = ?", profile.ID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	user = &model.User{
		OAuthID:   profile.ID,
		Email:     profile.Email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		app, err := s.appService.WithTx(tx).CreateApplication(ctx, user.ID, params.DefaultAppName)
		if err != nil {
			return err
		}
		if _, _, err := s.keyring.WithTx(tx).GenerateApiKey(ctx, app.ID); err != nil {
			return err
		}
		return nil
	})

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		// lost a race against a concurrent first login of the same identity
		user, err := s.userRepo.First(ctx, "oauth_id = ?", profile.ID)
		return user, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
