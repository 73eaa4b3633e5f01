package api

import (
	"context"
	"time"

	"github.com/harsh-haria/unified-event-analytics-engine/internal/analytics"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/auth"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/oauth"
	"github.com/harsh-haria/unified-event-analytics-engine/model"
)

type AccountService interface {
	LoginWithOAuth(ctx context.Context, profile *oauth.UserProfile) (*model.User, bool, error)
	GetUserByID(ctx context.Context, userID uint) (*model.User, error)
}

type AppService interface {
	CreateApplication(ctx context.Context, userID uint, name string) (*model.Application, error)
	ListUserApplications(ctx context.Context, userID uint) ([]*model.Application, error)
}

type AccessService interface {
	CheckAccess(ctx context.Context, userID uint, appID uint, apiKey string) (bool, error)
}

type Keyring interface {
	GenerateApiKey(ctx context.Context, appID uint) (string, time.Time, error)
	ListActiveKeys(ctx context.Context, appID uint) ([]auth.KeyInfo, error)
	ResolveKeyApp(ctx context.Context, keyOrDigest string) (*auth.KeyDetails, error)
	RevokeApiKey(ctx context.Context, keyOrDigest string) error
}

type AnalyticsService interface {
	SubmitEvent(ctx context.Context, input analytics.SubmitEventInput) error
	EventSummary(ctx context.Context, eventName string, start, end *time.Time, appID uint, ownerID uint) (*analytics.Summary, error)
	GetUserStats(ctx context.Context, endUserID string) (*analytics.UserStats, error)
}
