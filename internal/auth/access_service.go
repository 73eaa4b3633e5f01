package auth

import (
	"context"
	"errors"

	"github.com/harsh-haria/unified-event-analytics-engine/internal/apps"
	"github.com/harsh-haria/unified-event-analytics-engine/model"
)

// AppOwnership is the slice of the application registry the oracle needs.
// Satisfied by *apps.AppService.
type AppOwnership interface {
	GetUserApplication(ctx context.Context, userID uint, appID uint) (*model.Application, error)
}

// AccessService decides whether an identity may act on a resource. Both
// credential schemes (session user and bearer api key) converge here so the
// ownership predicate is written once.
type AccessService struct {
	apps    AppOwnership
	keyring *Keyring
}

func NewAccessService(apps AppOwnership, keyring *Keyring) *AccessService {
	return &AccessService{
		apps:    apps,
		keyring: keyring,
	}
}

// CheckAccess reports whether userID may act on the target resource.
// Semantics:
//   - no user identity, or neither appID nor apiKey: denied (fails closed)
//   - apiKey present: the key's own application binding wins; any appID
//     supplied alongside it is ignored. Granted iff the resolved application
//     is owned by userID.
//   - appID only: granted iff an application with that id is owned by userID.
//
// Store failures propagate as errors and never grant access.
func (s *AccessService) CheckAccess(ctx context.Context, userID uint, appID uint, apiKey string) (bool, error) {
	if userID == 0 {
		return false, nil
	}

	if apiKey != "" {
		details, err := s.keyring.ValidateApiKey(ctx, apiKey)
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return details.OwnerID == userID, nil
	}

	if appID == 0 {
		return false, nil
	}

	_, err := s.apps.GetUserApplication(ctx, userID, appID)
	if errors.Is(err, apps.ErrAppNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
