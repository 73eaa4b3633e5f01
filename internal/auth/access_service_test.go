package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/harsh-haria/unified-event-analytics-engine/internal/apps"
	"github.com/harsh-haria/unified-event-analytics-engine/model"
)

type fakeAppOwnership struct {
	owners map[uint]uint // app id -> owner id
	err    error
}

func (f *fakeAppOwnership) GetUserApplication(ctx context.Context, userID uint, appID uint) (*model.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.owners[appID] != userID {
		return nil, apps.ErrAppNotFound
	}
	return &model.Application{UserID: userID, AppName: "app"}, nil
}

func TestAccessService_CheckAccess(t *testing.T) {
	repo := newFakeKeyRepository()
	repo.owners[10] = 1
	keyring := NewKeyring(repo, nil, 30)
	ctx := context.Background()

	ownedKey, _, err := keyring.GenerateApiKey(ctx, 10)
	if err != nil {
		t.Fatalf("GenerateApiKey failed: %v", err)
	}

	ownership := &fakeAppOwnership{owners: map[uint]uint{10: 1, 11: 2}}
	service := NewAccessService(ownership, keyring)

	tests := []struct {
		name   string
		userID uint
		appID  uint
		apiKey string
		want   bool
	}{
		{"no identity", 0, 10, "", false},
		{"no target", 1, 0, "", false},
		{"owned app", 1, 10, "", true},
		{"foreign app", 1, 11, "", false},
		{"unknown app", 1, 999, "", false},
		{"owned key", 1, 0, ownedKey, true},
		{"foreign key", 2, 0, ownedKey, false},
		{"unknown key", 1, 0, "api_10_bogus", false},
		{"key binding wins over foreign app id", 1, 11, ownedKey, true},
		{"foreign key with owned app id", 2, 11, ownedKey, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.CheckAccess(ctx, tt.userID, tt.appID, tt.apiKey)
			if err != nil {
				t.Fatalf("CheckAccess failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckAccess = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccessService_CheckAccess_StoreFailure(t *testing.T) {
	storeErr := errors.New("connection lost")
	ownership := &fakeAppOwnership{err: storeErr}
	service := NewAccessService(ownership, NewKeyring(newFakeKeyRepository(), nil, 30))

	granted, err := service.CheckAccess(context.Background(), 1, 10, "")
	if !errors.Is(err, storeErr) {
		t.Errorf("Expected the store error to propagate, got %v", err)
	}
	if granted {
		t.Error("Access granted despite a store failure")
	}
}
