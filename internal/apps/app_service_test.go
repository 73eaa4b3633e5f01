package apps

import (
	"context"
	"errors"
	"testing"

	"github.com/harsh-haria/unified-event-analytics-engine/model"
	"gorm.io/gorm"
)

// fakeAppRepository interprets the two condition shapes the service uses.
type fakeAppRepository struct {
	apps   []*model.Application
	nextID uint
}

func (r *fakeAppRepository) WithTx(tx *gorm.DB) AppRepository { return r }

func (r *fakeAppRepository) match(app *model.Application, conds []interface{}) bool {
	query, _ := conds[0].(string)
	switch query {
	case "user_id = ? AND app_name = ?":
		return app.UserID == conds[1].(uint) && app.AppName == conds[2].(string)
	case "user_id = ? AND id = ?":
		return app.UserID == conds[1].(uint) && app.ID == conds[2].(uint)
	case "user_id = ?":
		return app.UserID == conds[1].(uint)
	}
	return false
}

func (r *fakeAppRepository) First(ctx context.Context, conds ...interface{}) (*model.Application, error) {
	for _, app := range r.apps {
		if r.match(app, conds) {
			return app, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAppRepository) Find(ctx context.Context, conds ...interface{}) ([]*model.Application, error) {
	var list []*model.Application
	for _, app := range r.apps {
		if r.match(app, conds) {
			list = append(list, app)
		}
	}
	return list, nil
}

func (r *fakeAppRepository) Create(ctx context.Context, app *model.Application) error {
	r.nextID++
	app.ID = r.nextID
	clone := *app
	r.apps = append(r.apps, &clone)
	return nil
}

func TestCreateApplication(t *testing.T) {
	service := NewAppService(&fakeAppRepository{})
	ctx := context.Background()

	app, err := service.CreateApplication(ctx, 1, "Checkout Funnel")
	if err != nil {
		t.Fatalf("CreateApplication failed: %v", err)
	}
	if app.ID == 0 {
		t.Error("Created application has no id")
	}
	if app.UserID != 1 || app.AppName != "Checkout Funnel" {
		t.Errorf("Created %+v, want owner 1 and the given name", app)
	}
}

func TestCreateApplication_DuplicateName(t *testing.T) {
	service := NewAppService(&fakeAppRepository{})
	ctx := context.Background()

	if _, err := service.CreateApplication(ctx, 1, "Checkout Funnel"); err != nil {
		t.Fatalf("CreateApplication failed: %v", err)
	}

	_, err := service.CreateApplication(ctx, 1, "Checkout Funnel")
	if !errors.Is(err, ErrAppNameTaken) {
		t.Errorf("Expected ErrAppNameTaken, got %v", err)
	}

	// a different owner may reuse the name
	if _, err := service.CreateApplication(ctx, 2, "Checkout Funnel"); err != nil {
		t.Errorf("Same name under another owner failed: %v", err)
	}
}

func TestGetUserApplication(t *testing.T) {
	service := NewAppService(&fakeAppRepository{})
	ctx := context.Background()

	mine, err := service.CreateApplication(ctx, 1, "Mine")
	if err != nil {
		t.Fatalf("CreateApplication failed: %v", err)
	}
	theirs, err := service.CreateApplication(ctx, 2, "Theirs")
	if err != nil {
		t.Fatalf("CreateApplication failed: %v", err)
	}

	got, err := service.GetUserApplication(ctx, 1, mine.ID)
	if err != nil {
		t.Fatalf("GetUserApplication failed: %v", err)
	}
	if got.ID != mine.ID {
		t.Errorf("Got application %d, want %d", got.ID, mine.ID)
	}

	// someone else's application looks identical to a missing one
	if _, err := service.GetUserApplication(ctx, 1, theirs.ID); !errors.Is(err, ErrAppNotFound) {
		t.Errorf("Expected ErrAppNotFound for foreign application, got %v", err)
	}
	if _, err := service.GetUserApplication(ctx, 1, 999); !errors.Is(err, ErrAppNotFound) {
		t.Errorf("Expected ErrAppNotFound for unknown application, got %v", err)
	}
}

func TestListUserApplications(t *testing.T) {
	service := NewAppService(&fakeAppRepository{})
	ctx := context.Background()

	for _, name := range []string{"One", "Two"} {
		if _, err := service.CreateApplication(ctx, 1, name); err != nil {
			t.Fatalf("CreateApplication failed: %v", err)
		}
	}
	if _, err := service.CreateApplication(ctx, 2, "Other"); err != nil {
		t.Fatalf("CreateApplication failed: %v", err)
	}

	list, err := service.ListUserApplications(ctx, 1)
	if err != nil {
		t.Fatalf("ListUserApplications failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("Listed %d applications, want 2", len(list))
	}
	for _, app := range list {
		if app.UserID != 1 {
			t.Errorf("Listed foreign application %+v", app)
		}
	}
}
