package model

import (
	"time"

	"gorm.io/gorm"
)

// Application is the tenant unit api keys and events are scoped to.
// (user_id, app_name) is unique; creating a duplicate reports a conflict
// instead of inserting a second row.
type Application struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"uniqueIndex:idx_application_owner_name;not null"`
	AppName   string `gorm:"uniqueIndex:idx_application_owner_name;size:128;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == 0 {
		a.ID = GenerateID()
	}
	return nil
}
