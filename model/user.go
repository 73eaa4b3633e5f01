package model

import (
	"time"

	"gorm.io/gorm"
)

// User is an application owner, bound to exactly one external OAuth identity.
// The binding is immutable and users are never deleted by this service.
type User struct {
	ID           uint          `gorm:"primarykey"`
	OAuthID      string        `gorm:"uniqueIndex;size:128;not null"`
	Email        string        `gorm:"index;size:256;not null"`
	FirstName    string        `gorm:"size:64;not null"`
	LastName     string        `gorm:"size:64;not null"`
	Applications []Application `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == 0 {
		u.ID = GenerateID()
	}
	return nil
}
