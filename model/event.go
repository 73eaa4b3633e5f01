package model

import "time"

// Event is one behavioral event reported by a tracked application.
// Rows are append-only; nothing in this service mutates or deletes them.
//
// UserID identifies the end user of the tracked application. It lives in a
// different identity space than model.User, which is the owner of the
// application the event is attributed to.
type Event struct {
	ID        uint64    `gorm:"primarykey;autoIncrement"`
	Event     string    `gorm:"size:255;not null;index"`
	URL       string    `gorm:"type:text;not null"`
	Referrer  string    `gorm:"type:text"`
	Device    string    `gorm:"size:255;not null;index"`
	IPAddress string    `gorm:"size:45;not null"`
	Timestamp time.Time `gorm:"not null;index"`
	Metadata  string    `gorm:"type:text"` // serialized JSON object, bounded by params.MaxMetadataSize
	UserID    string    `gorm:"size:64;not null;index"`
	AppID     uint      `gorm:"not null;index"`
	CreatedAt time.Time
}
