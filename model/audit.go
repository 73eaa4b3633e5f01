package model

import "time"

type AuditEvent struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint      `gorm:"index;not null"`         // internal user id
	EventType string    `gorm:"size:64;not null;index"` // login_success, app_created...
	AppID     uint      `gorm:"index"`                  // application id - only for app/key events
	KeyDigest string    `gorm:"size:64"`                // api key digest - only for key events
	Reason    string    `gorm:"size:512"`               // failure reason or context
	IP        string    `gorm:"size:45;not null"`       // IPv4/IPv6
	UserAgent string    `gorm:"size:512;not null"`      // user agent string
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (AuditEvent) TableName() string {
	return "audit"
}
