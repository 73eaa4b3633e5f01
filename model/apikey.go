package model

import "time"

// ApiKey stores the SHA-256 digest of an issued key. The plaintext is
// returned to the caller once at generation time and never persisted.
// A key is usable only while Active is true and Expiry is in the future;
// revocation clears Active and is terminal.
type ApiKey struct {
	ID        uint      `gorm:"primarykey;autoIncrement"`
	AppID     uint      `gorm:"index;not null"`
	ApiKey    string    `gorm:"column:api_key;uniqueIndex;size:64;not null"`
	Expiry    time.Time `gorm:"not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
