package model

import (
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// IdxApplicationOwnerName is matched against MySQL duplicate-entry errors to
// tell an application name conflict apart from other unique violations.
const IdxApplicationOwnerName = "idx_application_owner_name"

var snowflakeNode *snowflake.Node

var Models = []interface{}{
	&User{}, &Application{}, &ApiKey{}, &Event{}, &AuditEvent{},
}

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

func GenerateID() uint {
	return uint(snowflakeNode.Generate())
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}
