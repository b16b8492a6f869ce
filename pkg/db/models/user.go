package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-ledger/pkg/types"
)

// User is a registered marketplace participant keyed by caller principal.
// Seq preserves registration order.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Seq       int64          `gorm:"column:seq;not null;uniqueIndex:ux_users_seq"`
	Name      string         `gorm:"column:name;not null"`
	Contact   string         `gorm:"column:contact;not null;uniqueIndex:ux_users_contact"`
	Roles     types.RoleList `gorm:"column:roles;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }
