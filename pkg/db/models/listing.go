package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-ledger/pkg/types"
)

type Listing struct {
	Idx        uint32       `gorm:"column:idx;primaryKey;autoIncrement:false"`
	ProductIdx uint32       `gorm:"column:product_idx;not null;index:idx_listings_product"`
	SellerID   uuid.UUID    `gorm:"column:seller_id;type:uuid;not null"`
	Stock      uint32       `gorm:"column:stock;not null"`
	UnitPrice  types.Amount `gorm:"column:unit_price;not null"`
	Active     bool         `gorm:"column:active;not null"`
	CreatedAt  time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (Listing) TableName() string { return "listings" }
