package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
	"github.com/angelmondragon/marketplace-ledger/pkg/types"
)

// Order rating columns are write-once slots; nothing populates them yet.
type Order struct {
	Idx          uint32            `gorm:"column:idx;primaryKey;autoIncrement:false"`
	ListingIdx   uint32            `gorm:"column:listing_idx;not null;index:idx_orders_listing"`
	SellerID     uuid.UUID         `gorm:"column:seller_id;type:uuid;not null"`
	BuyerID      uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null"`
	Quantity     uint32            `gorm:"column:quantity;not null"`
	Total        types.Amount      `gorm:"column:total;not null"`
	Status       enums.OrderStatus `gorm:"column:status;type:text;not null"`
	BuyerRating  *uint8            `gorm:"column:buyer_rating"`
	SellerRating *uint8            `gorm:"column:seller_rating"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }
