package models

import (
	"time"

	"github.com/google/uuid"
)

// Product rows are unique by (name, category_idx).
type Product struct {
	Idx         uint32    `gorm:"column:idx;primaryKey;autoIncrement:false"`
	SellerID    uuid.UUID `gorm:"column:seller_id;type:uuid;not null"`
	Name        string    `gorm:"column:name;not null;uniqueIndex:ux_products_name_category,priority:1"`
	Description string    `gorm:"column:description;not null"`
	CategoryIdx uint32    `gorm:"column:category_idx;not null;uniqueIndex:ux_products_name_category,priority:2"`
	Stock       uint32    `gorm:"column:stock;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
