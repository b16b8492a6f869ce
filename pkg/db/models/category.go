package models

import "time"

type Category struct {
	Idx       uint32    `gorm:"column:idx;primaryKey;autoIncrement:false"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:ux_categories_name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Category) TableName() string { return "categories" }
