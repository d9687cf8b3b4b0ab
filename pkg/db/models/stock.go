package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stock holds the available quantity for a product. A product without a row
// has no stock.
type Stock struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID         uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_stock_product"`
	AvailableQuantity int       `gorm:"column:available_quantity;not null;default:0"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Stock) TableName() string {
	return "stock"
}

func (s *Stock) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}
