package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is the single shopping cart of an identity.
type Cart struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	IdentityID uuid.UUID `gorm:"column:identity_id;type:uuid;not null;uniqueIndex:uq_carts_identity_id"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
