package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentReference is the opaque, globally unique token handed to the payer.
type PaymentReference struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Token     string    `gorm:"column:token;not null;uniqueIndex:uq_payment_references_token"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (p *PaymentReference) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
