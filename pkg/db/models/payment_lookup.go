package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentType is reference data keyed by normalized name (debito, credito).
type PaymentType struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null;uniqueIndex:uq_payment_types_name"`
}

func (p *PaymentType) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// PaymentStatus is reference data for payment lifecycle states.
type PaymentStatus struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null;uniqueIndex:uq_payment_statuses_name"`
}

func (PaymentStatus) TableName() string {
	return "payment_statuses"
}

func (p *PaymentStatus) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
