package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment records one checkout attempt against a cart.
type Payment struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID             uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index"`
	PaymentTypeID      uuid.UUID `gorm:"column:payment_type_id;type:uuid;not null"`
	PaymentReferenceID uuid.UUID `gorm:"column:payment_reference_id;type:uuid;not null;uniqueIndex:uq_payments_reference"`
	PaymentStatusID    uuid.UUID `gorm:"column:payment_status_id;type:uuid;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// PaymentDebit is the card detail of a debit payment.
type PaymentDebit struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PaymentID        uuid.UUID `gorm:"column:payment_id;type:uuid;not null;uniqueIndex:uq_payment_debits_payment"`
	MaskedCardNumber string    `gorm:"column:masked_card_number;not null"`
	CardHolderName   string    `gorm:"column:card_holder_name;not null"`
	ExpirationDate   time.Time `gorm:"column:expiration_date;type:date;not null"`
	Installments     int       `gorm:"column:installments;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (p *PaymentDebit) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// PaymentCredit is the card detail of a credit payment.
type PaymentCredit struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PaymentID        uuid.UUID `gorm:"column:payment_id;type:uuid;not null;uniqueIndex:uq_payment_credits_payment"`
	MaskedCardNumber string    `gorm:"column:masked_card_number;not null"`
	CardHolderName   string    `gorm:"column:card_holder_name;not null"`
	ExpirationDate   time.Time `gorm:"column:expiration_date;type:date;not null"`
	Installments     int       `gorm:"column:installments;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (p *PaymentCredit) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
