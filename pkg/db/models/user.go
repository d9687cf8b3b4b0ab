package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the person record owned by the user-management subsystem.
type User struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	DocumentTypeID uuid.UUID `gorm:"column:document_type_id;type:uuid;not null;uniqueIndex:uq_users_document"`
	DocumentNumber string    `gorm:"column:document_number;not null;uniqueIndex:uq_users_document"`
	Email          string    `gorm:"column:email;not null;uniqueIndex:uq_users_email"`
	FirstName      string    `gorm:"column:first_name;not null"`
	LastName       string    `gorm:"column:last_name;not null"`
	IsActive       bool      `gorm:"column:is_active;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`

	DocumentType *DocumentType `gorm:"foreignKey:DocumentTypeID"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}
