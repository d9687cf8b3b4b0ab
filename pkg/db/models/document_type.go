package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentType is reference data for identity documents (CC, CE, NIT, ...).
type DocumentType struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Code string    `gorm:"column:code;not null;uniqueIndex:uq_document_types_code"`
	Name string    `gorm:"column:name;not null"`
}

func (d *DocumentType) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	return nil
}
