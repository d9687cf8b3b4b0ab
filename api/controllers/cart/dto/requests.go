package dto

import "github.com/google/uuid"

// DocumentFields optionally name the buyer by document; both or neither.
type DocumentFields struct {
	DocumentType   string `json:"document_type" validate:"required_with=DocumentNumber,max=16"`
	DocumentNumber string `json:"document_number" validate:"required_with=DocumentType,max=32"`
}

type AddItemRequest struct {
	CartID    *uuid.UUID `json:"cart_id"`
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	Quantity  int        `json:"quantity"`
	DocumentFields
}

type BatchItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type AddBatchRequest struct {
	CartID *uuid.UUID         `json:"cart_id"`
	Items  []BatchItemRequest `json:"items" validate:"required,min=1"`
	DocumentFields
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}
