package cart

import (
	"github.com/davivienda-ecommerce/storefront-backend/api/controllers/cart/dto"
	"github.com/davivienda-ecommerce/storefront-backend/api/validators"
	cartsvc "github.com/davivienda-ecommerce/storefront-backend/internal/cart"
)

func toDocumentRef(fields dto.DocumentFields) *cartsvc.DocumentRef {
	docType, docNumber := validators.SanitizeDocument(fields.DocumentType, fields.DocumentNumber)
	if docType == "" && docNumber == "" {
		return nil
	}
	return &cartsvc.DocumentRef{Type: docType, Number: docNumber}
}

func toAddItemInput(payload dto.AddItemRequest) cartsvc.AddItemInput {
	return cartsvc.AddItemInput{
		CartID:    payload.CartID,
		ProductID: payload.ProductID,
		Quantity:  payload.Quantity,
		Document:  toDocumentRef(payload.DocumentFields),
	}
}

func toAddBatchInput(payload dto.AddBatchRequest) cartsvc.AddBatchInput {
	items := make([]cartsvc.BatchItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, cartsvc.BatchItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return cartsvc.AddBatchInput{
		CartID:   payload.CartID,
		Document: toDocumentRef(payload.DocumentFields),
		Items:    items,
	}
}
