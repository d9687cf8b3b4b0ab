package cart

import (
	"time"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/models"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

// CartDTO is the public projection of a cart.
type CartDTO struct {
	ID         uuid.UUID `json:"id"`
	IdentityID uuid.UUID `json:"identity_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func toCartDTO(cart *models.Cart) *CartDTO {
	return &CartDTO{ID: cart.ID, IdentityID: cart.IdentityID, CreatedAt: cart.CreatedAt}
}

// ItemDTO is a cart line with its price calculation.
type ItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	CartID      uuid.UUID       `json:"cart_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Calculation LineCalculation `json:"calculation"`
	// StockAvailable is only filled by list views.
	StockAvailable *int      `json:"stock_available,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toItemDTO(item models.CartItem) ItemDTO {
	dto := ItemDTO{
		ID:        item.ID,
		CartID:    item.CartID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
	if item.Product != nil {
		dto.ProductName = item.Product.Name
		dto.Calculation = CalculateLine(item.Product.UnitValue, item.Product.IVAPct, item.Quantity)
	}
	return dto
}

// DocumentRef names the buyer by document. When present it must resolve to
// the caller.
type DocumentRef struct {
	Type   string
	Number string
}

// AddItemInput adds or replaces one product line.
type AddItemInput struct {
	CartID    *uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	Document  *DocumentRef
}

// BatchItem is one entry of a batch add.
type BatchItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// AddBatchInput adds many products at once. Products already in the cart
// are skipped rather than replaced.
type AddBatchInput struct {
	CartID   *uuid.UUID
	Document *DocumentRef
	Items    []BatchItem
}

// BatchFailure explains why a batch entry was not inserted.
type BatchFailure struct {
	ProductID uuid.UUID `json:"product_id"`
	Reason    string    `json:"reason"`
	Message   string    `json:"message"`
}

// BatchResult is a partial-success outcome: Items holds only inserted lines.
// CartID is uuid.Nil when no entry passed validation, since no cart is
// touched in that case.
type BatchResult struct {
	CartID   uuid.UUID      `json:"cart_id"`
	Items    []ItemDTO      `json:"items"`
	Inserted int            `json:"inserted"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Failures []BatchFailure `json:"failures,omitempty"`
}

// ItemPatch updates only the fields that are set. An explicit null quantity
// is rejected since a line cannot exist without one.
type ItemPatch struct {
	Quantity types.Field[int] `json:"quantity"`
}

// Summary aggregates the current lines of a cart.
type Summary struct {
	CartID        uuid.UUID   `json:"cart_id"`
	Items         []ItemDTO   `json:"items"`
	TotalQuantity int         `json:"total_quantity"`
	TotalSubtotal types.Money `json:"total_subtotal"`
	TotalIVA      types.Money `json:"total_iva"`
	TotalPrice    types.Money `json:"total_price"`
}
