package cart

import (
	"context"

	"github.com/davivienda-ecommerce/storefront-backend/internal/identity"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartRepository is the persistence surface used by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository

	FindByIdentity(ctx context.Context, identityID uuid.UUID) (*models.Cart, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	CreateIfAbsent(ctx context.Context, cart *models.Cart) (bool, error)

	ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	FindOwnedItem(ctx context.Context, itemID, identityID uuid.UUID) (*models.CartItem, error)
	UpsertItem(ctx context.Context, item *models.CartItem) error
	InsertItemIfAbsent(ctx context.Context, item *models.CartItem) (bool, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productCatalog interface {
	RequireActive(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type identityResolver interface {
	ResolveByDocument(ctx context.Context, documentType, documentNumber string) (*identity.Identity, error)
	RequireRole(ctx context.Context, identityID uuid.UUID, roleName string) error
}

type stockLedger interface {
	Available(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error)
}
