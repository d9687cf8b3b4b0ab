package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/models"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type productReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// Catalog is the read-only product lookup used by carts and checkout.
type Catalog interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	RequireActive(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type catalog struct {
	repo productReader
}

// NewCatalog builds the product catalog over its repository.
func NewCatalog(repo productReader) (Catalog, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &catalog{repo: repo}, nil
}

func (c *catalog) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := c.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.ReasonProductNotFound, "product %s not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func (c *catalog) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	rows, err := c.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	out := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// RequireActive returns the product only when it exists and is sellable.
func (c *catalog) RequireActive(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, pkgerrors.Newf(pkgerrors.ReasonProductInactive, "product %s is not active", id).
			WithDetails(map[string]any{"product_id": id.String(), "name": product.Name})
	}
	return product, nil
}
