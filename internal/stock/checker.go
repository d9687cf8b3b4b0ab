package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/models"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/enums"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/logger"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// cartReader is satisfied by the cart repository.
type cartReader interface {
	FindByIdentity(ctx context.Context, identityID uuid.UUID) (*models.Cart, error)
	ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
}

// Report is the outcome of a cart availability check.
type Report struct {
	CartID             uuid.UUID  `json:"cart_id"`
	Available          bool       `json:"available"`
	Shortages          []Shortage `json:"shortages"`
	TotalProducts      int        `json:"total_products"`
	ProductsWithIssues int        `json:"products_with_issues"`
	Message            string     `json:"message"`
}

// Err converts a failed report into an InsufficientStock error carrying the
// report as details. It returns nil when every line is covered.
func (r *Report) Err() error {
	if r == nil || r.Available {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.ReasonInsufficientStock, "%s", r.Message).WithDetails(r)
}

// Checker validates a whole cart against the ledger before checkout. It is
// advisory: nothing is reserved or decremented.
type Checker interface {
	CheckCart(ctx context.Context, identityID uuid.UUID) (*Report, error)
}

type checker struct {
	carts   cartReader
	ledger  *Ledger
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
}

// NewChecker builds a checker reading carts through the cart repository.
func NewChecker(carts cartReader, ledger *Ledger, logg *logger.Logger, m *metrics.CheckoutMetrics) (Checker, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &checker{carts: carts, ledger: ledger, logg: logg, metrics: m}, nil
}

func (c *checker) CheckCart(ctx context.Context, identityID uuid.UUID) (*Report, error) {
	if identityID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identity id is required")
	}

	cart, err := c.carts.FindByIdentity(ctx, identityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.metrics.IncStockCheck(enums.StockCheckRejected.String())
			return nil, pkgerrors.Newf(pkgerrors.ReasonCartNotFound, "identity %s has no cart", identityID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	ctx = c.logg.WithCartID(ctx, cart.ID.String())

	items, err := c.carts.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	if len(items) == 0 {
		c.metrics.IncStockCheck(enums.StockCheckRejected.String())
		return nil, pkgerrors.Newf(pkgerrors.ReasonCartEmpty, "cart %s has no items", cart.ID)
	}

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		line := Line{ProductID: item.ProductID, Requested: item.Quantity}
		if item.Product != nil {
			line.ProductName = item.Product.Name
		}
		lines = append(lines, line)
	}

	shortages, err := c.ledger.Shortages(ctx, lines)
	if err != nil {
		return nil, err
	}

	report := &Report{
		CartID:             cart.ID,
		Available:          len(shortages) == 0,
		Shortages:          shortages,
		TotalProducts:      len(items),
		ProductsWithIssues: len(shortages),
	}
	if report.Available {
		report.Message = "all products have sufficient stock"
		c.metrics.IncStockCheck(enums.StockCheckAvailable.String())
		c.logg.Info(ctx, "stock.check_passed")
		return report, nil
	}

	report.Message = fmt.Sprintf("insufficient stock for %d of %d products", len(shortages), len(items))
	c.metrics.IncStockCheck(enums.StockCheckShortage.String())
	c.logg.Warn(c.logg.WithField(ctx, "products_with_issues", len(shortages)), "stock.check_shortage")
	return report, nil
}
