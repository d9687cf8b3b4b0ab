package stock

import (
	"context"
	"fmt"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/models"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads available quantities. Stock is never mutated here.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a stock repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// AvailableByProductIDs returns the stored quantity for each product that
// has a stock row.
func (r *Repository) AvailableByProductIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []models.Stock
	if err := r.db.WithContext(ctx).Where("product_id IN ?", productIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = row.AvailableQuantity
	}
	return out, nil
}

type stockReader interface {
	AvailableByProductIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// Line is one requested product quantity.
type Line struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
}

// Shortage describes a line the ledger cannot cover.
type Shortage struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
	Missing     int       `json:"missing"`
}

// Ledger answers availability questions against the stock table.
type Ledger struct {
	repo stockReader
}

// NewLedger builds a ledger over the stock repository.
func NewLedger(repo stockReader) (*Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &Ledger{repo: repo}, nil
}

// Available returns a quantity for every requested product. Products without
// a stock row report zero.
func (l *Ledger) Available(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	found, err := l.repo.AvailableByProductIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load stock")
	}
	out := make(map[uuid.UUID]int, len(productIDs))
	for _, id := range productIDs {
		out[id] = found[id]
	}
	return out, nil
}

// Shortages loads availability for lines and returns the uncovered ones.
func (l *Ledger) Shortages(ctx context.Context, lines []Line) ([]Shortage, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	available, err := l.Available(ctx, ids)
	if err != nil {
		return nil, err
	}
	return ComputeShortages(lines, available), nil
}

// ComputeShortages keeps line order. missing is max(0, requested-available)
// and only lines with missing > 0 are reported.
func ComputeShortages(lines []Line, available map[uuid.UUID]int) []Shortage {
	shortages := []Shortage{}
	for _, line := range lines {
		have := available[line.ProductID]
		if have < 0 {
			have = 0
		}
		missing := line.Requested - have
		if missing <= 0 {
			continue
		}
		shortages = append(shortages, Shortage{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Requested:   line.Requested,
			Available:   have,
			Missing:     missing,
		})
	}
	return shortages
}
