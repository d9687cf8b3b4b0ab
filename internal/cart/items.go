package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/models"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// AddItem puts a product in the cart. Adding a product that is already
// there replaces its quantity.
func (s *service) AddItem(ctx context.Context, identityID uuid.UUID, input AddItemInput) (*ItemDTO, error) {
	if err := requireIdentity(identityID); err != nil {
		return nil, err
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	ctx = s.logg.WithIdentityID(ctx, identityID.String())

	if err := s.authorizeMutation(ctx, identityID, input.Document); err != nil {
		return nil, err
	}
	product, err := s.products.RequireActive(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	var saved *models.CartItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.resolveTargetCart(ctx, repo, identityID, input.CartID)
		if err != nil {
			return err
		}

		existing, err := repo.FindItem(ctx, cart.ID, product.ID)
		switch {
		case err == nil:
			if err := repo.UpdateItemQuantity(ctx, existing.ID, input.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace item quantity")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			item := &models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: input.Quantity}
			if err := repo.UpsertItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert item")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load item")
		}

		saved, err = repo.FindItem(ctx, cart.ID, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(s.logg.WithCartID(ctx, saved.CartID.String()), map[string]any{
		"product_id": saved.ProductID.String(),
		"quantity":   saved.Quantity,
	})
	s.logg.Info(logCtx, "cart_item.upserted")
	dto := toItemDTO(*saved)
	return &dto, nil
}

type batchEntryError struct {
	productID uuid.UUID
	err       error
}

func (e *batchEntryError) Error() string {
	return fmt.Sprintf("product %s: %v", e.productID, e.err)
}

func (e *batchEntryError) Unwrap() error {
	return e.err
}

// AddItems inserts many products. Entries failing validation are reported
// and entries already in the cart are skipped; the rest are inserted.
// Infrastructure failures abort the whole batch.
func (s *service) AddItems(ctx context.Context, identityID uuid.UUID, input AddBatchInput) (*BatchResult, error) {
	if err := requireIdentity(identityID); err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	ctx = s.logg.WithIdentityID(ctx, identityID.String())

	if err := s.authorizeMutation(ctx, identityID, input.Document); err != nil {
		return nil, err
	}

	var failures error
	valid := make([]BatchItem, 0, len(input.Items))
	for _, entry := range input.Items {
		if err := validateQuantity(entry.Quantity); err != nil {
			failures = multierr.Append(failures, &batchEntryError{productID: entry.ProductID, err: err})
			continue
		}
		if _, err := s.products.RequireActive(ctx, entry.ProductID); err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeInternal) {
				return nil, err
			}
			failures = multierr.Append(failures, &batchEntryError{productID: entry.ProductID, err: err})
			continue
		}
		valid = append(valid, entry)
	}

	result := &BatchResult{Items: []ItemDTO{}}
	// Nothing to insert: report the failures without creating a cart.
	if len(valid) > 0 {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.insertBatch(ctx, s.repo.WithTx(tx), identityID, input.CartID, valid, result)
		})
		if err != nil {
			return nil, err
		}
	}

	for _, failure := range multierr.Errors(failures) {
		var entryErr *batchEntryError
		if !errors.As(failure, &entryErr) {
			continue
		}
		out := BatchFailure{ProductID: entryErr.productID, Message: entryErr.err.Error()}
		if typed := pkgerrors.As(entryErr.err); typed != nil {
			out.Reason = typed.Reason().String()
			out.Message = typed.Message()
		}
		result.Failures = append(result.Failures, out)
	}
	result.Inserted = len(result.Items)
	result.Failed = len(result.Failures)

	logCtx := s.logg.WithFields(s.logg.WithCartID(ctx, result.CartID.String()), map[string]any{
		"inserted": result.Inserted,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	})
	if failures != nil {
		s.logg.Warn(logCtx, "cart_item.batch_partial")
	} else {
		s.logg.Info(logCtx, "cart_item.batch_added")
	}
	return result, nil
}

// insertBatch writes the valid entries into the target cart and collects
// the inserted lines into result.
func (s *service) insertBatch(ctx context.Context, repo CartRepository, identityID uuid.UUID, cartID *uuid.UUID, entries []BatchItem, result *BatchResult) error {
	cart, err := s.resolveTargetCart(ctx, repo, identityID, cartID)
	if err != nil {
		return err
	}
	result.CartID = cart.ID

	inserted := map[uuid.UUID]struct{}{}
	for _, entry := range entries {
		item := &models.CartItem{CartID: cart.ID, ProductID: entry.ProductID, Quantity: entry.Quantity}
		ok, err := repo.InsertItemIfAbsent(ctx, item)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert item")
		}
		if !ok {
			result.Skipped++
			continue
		}
		inserted[entry.ProductID] = struct{}{}
	}

	items, err := repo.ListItems(ctx, cart.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload items")
	}
	for _, item := range items {
		if _, ok := inserted[item.ProductID]; ok {
			result.Items = append(result.Items, toItemDTO(item))
		}
	}
	return nil
}

func (s *service) UpdateQuantity(ctx context.Context, identityID, itemID uuid.UUID, quantity int) (*ItemDTO, error) {
	if err := requireIdentity(identityID); err != nil {
		return nil, err
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	ctx = s.logg.WithIdentityID(ctx, identityID.String())

	var saved *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.ownedItem(ctx, repo, itemID, identityID)
		if err != nil {
			return err
		}
		if err := repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update item quantity")
		}
		saved, err = repo.FindItemByID(ctx, item.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := toItemDTO(*saved)
	return &dto, nil
}

// PatchItem applies the fields present in patch. An empty patch returns the
// item unchanged after the ownership check.
func (s *service) PatchItem(ctx context.Context, identityID, itemID uuid.UUID, patch ItemPatch) (*ItemDTO, error) {
	if patch.Quantity.Set && patch.Quantity.Null {
		return nil, pkgerrors.Newf(pkgerrors.ReasonInvalidQuantity, "quantity cannot be null")
	}
	quantity, ok := patch.Quantity.Get()
	if !ok {
		return s.GetItem(ctx, identityID, itemID)
	}
	return s.UpdateQuantity(ctx, identityID, itemID, quantity)
}

func (s *service) RemoveItem(ctx context.Context, identityID, itemID uuid.UUID) error {
	if err := requireIdentity(identityID); err != nil {
		return err
	}
	ctx = s.logg.WithIdentityID(ctx, identityID.String())

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.ownedItem(ctx, repo, itemID, identityID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.ReasonCartItemNotFound, "cart item %s not found", itemID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete item")
		}
		return nil
	})
}

// ClearCart empties an owned cart. Clearing an empty cart succeeds.
func (s *service) ClearCart(ctx context.Context, identityID, cartID uuid.UUID) error {
	if err := requireIdentity(identityID); err != nil {
		return err
	}
	ctx = s.logg.WithCartID(s.logg.WithIdentityID(ctx, identityID.String()), cartID.String())

	var removed int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.getOwned(ctx, repo, cartID, identityID); err != nil {
			return err
		}
		var err error
		removed, err = repo.ClearItems(ctx, cartID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "removed", removed), "cart.cleared")
	return nil
}

func (s *service) GetItem(ctx context.Context, identityID, itemID uuid.UUID) (*ItemDTO, error) {
	if err := requireIdentity(identityID); err != nil {
		return nil, err
	}
	item, err := s.ownedItem(ctx, s.repo, itemID, identityID)
	if err != nil {
		return nil, err
	}
	dto := toItemDTO(*item)
	return &dto, nil
}

// ListItems returns the cart's lines with the stock currently available for
// each product.
func (s *service) ListItems(ctx context.Context, identityID, cartID uuid.UUID) ([]ItemDTO, error) {
	if err := requireIdentity(identityID); err != nil {
		return nil, err
	}
	items, err := s.ownedItems(ctx, identityID, cartID)
	if err != nil {
		return nil, err
	}

	out := make([]ItemDTO, 0, len(items))
	productIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		out = append(out, toItemDTO(item))
		productIDs = append(productIDs, item.ProductID)
	}
	if len(productIDs) == 0 {
		return out, nil
	}

	available, err := s.ledger.Available(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	for i := range out {
		qty := available[out[i].ProductID]
		out[i].StockAvailable = &qty
	}
	return out, nil
}

func (s *service) Summarize(ctx context.Context, identityID, cartID uuid.UUID) (*Summary, error) {
	if err := requireIdentity(identityID); err != nil {
		return nil, err
	}
	items, err := s.ownedItems(ctx, identityID, cartID)
	if err != nil {
		return nil, err
	}
	dtos := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, toItemDTO(item))
	}
	return Summarize(cartID, dtos), nil
}

func (s *service) ownedItems(ctx context.Context, identityID, cartID uuid.UUID) ([]models.CartItem, error) {
	cart, err := s.getOwned(ctx, s.repo, cartID, identityID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	return items, nil
}

// ownedItem resolves the item through its cart in one query. A miss is
// reported as not found when the item does not exist at all and as
// unauthorized when it belongs to another identity.
func (s *service) ownedItem(ctx context.Context, repo CartRepository, itemID, identityID uuid.UUID) (*models.CartItem, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	item, err := repo.FindOwnedItem(ctx, itemID, identityID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load item")
	}

	if _, err := repo.FindItemByID(ctx, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.ReasonCartItemNotFound, "cart item %s not found", itemID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load item")
	}
	return nil, pkgerrors.Newf(pkgerrors.ReasonCartItemUnauthorized, "cart item %s does not belong to the caller", itemID)
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return pkgerrors.Newf(pkgerrors.ReasonInvalidQuantity, "quantity must be at least 1, got %d", quantity)
	}
	return nil
}
