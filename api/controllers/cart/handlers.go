package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/davivienda-ecommerce/storefront-backend/api/controllers/cart/dto"
	"github.com/davivienda-ecommerce/storefront-backend/api/middleware"
	"github.com/davivienda-ecommerce/storefront-backend/api/responses"
	"github.com/davivienda-ecommerce/storefront-backend/api/validators"
	cartsvc "github.com/davivienda-ecommerce/storefront-backend/internal/cart"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/logger"
)

// CartCreate explicitly creates the caller's cart. It conflicts when one exists.
func CartCreate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, ok := requireCaller(w, r, svc, logg)
		if !ok {
			return
		}

		cart, err := svc.CreateCart(r.Context(), identityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, cart)
	}
}

// CartMine returns the caller's cart, creating it on first use.
func CartMine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, ok := requireCaller(w, r, svc, logg)
		if !ok {
			return
		}

		cart, err := svc.GetOrCreateCart(r.Context(), identityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// CartItems lists the lines of an owned cart with live stock.
func CartItems(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, ok := requireCaller(w, r, svc, logg)
		if !ok {
			return
		}
		cartID, err := validators.ParseUUIDParam(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListItems(r.Context(), identityID, cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// CartSummary aggregates quantities and money totals of an owned cart.
func CartSummary(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, ok := requireCaller(w, r, svc, logg)
		if !ok {
			return
		}
		cartID, err := validators.ParseUUIDParam(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summarize(r.Context(), identityID, cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// CartClear empties an owned cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, ok := requireCaller(w, r, svc, logg)
		if !ok {
			return
		}
		cartID, err := validators.ParseUUIDParam(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ClearCart(r.Context(), identityID, cartID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteNoContent(w)
	}
}

// ItemAdd adds a product or replaces its quantity.
func ItemAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, ok := requireCaller(w, r, svc, logg)
		if !ok {
			return
		}

		var payload dto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddItem(r.Context(), identityID, toAddItemInput(payload))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// ItemsAddBatch inserts many products; entries already in the cart are skipped.
func ItemsAddBatch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, ok := requireCaller(w, r, svc, logg)
		if !ok {
			return
		}

		var payload dto.AddBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddItems(r.Context(), identityID, toAddBatchInput(payload))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if result.Inserted > 0 {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

func ItemUpdateQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, itemID, ok := requireCallerAndItem(w, r, svc, logg)
		if !ok {
			return
		}

		var payload dto.UpdateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateQuantity(r.Context(), identityID, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// ItemPatch applies a partial update; absent fields are left unchanged.
func ItemPatch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, itemID, ok := requireCallerAndItem(w, r, svc, logg)
		if !ok {
			return
		}

		var patch cartsvc.ItemPatch
		if err := validators.DecodeJSONBody(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.PatchItem(r.Context(), identityID, itemID, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

func ItemRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, itemID, ok := requireCallerAndItem(w, r, svc, logg)
		if !ok {
			return
		}

		if err := svc.RemoveItem(r.Context(), identityID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteNoContent(w)
	}
}

func ItemFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, itemID, ok := requireCallerAndItem(w, r, svc, logg)
		if !ok {
			return
		}

		item, err := svc.GetItem(r.Context(), identityID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

func requireCaller(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) (uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return uuid.Nil, false
	}
	identityID := middleware.IdentityIDFromContext(r.Context())
	if identityID == uuid.Nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity context missing"))
		return uuid.Nil, false
	}
	return identityID, true
}

func requireCallerAndItem(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) (uuid.UUID, uuid.UUID, bool) {
	identityID, ok := requireCaller(w, r, svc, logg)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err := validators.ParseUUIDParam(r, "itemId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, uuid.Nil, false
	}
	return identityID, itemID, true
}
