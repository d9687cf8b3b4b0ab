package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/davivienda-ecommerce/storefront-backend/api/middleware"
	cartsvc "github.com/davivienda-ecommerce/storefront-backend/internal/cart"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/types"
)

type stubCartService struct {
	cart   *cartsvc.CartDTO
	item   *cartsvc.ItemDTO
	batch  *cartsvc.BatchResult
	sum    *cartsvc.Summary
	err    error
	called string

	lastAdd      cartsvc.AddItemInput
	lastBatch    cartsvc.AddBatchInput
	lastPatch    cartsvc.ItemPatch
	lastQuantity int
	lastItemID   uuid.UUID
	lastCartID   uuid.UUID
}

func (s *stubCartService) CreateCart(ctx context.Context, identityID uuid.UUID) (*cartsvc.CartDTO, error) {
	s.called = "CreateCart"
	return s.cart, s.err
}

func (s *stubCartService) GetOrCreateCart(ctx context.Context, identityID uuid.UUID) (*cartsvc.CartDTO, error) {
	s.called = "GetOrCreateCart"
	return s.cart, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, identityID uuid.UUID, input cartsvc.AddItemInput) (*cartsvc.ItemDTO, error) {
	s.called = "AddItem"
	s.lastAdd = input
	return s.item, s.err
}

func (s *stubCartService) AddItems(ctx context.Context, identityID uuid.UUID, input cartsvc.AddBatchInput) (*cartsvc.BatchResult, error) {
	s.called = "AddItems"
	s.lastBatch = input
	return s.batch, s.err
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, identityID, itemID uuid.UUID, quantity int) (*cartsvc.ItemDTO, error) {
	s.called = "UpdateQuantity"
	s.lastItemID = itemID
	s.lastQuantity = quantity
	return s.item, s.err
}

func (s *stubCartService) PatchItem(ctx context.Context, identityID, itemID uuid.UUID, patch cartsvc.ItemPatch) (*cartsvc.ItemDTO, error) {
	s.called = "PatchItem"
	s.lastItemID = itemID
	s.lastPatch = patch
	return s.item, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, identityID, itemID uuid.UUID) error {
	s.called = "RemoveItem"
	s.lastItemID = itemID
	return s.err
}

func (s *stubCartService) ClearCart(ctx context.Context, identityID, cartID uuid.UUID) error {
	s.called = "ClearCart"
	s.lastCartID = cartID
	return s.err
}

func (s *stubCartService) GetItem(ctx context.Context, identityID, itemID uuid.UUID) (*cartsvc.ItemDTO, error) {
	s.called = "GetItem"
	s.lastItemID = itemID
	return s.item, s.err
}

func (s *stubCartService) ListItems(ctx context.Context, identityID, cartID uuid.UUID) ([]cartsvc.ItemDTO, error) {
	s.called = "ListItems"
	s.lastCartID = cartID
	if s.item == nil {
		return nil, s.err
	}
	return []cartsvc.ItemDTO{*s.item}, s.err
}

func (s *stubCartService) Summarize(ctx context.Context, identityID, cartID uuid.UUID) (*cartsvc.Summary, error) {
	s.called = "Summarize"
	s.lastCartID = cartID
	return s.sum, s.err
}

func newTestRouter(svc cartsvc.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/carts", CartCreate(svc, nil))
	r.Get("/api/v1/carts/me", CartMine(svc, nil))
	r.Get("/api/v1/carts/{cartId}/items", CartItems(svc, nil))
	r.Get("/api/v1/carts/{cartId}/summary", CartSummary(svc, nil))
	r.Delete("/api/v1/carts/{cartId}/items", CartClear(svc, nil))
	r.Post("/api/v1/cart-items", ItemAdd(svc, nil))
	r.Post("/api/v1/cart-items/batch", ItemsAddBatch(svc, nil))
	r.Put("/api/v1/cart-items/{itemId}/quantity", ItemUpdateQuantity(svc, nil))
	r.Patch("/api/v1/cart-items/{itemId}", ItemPatch(svc, nil))
	r.Delete("/api/v1/cart-items/{itemId}", ItemRemove(svc, nil))
	r.Get("/api/v1/cart-items/{itemId}", ItemFetch(svc, nil))
	return r
}

func serve(t *testing.T, svc cartsvc.Service, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req = req.WithContext(middleware.WithIdentity(req.Context(), uuid.New(), "buyer@example.com"))
	resp := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(resp, req)
	return resp
}

func TestCartCreateReturnsCreated(t *testing.T) {
	cart := &cartsvc.CartDTO{ID: uuid.New(), IdentityID: uuid.New(), CreatedAt: time.Now()}
	svc := &stubCartService{cart: cart}

	resp := serve(t, svc, http.MethodPost, "/api/v1/carts", "")
	require.Equal(t, http.StatusCreated, resp.Code)

	var envelope struct {
		Data cartsvc.CartDTO `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, cart.ID, envelope.Data.ID)
}

func TestCartCreateConflict(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.Newf(pkgerrors.ReasonCartExists, "cart already exists")}

	resp := serve(t, svc, http.MethodPost, "/api/v1/carts", "")
	require.Equal(t, http.StatusConflict, resp.Code)
}

func TestHandlersRequireIdentity(t *testing.T) {
	svc := &stubCartService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/carts/me", nil)
	resp := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(resp, req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
	require.Empty(t, svc.called)
}

func TestItemAddMapsDocument(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{item: &cartsvc.ItemDTO{ID: uuid.New(), ProductID: productID, Quantity: 2}}

	body := `{"product_id":"` + productID.String() + `","quantity":2,"document_type":" cc ","document_number":"10 20"}`
	resp := serve(t, svc, http.MethodPost, "/api/v1/cart-items", body)
	require.Equal(t, http.StatusCreated, resp.Code)

	require.Equal(t, productID, svc.lastAdd.ProductID)
	require.Equal(t, 2, svc.lastAdd.Quantity)
	require.NotNil(t, svc.lastAdd.Document)
	require.Equal(t, "CC", svc.lastAdd.Document.Type)
	require.Equal(t, "1020", svc.lastAdd.Document.Number)
}

func TestItemAddWithoutDocument(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{item: &cartsvc.ItemDTO{ID: uuid.New()}}

	resp := serve(t, svc, http.MethodPost, "/api/v1/cart-items", `{"product_id":"`+productID.String()+`","quantity":1}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	require.Nil(t, svc.lastAdd.Document)
	require.Nil(t, svc.lastAdd.CartID)
}

func TestItemAddRejectsHalfDocument(t *testing.T) {
	svc := &stubCartService{}

	resp := serve(t, svc, http.MethodPost, "/api/v1/cart-items", `{"product_id":"`+uuid.NewString()+`","quantity":1,"document_type":"CC"}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Empty(t, svc.called)
}

func TestItemAddRejectsMissingProduct(t *testing.T) {
	svc := &stubCartService{}

	resp := serve(t, svc, http.MethodPost, "/api/v1/cart-items", `{"quantity":1}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Empty(t, svc.called)
}

func TestItemsAddBatchStatus(t *testing.T) {
	svc := &stubCartService{batch: &cartsvc.BatchResult{CartID: uuid.New(), Inserted: 1, Skipped: 1}}
	body := `{"items":[{"product_id":"` + uuid.NewString() + `","quantity":1},{"product_id":"` + uuid.NewString() + `","quantity":3}]}`

	resp := serve(t, svc, http.MethodPost, "/api/v1/cart-items/batch", body)
	require.Equal(t, http.StatusCreated, resp.Code)
	require.Len(t, svc.lastBatch.Items, 2)
	require.Equal(t, 3, svc.lastBatch.Items[1].Quantity)

	svc.batch = &cartsvc.BatchResult{CartID: uuid.New(), Skipped: 2}
	resp = serve(t, svc, http.MethodPost, "/api/v1/cart-items/batch", body)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestItemsAddBatchRejectsEmptyList(t *testing.T) {
	svc := &stubCartService{}

	resp := serve(t, svc, http.MethodPost, "/api/v1/cart-items/batch", `{"items":[]}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Empty(t, svc.called)
}

func TestItemUpdateQuantity(t *testing.T) {
	itemID := uuid.New()
	svc := &stubCartService{item: &cartsvc.ItemDTO{ID: itemID, Quantity: 7}}

	resp := serve(t, svc, http.MethodPut, "/api/v1/cart-items/"+itemID.String()+"/quantity", `{"quantity":7}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, itemID, svc.lastItemID)
	require.Equal(t, 7, svc.lastQuantity)
}

func TestItemPatchPassesPresence(t *testing.T) {
	itemID := uuid.New()
	svc := &stubCartService{item: &cartsvc.ItemDTO{ID: itemID}}

	resp := serve(t, svc, http.MethodPatch, "/api/v1/cart-items/"+itemID.String(), `{}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.False(t, svc.lastPatch.Quantity.Set)

	resp = serve(t, svc, http.MethodPatch, "/api/v1/cart-items/"+itemID.String(), `{"quantity":null}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, svc.lastPatch.Quantity.Set)
	require.True(t, svc.lastPatch.Quantity.Null)

	resp = serve(t, svc, http.MethodPatch, "/api/v1/cart-items/"+itemID.String(), `{"quantity":4}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, types.NewField(4), svc.lastPatch.Quantity)
}

func TestItemRemoveAndFetch(t *testing.T) {
	itemID := uuid.New()
	svc := &stubCartService{item: &cartsvc.ItemDTO{ID: itemID}}

	resp := serve(t, svc, http.MethodDelete, "/api/v1/cart-items/"+itemID.String(), "")
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, "RemoveItem", svc.called)

	resp = serve(t, svc, http.MethodGet, "/api/v1/cart-items/"+itemID.String(), "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "GetItem", svc.called)
}

func TestItemFetchUnauthorized(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.Newf(pkgerrors.ReasonCartItemUnauthorized, "item belongs to another cart")}

	resp := serve(t, svc, http.MethodGet, "/api/v1/cart-items/"+uuid.NewString(), "")
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestItemRoutesRejectBadIDs(t *testing.T) {
	svc := &stubCartService{}

	resp := serve(t, svc, http.MethodGet, "/api/v1/cart-items/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	resp = serve(t, svc, http.MethodGet, "/api/v1/carts/not-a-uuid/summary", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Empty(t, svc.called)
}

func TestCartSummaryListAndClear(t *testing.T) {
	cartID := uuid.New()
	svc := &stubCartService{
		item: &cartsvc.ItemDTO{ID: uuid.New(), CartID: cartID},
		sum:  &cartsvc.Summary{CartID: cartID, TotalQuantity: 3, TotalPrice: types.NewMoney(decimal.RequireFromString("28.80"))},
	}

	resp := serve(t, svc, http.MethodGet, "/api/v1/carts/"+cartID.String()+"/summary", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"total_price":"28.80"`)

	resp = serve(t, svc, http.MethodGet, "/api/v1/carts/"+cartID.String()+"/items", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, cartID, svc.lastCartID)

	resp = serve(t, svc, http.MethodDelete, "/api/v1/carts/"+cartID.String()+"/items", "")
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, "ClearCart", svc.called)
}
