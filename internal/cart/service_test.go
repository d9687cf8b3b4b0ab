package cart

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/davivienda-ecommerce/storefront-backend/internal/identity"
	product "github.com/davivienda-ecommerce/storefront-backend/internal/products"
	"github.com/davivienda-ecommerce/storefront-backend/internal/stock"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/dbtest"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/models"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/logger"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/metrics"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc  Service
	conn *gorm.DB
	reg  *prometheus.Registry
}

func newFixture(t *testing.T, wrap func(CartRepository) CartRepository) *fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	logg := logger.New(logger.Options{Output: io.Discard})

	identities, err := identity.NewService(identity.NewRepository(conn), logg, time.Minute)
	require.NoError(t, err)
	catalog, err := product.NewCatalog(product.NewRepository(conn))
	require.NoError(t, err)
	ledger, err := stock.NewLedger(stock.NewRepository(conn))
	require.NoError(t, err)

	var repo CartRepository = NewRepository(conn)
	if wrap != nil {
		repo = wrap(repo)
	}
	reg := prometheus.NewRegistry()
	svc, err := NewService(repo, client, catalog, identities, ledger, logg, metrics.NewCheckoutMetrics(reg), "Cliente")
	require.NoError(t, err)
	return &fixture{svc: svc, conn: conn, reg: reg}
}

func (f *fixture) client(t *testing.T) uuid.UUID {
	t.Helper()
	return dbtest.SeedIdentity(t, f.conn, dbtest.Identity{RoleName: "Cliente"}).ID
}

func (f *fixture) counter(t *testing.T, name string) float64 {
	t.Helper()
	mfs, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestAddItemReplacesQuantity(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	buyer := f.client(t)
	p := dbtest.SeedProduct(t, f.conn, "Cafe", "10.00", "19", true)

	first, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, 2, first.Quantity)

	second, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 5})
	require.NoError(t, err)
	require.Equal(t, 5, second.Quantity)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Cafe", second.ProductName)
	require.Equal(t, "50.00", second.Calculation.Subtotal.String())

	require.EqualValues(t, 1, dbtest.Count(t, f.conn, &models.CartItem{}, "cart_id = ? AND product_id = ?", second.CartID, p.ID))
	require.EqualValues(t, 1, dbtest.Count(t, f.conn, &models.Cart{}, "identity_id = ?", buyer))
	require.Equal(t, float64(1), f.counter(t, "storefront_carts_created_total"))
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	buyer := f.client(t)
	active := dbtest.SeedProduct(t, f.conn, "Cafe", "10.00", "19", true)
	inactive := dbtest.SeedProduct(t, f.conn, "Te", "5.00", "0", false)

	_, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: active.ID, Quantity: 0})
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonInvalidQuantity), "got %v", err)

	_, err = f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: inactive.ID, Quantity: 1})
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonProductInactive), "got %v", err)

	_, err = f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: uuid.New(), Quantity: 1})
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonProductNotFound), "got %v", err)

	admin := dbtest.SeedIdentity(t, f.conn, dbtest.Identity{RoleName: "Administrador"}).ID
	_, err = f.svc.AddItem(ctx, admin, AddItemInput{ProductID: active.ID, Quantity: 1})
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonRoleNotAllowed), "got %v", err)

	require.EqualValues(t, 0, dbtest.Count(t, f.conn, &models.CartItem{}, ""))
}

func TestAddItemChecksDocumentAgainstCaller(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	buyer := dbtest.SeedIdentity(t, f.conn, dbtest.Identity{DocumentCode: "CC", DocumentNumber: "100"}).ID
	dbtest.SeedIdentity(t, f.conn, dbtest.Identity{DocumentCode: "CC", DocumentNumber: "200"})
	p := dbtest.SeedProduct(t, f.conn, "Cafe", "10.00", "19", true)

	_, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 1, Document: &DocumentRef{Type: "CC", Number: "200"}})
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonCartUnauthorized), "got %v", err)

	item, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 1, Document: &DocumentRef{Type: "cc", Number: "100"}})
	require.NoError(t, err)
	require.Equal(t, 1, item.Quantity)
}

func TestGetOrCreateCartKeepsOneCart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	buyer := f.client(t)

	first, err := f.svc.GetOrCreateCart(ctx, buyer)
	require.NoError(t, err)
	second, err := f.svc.GetOrCreateCart(ctx, buyer)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.EqualValues(t, 1, dbtest.Count(t, f.conn, &models.Cart{}, "identity_id = ?", buyer))
}

// racingRepo hides an existing cart from the first lookups, as if another
// request inserted it after this one checked.
type racingRepo struct {
	CartRepository
	misses *int
}

func (r racingRepo) WithTx(tx *gorm.DB) CartRepository {
	return racingRepo{CartRepository: r.CartRepository.WithTx(tx), misses: r.misses}
}

func (r racingRepo) FindByIdentity(ctx context.Context, identityID uuid.UUID) (*models.Cart, error) {
	if *r.misses > 0 {
		*r.misses--
		return nil, gorm.ErrRecordNotFound
	}
	return r.CartRepository.FindByIdentity(ctx, identityID)
}

func TestGetOrCreateCartRecoversFromLostRace(t *testing.T) {
	misses := 1
	f := newFixture(t, func(inner CartRepository) CartRepository {
		return racingRepo{CartRepository: inner, misses: &misses}
	})
	ctx := context.Background()
	buyer := f.client(t)
	winner := dbtest.SeedCart(t, f.conn, buyer, nil)

	got, err := f.svc.GetOrCreateCart(ctx, buyer)
	require.NoError(t, err)
	require.Equal(t, winner.ID, got.ID)
	require.EqualValues(t, 1, dbtest.Count(t, f.conn, &models.Cart{}, "identity_id = ?", buyer))
	require.Equal(t, float64(1), f.counter(t, "storefront_cart_create_races_recovered_total"))
	require.Equal(t, float64(0), f.counter(t, "storefront_carts_created_total"))
}

// itemRacingRepo hides an existing line from the first item lookups, as if
// another request inserted the same product after this one checked.
type itemRacingRepo struct {
	CartRepository
	misses *int
}

func (r itemRacingRepo) WithTx(tx *gorm.DB) CartRepository {
	return itemRacingRepo{CartRepository: r.CartRepository.WithTx(tx), misses: r.misses}
}

func (r itemRacingRepo) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	if *r.misses > 0 {
		*r.misses--
		return nil, gorm.ErrRecordNotFound
	}
	return r.CartRepository.FindItem(ctx, cartID, productID)
}

func TestAddItemLostInsertRaceOverwritesQuantity(t *testing.T) {
	misses := 1
	f := newFixture(t, func(inner CartRepository) CartRepository {
		return itemRacingRepo{CartRepository: inner, misses: &misses}
	})
	ctx := context.Background()
	buyer := f.client(t)
	p := dbtest.SeedProduct(t, f.conn, "Cafe", "10.00", "19", true)
	cart := dbtest.SeedCart(t, f.conn, buyer, map[uuid.UUID]int{p.ID: 2})

	item, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 7})
	require.NoError(t, err)
	require.Equal(t, 0, misses)
	require.Equal(t, cart.ID, item.CartID)
	require.Equal(t, 7, item.Quantity)
	require.EqualValues(t, 1, dbtest.Count(t, f.conn, &models.CartItem{}, "cart_id = ? AND product_id = ?", cart.ID, p.ID))

	var stored models.CartItem
	require.NoError(t, f.conn.First(&stored, "cart_id = ? AND product_id = ?", cart.ID, p.ID).Error)
	require.Equal(t, 7, stored.Quantity)
}

func TestConcurrentFirstRequestsShareOneCart(t *testing.T) {
	f := newFixture(t, nil)
	sqlDB, err := f.conn.DB()
	require.NoError(t, err)
	// shared-cache sqlite reports table locks instead of waiting on them
	sqlDB.SetMaxOpenConns(1)

	ctx := context.Background()
	buyer := f.client(t)
	p := dbtest.SeedProduct(t, f.conn, "Cafe", "10.00", "19", true)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			if _, err := f.svc.GetOrCreateCart(ctx, buyer); err != nil {
				errs <- err
			}
			if _, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: qty}); err != nil {
				errs <- err
			}
		}(i + 1)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.EqualValues(t, 1, dbtest.Count(t, f.conn, &models.Cart{}, "identity_id = ?", buyer))
	require.EqualValues(t, 1, dbtest.Count(t, f.conn, &models.CartItem{}, "product_id = ?", p.ID))
	require.Equal(t, float64(1), f.counter(t, "storefront_carts_created_total"))
}

func TestCreateCartRejectsExistingCart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	buyer := f.client(t)

	created, err := f.svc.CreateCart(ctx, buyer)
	require.NoError(t, err)
	require.Equal(t, buyer, created.IdentityID)

	_, err = f.svc.CreateCart(ctx, buyer)
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonCartExists), "got %v", err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestCreateCartLosingRaceIsConflict(t *testing.T) {
	misses := 1
	f := newFixture(t, func(inner CartRepository) CartRepository {
		return racingRepo{CartRepository: inner, misses: &misses}
	})
	buyer := f.client(t)
	dbtest.SeedCart(t, f.conn, buyer, nil)

	_, err := f.svc.CreateCart(context.Background(), buyer)
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonCartExists), "got %v", err)
	require.EqualValues(t, 1, dbtest.Count(t, f.conn, &models.Cart{}, "identity_id = ?", buyer))
}

func TestUpdateQuantityRequiresOwnership(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.client(t)
	other := f.client(t)
	p := dbtest.SeedProduct(t, f.conn, "Cafe", "10.00", "19", true)

	item, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = f.svc.UpdateQuantity(ctx, other, item.ID, 3)
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonCartItemUnauthorized), "got %v", err)

	var stored models.CartItem
	require.NoError(t, f.conn.First(&stored, "id = ?", item.ID).Error)
	require.Equal(t, 2, stored.Quantity)

	_, err = f.svc.UpdateQuantity(ctx, owner, item.ID, 0)
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonInvalidQuantity), "got %v", err)

	_, err = f.svc.UpdateQuantity(ctx, owner, uuid.New(), 3)
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonCartItemNotFound), "got %v", err)

	updated, err := f.svc.UpdateQuantity(ctx, owner, item.ID, 3)
	require.NoError(t, err)
	require.Equal(t, 3, updated.Quantity)
}

func TestPatchItem(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	buyer := f.client(t)
	p := dbtest.SeedProduct(t, f.conn, "Cafe", "10.00", "19", true)
	item, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	var empty ItemPatch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	unchanged, err := f.svc.PatchItem(ctx, buyer, item.ID, empty)
	require.NoError(t, err)
	require.Equal(t, 2, unchanged.Quantity)

	var cleared ItemPatch
	require.NoError(t, json.Unmarshal([]byte(`{"quantity":null}`), &cleared))
	_, err = f.svc.PatchItem(ctx, buyer, item.ID, cleared)
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonInvalidQuantity), "got %v", err)

	patched, err := f.svc.PatchItem(ctx, buyer, item.ID, ItemPatch{Quantity: types.NewField(7)})
	require.NoError(t, err)
	require.Equal(t, 7, patched.Quantity)
}

func TestRemoveAndClear(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.client(t)
	other := f.client(t)
	p1 := dbtest.SeedProduct(t, f.conn, "A", "1.00", "0", true)
	p2 := dbtest.SeedProduct(t, f.conn, "B", "2.00", "0", true)

	item, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: p1.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, owner, AddItemInput{ProductID: p2.ID, Quantity: 1})
	require.NoError(t, err)

	err = f.svc.RemoveItem(ctx, other, item.ID)
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonCartItemUnauthorized), "got %v", err)

	require.NoError(t, f.svc.RemoveItem(ctx, owner, item.ID))
	_, err = f.svc.GetItem(ctx, owner, item.ID)
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonCartItemNotFound), "got %v", err)

	err = f.svc.ClearCart(ctx, other, item.CartID)
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonCartUnauthorized), "got %v", err)

	require.NoError(t, f.svc.ClearCart(ctx, owner, item.CartID))
	require.NoError(t, f.svc.ClearCart(ctx, owner, item.CartID))
	require.EqualValues(t, 0, dbtest.Count(t, f.conn, &models.CartItem{}, "cart_id = ?", item.CartID))

	err = f.svc.ClearCart(ctx, owner, uuid.New())
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonCartNotFound), "got %v", err)
}

func TestAddItemsSkipsExistingAndReportsFailures(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	buyer := f.client(t)
	existing := dbtest.SeedProduct(t, f.conn, "Existing", "1.00", "0", true)
	fresh := dbtest.SeedProduct(t, f.conn, "Fresh", "2.00", "19", true)
	inactive := dbtest.SeedProduct(t, f.conn, "Inactive", "3.00", "0", false)

	_, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: existing.ID, Quantity: 1})
	require.NoError(t, err)

	result, err := f.svc.AddItems(ctx, buyer, AddBatchInput{Items: []BatchItem{
		{ProductID: existing.ID, Quantity: 3},
		{ProductID: fresh.ID, Quantity: 2},
		{ProductID: inactive.ID, Quantity: 1},
		{ProductID: fresh.ID, Quantity: 0},
	}})
	require.NoError(t, err)
	require.Equal(t, 1, result.Inserted)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, 2, result.Failed)
	require.Len(t, result.Items, 1)
	require.Equal(t, fresh.ID, result.Items[0].ProductID)

	reasons := map[string]bool{}
	for _, failure := range result.Failures {
		reasons[failure.Reason] = true
	}
	require.True(t, reasons[pkgerrors.ReasonProductInactive.String()])
	require.True(t, reasons[pkgerrors.ReasonInvalidQuantity.String()])

	var stored models.CartItem
	require.NoError(t, f.conn.First(&stored, "product_id = ?", existing.ID).Error)
	require.Equal(t, 1, stored.Quantity)

	_, err = f.svc.AddItems(ctx, buyer, AddBatchInput{})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestAddItemsAllInvalidLeavesCartUntouched(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	buyer := f.client(t)
	inactive := dbtest.SeedProduct(t, f.conn, "Inactive", "3.00", "0", false)

	result, err := f.svc.AddItems(ctx, buyer, AddBatchInput{Items: []BatchItem{
		{ProductID: inactive.ID, Quantity: 1},
		{ProductID: uuid.New(), Quantity: 0},
	}})
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, result.CartID)
	require.Equal(t, 0, result.Inserted)
	require.Equal(t, 2, result.Failed)
	require.Len(t, result.Failures, 2)
	require.Empty(t, result.Items)

	require.EqualValues(t, 0, dbtest.Count(t, f.conn, &models.Cart{}, "identity_id = ?", buyer))
	require.Equal(t, float64(0), f.counter(t, "storefront_carts_created_total"))
}

func TestAddItemsTargetCart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	buyer := f.client(t)
	other := f.client(t)
	p := dbtest.SeedProduct(t, f.conn, "Cafe", "10.00", "19", true)
	foreign := dbtest.SeedCart(t, f.conn, other, nil)

	_, err := f.svc.AddItems(ctx, buyer, AddBatchInput{CartID: &foreign.ID, Items: []BatchItem{{ProductID: p.ID, Quantity: 1}}})
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonCartUnauthorized), "got %v", err)

	unknown := uuid.New()
	result, err := f.svc.AddItems(ctx, buyer, AddBatchInput{CartID: &unknown, Items: []BatchItem{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)
	require.NotEqual(t, unknown, result.CartID)

	var cart models.Cart
	require.NoError(t, f.conn.First(&cart, "identity_id = ?", buyer).Error)
	require.Equal(t, cart.ID, result.CartID)

	again, err := f.svc.AddItems(ctx, buyer, AddBatchInput{CartID: &cart.ID, Items: []BatchItem{{ProductID: p.ID, Quantity: 4}}})
	require.NoError(t, err)
	require.Equal(t, 0, again.Inserted)
	require.Equal(t, 1, again.Skipped)
}

func TestSummarizeCart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	buyer := f.client(t)
	p1 := dbtest.SeedProduct(t, f.conn, "Cafe", "10.00", "19", true)
	p2 := dbtest.SeedProduct(t, f.conn, "Pan", "5.00", "0", true)

	item, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p1.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p2.ID, Quantity: 1})
	require.NoError(t, err)

	summary, err := f.svc.Summarize(ctx, buyer, item.CartID)
	require.NoError(t, err)
	require.Equal(t, 3, summary.TotalQuantity)
	require.Equal(t, "25.00", summary.TotalSubtotal.String())
	require.Equal(t, "3.80", summary.TotalIVA.String())
	require.Equal(t, "28.80", summary.TotalPrice.String())
	require.Len(t, summary.Items, 2)

	other := f.client(t)
	_, err = f.svc.Summarize(ctx, other, item.CartID)
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonCartUnauthorized), "got %v", err)
}

func TestListItemsIncludesStock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	buyer := f.client(t)
	stocked := dbtest.SeedProduct(t, f.conn, "Cafe", "10.00", "19", true)
	unstocked := dbtest.SeedProduct(t, f.conn, "Pan", "5.00", "0", true)
	dbtest.SeedStock(t, f.conn, stocked.ID, 7)

	item, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: stocked.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: unstocked.ID, Quantity: 1})
	require.NoError(t, err)

	items, err := f.svc.ListItems(ctx, buyer, item.CartID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, line := range items {
		require.NotNil(t, line.StockAvailable)
		switch line.ProductID {
		case stocked.ID:
			require.Equal(t, 7, *line.StockAvailable)
		case unstocked.ID:
			require.Equal(t, 0, *line.StockAvailable)
		}
	}
}
