package product

import (
	"context"
	"testing"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/dbtest"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCatalogRequireActive(t *testing.T) {
	conn := dbtest.Open(t)
	catalog, err := NewCatalog(NewRepository(conn))
	require.NoError(t, err)

	active := dbtest.SeedProduct(t, conn, "Cafe", "10.00", "19", true)
	inactive := dbtest.SeedProduct(t, conn, "Te", "5.00", "0", false)

	got, err := catalog.RequireActive(context.Background(), active.ID)
	require.NoError(t, err)
	require.Equal(t, "Cafe", got.Name)
	require.Equal(t, "10", got.UnitValue.String())

	_, err = catalog.RequireActive(context.Background(), inactive.ID)
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonProductInactive), "got %v", err)

	_, err = catalog.RequireActive(context.Background(), uuid.New())
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonProductNotFound), "got %v", err)

	_, err = catalog.Get(context.Background(), uuid.Nil)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestCatalogGetManySkipsMissing(t *testing.T) {
	conn := dbtest.Open(t)
	catalog, err := NewCatalog(NewRepository(conn))
	require.NoError(t, err)

	p1 := dbtest.SeedProduct(t, conn, "A", "1.00", "19", true)
	p2 := dbtest.SeedProduct(t, conn, "B", "2.00", "0", true)

	rows, err := catalog.GetMany(context.Background(), []uuid.UUID{p1.ID, p2.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "B", rows[p2.ID].Name)

	empty, err := catalog.GetMany(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
