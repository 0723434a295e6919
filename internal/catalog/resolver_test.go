package catalog

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkarpushin/storefront/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Inventory{}, &models.Price{}))
	return db
}

func strptr(s string) *string { return &s }

func TestResolveInventoryByID(t *testing.T) {
	db := newTestDB(t)
	r := NewResolver(db)
	require.NoError(t, db.Create(&models.Inventory{ID: 42, ProductID: 7}).Error)

	inv, err := r.ResolveInventory(context.Background(), 42, nil)
	require.NoError(t, err)
	require.NotNil(t, inv)
	require.Equal(t, uint(7), inv.ProductID)
}

func TestResolveInventoryBySKUKey(t *testing.T) {
	db := newTestDB(t)
	r := NewResolver(db)
	require.NoError(t, db.Create(&models.Inventory{ID: 42, ProductID: 7, SKUKey: strptr("TEA-L")}).Error)

	inv, err := r.ResolveInventory(context.Background(), 0, strptr("TEA-L"))
	require.NoError(t, err)
	require.NotNil(t, inv)
	require.Equal(t, uint(42), inv.ID)
}

func TestResolveInventoryMissing(t *testing.T) {
	r := NewResolver(newTestDB(t))

	inv, err := r.ResolveInventory(context.Background(), 999, nil)
	require.NoError(t, err)
	require.Nil(t, inv)

	inv, err = r.ResolveInventory(context.Background(), 0, strptr("NOPE"))
	require.NoError(t, err)
	require.Nil(t, inv)

	inv, err = r.ResolveInventory(context.Background(), 0, nil)
	require.NoError(t, err)
	require.Nil(t, inv)
}

func TestResolveProductMissing(t *testing.T) {
	r := NewResolver(newTestDB(t))

	product, err := r.ResolveProduct(context.Background(), 404)
	require.NoError(t, err)
	require.Nil(t, product)
}

func TestResolvePrice(t *testing.T) {
	db := newTestDB(t)
	r := NewResolver(db)
	require.NoError(t, db.Create(&models.Price{ProductID: 7, SKUKey: strptr("TEA-L"), Amount: 150}).Error)
	require.NoError(t, db.Create(&models.Price{ProductID: 8, Amount: 80}).Error)

	amount, ok := r.ResolvePrice(context.Background(), 7, strptr("TEA-L"))
	require.True(t, ok)
	require.Equal(t, float64(150), amount)

	amount, ok = r.ResolvePrice(context.Background(), 8, nil)
	require.True(t, ok)
	require.Equal(t, float64(80), amount)
}

func TestResolvePriceMissDegradesToZero(t *testing.T) {
	r := NewResolver(newTestDB(t))

	amount, ok := r.ResolvePrice(context.Background(), 7, strptr("TEA-L"))
	require.False(t, ok)
	require.Equal(t, float64(0), amount)
}
