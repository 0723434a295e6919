package cart

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkarpushin/storefront/internal/catalog"
	"github.com/mkarpushin/storefront/internal/events"
	"github.com/mkarpushin/storefront/internal/identity"
	"github.com/mkarpushin/storefront/internal/models"
	"github.com/mkarpushin/storefront/internal/repo"
	"github.com/mkarpushin/storefront/internal/service/merge"
	"github.com/mkarpushin/storefront/internal/transport"
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	H  *CartHandler
	DB *gorm.DB
}

var testSecret = []byte("test-secret")

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.Inventory{},
		&models.Price{},
		&models.Cart{},
		&models.CartItem{},
	))

	cartRepo := repo.NewCartRepository(db)
	engine := merge.NewEngine(cartRepo, catalog.NewResolver(db))

	return &testEnv{
		T:  t,
		E:  echo.New(),
		DB: db,
		H: &CartHandler{
			Repo:      cartRepo,
			Engine:    engine,
			Producer:  events.Noop{},
			JWTSecret: testSecret,
		},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return rec, env.E.NewContext(req, rec)
}

func accessCookie(t *testing.T, userID uint) *http.Cookie {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(15 * time.Minute).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return &http.Cookie{Name: identity.AccessCookie, Value: signed, Path: "/"}
}

func strptr(s string) *string { return &s }

func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&models.Product{ID: 7, Name: "oolong tea", Price: 180}).Error)
	require.NoError(t, db.Create(&models.Inventory{ID: 42, ProductID: 7, SKUKey: strptr("TEA-L")}).Error)
	require.NoError(t, db.Create(&models.Price{ProductID: 7, SKUKey: strptr("TEA-L"), Amount: 150}).Error)
}

func TestGetCartGuestSnapshot(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodGet, "/frontend/cart", nil)
	require.NoError(t, env.H.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp transport.CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Nil(t, resp.ID)
	require.Empty(t, resp.Items)
	require.Equal(t, 0, resp.Totals.Quantity)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, identity.GuestCookie, cookies[0].Name)

	// Nothing is ever persisted for a guest.
	var carts int64
	require.NoError(t, env.DB.Model(&models.Cart{}).Count(&carts).Error)
	require.Equal(t, int64(0), carts)
}

func TestGetCartGuestKeepsExistingToken(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodGet, "/frontend/cart", nil,
		&http.Cookie{Name: identity.GuestCookie, Value: "existing"})
	require.NoError(t, env.H.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Result().Cookies())
}

func TestGetCartCreatesActiveCart(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodGet, "/frontend/cart", nil, accessCookie(t, 1))
	require.NoError(t, env.H.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp transport.CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.ID)
	require.Equal(t, models.CartStatusActive, resp.Status)
	require.Equal(t, models.DefaultCurrency, resp.Currency)
	require.Empty(t, resp.Items)

	var carts int64
	require.NoError(t, env.DB.Model(&models.Cart{}).Where("user_id = ?", 1).Count(&carts).Error)
	require.Equal(t, int64(1), carts)
}

func TestMergeCartUnauthorized(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/frontend/cart/merge", map[string]any{"draft_items": []any{}})
	err := env.H.MergeCart(c)
	require.Error(t, err)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestMergeCartHappyPath(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(t, env.DB)

	body := map[string]any{
		"draft_items": []map[string]any{
			{"product_id": 7, "inventory_id": 42, "quantity": 2, "selected_options": map[string]string{"size": "L"}},
		},
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/frontend/cart/merge", body, accessCookie(t, 1))
	require.NoError(t, env.H.MergeCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Cart    transport.CartResponse `json:"cart"`
		Summary merge.Summary          `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, merge.Summary{Added: 1}, resp.Summary)
	require.Len(t, resp.Cart.Items, 1)

	item := resp.Cart.Items[0]
	require.Equal(t, uint(7), item.ProductID)
	require.Equal(t, uint(42), item.InventoryID)
	require.Equal(t, 2, item.Quantity)
	require.Equal(t, float64(150), item.UnitPrice)
	require.Equal(t, float64(300), item.LineTotal)
	require.Equal(t, "L", item.SelectedOptions["size"])
}

func TestMergeCartMissingDraftItemsIsNoOp(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/frontend/cart/merge", map[string]any{}, accessCookie(t, 1))
	require.NoError(t, env.H.MergeCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Summary merge.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, merge.Summary{}, resp.Summary)
}

func TestMergeCartMalformedDraftItemsIsNoOp(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/frontend/cart/merge",
		map[string]any{"draft_items": "not-an-array"}, accessCookie(t, 1))
	require.NoError(t, env.H.MergeCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Summary merge.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, merge.Summary{}, resp.Summary)
}

func TestMergeCartStaleDraftReportsRemoved(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(t, env.DB)

	body := map[string]any{
		"draft_items": []map[string]any{
			{"inventory_id": 42, "quantity": 1},
			{"inventory_id": 999, "quantity": 1},
		},
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/frontend/cart/merge", body, accessCookie(t, 1))
	require.NoError(t, env.H.MergeCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Cart    transport.CartResponse `json:"cart"`
		Summary merge.Summary          `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, merge.Summary{Added: 1, Removed: 1}, resp.Summary)
	require.Len(t, resp.Cart.Items, 1)
}
