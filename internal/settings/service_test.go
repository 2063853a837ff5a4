package settings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukkan-pos/dukkan/internal/inventory"
	"github.com/dukkan-pos/dukkan/internal/shared"
	"github.com/dukkan-pos/dukkan/internal/store"
)

type stubProducts struct {
	items []inventory.Product
	err   error
}

func (s stubProducts) ListProducts(context.Context) ([]inventory.Product, error) { return s.items, s.err }

type stubDebt struct{}

func (stubDebt) TotalDebt(context.Context) (decimal.Decimal, int, error) {
	return decimal.RequireFromString("12.5"), 3, nil
}

type stubRevenue struct{}

func (stubRevenue) Revenue(context.Context) (decimal.Decimal, decimal.Decimal, int, error) {
	return decimal.NewFromInt(100), decimal.NewFromInt(80), 4, nil
}

func newTestService(products ProductLister) (*Service, store.Store) {
	st := store.NewMemory()
	cfg := DashboardConfig{CurrencyLabel: "SYP", ExchangeRateLabel: "50,000"}
	return NewService(st, products, stubDebt{}, stubRevenue{}, cfg, nil), st
}

func TestSetupGate(t *testing.T) {
	svc, _ := newTestService(stubProducts{})
	ctx := context.Background()

	_, err := svc.StoreInfo(ctx)
	assert.ErrorIs(t, err, shared.ErrSetupRequired)
	ok, err := svc.Configured(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Setup(ctx, StoreInfo{Name: " ", Phone: "1"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")

	info, err := svc.Setup(ctx, StoreInfo{Name: " Dukkan Abu Ali ", Phone: "0944123456"})
	require.NoError(t, err)
	assert.Equal(t, "Dukkan Abu Ali", info.Name)

	ok, err = svc.Configured(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRequireSetupMiddleware(t *testing.T) {
	svc, _ := newTestService(stubProducts{})
	h := NewHandler(nil, svc)
	r := chi.NewRouter()
	r.With(h.RequireSetup).Get("/pos", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pos", nil))
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)

	_, err := svc.Setup(context.Background(), StoreInfo{Name: "Shop", Phone: "1"})
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pos", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDashboard(t *testing.T) {
	products := stubProducts{items: []inventory.Product{
		{ID: "a", Quantity: 4, PurchasePrice: decimal.NewFromInt(2)},
		{ID: "b", Quantity: 0, PurchasePrice: decimal.NewFromInt(9)},
	}}
	svc, _ := newTestService(products)
	ctx := context.Background()
	_, err := svc.Setup(ctx, StoreInfo{Name: "Shop", Phone: "1"})
	require.NoError(t, err)

	summary, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Shop", summary.Store.Name)
	assert.Equal(t, 2, summary.ProductCount)
	assert.Equal(t, 1, summary.OutOfStockCount)
	assert.True(t, summary.StockValue.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, 3, summary.CustomerCount)
	assert.True(t, summary.OutstandingDebt.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 4, summary.SaleCount)
	assert.True(t, summary.Revenue.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "50,000", summary.ExchangeRateLabel)
}

func TestDashboardPropagatesErrors(t *testing.T) {
	boom := errors.New("disk gone")
	svc, _ := newTestService(stubProducts{err: boom})
	_, err := svc.Setup(context.Background(), StoreInfo{Name: "Shop", Phone: "1"})
	require.NoError(t, err)

	_, err = svc.Dashboard(context.Background())
	assert.ErrorIs(t, err, boom)
}
