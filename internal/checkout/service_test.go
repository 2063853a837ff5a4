package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukkan-pos/dukkan/internal/customers"
	"github.com/dukkan-pos/dukkan/internal/inventory"
	"github.com/dukkan-pos/dukkan/internal/shared"
	"github.com/dukkan-pos/dukkan/internal/store"
)

var fixedNow = time.Date(2025, 3, 1, 12, 30, 0, 0, time.FixedZone("AST", 3*3600))

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
	revenue  decimal.Decimal
}

func (r *outcomeRecorder) CheckoutRecorded(outcome string, revenue decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
	r.revenue = r.revenue.Add(revenue)
}

type fixture struct {
	svc      *Service
	store    store.Store
	recorder *outcomeRecorder
}

func newFixture(t *testing.T, policy OverpaymentPolicy) *fixture {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	st := store.NewMemory()
	rec := &outcomeRecorder{revenue: decimal.Zero}
	svc := NewService(st, node, Config{Policy: policy, Now: func() time.Time { return fixedNow }}, nil, rec)
	return &fixture{svc: svc, store: st, recorder: rec}
}

func (f *fixture) seed(t *testing.T, products []inventory.Product, custs []customers.Customer) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, store.KeyProducts, products))
	if custs != nil {
		require.NoError(t, f.store.Save(ctx, store.KeyCustomers, custs))
	}
}

func (f *fixture) products(t *testing.T) []inventory.Product {
	t.Helper()
	out, err := store.LoadList[inventory.Product](context.Background(), f.store, store.KeyProducts)
	require.NoError(t, err)
	return out
}

func (f *fixture) customers(t *testing.T) []customers.Customer {
	t.Helper()
	out, err := store.LoadList[customers.Customer](context.Background(), f.store, store.KeyCustomers)
	require.NoError(t, err)
	return out
}

func (f *fixture) raw(t *testing.T, key store.Key) string {
	t.Helper()
	var raw json.RawMessage
	_, err := f.store.Load(context.Background(), key, &raw)
	require.NoError(t, err)
	return string(raw)
}

func (f *fixture) cart(t *testing.T, lines ...Line) *Cart {
	t.Helper()
	cart, _, err := f.svc.BuildCart(context.Background(), lines)
	require.NoError(t, err)
	return cart
}

func product(id, name string, qty int, price string) inventory.Product {
	return inventory.Product{
		ID:            id,
		Name:          name,
		Quantity:      qty,
		Unit:          inventory.UnitBox,
		PurchasePrice: decimal.RequireFromString(price).Div(decimal.NewFromInt(2)),
		SellPrice:     decimal.RequireFromString(price),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCheckoutWalkIn(t *testing.T) {
	f := newFixture(t, PolicyClamp)
	f.seed(t, []inventory.Product{product("A", "Apple", 5, "10")}, nil)

	sale, err := f.svc.Checkout(context.Background(), Request{Cart: f.cart(t, Line{ProductID: "A", Quantity: 2}), AmountPaid: dec("20")})
	require.NoError(t, err)

	assert.True(t, sale.Total.Equal(dec("20")))
	assert.True(t, sale.Remaining().IsZero())
	assert.Nil(t, sale.Customer)
	assert.Equal(t, fixedNow.UTC(), sale.Date)
	assert.Equal(t, time.UTC, sale.Date.Location())
	require.Len(t, sale.Items, 1)
	assert.Equal(t, 2, sale.Items[0].Quantity)
	assert.Equal(t, 5, sale.Items[0].Product.Quantity, "snapshot is taken before the decrement")

	assert.Equal(t, 3, f.products(t)[0].Quantity)
	sales, err := f.svc.ListSales(context.Background())
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, sale.ID, sales[0].ID)
	assert.Equal(t, []string{OutcomeOK}, f.recorder.outcomes)
}

func TestCheckoutOnCredit(t *testing.T) {
	f := newFixture(t, PolicyClamp)
	f.seed(t,
		[]inventory.Product{product("A", "Apple", 5, "10")},
		[]customers.Customer{{ID: "C", Name: "Ali", Phone: "0944", Debt: decimal.Zero}})

	sale, err := f.svc.Checkout(context.Background(), Request{Cart: f.cart(t, Line{ProductID: "A", Quantity: 2}), CustomerID: "C", AmountPaid: dec("15")})
	require.NoError(t, err)

	assert.True(t, f.customers(t)[0].Debt.Equal(dec("5")))
	require.NotNil(t, sale.Customer)
	assert.Equal(t, CustomerRef{ID: "C", Name: "Ali", Phone: "0944"}, *sale.Customer)
	assert.True(t, sale.Remaining().Equal(dec("5")))
}

func TestCheckoutDebtAccumulates(t *testing.T) {
	f := newFixture(t, PolicyClamp)
	f.seed(t,
		[]inventory.Product{product("A", "Apple", 10, "3.25")},
		[]customers.Customer{{ID: "C", Name: "Ali", Phone: "1", Debt: dec("1.5")}})

	_, err := f.svc.Checkout(context.Background(), Request{Cart: f.cart(t, Line{ProductID: "A", Quantity: 4}), CustomerID: "C", AmountPaid: dec("0")})
	require.NoError(t, err)
	assert.True(t, f.customers(t)[0].Debt.Equal(dec("14.5")))
}

func TestCheckoutOverpayment(t *testing.T) {
	cases := map[OverpaymentPolicy]string{
		PolicyClamp:  "7",
		PolicyCredit: "2",
	}
	for policy, wantDebt := range cases {
		t.Run(string(policy), func(t *testing.T) {
			f := newFixture(t, policy)
			f.seed(t,
				[]inventory.Product{product("A", "Apple", 5, "10")},
				[]customers.Customer{{ID: "C", Name: "Ali", Phone: "1", Debt: dec("7")}})

			sale, err := f.svc.Checkout(context.Background(), Request{Cart: f.cart(t, Line{ProductID: "A", Quantity: 1}), CustomerID: "C", AmountPaid: dec("15")})
			require.NoError(t, err)
			assert.True(t, sale.AmountPaid.Equal(dec("15")))
			assert.True(t, f.customers(t)[0].Debt.Equal(dec(wantDebt)), "debt %s", f.customers(t)[0].Debt)
		})
	}
}

func TestCheckoutInsufficientStockChangesNothing(t *testing.T) {
	f := newFixture(t, PolicyClamp)
	f.seed(t,
		[]inventory.Product{product("A", "Apple", 5, "10"), product("B", "Bread", 1, "4")},
		[]customers.Customer{{ID: "C", Name: "Ali", Phone: "1", Debt: decimal.Zero}})
	ctx := context.Background()
	cart := f.cart(t, Line{ProductID: "A", Quantity: 2}, Line{ProductID: "B", Quantity: 1})

	// another sale takes the last bread after the cart was built
	_, err := f.svc.Checkout(ctx, Request{Cart: f.cart(t, Line{ProductID: "B", Quantity: 1}), AmountPaid: dec("4")})
	require.NoError(t, err)

	beforeProducts, beforeCustomers, beforeSales := f.raw(t, store.KeyProducts), f.raw(t, store.KeyCustomers), f.raw(t, store.KeySales)

	_, err = f.svc.Checkout(ctx, Request{Cart: cart, CustomerID: "C", AmountPaid: dec("0")})
	var stock *shared.InsufficientStockError
	require.ErrorAs(t, err, &stock)
	assert.Equal(t, "B", stock.ProductID)
	assert.Equal(t, 0, stock.Available)

	assert.Equal(t, beforeProducts, f.raw(t, store.KeyProducts))
	assert.Equal(t, beforeCustomers, f.raw(t, store.KeyCustomers))
	assert.Equal(t, beforeSales, f.raw(t, store.KeySales))
	assert.Equal(t, []string{OutcomeOK, OutcomeInsufficientStock}, f.recorder.outcomes)
}

func TestCheckoutInvariantViolations(t *testing.T) {
	f := newFixture(t, PolicyClamp)
	f.seed(t, []inventory.Product{product("A", "Apple", 5, "10")}, []customers.Customer{})
	ctx := context.Background()
	cart := f.cart(t, Line{ProductID: "A", Quantity: 1})

	require.NoError(t, f.store.Save(ctx, store.KeyProducts, []inventory.Product{}))
	_, err := f.svc.Checkout(ctx, Request{Cart: cart, AmountPaid: dec("10")})
	var inv *shared.InvariantViolation
	require.ErrorAs(t, err, &inv)
	assert.Contains(t, inv.Detail, "A")

	sales, err := f.svc.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestCheckoutRejectsUnknownCustomer(t *testing.T) {
	f := newFixture(t, PolicyClamp)
	f.seed(t, []inventory.Product{product("A", "Apple", 5, "10")}, []customers.Customer{})
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, Request{Cart: f.cart(t, Line{ProductID: "A", Quantity: 1}), CustomerID: "ghost", AmountPaid: dec("0")})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "customerId")
	assert.NotErrorIs(t, err, shared.ErrInvariant)
	assert.Equal(t, 5, f.products(t)[0].Quantity)
	assert.Equal(t, []string{OutcomeValidation}, f.recorder.outcomes)

	sales, err := f.svc.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestCheckoutRejectsBadRequests(t *testing.T) {
	f := newFixture(t, PolicyClamp)
	f.seed(t, []inventory.Product{product("A", "Apple", 5, "10")}, nil)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, Request{Cart: NewCart(), AmountPaid: dec("0")})
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = f.svc.Checkout(ctx, Request{AmountPaid: dec("0")})
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = f.svc.Checkout(ctx, Request{Cart: f.cart(t, Line{ProductID: "A", Quantity: 1}), AmountPaid: dec("-1")})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, []string{OutcomeValidation, OutcomeValidation, OutcomeValidation}, f.recorder.outcomes)
}

func TestSaleTotalIsIndependentOfLaterEdits(t *testing.T) {
	f := newFixture(t, PolicyClamp)
	f.seed(t, []inventory.Product{product("A", "Apple", 5, "10"), product("B", "Bread", 5, "2.5")}, nil)
	ctx := context.Background()

	sale, err := f.svc.Checkout(ctx, Request{Cart: f.cart(t, Line{ProductID: "A", Quantity: 2}, Line{ProductID: "B", Quantity: 3}), AmountPaid: dec("27.5")})
	require.NoError(t, err)
	assert.True(t, sale.Total.Equal(dec("27.5")))
	assert.True(t, sale.Total.Equal(sale.ItemsTotal()))

	products := f.products(t)
	products[0].SellPrice = dec("99")
	products[1].Name = "Renamed"
	require.NoError(t, f.store.Save(ctx, store.KeyProducts, products))

	got, err := f.svc.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(dec("27.5")))
	assert.True(t, got.Total.Equal(got.ItemsTotal()))
	assert.Equal(t, "Bread", got.Items[1].Product.Name)
}

func TestSalesUnchangedByUnrelatedOperations(t *testing.T) {
	f := newFixture(t, PolicyClamp)
	f.seed(t, []inventory.Product{product("A", "Apple", 5, "10")}, nil)
	ctx := context.Background()
	_, err := f.svc.Checkout(ctx, Request{Cart: f.cart(t, Line{ProductID: "A", Quantity: 1}), AmountPaid: dec("10")})
	require.NoError(t, err)
	before := f.raw(t, store.KeySales)

	inv := inventory.NewService(inventory.NewRepository(f.store), nil, nil)
	_, err = inv.AddProduct(ctx, inventory.ProductInput{Name: "Milk", Quantity: 3, PurchasePrice: 1, SellPrice: 2})
	require.NoError(t, err)
	_, err = inv.UpdateProduct(ctx, "A", inventory.ProductInput{Name: "Green apple", Quantity: 50, PurchasePrice: 1, SellPrice: 20})
	require.NoError(t, err)
	_, err = inv.ReorderByCategory(ctx)
	require.NoError(t, err)
	cs := customers.NewService(customers.NewRepository(f.store), nil)
	_, err = cs.AddCustomer(ctx, customers.CreateCustomerRequest{Name: "Sara", Phone: "1"})
	require.NoError(t, err)

	assert.Equal(t, before, f.raw(t, store.KeySales))
}

func TestStockNeverNegative(t *testing.T) {
	f := newFixture(t, PolicyClamp)
	f.seed(t, []inventory.Product{product("A", "Apple", 7, "1"), product("B", "Bread", 3, "2"), product("C", "Cheese", 0, "5")}, nil)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	ids := []string{"A", "B", "C"}

	for i := 0; i < 200; i++ {
		cart := NewCart()
		// build the cart from a stale, generous view of stock to exercise the commit-time check
		for _, id := range ids {
			if rng.Intn(2) == 0 {
				continue
			}
			require.NoError(t, cart.AddLine(inventory.Product{ID: id, Quantity: 10}, 1+rng.Intn(3)))
		}
		_, err := f.svc.Checkout(ctx, Request{Cart: cart, AmountPaid: dec("0")})
		if err != nil {
			assert.True(t, strings.Contains(err.Error(), "stock") || strings.Contains(err.Error(), "empty"), err.Error())
		}
		for _, p := range f.products(t) {
			require.GreaterOrEqual(t, p.Quantity, 0, "product %s", p.ID)
		}
	}
}

func TestSaleIDsAreUnique(t *testing.T) {
	f := newFixture(t, PolicyClamp)
	f.seed(t, []inventory.Product{product("A", "Apple", 1000, "1")}, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cart := NewCart()
			assert.NoError(t, cart.AddLine(inventory.Product{ID: "A", Quantity: 1000}, 1))
			_, err := f.svc.Checkout(ctx, Request{Cart: cart, AmountPaid: dec("1")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sales, err := f.svc.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 50)
	seen := map[string]bool{}
	for _, s := range sales {
		assert.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true
	}
	assert.Equal(t, 950, f.products(t)[0].Quantity)
}

func TestBuildCart(t *testing.T) {
	f := newFixture(t, PolicyClamp)
	f.seed(t, []inventory.Product{product("A", "Apple", 5, "10"), product("B", "Bread", 2, "1.5")}, nil)
	ctx := context.Background()

	cart, quote, err := f.svc.BuildCart(ctx, []Line{{ProductID: "A", Quantity: 1}, {ProductID: "B", Quantity: 2}, {ProductID: "A", Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, []Line{{ProductID: "A", Quantity: 3}, {ProductID: "B", Quantity: 2}}, cart.Lines())
	assert.True(t, quote.Total.Equal(dec("33")))
	assert.Equal(t, "Apple", quote.Lines[0].Name)
	assert.Equal(t, 5, quote.Lines[0].Available)

	_, _, err = f.svc.BuildCart(ctx, []Line{{ProductID: "Z", Quantity: 1}})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "lines[0].productId")

	_, _, err = f.svc.BuildCart(ctx, []Line{{ProductID: "B", Quantity: 3}})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	cart, _, err = f.svc.BuildCart(ctx, []Line{{ProductID: "A", Quantity: 1}, {ProductID: "A", Quantity: 0}})
	require.NoError(t, err)
	assert.Zero(t, cart.Len())
}

func TestGetSaleNotFound(t *testing.T) {
	f := newFixture(t, PolicyClamp)
	_, err := f.svc.GetSale(context.Background(), "1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t, PolicyClamp)
	f.seed(t,
		[]inventory.Product{product("A", "Apple", 5, "10"), product("B", "Bread", 5, "2")},
		[]customers.Customer{{ID: "C", Name: "Ali", Phone: "1"}})
	ctx := context.Background()
	sale, err := f.svc.Checkout(ctx, Request{Cart: f.cart(t, Line{ProductID: "A", Quantity: 1}, Line{ProductID: "B", Quantity: 2}), CustomerID: "C", AmountPaid: dec("14")})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportCSV(ctx, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "sale_id,date,customer,product_id"))
	assert.Equal(t, fmt.Sprintf("%s,2025-03-01T09:30:00Z,Ali,B,Bread,2,box,2.00,4.00,14.00,14.00", sale.ID), lines[2])
}

func TestParseOverpaymentPolicy(t *testing.T) {
	p, err := ParseOverpaymentPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyClamp, p)
	p, err = ParseOverpaymentPolicy(" Credit ")
	require.NoError(t, err)
	assert.Equal(t, PolicyCredit, p)
	_, err = ParseOverpaymentPolicy("refund")
	assert.Error(t, err)

	assert.True(t, PolicyClamp.DebtDelta(dec("10"), dec("12")).IsZero())
	assert.True(t, PolicyCredit.DebtDelta(dec("10"), dec("12")).Equal(dec("-2")))
	assert.True(t, PolicyClamp.DebtDelta(dec("10"), dec("4")).Equal(dec("6")))
}
