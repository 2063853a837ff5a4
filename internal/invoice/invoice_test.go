package invoice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukkan-pos/dukkan/internal/checkout"
	"github.com/dukkan-pos/dukkan/internal/inventory"
	"github.com/dukkan-pos/dukkan/internal/settings"
	"github.com/dukkan-pos/dukkan/internal/shared"
	"github.com/dukkan-pos/dukkan/internal/view"
	"github.com/dukkan-pos/dukkan/report"
)

var shop = settings.StoreInfo{Name: "Corner Shop", Phone: "0555 123"}

func sampleSale(withCustomer bool) checkout.Sale {
	sale := checkout.Sale{
		ID:   "1700",
		Date: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		Items: []checkout.SaleItem{
			{Product: inventory.Product{ID: "p1", Name: "Rice", Unit: inventory.UnitBox, SellPrice: decimal.NewFromInt(15)}, Quantity: 2},
			{Product: inventory.Product{ID: "p2", Name: "Sugar", Unit: inventory.UnitKilo, SellPrice: decimal.RequireFromString("2.5")}, Quantity: 4},
		},
		Total:      decimal.NewFromInt(40),
		AmountPaid: decimal.NewFromInt(25),
	}
	if withCustomer {
		sale.Customer = &checkout.CustomerRef{ID: "c1", Name: "Amina", Phone: "+966 50-111 2222"}
	}
	return sale
}

func TestRenderProjectsSale(t *testing.T) {
	doc := Render(sampleSale(true), shop)

	assert.Equal(t, "1700", doc.SaleID)
	assert.Equal(t, "Corner Shop", doc.StoreName)
	assert.True(t, doc.HasCustomer)
	require.Len(t, doc.Lines, 2)
	assert.True(t, doc.Lines[0].LineTotal.Equal(decimal.NewFromInt(30)))
	assert.True(t, doc.Lines[1].LineTotal.Equal(decimal.NewFromInt(10)))
	assert.True(t, doc.Remaining.Equal(decimal.NewFromInt(15)))
}

func TestTextMessage(t *testing.T) {
	text := Render(sampleSale(true), shop).Text()

	assert.True(t, strings.HasPrefix(text, "*Invoice from Corner Shop*\nPhone: 0555 123\n"))
	assert.Contains(t, text, "*Customer:* Amina\n")
	assert.Contains(t, text, "- Rice (qty: 2) - price: 30.00\n")
	assert.Contains(t, text, "- Sugar (qty: 4) - price: 10.00\n")
	assert.Contains(t, text, "*Total:* 40.00\n")
	assert.Contains(t, text, "*Paid:* 25.00\n")
	assert.Contains(t, text, "*Remaining:* 15.00\n")
	assert.True(t, strings.HasSuffix(text, "Thank you for your business!"))
}

func TestTextWalkInOmitsCustomer(t *testing.T) {
	text := Render(sampleSale(false), shop).Text()
	assert.NotContains(t, text, "Customer:")
}

func TestArabicFormatter(t *testing.T) {
	r := NewRenderer(NewFormatter("ar", "ر.س"))
	text := r.Render(sampleSale(true), shop).Text()

	assert.Contains(t, text, "فاتورة من Corner Shop")
	assert.Contains(t, text, "شكراً لتعاملكم معنا!")
	assert.Equal(t, "rtl", r.Formatter().Dir())
	assert.Equal(t, "ltr", NewFormatter("not a tag!", "").Dir())
}

func TestAmountKeepsDecimalPrecision(t *testing.T) {
	f := NewFormatter("en", "")
	assert.Equal(t, "12,345,678,901,234,567.89", f.Amount(decimal.RequireFromString("12345678901234567.89")))
	assert.Equal(t, "0.10", f.Amount(decimal.RequireFromString("0.1")))
	assert.Equal(t, "-1,000.50", f.Amount(decimal.RequireFromString("-1000.5")))
	assert.Equal(t, "999.00 SAR", NewFormatter("en", "SAR").Amount(decimal.NewFromInt(999)))
}

func TestShareLink(t *testing.T) {
	doc := Render(sampleSale(true), shop)
	link, err := ShareLink(doc)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/966501112222", u.Path)
	assert.Equal(t, doc.Text(), u.Query().Get("text"))
}

func TestShareLinkNeedsPhone(t *testing.T) {
	_, err := ShareLink(Render(sampleSale(false), shop))
	assert.ErrorIs(t, err, ErrNoCustomerPhone)

	sale := sampleSale(true)
	sale.Customer.Phone = "n/a"
	_, err = ShareLink(Render(sale, shop))
	assert.ErrorIs(t, err, ErrNoCustomerPhone)
}

type stubSales struct{ sale checkout.Sale }

func (s stubSales) GetSale(_ context.Context, id string) (checkout.Sale, error) {
	if id != s.sale.ID {
		return checkout.Sale{}, shared.ErrNotFound
	}
	return s.sale, nil
}

type stubInfo struct{}

func (stubInfo) StoreInfo(context.Context) (settings.StoreInfo, error) { return shop, nil }

type stubPDF struct {
	html string
	err  error
}

func (p *stubPDF) RenderHTML(_ context.Context, html string, paper report.Paper) ([]byte, error) {
	p.html = html
	if p.err != nil {
		return nil, p.err
	}
	return []byte("%PDF-1.7"), nil
}

func newTestRouter(t *testing.T, sale checkout.Sale, pdf PDFRenderer) http.Handler {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	h := NewHandler(nil, stubSales{sale: sale}, stubInfo{}, nil, engine, pdf)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandlerFormats(t *testing.T) {
	pdf := &stubPDF{}
	router := newTestRouter(t, sampleSale(true), pdf)

	rec := get(router, "/1700/invoice")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Corner Shop")
	assert.Contains(t, rec.Body.String(), "https://wa.me/966501112222")

	rec = get(router, "/1700/invoice?format=text")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "*Total:* 40.00")

	rec = get(router, "/1700/invoice?format=json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"remaining":"15.00"`)

	rec = get(router, "/1700/invoice?format=pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, pdf.html, "Rice")

	rec = get(router, "/1700/invoice?format=docx")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = get(router, "/999/invoice")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerPDFUnavailable(t *testing.T) {
	rec := get(newTestRouter(t, sampleSale(true), nil), "/1700/invoice?format=pdf")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = get(newTestRouter(t, sampleSale(true), &stubPDF{err: report.ErrNotConfigured}), "/1700/invoice?format=pdf")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHandlerShare(t *testing.T) {
	router := newTestRouter(t, sampleSale(true), nil)
	rec := get(router, "/1700/share")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wa.me/966501112222")

	rec = get(router, "/1700/share?redirect=1")
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = get(newTestRouter(t, sampleSale(false), nil), "/1700/share")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
