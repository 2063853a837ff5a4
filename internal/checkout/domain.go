package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukkan-pos/dukkan/internal/customers"
	"github.com/dukkan-pos/dukkan/internal/inventory"
)

// SaleItem is a by-value snapshot of the product as sold.
type SaleItem struct {
	Product  inventory.Product `json:"product"`
	Quantity int               `json:"quantity"`
}

// LineTotal is the snapshot sell price times quantity.
func (i SaleItem) LineTotal() decimal.Decimal {
	return i.Product.SellPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CustomerRef is the customer snapshot stored on a sale.
type CustomerRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func customerRef(c customers.Customer) *CustomerRef {
	return &CustomerRef{ID: c.ID, Name: c.Name, Phone: c.Phone}
}

// Sale is an immutable record of one checkout. Sales are never edited or removed.
type Sale struct {
	ID         string          `json:"id"`
	Date       time.Time       `json:"date"`
	Items      []SaleItem      `json:"items"`
	Total      decimal.Decimal `json:"total"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
	Customer   *CustomerRef    `json:"customer"`
}

// Remaining is what the buyer still owes on this sale. It is negative for overpayment.
func (s Sale) Remaining() decimal.Decimal {
	return s.Total.Sub(s.AmountPaid)
}

// ItemsTotal recomputes the sum of line totals from the snapshots.
func (s Sale) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range s.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// OverpaymentPolicy decides how paying more than the total affects debt.
type OverpaymentPolicy string

const (
	// PolicyClamp never lets a sale reduce existing debt.
	PolicyClamp OverpaymentPolicy = "clamp"
	// PolicyCredit applies total minus paid as is, so overpayment lowers debt.
	PolicyCredit OverpaymentPolicy = "credit"
)

// ParseOverpaymentPolicy accepts "clamp" or "credit"; empty means clamp.
func ParseOverpaymentPolicy(v string) (OverpaymentPolicy, error) {
	switch OverpaymentPolicy(strings.ToLower(strings.TrimSpace(v))) {
	case "", PolicyClamp:
		return PolicyClamp, nil
	case PolicyCredit:
		return PolicyCredit, nil
	default:
		return "", fmt.Errorf("checkout: unknown overpayment policy %q", v)
	}
}

// DebtDelta returns the change in customer debt for a sale.
func (p OverpaymentPolicy) DebtDelta(total, paid decimal.Decimal) decimal.Decimal {
	delta := total.Sub(paid)
	if p != PolicyCredit && delta.IsNegative() {
		return decimal.Zero
	}
	return delta
}

// Request is a checkout ready to commit.
type Request struct {
	Cart       *Cart
	CustomerID string
	AmountPaid decimal.Decimal
}

// Line is one cart entry as submitted by the client.
type Line struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

// CheckoutRequest is the HTTP payload for POST /sales/checkout.
type CheckoutRequest struct {
	Lines      []Line          `json:"lines" validate:"required,min=1,dive"`
	CustomerID string          `json:"customerId,omitempty"`
	AmountPaid decimal.Decimal `json:"amountPaid" validate:"gte=0"`
}

// QuoteLine is a priced cart line.
type QuoteLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Available int             `json:"available"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Quote prices a cart against current stock without committing anything.
type Quote struct {
	Lines []QuoteLine     `json:"lines"`
	Total decimal.Decimal `json:"total"`
}
