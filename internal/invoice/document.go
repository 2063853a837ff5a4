// Package invoice projects a sale and the store profile into printable and
// shareable invoices. Rendering never changes stored data.
package invoice

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/dukkan-pos/dukkan/internal/checkout"
	"github.com/dukkan-pos/dukkan/internal/settings"
)

// ErrNoCustomerPhone is returned when a sale cannot be shared because it has
// no customer phone number.
var ErrNoCustomerPhone = errors.New("invoice: no customer phone number to send the invoice to")

const shareBaseURL = "https://wa.me/"

// Line is one printed invoice row.
type Line struct {
	Name      string
	Quantity  int
	Unit      string
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Document is the rendered invoice of one sale.
type Document struct {
	SaleID        string
	Date          time.Time
	StoreName     string
	StorePhone    string
	CustomerName  string
	CustomerPhone string
	HasCustomer   bool
	Lines         []Line
	Total         decimal.Decimal
	Paid          decimal.Decimal
	Remaining     decimal.Decimal

	format *Formatter
}

// Renderer builds documents with a configured Formatter.
type Renderer struct {
	format *Formatter
}

// NewRenderer constructs a Renderer. A nil formatter uses English without currency.
func NewRenderer(f *Formatter) *Renderer {
	if f == nil {
		f = defaultFormatter
	}
	return &Renderer{format: f}
}

// Formatter returns the renderer's formatter.
func (r *Renderer) Formatter() *Formatter { return r.format }

// Render projects sale and info with the default formatter.
func Render(sale checkout.Sale, info settings.StoreInfo) Document {
	return NewRenderer(nil).Render(sale, info)
}

// Render projects sale and info into a Document.
func (r *Renderer) Render(sale checkout.Sale, info settings.StoreInfo) Document {
	doc := Document{
		SaleID:     sale.ID,
		Date:       sale.Date,
		StoreName:  info.Name,
		StorePhone: info.Phone,
		Lines:      make([]Line, 0, len(sale.Items)),
		Total:      sale.Total,
		Paid:       sale.AmountPaid,
		Remaining:  sale.Remaining(),
		format:     r.format,
	}
	if sale.Customer != nil {
		doc.HasCustomer = true
		doc.CustomerName = sale.Customer.Name
		doc.CustomerPhone = sale.Customer.Phone
	}
	for _, item := range sale.Items {
		doc.Lines = append(doc.Lines, Line{
			Name:      item.Product.Name,
			Quantity:  item.Quantity,
			Unit:      string(item.Product.Unit),
			UnitPrice: item.Product.SellPrice,
			LineTotal: item.LineTotal(),
		})
	}
	return doc
}

func (d Document) formatter() *Formatter {
	if d.format == nil {
		return defaultFormatter
	}
	return d.format
}

// Text is the plain-text invoice used as the share message.
func (d Document) Text() string {
	f := d.formatter()
	l := f.Labels()
	const rule = "------------------------------------\n"

	var b strings.Builder
	fmt.Fprintf(&b, "*%s %s*\n", l.InvoiceFrom, d.StoreName)
	fmt.Fprintf(&b, "%s %s\n\n", l.StorePhone, d.StorePhone)
	if d.HasCustomer {
		fmt.Fprintf(&b, "*%s* %s\n", l.Customer, d.CustomerName)
		fmt.Fprintf(&b, "*%s* %s\n\n", l.CustomerTel, d.CustomerPhone)
	}
	b.WriteString(rule)
	fmt.Fprintf(&b, "*%s*\n", l.Items)
	for _, line := range d.Lines {
		fmt.Fprintf(&b, "- %s (%s %d) - %s %s\n", line.Name, l.QuantityAbbr, line.Quantity, l.Price, f.Amount(line.LineTotal))
	}
	b.WriteString(rule)
	fmt.Fprintf(&b, "*%s* %s\n", l.Total, f.Amount(d.Total))
	fmt.Fprintf(&b, "*%s* %s\n", l.Paid, f.Amount(d.Paid))
	fmt.Fprintf(&b, "*%s* %s\n\n", l.Remaining, f.Amount(d.Remaining))
	b.WriteString(l.ThankYou)
	return b.String()
}

// ShareLink returns a WhatsApp click-to-chat link carrying Text to the
// customer's phone. Non-digit characters are stripped from the number.
func ShareLink(d Document) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, d.CustomerPhone)
	if !d.HasCustomer || digits == "" {
		return "", ErrNoCustomerPhone
	}
	return shareBaseURL + digits + "?text=" + url.QueryEscape(d.Text()), nil
}

// View is the template model of a Document with amounts already formatted.
type View struct {
	SaleID        string     `json:"saleId"`
	Date          time.Time  `json:"date"`
	StoreName     string     `json:"storeName"`
	StorePhone    string     `json:"storePhone"`
	CustomerName  string     `json:"customerName,omitempty"`
	CustomerPhone string     `json:"customerPhone,omitempty"`
	Lines         []ViewLine `json:"lines"`
	Total         string     `json:"total"`
	Paid          string     `json:"paid"`
	Remaining     string     `json:"remaining"`
	ShareURL      string     `json:"shareUrl,omitempty"`
	Labels        Labels     `json:"-"`
}

// ViewLine is one formatted table row.
type ViewLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	LineTotal string `json:"lineTotal"`
}

// View formats d for the HTML template.
func (d Document) View() View {
	f := d.formatter()
	v := View{
		SaleID:        d.SaleID,
		Date:          d.Date,
		StoreName:     d.StoreName,
		StorePhone:    d.StorePhone,
		CustomerName:  d.CustomerName,
		CustomerPhone: d.CustomerPhone,
		Lines:         make([]ViewLine, 0, len(d.Lines)),
		Total:         f.Amount(d.Total),
		Paid:          f.Amount(d.Paid),
		Remaining:     f.Amount(d.Remaining),
		Labels:        f.Labels(),
	}
	for _, line := range d.Lines {
		v.Lines = append(v.Lines, ViewLine{
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: f.Amount(line.UnitPrice),
			LineTotal: f.Amount(line.LineTotal),
		})
	}
	if link, err := ShareLink(d); err == nil {
		v.ShareURL = link
	}
	return v
}
