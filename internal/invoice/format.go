package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Labels are the fixed strings printed on an invoice.
type Labels struct {
	InvoiceFrom  string
	StorePhone   string
	Customer     string
	CustomerTel  string
	Items        string
	QuantityAbbr string
	Price        string
	Total        string
	Paid         string
	Remaining    string
	ThankYou     string
	BilledTo     string
	WalkIn       string
	InvoiceNo    string
	Date         string
	Product      string
	Quantity     string
	UnitPrice    string
	LineTotal    string
	Subtotal     string
	SendWhatsApp string
}

var arabicLabels = Labels{
	InvoiceFrom:  "فاتورة من",
	StorePhone:   "رقم الهاتف:",
	Customer:     "الزبون:",
	CustomerTel:  "رقم الزبون:",
	Items:        "المنتجات:",
	QuantityAbbr: "الكمية:",
	Price:        "السعر:",
	Total:        "الإجمالي:",
	Paid:         "المدفوع:",
	Remaining:    "المتبقي:",
	ThankYou:     "شكراً لتعاملكم معنا!",
	BilledTo:     "فاتورة إلى:",
	WalkIn:       "زبون عام",
	InvoiceNo:    "رقم الفاتورة:",
	Date:         "التاريخ:",
	Product:      "المنتج",
	Quantity:     "الكمية",
	UnitPrice:    "سعر الوحدة",
	LineTotal:    "الإجمالي",
	Subtotal:     "المجموع الفرعي:",
	SendWhatsApp: "إرسال عبر واتساب",
}

var englishLabels = Labels{
	InvoiceFrom:  "Invoice from",
	StorePhone:   "Phone:",
	Customer:     "Customer:",
	CustomerTel:  "Customer phone:",
	Items:        "Items:",
	QuantityAbbr: "qty:",
	Price:        "price:",
	Total:        "Total:",
	Paid:         "Paid:",
	Remaining:    "Remaining:",
	ThankYou:     "Thank you for your business!",
	BilledTo:     "Billed to:",
	WalkIn:       "Walk-in customer",
	InvoiceNo:    "Invoice no.",
	Date:         "Date:",
	Product:      "Product",
	Quantity:     "Quantity",
	UnitPrice:    "Unit price",
	LineTotal:    "Total",
	Subtotal:     "Subtotal:",
	SendWhatsApp: "Send via WhatsApp",
}

// Formatter renders amounts and labels for one locale.
type Formatter struct {
	tag      language.Tag
	symbols  numberSymbols
	labels   Labels
	currency string
}

// numberSymbols are the locale's digit glyphs and separators.
type numberSymbols struct {
	digits  [10]string
	group   string
	decimal string
}

// symbolsFor reads the glyphs the locale printer uses, so amounts can be
// assembled from the exact decimal string without a float conversion.
func symbolsFor(p *message.Printer) numberSymbols {
	sym := numberSymbols{group: ",", decimal: "."}
	glyph := make(map[string]bool, 10)
	for i := range sym.digits {
		sym.digits[i] = p.Sprintf("%d", i)
		glyph[sym.digits[i]] = true
	}
	// 1234.5 renders as digit, group, three digits, decimal, two digits.
	var seps []string
	var run strings.Builder
	for _, r := range p.Sprintf("%.2f", 1234.5) {
		if glyph[string(r)] {
			if run.Len() > 0 {
				seps = append(seps, run.String())
				run.Reset()
			}
			continue
		}
		run.WriteRune(r)
	}
	if len(seps) == 2 {
		sym.group, sym.decimal = seps[0], seps[1]
	}
	return sym
}

// NewFormatter builds a Formatter for locale (a BCP 47 tag such as "ar" or
// "en-US"). Unknown tags fall back to English. currency is appended to amounts
// when non-empty.
func NewFormatter(locale, currency string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	labels := englishLabels
	if base, _ := tag.Base(); base.String() == "ar" {
		labels = arabicLabels
	}
	printer := message.NewPrinter(tag)
	return &Formatter{tag: tag, symbols: symbolsFor(printer), labels: labels, currency: currency}
}

var defaultFormatter = NewFormatter("en", "")

// Amount formats d with two decimals and locale digit grouping.
// The value is taken from d.StringFixed, so no precision is lost.
func (f *Formatter) Amount(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(f.symbols.group)
		}
		b.WriteString(f.symbols.digits[r-'0'])
	}
	b.WriteString(f.symbols.decimal)
	for _, r := range frac {
		b.WriteString(f.symbols.digits[r-'0'])
	}
	s := b.String()
	if f.currency != "" {
		s += " " + f.currency
	}
	return s
}

// Labels returns the label set for the locale.
func (f *Formatter) Labels() Labels { return f.labels }

// Lang is the HTML lang attribute.
func (f *Formatter) Lang() string { return f.tag.String() }

// Dir is the HTML dir attribute.
func (f *Formatter) Dir() string {
	if base, _ := f.tag.Base(); base.String() == "ar" {
		return "rtl"
	}
	return "ltr"
}
