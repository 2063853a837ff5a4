package settings

import (
	"github.com/shopspring/decimal"
)

// StoreInfo identifies the shop on invoices. It is configured once on first run.
type StoreInfo struct {
	Name  string `json:"name" validate:"required,max=200"`
	Phone string `json:"phone" validate:"required,max=50"`
}

// Summary is the dashboard view of the store.
type Summary struct {
	Store             StoreInfo       `json:"store"`
	ProductCount      int             `json:"productCount"`
	OutOfStockCount   int             `json:"outOfStockCount"`
	StockValue        decimal.Decimal `json:"stockValue"`
	CustomerCount     int             `json:"customerCount"`
	OutstandingDebt   decimal.Decimal `json:"outstandingDebt"`
	SaleCount         int             `json:"saleCount"`
	Revenue           decimal.Decimal `json:"revenue"`
	Collected         decimal.Decimal `json:"collected"`
	CurrencyLabel     string          `json:"currencyLabel"`
	ExchangeRateLabel string          `json:"exchangeRateLabel"`
}
