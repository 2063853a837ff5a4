package inventory

import (
	"context"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

type productRow struct {
	ID            string `csv:"id"`
	Name          string `csv:"name"`
	Quantity      int    `csv:"quantity"`
	Unit          string `csv:"unit"`
	PurchasePrice string `csv:"purchase_price"`
	SellPrice     string `csv:"sell_price"`
	StockValue    string `csv:"stock_value"`
	CreatedAt     string `csv:"created_at"`
}

// ExportCSV writes the inventory, one product per row, valued at purchase price.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	products, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	rows := make([]productRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, productRow{
			ID:            p.ID,
			Name:          p.Name,
			Quantity:      p.Quantity,
			Unit:          string(p.Unit),
			PurchasePrice: p.PurchasePrice.StringFixed(2),
			SellPrice:     p.SellPrice.StringFixed(2),
			StockValue:    p.PurchasePrice.Mul(decimal.NewFromInt(int64(p.Quantity))).StringFixed(2),
			CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return gocsv.Marshal(rows, w)
}
