package checkout

import (
	"context"
	"io"
	"time"

	"github.com/gocarina/gocsv"
)

type saleRow struct {
	SaleID     string `csv:"sale_id"`
	Date       string `csv:"date"`
	Customer   string `csv:"customer"`
	ProductID  string `csv:"product_id"`
	Product    string `csv:"product"`
	Quantity   int    `csv:"quantity"`
	Unit       string `csv:"unit"`
	UnitPrice  string `csv:"unit_price"`
	LineTotal  string `csv:"line_total"`
	SaleTotal  string `csv:"sale_total"`
	AmountPaid string `csv:"amount_paid"`
}

// ExportCSV writes one row per sold item, oldest sale first.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	sales, err := s.ListSales(ctx)
	if err != nil {
		return err
	}
	rows := make([]saleRow, 0, len(sales))
	for _, sale := range sales {
		customer := ""
		if sale.Customer != nil {
			customer = sale.Customer.Name
		}
		for _, item := range sale.Items {
			rows = append(rows, saleRow{
				SaleID:     sale.ID,
				Date:       sale.Date.UTC().Format(time.RFC3339),
				Customer:   customer,
				ProductID:  item.Product.ID,
				Product:    item.Product.Name,
				Quantity:   item.Quantity,
				Unit:       string(item.Product.Unit),
				UnitPrice:  item.Product.SellPrice.StringFixed(2),
				LineTotal:  item.LineTotal().StringFixed(2),
				SaleTotal:  sale.Total.StringFixed(2),
				AmountPaid: sale.AmountPaid.StringFixed(2),
			})
		}
	}
	return gocsv.Marshal(rows, w)
}
