package customers

import (
	"context"
	"io"

	"github.com/gocarina/gocsv"
)

type customerRow struct {
	ID    string `csv:"id"`
	Name  string `csv:"name"`
	Phone string `csv:"phone"`
	Debt  string `csv:"debt"`
}

// ExportCSV writes every customer with the current debt.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	all, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	rows := make([]customerRow, 0, len(all))
	for _, c := range all {
		rows = append(rows, customerRow{ID: c.ID, Name: c.Name, Phone: c.Phone, Debt: c.Debt.StringFixed(2)})
	}
	return gocsv.Marshal(rows, w)
}
