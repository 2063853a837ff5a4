package checkout

import (
	"fmt"

	"github.com/dukkan-pos/dukkan/internal/store"
)

// LoadSales reads the sale log inside tx.
func LoadSales(tx store.Tx) ([]Sale, error) {
	return store.TxList[Sale](tx, store.KeySales)
}

// SaveSales stages the sale log inside tx.
func SaveSales(tx store.Tx, sales []Sale) error {
	if err := tx.Save(store.KeySales, sales); err != nil {
		return fmt.Errorf("checkout: save sales: %w", err)
	}
	return nil
}
