package inventory

import (
	"context"
	"fmt"

	"github.com/dukkan-pos/dukkan/internal/store"
)

// TxRepository exposes product persistence inside a store transaction.
type TxRepository interface {
	Products() ([]Product, error)
	SaveProducts(products []Product) error
}

// Repository persists the product list under store.KeyProducts.
type Repository struct {
	store store.Store
}

// NewRepository constructs a Repository over s.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// List returns every product in stored order.
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	return store.LoadList[Product](ctx, r.store, store.KeyProducts)
}

// WithTx runs fn inside one store Update.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		return fn(ctx, txRepository{tx: tx})
	})
}

type txRepository struct {
	tx store.Tx
}

func (t txRepository) Products() ([]Product, error) { return LoadProducts(t.tx) }

func (t txRepository) SaveProducts(products []Product) error { return SaveProducts(t.tx, products) }

// LoadProducts reads the product list inside tx. Checkout uses it to share a
// transaction with customers and sales.
func LoadProducts(tx store.Tx) ([]Product, error) {
	return store.TxList[Product](tx, store.KeyProducts)
}

// SaveProducts stages the product list inside tx.
func SaveProducts(tx store.Tx, products []Product) error {
	if err := tx.Save(store.KeyProducts, products); err != nil {
		return fmt.Errorf("inventory: save products: %w", err)
	}
	return nil
}

// IndexByID returns the position of id in products, or -1.
func IndexByID(products []Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}
