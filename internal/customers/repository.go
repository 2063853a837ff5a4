package customers

import (
	"context"
	"fmt"

	"github.com/dukkan-pos/dukkan/internal/store"
)

// TxRepository exposes customer persistence inside a store transaction.
type TxRepository interface {
	Customers() ([]Customer, error)
	SaveCustomers(customers []Customer) error
}

// Repository defines the persistence needs of Service.
type Repository interface {
	List(ctx context.Context) ([]Customer, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type repository struct {
	store store.Store
}

// NewRepository persists customers under store.KeyCustomers.
func NewRepository(s store.Store) Repository {
	return &repository{store: s}
}

func (r *repository) List(ctx context.Context) ([]Customer, error) {
	return store.LoadList[Customer](ctx, r.store, store.KeyCustomers)
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		return fn(ctx, txRepository{tx: tx})
	})
}

type txRepository struct {
	tx store.Tx
}

func (t txRepository) Customers() ([]Customer, error) { return LoadCustomers(t.tx) }

func (t txRepository) SaveCustomers(customers []Customer) error { return SaveCustomers(t.tx, customers) }

// LoadCustomers reads the customer list inside tx.
func LoadCustomers(tx store.Tx) ([]Customer, error) {
	return store.TxList[Customer](tx, store.KeyCustomers)
}

// SaveCustomers stages the customer list inside tx.
func SaveCustomers(tx store.Tx, customers []Customer) error {
	if err := tx.Save(store.KeyCustomers, customers); err != nil {
		return fmt.Errorf("customers: save: %w", err)
	}
	return nil
}

// IndexByID returns the position of id in customers, or -1.
func IndexByID(customers []Customer, id string) int {
	for i := range customers {
		if customers[i].ID == id {
			return i
		}
	}
	return -1
}
