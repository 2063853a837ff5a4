// Package store persists the point-of-sale collections as independently keyed JSON records.
//
// Every backend honours the same contract: Load and Save address a single key, and Update runs a
// callback whose Saves become visible together or not at all.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukkan-pos/dukkan/internal/shared"
)

// Key names one persisted record.
type Key string

const (
	// KeyStoreInfo holds the singleton store profile; absence means first run.
	KeyStoreInfo Key = "storeInfo"
	// KeyProducts holds the ordered product list.
	KeyProducts Key = "products"
	// KeyCustomers holds the customer list.
	KeyCustomers Key = "customers"
	// KeySales holds the append-only sale log.
	KeySales Key = "sales"
)

// Keys lists every record the application owns.
func Keys() []Key {
	return []Key{KeyStoreInfo, KeyProducts, KeyCustomers, KeySales}
}

// ErrConflict is returned when an optimistic backend lost a concurrent write.
var ErrConflict = fmt.Errorf("store: %w", shared.ErrConflict)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: closed")

// Tx is the view of the store inside Update.
type Tx interface {
	// Load decodes key into dest and reports whether it existed. Staged
	// writes of the same transaction are visible.
	Load(key Key, dest any) (bool, error)
	// Save stages value under key until the transaction commits.
	Save(key Key, value any) error
}

// Store is the persistence port used by the services.
type Store interface {
	Load(ctx context.Context, key Key, dest any) (bool, error)
	Save(ctx context.Context, key Key, value any) error
	// Update runs fn and commits its writes atomically. A non-nil error from
	// fn discards every staged write.
	Update(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}

// LoadList decodes a list record, returning an empty slice when absent.
func LoadList[T any](ctx context.Context, s Store, key Key) ([]T, error) {
	var items []T
	if _, err := s.Load(ctx, key, &items); err != nil {
		return nil, fmt.Errorf("store: load %s: %w", key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// TxList is LoadList for use inside Update.
func TxList[T any](tx Tx, key Key) ([]T, error) {
	var items []T
	if _, err := tx.Load(key, &items); err != nil {
		return nil, fmt.Errorf("store: load %s: %w", key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
