package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var recordsBucket = []byte("records")

// Bolt stores records in a single bbolt bucket. bbolt allows one writer at a
// time, which serialises every Update.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the database file at path.
func OpenBolt(path string) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create bolt dir: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bolt: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: init bolt bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Load implements Store.
func (b *Bolt) Load(ctx context.Context, key Key, dest any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		found, err = (&boltTx{tx: tx}).Load(key, dest)
		return err
	})
	return found, err
}

// Save implements Store.
func (b *Bolt) Save(ctx context.Context, key Key, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return (&boltTx{tx: tx}).Save(key, value)
	})
}

// Update implements Store.
func (b *Bolt) Update(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return fn(ctx, &boltTx{tx: tx})
	})
}

// Close implements Store.
func (b *Bolt) Close() error {
	return b.db.Close()
}

type boltTx struct {
	tx *bolt.Tx
}

func (t *boltTx) Load(key Key, dest any) (bool, error) {
	bucket := t.tx.Bucket(recordsBucket)
	if bucket == nil {
		return false, nil
	}
	raw := bucket.Get([]byte(key))
	if raw == nil {
		return false, nil
	}
	// bbolt memory is only valid for the life of the transaction; decode copies.
	return true, decode(raw, dest)
}

func (t *boltTx) Save(key Key, value any) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	return t.tx.Bucket(recordsBucket).Put([]byte(key), raw)
}
