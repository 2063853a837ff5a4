package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukkan-pos/dukkan/internal/platform/cache"
	"github.com/dukkan-pos/dukkan/internal/platform/db"
)

// Driver names a storage backend.
type Driver string

const (
	DriverBolt     Driver = "bolt"
	DriverMemory   Driver = "memory"
	DriverRedis    Driver = "redis"
	DriverPostgres Driver = "postgres"
)

// Options selects and configures the backend used by Open.
type Options struct {
	Driver    Driver
	BoltPath  string
	PGDSN     string
	RedisAddr string
}

// Open constructs the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch Driver(strings.ToLower(string(opts.Driver))) {
	case "", DriverBolt:
		return OpenBolt(opts.BoltPath)
	case DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		client, err := cache.New(ctx, cache.Options{Addr: opts.RedisAddr})
		if err != nil {
			return nil, err
		}
		return NewRedisOwned(client), nil
	case DriverPostgres:
		pool, err := db.New(ctx, opts.PGDSN)
		if err != nil {
			return nil, err
		}
		pg, err := NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", opts.Driver)
	}
}
