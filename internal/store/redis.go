package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "dukkan:"

// Redis keeps each record in its own string key. Update watches every
// application key and commits through MULTI/EXEC, so a concurrent writer
// turns the transaction into ErrConflict.
type Redis struct {
	client redis.UniversalClient
	owned  bool
}

// NewRedis wraps an existing client. Close leaves the client open.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// NewRedisOwned wraps client and closes it on Close.
func NewRedisOwned(client redis.UniversalClient) *Redis {
	return &Redis{client: client, owned: true}
}

func redisKey(key Key) string {
	return redisPrefix + string(key)
}

func watchedKeys() []string {
	keys := Keys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, redisKey(k))
	}
	return out
}

// Load implements Store.
func (r *Redis) Load(ctx context.Context, key Key, dest any) (bool, error) {
	return redisLoad(ctx, r.client, key, dest)
}

// Save implements Store.
func (r *Redis) Save(ctx context.Context, key Key, value any) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisKey(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("store: redis set %s: %w", key, err)
	}
	return nil
}

// Update implements Store.
func (r *Redis) Update(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	err := r.client.Watch(ctx, func(rtx *redis.Tx) error {
		tx := &redisTx{ctx: ctx, client: rtx, staged: make(map[Key][]byte)}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		if len(tx.staged) == 0 {
			return nil
		}
		_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for key, raw := range tx.staged {
				pipe.Set(ctx, redisKey(key), raw, 0)
			}
			return nil
		})
		return err
	}, watchedKeys()...)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	return err
}

// Close implements Store.
func (r *Redis) Close() error {
	if r.owned {
		return r.client.Close()
	}
	return nil
}

type redisTx struct {
	ctx    context.Context
	client redis.Cmdable
	staged map[Key][]byte
}

func (t *redisTx) Load(key Key, dest any) (bool, error) {
	if raw, ok := t.staged[key]; ok {
		return true, decode(raw, dest)
	}
	return redisLoad(t.ctx, t.client, key, dest)
}

func (t *redisTx) Save(key Key, value any) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	t.staged[key] = raw
	return nil
}

func redisLoad(ctx context.Context, client redis.Cmdable, key Key, dest any) (bool, error) {
	raw, err := client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: redis get %s: %w", key, err)
	}
	return true, decode(raw, dest)
}
