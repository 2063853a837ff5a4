package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukkan-pos/dukkan/internal/platform/db"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS pos_records (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// postgresLockKey is the advisory lock shared by every Update.
const postgresLockKey int64 = 0x64756b6b616e

// Postgres stores records as JSONB rows. Update takes a transaction-scoped
// advisory lock, so transactions from any process run one at a time.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres ensures the schema exists and wraps pool.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("store: ensure postgres schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Load implements Store.
func (p *Postgres) Load(ctx context.Context, key Key, dest any) (bool, error) {
	return pgLoad(ctx, p.pool, key, dest)
}

// Save implements Store.
func (p *Postgres) Save(ctx context.Context, key Key, value any) error {
	return db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		return pgSave(ctx, tx, key, value)
	})
}

// Update implements Store.
func (p *Postgres) Update(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, postgresLockKey); err != nil {
			return fmt.Errorf("store: acquire postgres lock: %w", err)
		}
		return fn(ctx, &postgresTx{ctx: ctx, tx: tx})
	})
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

type postgresTx struct {
	ctx context.Context
	tx  pgx.Tx
}

func (t *postgresTx) Load(key Key, dest any) (bool, error) {
	return pgLoad(t.ctx, t.tx, key, dest)
}

func (t *postgresTx) Save(key Key, value any) error {
	return pgSave(t.ctx, t.tx, key, value)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func pgLoad(ctx context.Context, q rowQuerier, key Key, dest any) (bool, error) {
	var raw []byte
	err := q.QueryRow(ctx, `SELECT value FROM pos_records WHERE key = $1`, string(key)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: postgres load %s: %w", key, err)
	}
	return true, decode(raw, dest)
}

func pgSave(ctx context.Context, tx pgx.Tx, key Key, value any) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
INSERT INTO pos_records (key, value, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, string(key), raw)
	if err != nil {
		return fmt.Errorf("store: postgres save %s: %w", key, err)
	}
	return nil
}
