package store

import (
	"context"
	"sync"
)

// Memory keeps encoded records in process memory. It backs tests and
// STORE_DRIVER=memory demos.
type Memory struct {
	mu      sync.Mutex
	records map[Key][]byte
	closed  bool
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[Key][]byte)}
}

// Load implements Store.
func (m *Memory) Load(ctx context.Context, key Key, dest any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	raw, ok := m.records[key]
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return false, ErrClosed
	}
	if !ok {
		return false, nil
	}
	return true, decode(raw, dest)
}

// Save implements Store.
func (m *Memory) Save(ctx context.Context, key Key, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := encode(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.records[key] = raw
	return nil
}

// Update holds the store lock for the whole callback so transactions run one at a time.
func (m *Memory) Update(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	tx := &memoryTx{base: m.records, staged: make(map[Key][]byte)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for key, raw := range tx.staged {
		m.records[key] = raw
	}
	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

type memoryTx struct {
	base   map[Key][]byte
	staged map[Key][]byte
}

func (t *memoryTx) Load(key Key, dest any) (bool, error) {
	raw, ok := t.staged[key]
	if !ok {
		raw, ok = t.base[key]
	}
	if !ok {
		return false, nil
	}
	return true, decode(raw, dest)
}

func (t *memoryTx) Save(key Key, value any) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	t.staged[key] = raw
	return nil
}
