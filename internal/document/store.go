package document

import (
	"context"
	"fmt"
	"sync"
)

// Store persists document rows per content type uid.
type Store interface {
	// Insert stores d under a new row id and returns the stored row.
	Insert(ctx context.Context, uid string, d Document) (Document, error)
	// Replace overwrites the row with d.ID.
	Replace(ctx context.Context, uid string, d Document) error
	// Delete removes rows by id.
	Delete(ctx context.Context, uid string, ids ...int64) error
	// Rows returns copies of the rows accepted by match, in id order.
	Rows(ctx context.Context, uid string, match func(Document) bool) ([]Document, error)
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   map[string][]Document
	nextID map[string]int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:   make(map[string][]Document),
		nextID: make(map[string]int64),
	}
}

func (m *MemoryStore) Insert(ctx context.Context, uid string, d Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID[uid]++
	d = d.clone()
	d.ID = m.nextID[uid]
	m.rows[uid] = append(m.rows[uid], d)
	return d.clone(), nil
}

func (m *MemoryStore) Replace(ctx context.Context, uid string, d Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, row := range m.rows[uid] {
		if row.ID == d.ID {
			m.rows[uid][i] = d.clone()
			return nil
		}
	}
	return fmt.Errorf("replacing %s row %d: %w", uid, d.ID, ErrNotFound)
}

func (m *MemoryStore) Delete(ctx context.Context, uid string, ids ...int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.rows[uid][:0]
	for _, row := range m.rows[uid] {
		if !drop[row.ID] {
			kept = append(kept, row)
		}
	}
	m.rows[uid] = kept
	return nil
}

func (m *MemoryStore) Rows(ctx context.Context, uid string, match func(Document) bool) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Document
	for _, row := range m.rows[uid] {
		if match == nil || match(row) {
			out = append(out, row.clone())
		}
	}
	return out, nil
}
