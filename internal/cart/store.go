package cart

import (
	"context"
	"sync"
)

// Store persists per-dealer product quantities. Every method is atomic with
// respect to a single dealer's cart.
type Store interface {
	// Add increments the line, creating it when absent, and returns the new quantity.
	Add(ctx context.Context, dealerID, productID int64, qty int) (int, error)
	// Adjust applies delta to an existing line, clamping at zero. A line
	// reaching zero is removed. Returns ErrLineNotFound when absent.
	Adjust(ctx context.Context, dealerID, productID int64, delta int) (int, error)
	// Quantities returns a copy of the dealer's lines.
	Quantities(ctx context.Context, dealerID int64) (map[int64]int, error)
	// Release subtracts quantities, removing lines that reach zero.
	Release(ctx context.Context, dealerID int64, quantities map[int64]int) error
	// Clear removes every line.
	Clear(ctx context.Context, dealerID int64) error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[int64]map[int64]int
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[int64]map[int64]int)}
}

func (m *MemoryStore) Add(ctx context.Context, dealerID, productID int64, qty int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.carts[dealerID]
	if lines == nil {
		lines = make(map[int64]int)
		m.carts[dealerID] = lines
	}
	lines[productID] += qty
	return lines[productID], nil
}

func (m *MemoryStore) Adjust(ctx context.Context, dealerID, productID int64, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.carts[dealerID]
	current, ok := lines[productID]
	if !ok {
		return 0, ErrLineNotFound
	}
	next := current + delta
	if next <= 0 {
		delete(lines, productID)
		return 0, nil
	}
	lines[productID] = next
	return next, nil
}

func (m *MemoryStore) Quantities(ctx context.Context, dealerID int64) (map[int64]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]int, len(m.carts[dealerID]))
	for id, qty := range m.carts[dealerID] {
		out[id] = qty
	}
	return out, nil
}

func (m *MemoryStore) Release(ctx context.Context, dealerID int64, quantities map[int64]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.carts[dealerID]
	for id, qty := range quantities {
		if _, ok := lines[id]; !ok {
			continue
		}
		lines[id] -= qty
		if lines[id] <= 0 {
			delete(lines, id)
		}
	}
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context, dealerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, dealerID)
	return nil
}
