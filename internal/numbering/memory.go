package numbering

import (
	"context"
	"strconv"
	"sync"
)

// MemorySequencer keeps counters in process. It backs tests and single-node
// development runs.
type MemorySequencer struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{counters: make(map[string]int64)}
}

func (s *MemorySequencer) Next(ctx context.Context, prefix string, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := prefix + ":" + strconv.Itoa(year)
	s.counters[key]++
	return s.counters[key], nil
}
