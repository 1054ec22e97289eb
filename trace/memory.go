package trace

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	seq     int64
	records map[string][]Record
	latest  map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]Record),
		latest:  make(map[string]int64),
	}
}

func (s *MemoryStore) Append(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	r.Seq = s.seq
	r.Data = maps.Clone(r.Data)
	s.records[r.CorrelationID] = append(s.records[r.CorrelationID], r)
	s.latest[r.CorrelationID] = r.Seq
	return nil
}

func (s *MemoryStore) ByCorrelation(ctx context.Context, id string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.records[id]), nil
}

func (s *MemoryStore) Correlations(ctx context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := slices.SortedFunc(maps.Keys(s.latest), func(a, b string) int {
		return int(s.latest[b] - s.latest[a])
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
