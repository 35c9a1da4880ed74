package vecdb

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory implements Collection with brute-force squared-L2 search. It has no
// native row delete, so callers exercise the scan-and-rebuild fallback. Used
// in tests and available as a throwaway engine.
type Memory struct {
	mu      sync.RWMutex
	present bool
	dim     int
	records []Record
	meta    map[string]string
}

// NewMemory creates an empty in-memory engine.
func NewMemory() *Memory {
	return &Memory{meta: make(map[string]string)}
}

// Location identifies the engine for diagnostics.
func (m *Memory) Location() string { return "memory" }

func (m *Memory) Exists(context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.present, nil
}

func (m *Memory) Dimension(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.present {
		return 0, nil
	}
	return m.dim, nil
}

func (m *Memory) Create(_ context.Context, records []Record) error {
	if len(records) == 0 {
		return fmt.Errorf("create collection: empty initial batch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	dim := len(records[0].Vector)
	for _, r := range records {
		if len(r.Vector) != dim {
			return fmt.Errorf("%w: record for %s has %d, batch has %d",
				ErrDimensionMismatch, r.FilePath, len(r.Vector), dim)
		}
	}
	m.present = true
	m.dim = dim
	m.records = append([]Record(nil), records...)
	return nil
}

func (m *Memory) Append(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.present {
		return ErrAbsent
	}
	for _, r := range records {
		if len(r.Vector) != m.dim {
			return fmt.Errorf("%w: record for %s has %d, collection has %d",
				ErrDimensionMismatch, r.FilePath, len(r.Vector), m.dim)
		}
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *Memory) Scan(context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.present {
		return nil, ErrAbsent
	}
	return append([]Record(nil), m.records...), nil
}

func (m *Memory) Drop(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.present = false
	m.dim = 0
	m.records = nil
	return nil
}

func (m *Memory) NearestNeighbors(_ context.Context, vector []float32, limit int) ([]Scored, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.present {
		return nil, ErrAbsent
	}
	if len(vector) != m.dim {
		return nil, fmt.Errorf("%w: query has %d, collection has %d", ErrDimensionMismatch, len(vector), m.dim)
	}

	if limit <= 0 {
		return nil, nil
	}

	scored := make([]Scored, 0, len(m.records))
	for _, r := range m.records {
		scored = append(scored, Scored{Record: r, Distance: squaredL2(vector, r.Vector)})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Distance < scored[j].Distance })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (m *Memory) GetMeta(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta[key], nil
}

func (m *Memory) SetMeta(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta[key] = value
	return nil
}

// FilePaths returns the distinct file paths present, for test assertions.
func (m *Memory) FilePaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var paths []string
	for _, r := range m.records {
		if !seen[r.FilePath] {
			seen[r.FilePath] = true
			paths = append(paths, r.FilePath)
		}
	}
	sort.Strings(paths)
	return paths
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
