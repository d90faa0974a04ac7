package tablesource

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process TableSource. It backs the mock mode used when no
// real store is configured and doubles as the test stand-in for the
// production backends.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*memoryTable
}

type memoryTable struct {
	header []string
	rows   [][]string
}

// NewMemory creates an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*memoryTable)}
}

// NewMockSource creates an in-memory source whose entries table is seeded
// with fixed demo rows, for running without any backing store configured.
func NewMockSource(entriesTable string) *Memory {
	m := NewMemory()
	m.tables[entriesTable] = &memoryTable{
		header: []string{"id", "number", "name", "description"},
		rows: [][]string{
			{"1", "777", "Lucky Seven", "The luckiest number"},
			{"2", "888", "Fortune Eight", "Symbol of prosperity"},
			{"3", "333", "Triple Three", "Magic number"},
			{"4", "999", "Cloud Nine", "Highest luck"},
			{"5", "111", "New Beginning", "Fresh start"},
		},
	}
	return m
}

// ListRows returns the table's data rows in insertion order.
func (m *Memory) ListRows(_ context.Context, table string) ([]map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("%q: %w", table, ErrTableNotFound)
	}
	return MapRows(t.header, t.rows), nil
}

// Append adds one row at the end of the table.
func (m *Memory) Append(_ context.Context, table string, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("%q: %w", table, ErrTableNotFound)
	}
	t.rows = append(t.rows, append([]string(nil), row...))
	return nil
}

// Create makes the table with the given header. An existing table is left
// untouched.
func (m *Memory) Create(_ context.Context, table string, header []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[table]; ok {
		return nil
	}
	m.tables[table] = &memoryTable{header: append([]string(nil), header...)}
	return nil
}
