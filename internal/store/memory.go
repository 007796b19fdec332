package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Client. It enforces the schema's references and
// cascades like the SQL tables do, which makes it a drop-in backend for
// tests and for running without a database.
type Memory struct {
	mu     sync.RWMutex
	schema *Schema
	tables map[string][]Row // stored form, insertion order
	now    func() time.Time
}

// NewMemory creates an empty in-memory client
func NewMemory(schema *Schema) *Memory {
	m := &Memory{
		schema: schema,
		tables: make(map[string][]Row),
		now:    time.Now,
	}
	for _, t := range schema.Tables() {
		m.tables[t.Name] = nil
	}
	return m
}

// SetClock replaces the clock used for created_at defaults
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func matches(stored Row, filters []Filter) bool {
	for _, f := range filters {
		if stored[f.Column] != f.Value {
			return false
		}
	}
	return true
}

// less orders stored values: nil first, then strings or numbers ascending
func less(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b != nil
	case string:
		bv, ok := b.(string)
		return ok && av < bv
	case float64:
		bv, ok := b.(float64)
		return ok && av < bv
	}
	return false
}

func (m *Memory) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := m.schema.Table(table)
	if err != nil {
		return nil, err
	}
	filters, err := t.encodeFilters(q.Filters)
	if err != nil {
		return nil, err
	}
	if q.Order != nil {
		if _, ok := t.Column(q.Order.Column); !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, q.Order.Column)
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var selected []Row
	for _, stored := range m.tables[t.Name] {
		if matches(stored, filters) {
			selected = append(selected, stored)
		}
	}

	if q.Order != nil {
		col, desc := q.Order.Column, q.Order.Descending
		sort.SliceStable(selected, func(i, j int) bool {
			if desc {
				return less(selected[j][col], selected[i][col])
			}
			return less(selected[i][col], selected[j][col])
		})
	}

	if err := checkSingle(q, selected); err != nil {
		return nil, err
	}

	rows, err := m.decodeAll(t, selected)
	if err != nil {
		return nil, err
	}
	if err := expandRows(m.schema, t, rows, q.Expand, m.fetchIn); err != nil {
		return nil, err
	}
	return rows, nil
}

// fetchIn is called with m.mu held for reading
func (m *Memory) fetchIn(t *Table, column string, values []any) ([]Row, error) {
	want := make(map[any]bool, len(values))
	for _, v := range values {
		want[v] = true
	}
	var selected []Row
	for _, stored := range m.tables[t.Name] {
		if want[stored[column]] {
			selected = append(selected, stored)
		}
	}
	return m.decodeAll(t, selected)
}

func (m *Memory) decodeAll(t *Table, stored []Row) ([]Row, error) {
	rows := make([]Row, 0, len(stored))
	for _, s := range stored {
		row, err := t.decodeRow(s)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *Memory) Insert(ctx context.Context, table string, row Row) (Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := m.schema.Table(table)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := t.prepareInsert(row, m.now())
	if err != nil {
		return nil, err
	}
	for _, existing := range m.tables[t.Name] {
		if existing["id"] == stored["id"] {
			return nil, fmt.Errorf("%w: duplicate id %v in %s", ErrConstraint, stored["id"], t.Name)
		}
	}
	if err := m.checkReferences(t, stored); err != nil {
		return nil, err
	}

	m.tables[t.Name] = append(m.tables[t.Name], stored)
	return t.decodeRow(stored)
}

// checkReferences requires every non-null reference to point at an existing row
func (m *Memory) checkReferences(t *Table, stored Row) error {
	for _, col := range t.Columns {
		if col.References == "" || stored[col.Name] == nil {
			continue
		}
		found := false
		for _, target := range m.tables[col.References] {
			if target["id"] == stored[col.Name] {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s.%s references missing %s %v",
				ErrConstraint, t.Name, col.Name, col.References, stored[col.Name])
		}
	}
	return nil
}

func (m *Memory) Update(ctx context.Context, table string, patch Row, filters ...Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, err := m.schema.Table(table)
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		return ErrMissingFilter
	}
	stored, err := t.preparePatch(patch)
	if err != nil {
		return err
	}
	encoded, err := t.encodeFilters(filters)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.tables[t.Name]
	updated := make([]Row, len(rows))
	for i, r := range rows {
		if !matches(r, encoded) {
			updated[i] = r
			continue
		}
		next := make(Row, len(r))
		for k, v := range r {
			next[k] = v
		}
		for k, v := range stored {
			next[k] = v
		}
		if err := m.checkReferences(t, next); err != nil {
			return err
		}
		updated[i] = next
	}
	m.tables[t.Name] = updated
	return nil
}

func (m *Memory) Delete(ctx context.Context, table string, filters ...Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, err := m.schema.Table(table)
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		return ErrMissingFilter
	}
	encoded, err := t.encodeFilters(filters)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []any
	for _, r := range m.tables[t.Name] {
		if matches(r, encoded) {
			ids = append(ids, r["id"])
		}
	}
	if len(ids) == 0 {
		return nil
	}
	if err := m.checkRestrict(t.Name, ids); err != nil {
		return err
	}
	m.deleteIDs(t.Name, ids)
	return nil
}

// checkRestrict refuses a delete that would orphan non-cascading references,
// following cascades down to their own dependents.
func (m *Memory) checkRestrict(table string, ids []any) error {
	for _, child := range m.schema.Tables() {
		for _, col := range child.Columns {
			if col.References != table {
				continue
			}
			dependents := m.referencing(child.Name, col.Name, ids)
			if len(dependents) == 0 {
				continue
			}
			if !col.Cascade {
				return fmt.Errorf("%w: %s is still referenced by %s.%s", ErrConstraint, table, child.Name, col.Name)
			}
			if err := m.checkRestrict(child.Name, dependents); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Memory) deleteIDs(table string, ids []any) {
	for _, child := range m.schema.Tables() {
		for _, col := range child.Columns {
			if col.References == table && col.Cascade {
				if dependents := m.referencing(child.Name, col.Name, ids); len(dependents) > 0 {
					m.deleteIDs(child.Name, dependents)
				}
			}
		}
	}

	gone := make(map[any]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}
	kept := m.tables[table][:0:0]
	for _, r := range m.tables[table] {
		if !gone[r["id"]] {
			kept = append(kept, r)
		}
	}
	m.tables[table] = kept
}

// referencing returns the ids of rows in table whose column holds one of ids
func (m *Memory) referencing(table, column string, ids []any) []any {
	want := make(map[any]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []any
	for _, r := range m.tables[table] {
		if want[r[column]] {
			out = append(out, r["id"])
		}
	}
	return out
}
