package store

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// TimeLayout is how timestamps are stored: fixed width and always UTC, so
// lexical order is chronological order on every backend.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type ColumnType int

const (
	Text ColumnType = iota
	Number
	Timestamp
)

// Column describes one column of a table.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
	// Default is used when an insert omits the column. The id column is
	// defaulted to a new UUID and created_at to the insert time.
	Default any
	// References names the table whose "id" this column points to.
	References string
	// Cascade deletes referencing rows when the referenced row is deleted;
	// otherwise such deletes are refused.
	Cascade bool
}

// Relation embeds rows of Table whose ForeignColumn equals this table's
// LocalColumn.
type Relation struct {
	Name          string
	Table         string
	LocalColumn   string
	ForeignColumn string
	Many          bool
}

// Table describes one table.
type Table struct {
	Name      string
	Columns   []Column
	Relations []Relation
}

// Column looks up a column by name
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Relation looks up a relation by name
func (t *Table) Relation(name string) (Relation, bool) {
	for _, r := range t.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// ColumnNames returns the column names in declaration order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Schema is the set of tables a client may touch.
type Schema struct {
	tables map[string]*Table
	order  []string
}

// NewSchema builds a schema from tables
func NewSchema(tables ...*Table) *Schema {
	s := &Schema{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		s.tables[t.Name] = t
		s.order = append(s.order, t.Name)
	}
	return s
}

// Table returns the named table or ErrUnknownTable
func (s *Schema) Table(name string) (*Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return t, nil
}

// Tables returns all tables in declaration order
func (s *Schema) Tables() []*Table {
	out := make([]*Table, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name])
	}
	return out
}

// encode converts a caller value into its stored form: string, float64 or nil
func (c Column) encode(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
		v = rv.Interface()
	}

	switch c.Type {
	case Text:
		if rv.Kind() == reflect.String {
			return rv.String(), nil
		}
	case Number:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			return rv.Float(), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int()), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return float64(rv.Uint()), nil
		}
	case Timestamp:
		switch t := v.(type) {
		case time.Time:
			return t.UTC().Format(TimeLayout), nil
		case string:
			parsed, err := parseTimestamp(t)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c.Name, err)
			}
			return parsed.UTC().Format(TimeLayout), nil
		}
	}

	return nil, fmt.Errorf("column %s: unsupported value of type %T", c.Name, v)
}

// decode converts a stored or driver value into its row form
func (c Column) decode(v any) (any, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil, nil
	}

	switch c.Type {
	case Text:
		switch t := v.(type) {
		case string:
			return t, nil
		case int64:
			return strconv.FormatInt(t, 10), nil
		}
	case Number:
		switch t := v.(type) {
		case float64:
			return t, nil
		case float32:
			return float64(t), nil
		case int64:
			return float64(t), nil
		case string:
			f, err := strconv.ParseFloat(t, 64)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c.Name, err)
			}
			return f, nil
		}
	case Timestamp:
		switch t := v.(type) {
		case time.Time:
			return t.UTC(), nil
		case string:
			parsed, err := parseTimestamp(t)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c.Name, err)
			}
			return parsed, nil
		}
	}

	return nil, fmt.Errorf("column %s: cannot decode %T", c.Name, v)
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{TimeLayout, time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// encodeFilters resolves filter columns and encodes their values
func (t *Table) encodeFilters(filters []Filter) ([]Filter, error) {
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		col, ok := t.Column(f.Column)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, f.Column)
		}
		v, err := col.encode(f.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, Filter{Column: f.Column, Value: v})
	}
	return out, nil
}

// prepareInsert encodes row and fills every omitted column with its default,
// so the result holds a value (possibly nil) for every column.
func (t *Table) prepareInsert(row Row, now time.Time) (Row, error) {
	for name := range row {
		if _, ok := t.Column(name); !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, name)
		}
	}

	stored := make(Row, len(t.Columns))
	for _, col := range t.Columns {
		v, present := row[col.Name]
		if !present || v == nil {
			switch {
			case col.Name == "id":
				v = uuid.NewString()
			case col.Name == "created_at":
				v = now
			default:
				v = col.Default
			}
		}

		enc, err := col.encode(v)
		if err != nil {
			return nil, err
		}
		if enc == nil && !col.Nullable {
			return nil, fmt.Errorf("%w: %s.%s cannot be null", ErrConstraint, t.Name, col.Name)
		}
		stored[col.Name] = enc
	}
	return stored, nil
}

// preparePatch encodes an update patch
func (t *Table) preparePatch(patch Row) (Row, error) {
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w: empty patch for %s", ErrUnknownColumn, t.Name)
	}
	stored := make(Row, len(patch))
	for name, v := range patch {
		col, ok := t.Column(name)
		if !ok || name == "id" {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, name)
		}
		enc, err := col.encode(v)
		if err != nil {
			return nil, err
		}
		if enc == nil && !col.Nullable {
			return nil, fmt.Errorf("%w: %s.%s cannot be null", ErrConstraint, t.Name, name)
		}
		stored[name] = enc
	}
	return stored, nil
}

// decodeRow converts a stored row into row form
func (t *Table) decodeRow(stored Row) (Row, error) {
	out := make(Row, len(t.Columns))
	for _, col := range t.Columns {
		v, err := col.decode(stored[col.Name])
		if err != nil {
			return nil, err
		}
		out[col.Name] = v
	}
	return out, nil
}

// fetchFunc loads the rows of table whose column equals one of values.
type fetchFunc func(table *Table, column string, values []any) ([]Row, error)

// expandRows embeds the named relations into rows using fetch
func expandRows(schema *Schema, table *Table, rows []Row, names []string, fetch fetchFunc) error {
	for _, name := range names {
		rel, ok := table.Relation(name)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownRelation, table.Name, name)
		}
		related, err := schema.Table(rel.Table)
		if err != nil {
			return err
		}
		localCol, _ := table.Column(rel.LocalColumn)

		keys := make([]any, 0, len(rows))
		seen := make(map[string]bool, len(rows))
		for _, r := range rows {
			if r[rel.LocalColumn] == nil {
				continue
			}
			enc, err := localCol.encode(r[rel.LocalColumn])
			if err != nil {
				return err
			}
			k := fmt.Sprint(enc)
			if !seen[k] {
				seen[k] = true
				keys = append(keys, enc)
			}
		}

		var children []Row
		if len(keys) > 0 {
			children, err = fetch(related, rel.ForeignColumn, keys)
			if err != nil {
				return fmt.Errorf("expand %s: %w", name, err)
			}
		}

		foreignCol, _ := related.Column(rel.ForeignColumn)
		grouped := make(map[string][]Row)
		for _, child := range children {
			enc, err := foreignCol.encode(child[rel.ForeignColumn])
			if err != nil {
				return err
			}
			k := fmt.Sprint(enc)
			grouped[k] = append(grouped[k], child)
		}

		for _, r := range rows {
			var group []Row
			if r[rel.LocalColumn] != nil {
				enc, _ := localCol.encode(r[rel.LocalColumn])
				group = grouped[fmt.Sprint(enc)]
			}
			if rel.Many {
				if group == nil {
					group = []Row{}
				}
				r[rel.Name] = group
			} else if len(group) > 0 {
				r[rel.Name] = group[0]
			} else {
				r[rel.Name] = nil
			}
		}
	}
	return nil
}

// checkSingle enforces Query.Single
func checkSingle(q Query, rows []Row) error {
	if !q.Single {
		return nil
	}
	switch len(rows) {
	case 0:
		return ErrNotFound
	case 1:
		return nil
	default:
		return ErrMultipleRows
	}
}
