package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

// Dialect selects the placeholder syntax of the SQL backend.
type Dialect int

const (
	// SQLite covers SQLCipher: "?" placeholders.
	SQLite Dialect = iota
	// Postgres covers pgx: "$1", "$2", ... placeholders.
	Postgres
)

func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// SQL implements Client over a database/sql connection whose tables match
// the schema.
type SQL struct {
	db      *sql.DB
	schema  *Schema
	dialect Dialect
	now     func() time.Time
}

// NewSQL creates a SQL-backed client
func NewSQL(db *sql.DB, schema *Schema, dialect Dialect) *SQL {
	return &SQL{db: db, schema: schema, dialect: dialect, now: time.Now}
}

// args accumulates positional arguments and renders their placeholders
type args struct {
	dialect Dialect
	values  []any
}

func (a *args) add(v any) string {
	a.values = append(a.values, v)
	return a.dialect.placeholder(len(a.values))
}

func (a *args) where(filters []Filter) string {
	if len(filters) == 0 {
		return ""
	}
	conds := make([]string, len(filters))
	for i, f := range filters {
		if f.Value == nil {
			conds[i] = f.Column + " IS NULL"
			continue
		}
		conds[i] = f.Column + " = " + a.add(f.Value)
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (s *SQL) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	t, err := s.schema.Table(table)
	if err != nil {
		return nil, err
	}
	filters, err := t.encodeFilters(q.Filters)
	if err != nil {
		return nil, err
	}

	a := &args{dialect: s.dialect}
	query := "SELECT " + strings.Join(t.ColumnNames(), ", ") + " FROM " + t.Name + a.where(filters)
	if q.Order != nil {
		if _, ok := t.Column(q.Order.Column); !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, q.Order.Column)
		}
		query += " ORDER BY " + q.Order.Column
		if q.Order.Descending {
			query += " DESC"
		}
	}

	rows, err := s.query(ctx, t, query, a.values)
	if err != nil {
		return nil, err
	}
	if err := checkSingle(q, rows); err != nil {
		return nil, err
	}
	if err := expandRows(s.schema, t, rows, q.Expand, s.fetchIn(ctx)); err != nil {
		return nil, err
	}
	return rows, nil
}

// fetchIn loads related rows with a single IN query per relation
func (s *SQL) fetchIn(ctx context.Context) fetchFunc {
	return func(t *Table, column string, values []any) ([]Row, error) {
		a := &args{dialect: s.dialect}
		marks := make([]string, len(values))
		for i, v := range values {
			marks[i] = a.add(v)
		}
		query := "SELECT " + strings.Join(t.ColumnNames(), ", ") + " FROM " + t.Name +
			" WHERE " + column + " IN (" + strings.Join(marks, ", ") + ")"
		return s.query(ctx, t, query, a.values)
	}
}

func (s *SQL) query(ctx context.Context, t *Table, query string, values []any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.Name, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		raw := make([]any, len(t.Columns))
		ptrs := make([]any, len(t.Columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.Name, err)
		}

		stored := make(Row, len(t.Columns))
		for i, col := range t.Columns {
			stored[col.Name] = raw[i]
		}
		row, err := t.decodeRow(stored)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t.Name, err)
	}
	return out, nil
}

func (s *SQL) Insert(ctx context.Context, table string, row Row) (Row, error) {
	t, err := s.schema.Table(table)
	if err != nil {
		return nil, err
	}
	stored, err := t.prepareInsert(row, s.now())
	if err != nil {
		return nil, err
	}

	a := &args{dialect: s.dialect}
	cols := t.ColumnNames()
	marks := make([]string, len(cols))
	for i, name := range cols {
		marks[i] = a.add(stored[name])
	}
	query := "INSERT INTO " + t.Name + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"

	if _, err := s.db.ExecContext(ctx, query, a.values...); err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", t.Name, driverError(err))
	}
	return t.decodeRow(stored)
}

func (s *SQL) Update(ctx context.Context, table string, patch Row, filters ...Filter) error {
	t, err := s.schema.Table(table)
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

	a := &args{dialect: s.dialect}
	sets := make([]string, 0, len(stored))
	// column order follows the schema so the statement text is stable
	for _, col := range t.Columns {
		if v, ok := stored[col.Name]; ok {
			sets = append(sets, col.Name+" = "+a.add(v))
		}
	}
	query := "UPDATE " + t.Name + " SET " + strings.Join(sets, ", ") + a.where(encoded)

	if _, err := s.db.ExecContext(ctx, query, a.values...); err != nil {
		return fmt.Errorf("failed to update %s: %w", t.Name, driverError(err))
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, table string, filters ...Filter) error {
	t, err := s.schema.Table(table)
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

	a := &args{dialect: s.dialect}
	query := "DELETE FROM " + t.Name + a.where(encoded)
	if _, err := s.db.ExecContext(ctx, query, a.values...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", t.Name, driverError(err))
	}
	return nil
}

// driverError maps integrity violations reported by either driver onto
// ErrConstraint, keeping the driver message.
func driverError(err error) error {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %s", ErrConstraint, liteErr.Error())
	}
	var pgErr *pgconn.PgError
	// class 23: integrity constraint violation
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %s", ErrConstraint, pgErr.Message)
	}
	return err
}
