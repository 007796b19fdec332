package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/invoicer/internal/store"
)

type migration struct {
	version int
	sql     string
}

// migrations are written once; {{real}} is replaced per dialect.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE clients (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name TEXT NOT NULL,
    email TEXT,
    phone TEXT,
    address TEXT,
    city TEXT,
    state TEXT,
    zip TEXT,
    country TEXT,
    created_at TEXT NOT NULL
);

CREATE TABLE invoices (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    client_id TEXT NOT NULL REFERENCES clients(id),
    invoice_number TEXT NOT NULL,
    issue_date TEXT NOT NULL,
    due_date TEXT,
    status TEXT NOT NULL DEFAULT 'draft'
        CHECK (status IN ('draft', 'sent', 'paid', 'overdue', 'cancelled')),
    subtotal {{real}} NOT NULL DEFAULT 0,
    tax_rate {{real}} NOT NULL DEFAULT 0,
    tax_amount {{real}} NOT NULL DEFAULT 0,
    total {{real}} NOT NULL DEFAULT 0,
    notes TEXT,
    created_at TEXT NOT NULL,
    UNIQUE (owner_id, invoice_number)
);

CREATE TABLE invoice_items (
    id TEXT PRIMARY KEY,
    invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
    description TEXT NOT NULL,
    quantity {{real}} NOT NULL,
    rate {{real}} NOT NULL,
    amount {{real}} NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX idx_clients_owner ON clients(owner_id);
CREATE INDEX idx_invoices_owner_created ON invoices(owner_id, created_at);
CREATE INDEX idx_invoices_status ON invoices(status);
CREATE INDEX idx_items_invoice ON invoice_items(invoice_id);
`,
	},
}

func render(sql string, dialect store.Dialect) string {
	realType := "REAL"
	if dialect == store.Postgres {
		realType = "DOUBLE PRECISION"
	}
	return strings.ReplaceAll(sql, "{{real}}", realType)
}

// RunMigrations applies all pending database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion int
	err = db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	record := "INSERT INTO schema_version (version) VALUES (" + placeholder(db.Dialect) + ")"
	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		if _, err := tx.ExecContext(ctx, render(m.sql, db.Dialect)); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}

		if _, err := tx.ExecContext(ctx, record, m.version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}

	return nil
}

func placeholder(d store.Dialect) string {
	if d == store.Postgres {
		return "$1"
	}
	return "?"
}
