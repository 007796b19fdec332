package store

const (
	TableClients      = "clients"
	TableInvoices     = "invoices"
	TableInvoiceItems = "invoice_items"

	// RelClient embeds an invoice's client; RelItems embeds its line items.
	RelClient = "client"
	RelItems  = "invoice_items"
)

// InvoicingSchema describes the clients, invoices and invoice_items tables.
// The column lists match the migrations in internal/db.
func InvoicingSchema() *Schema {
	clients := &Table{
		Name: TableClients,
		Columns: []Column{
			{Name: "id", Type: Text},
			{Name: "owner_id", Type: Text},
			{Name: "name", Type: Text},
			{Name: "email", Type: Text, Nullable: true},
			{Name: "phone", Type: Text, Nullable: true},
			{Name: "address", Type: Text, Nullable: true},
			{Name: "city", Type: Text, Nullable: true},
			{Name: "state", Type: Text, Nullable: true},
			{Name: "zip", Type: Text, Nullable: true},
			{Name: "country", Type: Text, Nullable: true},
			{Name: "created_at", Type: Timestamp},
		},
	}

	invoices := &Table{
		Name: TableInvoices,
		Columns: []Column{
			{Name: "id", Type: Text},
			{Name: "owner_id", Type: Text},
			{Name: "client_id", Type: Text, References: TableClients},
			{Name: "invoice_number", Type: Text},
			{Name: "issue_date", Type: Timestamp},
			{Name: "due_date", Type: Timestamp, Nullable: true},
			{Name: "status", Type: Text, Default: "draft"},
			{Name: "subtotal", Type: Number, Default: 0.0},
			{Name: "tax_rate", Type: Number, Default: 0.0},
			{Name: "tax_amount", Type: Number, Default: 0.0},
			{Name: "total", Type: Number, Default: 0.0},
			{Name: "notes", Type: Text, Nullable: true},
			{Name: "created_at", Type: Timestamp},
		},
		Relations: []Relation{
			{Name: RelClient, Table: TableClients, LocalColumn: "client_id", ForeignColumn: "id"},
			{Name: RelItems, Table: TableInvoiceItems, LocalColumn: "id", ForeignColumn: "invoice_id", Many: true},
		},
	}

	items := &Table{
		Name: TableInvoiceItems,
		Columns: []Column{
			{Name: "id", Type: Text},
			{Name: "invoice_id", Type: Text, References: TableInvoices, Cascade: true},
			{Name: "description", Type: Text},
			{Name: "quantity", Type: Number},
			{Name: "rate", Type: Number},
			{Name: "amount", Type: Number},
			{Name: "created_at", Type: Timestamp},
		},
	}

	return NewSchema(clients, invoices, items)
}
