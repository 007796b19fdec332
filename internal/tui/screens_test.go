package tui

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/service"
	"github.com/andy/invoicer/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClientsModel_CreateAndDelete(t *testing.T) {
	a := newTestApp(t)
	signIn(t, a)
	m := NewClientsModel(a).(*ClientsModel)
	m.Update(m.Init()())
	assert.Contains(t, m.View(), "No clients yet")

	m.Update(keyPress("n"))
	require.Equal(t, clientModeNew, m.mode)
	assert.Contains(t, m.View(), "Welcome to invoicer!")

	_, cmd := m.Update(keyPress("ctrl+s"))
	assert.Nil(t, cmd)
	assert.Equal(t, "Name is required.", m.notice)

	m.fields[fieldName].SetValue("ACME")
	m.fields[fieldCity].SetValue("Springfield")
	_, cmd = m.Update(keyPress("ctrl+s"))
	require.NotNil(t, cmd)
	_, cmd = m.Update(cmd())
	assert.Equal(t, clientModeList, m.mode)
	assert.Equal(t, "Saved: ACME", m.status)
	m.Update(cmd())
	require.Len(t, m.clients, 1)
	assert.Contains(t, m.View(), "Springfield")

	m.Update(keyPress("d"))
	require.NotNil(t, m.confirm)
	_, cmd = m.Update(keyPress("y"))
	require.NotNil(t, cmd)
	_, cmd = m.Update(cmd())
	assert.Equal(t, "Deleted: ACME", m.status)
	m.Update(cmd())
	assert.Empty(t, m.clients)
}

func TestClientsModel_DeleteFailureNotices(t *testing.T) {
	a := newTestApp(t)
	signIn(t, a)
	client := addClient(t, a, "ACME")
	addInvoice(t, a, client, domain.InvoiceStatusDraft)
	m := NewClientsModel(a).(*ClientsModel)
	m.Update(m.Init()())

	m.Update(keyPress("d"))
	_, cmd := m.Update(keyPress("y"))
	require.NotNil(t, cmd)
	msg := cmd().(clientDeletedMsg)
	require.True(t, errors.Is(msg.err, store.ErrConstraint))
	_, cmd = m.Update(msg)
	assert.Nil(t, cmd)
	assert.Equal(t, "Could not delete ACME. Delete its invoices first.", m.notice)

	_, cmd = m.Update(clientDeletedMsg{name: "ACME", err: context.DeadlineExceeded})
	assert.Nil(t, cmd)
	assert.Equal(t, "Could not delete ACME.", m.notice)
}

func TestClientsModel_AutoOpensFormAfterLoad(t *testing.T) {
	a := newTestApp(t)
	signIn(t, a)
	m := NewClientsModel(a).(*ClientsModel)
	load := m.Init()

	m.Update(OpenNewClientFormMsg{})
	assert.Equal(t, clientModeList, m.mode)

	m.Update(load())
	assert.Equal(t, clientModeNew, m.mode)
	assert.True(t, m.IsCapturingInput())
}

func TestCustomersModel_AddSearchDelete(t *testing.T) {
	a := newTestApp(t)
	m := NewCustomersModel(a).(*CustomersModel)
	assert.Contains(t, m.View(), "No customers yet")

	m.Update(keyPress("n"))
	require.Equal(t, customerModeForm, m.mode)
	m.fields[custFieldName].SetValue("Jane Roe")
	m.fields[custFieldEmail].SetValue("jane@example.com")
	m.Update(keyPress("ctrl+s"))
	assert.Equal(t, "phone is required", m.notice)
	assert.Equal(t, customerModeForm, m.mode)

	m.fields[custFieldPhone].SetValue("555-0100")
	m.Update(keyPress("ctrl+s"))
	assert.Equal(t, customerModeList, m.mode)
	assert.Equal(t, "Saved: Jane Roe", m.status)
	require.Len(t, m.rows, 1)
	assert.Equal(t, 0, m.rows[0].Index)

	m.Update(keyPress("/"))
	require.True(t, m.IsCapturingInput())
	typeText(m, "zzz")
	assert.Empty(t, m.rows)
	assert.Contains(t, m.View(), "No customers match.")
	m.Update(keyPress("esc"))
	assert.Len(t, m.rows, 1)

	m.Update(keyPress("d"))
	require.NotNil(t, m.confirm)
	m.Update(keyPress("y"))
	assert.Equal(t, "Deleted: Jane Roe", m.status)
	assert.Empty(t, m.rows)
	assert.Equal(t, 0, a.Customers.Len())
}

func TestCustomersModel_EditKeepsPosition(t *testing.T) {
	a := newTestApp(t)
	for _, name := range []string{"Ann", "Bob"} {
		_, err := a.Customers.Add(domain.Customer{Name: name, Email: name + "@example.com", Phone: "1"})
		require.NoError(t, err)
	}
	m := NewCustomersModel(a).(*CustomersModel)

	m.Update(keyPress("j"))
	m.Update(keyPress("enter"))
	require.Equal(t, 1, m.editIndex)
	assert.Contains(t, m.View(), "Edit Customer #2")
	m.fields[custFieldName].SetValue("Robert")
	m.Update(keyPress("ctrl+s"))

	list := a.Customers.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Ann", list[0].Name)
	assert.Equal(t, "Robert", list[1].Name)
}

func TestProductsModel_AddProduct(t *testing.T) {
	a := newTestApp(t)
	m := NewProductsModel(a).(*ProductsModel)
	assert.Contains(t, m.View(), "No products found")

	m.Update(keyPress("n"))
	require.Equal(t, productModeForm, m.mode)
	require.Equal(t, []string{"Clothing", "Electronics", "Groceries"}, m.categories)

	m.Update(keyPress("right"))
	assert.Equal(t, "Electronics", m.categories[m.categoryIdx])
	assert.Equal(t, "Mobile, Laptop, Smart Watch", m.fields[prodFieldSubcategory].Placeholder)

	m.fields[prodFieldName].SetValue("Phone")
	m.fields[prodFieldBuy].SetValue("abc")
	m.Update(keyPress("ctrl+s"))
	assert.Equal(t, `Buying price "abc" is not a number.`, m.notice)

	m.fields[prodFieldBuy].SetValue("100")
	m.fields[prodFieldSell].SetValue("149.50")
	m.fields[prodFieldStock].SetValue("x")
	m.Update(keyPress("ctrl+s"))
	assert.Equal(t, "Stock must be a whole number.", m.notice)

	m.fields[prodFieldStock].SetValue("3")
	m.Update(keyPress("ctrl+s"))
	assert.Equal(t, productModeList, m.mode)
	assert.Equal(t, "Added Phone (profit $49.50 per unit)", m.status)
	require.Len(t, m.products, 1)
	assert.Equal(t, "Electronics", m.products[0].Category)
}

func TestProductsModel_AddCategory(t *testing.T) {
	a := newTestApp(t)
	m := NewProductsModel(a).(*ProductsModel)

	m.Update(keyPress("a"))
	require.True(t, m.IsCapturingInput())
	m.Update(keyPress("enter"))
	assert.Equal(t, "category name is required", m.notice)

	typeText(m, " Books ")
	m.Update(keyPress("enter"))
	assert.Equal(t, productModeList, m.mode)
	assert.Equal(t, "Category available: Books", m.status)
	assert.Contains(t, a.Catalog.CategoryNames(), "Books")
}

func TestReportsModel_SummaryAndOverdueSweep(t *testing.T) {
	a := newTestApp(t)
	signIn(t, a)
	client := addClient(t, a, "ACME")
	due := time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)
	_, err := a.InvoiceService.CreateInvoice(context.Background(), service.CreateInvoiceInput{
		ClientID:  client.ID,
		IssueDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   &due,
		Status:    domain.InvoiceStatusSent,
		Lines:     []domain.LineInput{{Description: "Audit", Quantity: 1, Rate: 200}},
	})
	require.NoError(t, err)

	m := NewReportsModel(a).(*ReportsModel)
	m.Update(m.Init()())
	require.NotNil(t, m.summary)
	assert.Equal(t, 1, m.summary.ByStatus[domain.InvoiceStatusSent])
	assert.Contains(t, m.View(), "Invoices by Status")

	_, cmd := m.Update(keyPress("o"))
	require.NotNil(t, cmd)
	_, cmd = m.Update(cmd())
	assert.Equal(t, "1 invoice(s) marked overdue", m.status)
	m.Update(cmd())
	assert.Equal(t, 1, m.summary.ByStatus[domain.InvoiceStatusOverdue])
	assert.Equal(t, 200.0, m.summary.Overdue)
}

func TestReportsModel_YearKeys(t *testing.T) {
	a := newTestApp(t)
	signIn(t, a)
	m := NewReportsModel(a).(*ReportsModel)
	year := m.revenueYear

	_, cmd := m.Update(keyPress("]"))
	assert.Nil(t, cmd)
	assert.Equal(t, year, m.revenueYear)

	_, cmd = m.Update(keyPress("["))
	require.NotNil(t, cmd)
	assert.Equal(t, year-1, m.revenueYear)
	m.Update(cmd())
	assert.Contains(t, m.View(), "No paid invoices")
}

func TestSettingsModel_Save(t *testing.T) {
	a := newTestApp(t)
	m := NewSettingsModel(a).(*SettingsModel)

	m.Update(keyPress("enter"))
	require.True(t, m.IsCapturingInput())

	m.fields[settingsFieldTaxRate].SetValue("150")
	m.Update(keyPress("ctrl+s"))
	assert.Equal(t, "tax rate must be a number between 0 and 100", m.notice)
	assert.True(t, m.IsCapturingInput())

	m.fields[settingsFieldTaxRate].SetValue("8.5")
	m.fields[settingsFieldName].SetValue("Jane Roe")
	m.Update(keyPress("ctrl+s"))
	assert.False(t, m.IsCapturingInput())
	assert.Equal(t, "Settings saved", m.statusMsg)
	assert.Equal(t, 8.5, a.Config.Invoice.DefaultTaxRate)
	assert.Equal(t, "Jane Roe", a.Config.User.Name)

	_, err := os.Stat(a.ConfigPath)
	assert.NoError(t, err)
	assert.Contains(t, m.View(), "8.5%")
}

func TestUserNotice(t *testing.T) {
	logger := zap.NewNop()
	assert.Equal(t, "name is required", userNotice(logger, domain.NewValidationError("name", "name is required"), "generic"))
	assert.Equal(t, service.ErrTransitionInFlight.Error(), userNotice(logger, service.ErrTransitionInFlight, "generic"))
	assert.Equal(t, "generic", userNotice(logger, errors.New("connection reset"), "generic"))
}

func TestTruncateStr(t *testing.T) {
	assert.Equal(t, "short", truncateStr("short", 10))
	assert.Equal(t, 10, len([]rune(truncateStr("Grüße aus Köln", 10))))
}
