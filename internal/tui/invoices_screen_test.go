package tui

import (
	"os"
	"testing"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoadedInvoices(t *testing.T) (*InvoicesModel, []*domain.Invoice) {
	t.Helper()
	a := newTestApp(t)
	signIn(t, a)
	client := addClient(t, a, "ACME")
	sent := addInvoice(t, a, client, domain.InvoiceStatusSent)
	paid := addInvoice(t, a, client, domain.InvoiceStatusPaid)

	m := NewInvoicesModel(a).(*InvoicesModel)
	m.Update(m.loadInvoices()())
	require.False(t, m.loading)
	return m, []*domain.Invoice{sent, paid}
}

func TestInvoicesModel_LoadsListAndSummary(t *testing.T) {
	m, created := newLoadedInvoices(t)

	assert.Len(t, m.invoices, 2)
	require.NotNil(t, m.summary)
	assert.Equal(t, 2, m.summary.Count)
	assert.Equal(t, 110.0, m.summary.Outstanding)
	assert.Equal(t, 110.0, m.summary.Paid)

	view := m.View()
	assert.Contains(t, view, created[0].InvoiceNumber)
	assert.Contains(t, view, created[1].InvoiceNumber)
	assert.Contains(t, view, "ACME")
	assert.Contains(t, view, "Outstanding: $110.00")
}

func TestInvoicesModel_FilterCycles(t *testing.T) {
	m, _ := newLoadedInvoices(t)

	_, cmd := m.Update(keyPress("f"))
	require.NotNil(t, cmd)
	assert.Equal(t, domain.StatusFilter(domain.InvoiceStatusDraft), m.filter)
	m.Update(cmd())
	assert.Empty(t, m.invoices)
	assert.Contains(t, m.View(), "No invoices found")

	_, cmd = m.Update(keyPress("f"))
	assert.Equal(t, domain.StatusFilter(domain.InvoiceStatusSent), m.filter)
	m.Update(cmd())
	require.Len(t, m.invoices, 1)
	assert.Equal(t, domain.InvoiceStatusSent, m.invoices[0].Status)
}

func TestInvoicesModel_DropsStaleLoads(t *testing.T) {
	m, _ := newLoadedInvoices(t)

	stale := m.loadInvoices()
	fresh := m.loadInvoices()

	m.Update(fresh())
	assert.Len(t, m.invoices, 2)

	// an older result arriving late changes nothing
	msg := stale().(invoicesDataMsg)
	msg.invoices = nil
	m.Update(msg)
	assert.Len(t, m.invoices, 2)
}

func TestInvoicesModel_DeleteNeedsConfirmation(t *testing.T) {
	m, _ := newLoadedInvoices(t)

	m.Update(keyPress("d"))
	require.NotNil(t, m.confirm)
	assert.True(t, m.IsCapturingInput())
	assert.Contains(t, m.View(), "[y/N]")

	_, cmd := m.Update(keyPress("n"))
	assert.Nil(t, cmd)
	assert.Nil(t, m.confirm)
	assert.Equal(t, "Delete cancelled", m.status)

	m.Update(keyPress("d"))
	number := m.confirm.InvoiceNumber
	_, cmd = m.Update(keyPress("y"))
	require.NotNil(t, cmd)

	_, cmd = m.Update(cmd())
	assert.Equal(t, "Deleted "+number, m.status)
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Len(t, m.invoices, 1)
}

func openDetail(t *testing.T, m *InvoicesModel) *InvoiceDetailModel {
	t.Helper()
	_, cmd := m.Update(keyPress("enter"))
	require.NotNil(t, cmd)
	require.NotNil(t, m.detail)
	m.Update(cmd())
	require.NotNil(t, m.detail.invoice)
	return m.detail
}

func TestInvoicesModel_DetailStatusChange(t *testing.T) {
	m, _ := newLoadedInvoices(t)

	// pick the sent invoice
	for i, inv := range m.invoices {
		if inv.Status == domain.InvoiceStatusSent {
			m.cursor = i
		}
	}
	detail := openDetail(t, m)
	assert.Equal(t, domain.InvoiceStatusSent, detail.invoice.Status)
	assert.Contains(t, m.View(), "Bill To")

	// same status is a no-op
	_, cmd := m.Update(keyPress("2"))
	assert.Nil(t, cmd)

	_, cmd = m.Update(keyPress("3"))
	require.NotNil(t, cmd)
	assert.True(t, m.Busy())

	// controls are disabled until the write lands
	_, again := m.Update(keyPress("4"))
	assert.Nil(t, again)

	m.Update(cmd())
	assert.False(t, m.Busy())
	assert.Equal(t, domain.InvoiceStatusPaid, detail.invoice.Status)
	assert.Equal(t, "Marked as Paid", detail.status)
}

func TestInvoicesModel_DetailStaysOpenWhileSaving(t *testing.T) {
	m, _ := newLoadedInvoices(t)
	openDetail(t, m)

	_, write := m.Update(keyPress("4"))
	require.NotNil(t, write)
	require.True(t, m.Busy())

	_, cmd := m.Update(keyPress("esc"))
	assert.Nil(t, cmd)
	require.NotNil(t, m.detail)
	assert.Equal(t, "Wait for the status change to finish.", m.detail.notice)

	// a close already queued is ignored too
	m.Update(closeDetailMsg{})
	require.NotNil(t, m.detail)
	assert.True(t, m.Busy())

	m.Update(write())
	assert.False(t, m.Busy())
	_, cmd = m.Update(keyPress("esc"))
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Nil(t, m.detail)
	assert.Equal(t, invoiceViewList, m.mode)
}

func TestInvoicesModel_DetailIgnoresOtherInvoices(t *testing.T) {
	m, _ := newLoadedInvoices(t)
	detail := openDetail(t, m)
	status := detail.invoice.Status

	m.Update(statusChangedMsg{id: "someone-else", status: domain.InvoiceStatusCancelled, invoice: &domain.Invoice{}})
	assert.Equal(t, status, detail.invoice.Status)
	assert.Empty(t, detail.status)
}

func TestInvoicesModel_DetailExportAndClose(t *testing.T) {
	m, _ := newLoadedInvoices(t)
	detail := openDetail(t, m)

	_, cmd := m.Update(keyPress("t"))
	require.NotNil(t, cmd)
	msg := cmd().(exportDoneMsg)
	require.NoError(t, msg.err)
	m.Update(msg)
	assert.Equal(t, "Saved "+msg.path, detail.status)
	_, err := os.Stat(msg.path)
	assert.NoError(t, err)

	_, cmd = m.Update(keyPress("esc"))
	require.NotNil(t, cmd)
	_, cmd = m.Update(cmd())
	assert.Nil(t, m.detail)
	assert.Equal(t, invoiceViewList, m.mode)
	assert.NotNil(t, cmd)
}

func TestInvoicesModel_EventsTriggerReload(t *testing.T) {
	m, _ := newLoadedInvoices(t)
	m.Init()
	t.Cleanup(m.Close)
	seq := m.seq

	m.app.Bus.Publish(service.InvoiceEvent{Kind: service.InvoiceStatusChanged, InvoiceID: "x"})
	msg := waitForEvent(m.events)()
	require.IsType(t, invoiceEventMsg{}, msg)

	_, cmd := m.Update(msg)
	assert.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.Greater(t, m.seq, seq)

	events := m.events
	m.Close()
	assert.Nil(t, waitForEvent(events)())
}
