package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/config"
	"github.com/andy/invoicer/internal/crypto"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	for _, name := range []string{crypto.KeySessionToken, crypto.KeyTokenSecret} {
		t.Setenv(crypto.EnvName(name), "")
	}

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Database.Driver = config.DriverMemory
	cfg.Invoice.OutputDir = filepath.Join(dir, "invoices")
	cfg.Local.Dir = filepath.Join(dir, "local")
	cfg.Log.Path = ""

	a, err := app.NewWithConfig(context.Background(), cfg, crypto.NewFileKeyring(dir))
	require.NoError(t, err)
	a.ConfigPath = filepath.Join(dir, "config.yaml")
	t.Cleanup(func() { a.Close() })
	return a
}

func signIn(t *testing.T, a *app.App) {
	t.Helper()
	_, err := a.Session.SignInWithEmail(context.Background(), "jane@example.com", "Jane")
	require.NoError(t, err)
}

func addClient(t *testing.T, a *app.App, name string) *domain.Client {
	t.Helper()
	c := &domain.Client{Name: name, Email: "billing@example.com"}
	require.NoError(t, a.ClientService.CreateClient(context.Background(), c))
	return c
}

func addInvoice(t *testing.T, a *app.App, client *domain.Client, status domain.InvoiceStatus) *domain.Invoice {
	t.Helper()
	inv, err := a.InvoiceService.CreateInvoice(context.Background(), service.CreateInvoiceInput{
		ClientID:  client.ID,
		IssueDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		TaxRate:   10,
		Status:    status,
		Lines:     []domain.LineInput{{Description: "Design", Quantity: 2, Rate: 50}},
	})
	require.NoError(t, err)
	return inv
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m tea.Model, s string) tea.Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

// signedInRoot returns a root model that has resolved its session and shows
// the invoices screen. Commands that would block on the event bus are not run.
func signedInRoot(t *testing.T, a *app.App) Model {
	t.Helper()
	m := New(a)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	user, _ := a.Session.State()
	next, _ = next.Update(sessionReadyMsg{user: user})
	root := next.(Model)
	t.Cleanup(root.closeScreens)
	return root
}

func TestScreen_String(t *testing.T) {
	assert.Equal(t, "Invoices", ScreenInvoices.String())
	assert.Equal(t, "Customers", ScreenCustomers.String())
	assert.Equal(t, "Settings", ScreenSettings.String())
	assert.Equal(t, "Unknown", Screen(99).String())
}

func TestModel_ShowsLoginWithoutSession(t *testing.T) {
	a := newTestApp(t)
	m := New(a)

	msg := m.Init()()
	ready, ok := msg.(sessionReadyMsg)
	require.True(t, ok)
	assert.Nil(t, ready.user)
	assert.NoError(t, ready.err)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	next, _ = next.Update(ready)
	root := next.(Model)
	require.NotNil(t, root.login)
	assert.Empty(t, root.screens)
	assert.Contains(t, root.View(), "Sign in to invoicer")

	// navigation keys are typed into the login form instead
	next, _ = root.Update(keyPress("c"))
	root = next.(Model)
	assert.Empty(t, root.screens)

	_, cmd := root.Update(keyPress("ctrl+c"))
	assert.True(t, isQuit(cmd))
}

func TestModel_SignInOpensInvoices(t *testing.T) {
	a := newTestApp(t)
	m := New(a)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	next, _ = next.Update(sessionReadyMsg{})
	root := next.(Model)
	require.NotNil(t, root.login)

	// the login screen issues the sign-in; deliver its result
	user, err := a.Session.SignInWithEmail(context.Background(), "jane@example.com", "Jane")
	require.NoError(t, err)
	next, _ = root.Update(signedInMsg{user: user})
	root = next.(Model)
	t.Cleanup(root.closeScreens)

	assert.Nil(t, root.login)
	assert.Equal(t, ScreenInvoices, root.currentScreen)
	assert.Contains(t, root.screens, ScreenInvoices)
	assert.Contains(t, root.View(), "invoicer - Invoices")
	assert.Contains(t, root.View(), "jane@example.com")
}

func TestModel_FailedSignInStaysOnLogin(t *testing.T) {
	a := newTestApp(t)
	m := New(a)
	next, _ := m.Update(sessionReadyMsg{})
	next, _ = next.Update(signedInMsg{err: &domain.ValidationError{Field: "email", Message: "email is invalid"}})
	root := next.(Model)

	require.NotNil(t, root.login)
	assert.Equal(t, "email is invalid", root.login.notice)
}

func TestModel_FirstRunOpensClientForm(t *testing.T) {
	a := newTestApp(t)
	signIn(t, a)
	root := signedInRoot(t, a)

	cmd := root.checkFirstRun()
	msg := cmd()
	assert.Equal(t, firstRunCheckMsg{hasClients: false}, msg)

	next, seq := root.Update(msg)
	root = next.(Model)
	assert.Equal(t, ScreenClients, root.currentScreen)
	assert.True(t, root.checkedFirstRun)
	assert.NotNil(t, seq)

	// the clients screen is still loading and remembers to open the form
	next, _ = root.Update(OpenNewClientFormMsg{})
	root = next.(Model)
	clients := root.screens[ScreenClients].(*ClientsModel)
	assert.True(t, clients.autoNewClient)

	// a second check does nothing
	next, cmd = root.Update(firstRunCheckMsg{hasClients: false})
	assert.Nil(t, cmd)
	assert.Equal(t, ScreenClients, next.(Model).currentScreen)
}

func TestModel_NavigationKeys(t *testing.T) {
	a := newTestApp(t)
	signIn(t, a)
	root := signedInRoot(t, a)

	tests := []struct {
		key  string
		want Screen
	}{
		{"c", ScreenClients},
		{"u", ScreenCustomers},
		{"p", ScreenProducts},
		{"r", ScreenReports},
		{",", ScreenSettings},
		{"i", ScreenInvoices},
	}
	for _, tt := range tests {
		next, _ := root.Update(keyPress(tt.key))
		root = next.(Model)
		assert.Equal(t, tt.want, root.currentScreen, "key %q", tt.key)
		assert.Contains(t, root.screens, tt.want)
	}
}

func TestModel_NavigationSuppressedWhileTyping(t *testing.T) {
	a := newTestApp(t)
	signIn(t, a)
	root := signedInRoot(t, a)

	next, _ := root.Update(keyPress("u"))
	next, _ = next.Update(keyPress("/"))
	root = next.(Model)
	require.True(t, root.activeScreenCapturingInput())

	next, cmd := root.Update(keyPress("q"))
	root = next.(Model)
	assert.False(t, isQuit(cmd))
	next, _ = root.Update(keyPress("c"))
	root = next.(Model)
	assert.Equal(t, ScreenCustomers, root.currentScreen)

	customers := root.screens[ScreenCustomers].(*CustomersModel)
	assert.Equal(t, "qc", customers.search.Value())
}

func TestModel_QuitBlockedWhileStatusSaving(t *testing.T) {
	a := newTestApp(t)
	signIn(t, a)
	root := signedInRoot(t, a)

	invoices := root.screens[ScreenInvoices].(*InvoicesModel)
	invoices.mode = invoiceViewDetail
	invoices.detail = NewInvoiceDetailModel(a, "inv-1")
	invoices.detail.inFlight = true

	next, cmd := root.Update(keyPress("q"))
	root = next.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, "A status change is still saving.", root.quitMsg)
	assert.Contains(t, root.View(), "A status change is still saving.")

	_, cmd = root.Update(keyPress("ctrl+c"))
	assert.True(t, isQuit(cmd))

	invoices.detail.inFlight = false
	_, cmd = root.Update(keyPress("q"))
	assert.True(t, isQuit(cmd))
}

func TestModel_ResultsReachTheirScreen(t *testing.T) {
	a := newTestApp(t)
	signIn(t, a)
	client := addClient(t, a, "ACME")
	addInvoice(t, a, client, domain.InvoiceStatusSent)
	root := signedInRoot(t, a)

	invoices := root.screens[ScreenInvoices].(*InvoicesModel)
	load := invoices.loadInvoices()

	// switch away before the load finishes
	next, _ := root.Update(keyPress("r"))
	root = next.(Model)
	require.Equal(t, ScreenReports, root.currentScreen)

	next, _ = root.Update(load())
	root = next.(Model)
	assert.Len(t, invoices.invoices, 1)
	assert.False(t, invoices.loading)
}

func TestModel_SignOutDropsScreens(t *testing.T) {
	a := newTestApp(t)
	signIn(t, a)
	root := signedInRoot(t, a)

	next, _ := root.Update(keyPress(","))
	root = next.(Model)
	settings := root.screens[ScreenSettings].(*SettingsModel)

	msg := settings.signOut()()
	next, _ = root.Update(msg)
	root = next.(Model)

	assert.NotNil(t, root.login)
	assert.Empty(t, root.screens)
	assert.Equal(t, ScreenInvoices, root.currentScreen)
	user, _ := a.Session.State()
	assert.Nil(t, user)
}
