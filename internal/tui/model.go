package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/invoicer/internal/app"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Screen represents the current active screen
type Screen int

const (
	ScreenInvoices Screen = iota
	ScreenClients
	ScreenCustomers
	ScreenProducts
	ScreenReports
	ScreenSettings
)

// String returns the screen name
func (s Screen) String() string {
	switch s {
	case ScreenInvoices:
		return "Invoices"
	case ScreenClients:
		return "Clients"
	case ScreenCustomers:
		return "Customers"
	case ScreenProducts:
		return "Products"
	case ScreenReports:
		return "Reports"
	case ScreenSettings:
		return "Settings"
	default:
		return "Unknown"
	}
}

var screenConstructors = map[Screen]func(*app.App) tea.Model{
	ScreenInvoices:  NewInvoicesModel,
	ScreenClients:   NewClientsModel,
	ScreenCustomers: NewCustomersModel,
	ScreenProducts:  NewProductsModel,
	ScreenReports:   NewReportsModel,
	ScreenSettings:  NewSettingsModel,
}

// Model is the root Bubble Tea model. Until the session resolves to a user
// it shows the login screen instead of the app screens.
type Model struct {
	app           *app.App
	currentScreen Screen
	width         int
	height        int

	// Screen models (lazy initialized, dropped on sign-out)
	screens map[Screen]tea.Model
	login   *LoginModel

	checkedFirstRun bool

	err     error
	quitMsg string // shown when quit is blocked
}

// New creates a new root model
func New(a *app.App) Model {
	return Model{
		app:           a,
		currentScreen: ScreenInvoices,
		screens:       make(map[Screen]tea.Model),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	session := m.app.Session
	return func() tea.Msg {
		err := session.Init(context.Background())
		user, _ := session.State()
		return sessionReadyMsg{user: user, err: err}
	}
}

// checkFirstRun checks if the signed-in user has any clients
func (m *Model) checkFirstRun() tea.Cmd {
	clients := m.app.ClientService
	return func() tea.Msg {
		list, err := clients.ListClients(context.Background())
		if err != nil {
			return firstRunCheckMsg{hasClients: true} // assume yes on error
		}
		return firstRunCheckMsg{hasClients: len(list) > 0}
	}
}

// enterApp shows the invoices screen after a successful sign-in
func (m *Model) enterApp() tea.Cmd {
	m.login = nil
	m.currentScreen = ScreenInvoices
	cmd := m.initScreen(ScreenInvoices)
	if m.checkedFirstRun {
		return cmd
	}
	return tea.Batch(cmd, m.checkFirstRun())
}

// showLogin drops every screen and shows a fresh login form
func (m *Model) showLogin() tea.Cmd {
	m.closeScreens()
	m.screens = make(map[Screen]tea.Model)
	m.checkedFirstRun = false
	m.currentScreen = ScreenInvoices
	m.login = NewLoginModel(m.app)
	return m.login.Init()
}

func (m *Model) closeScreens() {
	for _, s := range m.screens {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}

// initScreen lazy-initializes a screen on first visit,
// and sends a RefreshDataMsg on subsequent visits so screens reload data.
func (m *Model) initScreen(screen Screen) tea.Cmd {
	if _, ok := m.screens[screen]; ok {
		return func() tea.Msg { return RefreshDataMsg{} }
	}
	newScreen, ok := screenConstructors[screen]
	if !ok {
		return nil
	}
	s := newScreen(m.app)
	m.screens[screen] = s
	return s.Init()
}

func (m *Model) switchTo(screen Screen) tea.Cmd {
	m.currentScreen = screen
	return m.initScreen(screen)
}

// InputCapturer is implemented by screens that capture keyboard input (e.g. text forms).
// When active, global navigation keys are suppressed.
type InputCapturer interface {
	IsCapturingInput() bool
}

// activeScreenCapturingInput returns true if the current screen is capturing text input
func (m *Model) activeScreenCapturingInput() bool {
	if ic, ok := m.screens[m.currentScreen].(InputCapturer); ok {
		return ic.IsCapturingInput()
	}
	return false
}

// busy reports whether quitting now would abandon a pending save
func (m *Model) busy() bool {
	b, ok := m.screens[ScreenInvoices].(interface{ Busy() bool })
	return ok && b.Busy()
}

var navKeys = []struct {
	binding *key.Binding
	screen  Screen
}{
	{&DefaultKeyMap.Invoices, ScreenInvoices},
	{&DefaultKeyMap.Clients, ScreenClients},
	{&DefaultKeyMap.Customers, ScreenCustomers},
	{&DefaultKeyMap.Products, ScreenProducts},
	{&DefaultKeyMap.Reports, ScreenReports},
	{&DefaultKeyMap.Settings, ScreenSettings},
}

// Update implements tea.Model - gates on the session, then routes keys to screens
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sessionReadyMsg:
		if msg.err != nil {
			m.err = msg.err
			m.app.Logger.Error("session init failed", zap.Error(msg.err))
		}
		if msg.user != nil {
			return m, m.enterApp()
		}
		return m, m.showLogin()

	case signedInMsg:
		if msg.err == nil && msg.user != nil {
			m.err = nil
			return m, m.enterApp()
		}

	case signedOutMsg:
		m.err = msg.err
		return m, m.showLogin()

	case firstRunCheckMsg:
		if !m.checkedFirstRun && !msg.hasClients {
			m.checkedFirstRun = true
			initCmd := m.switchTo(ScreenClients)
			openFormCmd := func() tea.Msg { return OpenNewClientFormMsg{} }
			return m, tea.Sequence(initCmd, openFormCmd)
		}
		m.checkedFirstRun = true
		return m, nil

	case SwitchScreenMsg:
		return m, m.switchTo(msg.Screen)

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		// Clear quit warning on any keypress
		m.quitMsg = ""

		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if user, _ := m.app.Session.State(); m.login != nil || user == nil {
			break
		}

		// Skip global navigation when a screen is capturing text input
		if !m.activeScreenCapturingInput() {
			if key.Matches(msg, DefaultKeyMap.Quit) {
				if m.busy() {
					m.quitMsg = "A status change is still saving."
					return m, nil
				}
				return m, tea.Quit
			}
			for _, nav := range navKeys {
				if key.Matches(msg, *nav.binding) {
					return m, m.switchTo(nav.screen)
				}
			}
		}
	}

	if m.login != nil {
		var cmd tea.Cmd
		_, cmd = m.login.Update(msg)
		return m, cmd
	}

	// Results go to the screen that asked for them
	target := m.currentScreen
	if sm, ok := msg.(screenMsg); ok {
		target = sm.screen()
	}
	screen, ok := m.screens[target]
	if !ok {
		return m, nil
	}
	var cmd tea.Cmd
	m.screens[target], cmd = screen.Update(msg)
	return m, cmd
}

// View implements tea.Model - renders header + current screen + footer
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	user, loading := m.app.Session.State()

	var header, footer, content string
	switch {
	case m.login != nil:
		header = headerStyle.Render("invoicer")
		footer = footerStyle.Render("ctrl+c: quit")
		content = m.login.View()
	case loading || user == nil:
		header = headerStyle.Render("invoicer")
		content = "Checking your session..."
	default:
		header = headerStyle.Render(fmt.Sprintf("invoicer - %s", m.currentScreen.String())) +
			subtitleStyle.Render("  "+user.Email)
		footer = footerStyle.Render("[I]nvoices  [C]lients  C[u]stomers  [P]roducts  [R]eports  [,] Settings  [Q]uit")
		if s, ok := m.screens[m.currentScreen]; ok {
			content = s.View()
		} else {
			content = "Loading..."
		}
	}

	// Error/warning display
	errorDisplay := ""
	if m.quitMsg != "" {
		errorDisplay = lipgloss.NewStyle().
			Foreground(warningColor).
			Render(fmt.Sprintf("\n%s", m.quitMsg))
	} else if m.err != nil {
		errorDisplay = lipgloss.NewStyle().
			Foreground(errorColor).
			Render(fmt.Sprintf("\nError: %s", m.err.Error()))
	}

	innerWidth := max(m.width-6, 20) // border (2) + padding (4)
	dividerWidth := max(innerWidth-12, 10)
	divider := lipgloss.NewStyle().Foreground(borderColor).Render(strings.Repeat("─", dividerWidth))

	body := fmt.Sprintf("%s\n%s\n\n%s%s\n\n%s\n%s", header, divider, content, errorDisplay, divider, footer)

	frame := appBorderStyle.
		Width(innerWidth).
		Height(max(m.height-4, 1))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, frame.Render(body))
}

// Run starts the TUI
func Run(a *app.App) error {
	p := tea.NewProgram(New(a), tea.WithAltScreen())
	final, err := p.Run()
	if m, ok := final.(Model); ok {
		m.closeScreens()
	}
	return err
}
