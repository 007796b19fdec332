package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/config"
	"github.com/andy/invoicer/internal/format"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type settingsMode int

const (
	settingsModeView settingsMode = iota
	settingsModeEdit
)

// settings form field indices
const (
	settingsFieldOutputDir = iota
	settingsFieldPrefix
	settingsFieldDueDays
	settingsFieldTaxRate
	settingsFieldCurrency
	settingsFieldName
	settingsFieldEmail
	settingsFieldAddress
	settingsFieldPhone
	settingsFieldCount
)

var settingsLabels = []string{
	"Output Directory:", "Number Prefix:", "Default Due Days:", "Tax Rate (%):", "Currency Symbol:",
	"Your Name:", "Your Email:", "Your Address:", "Your Phone:",
}

// SettingsModel manages the settings screen
type SettingsModel struct {
	app        *app.App
	mode       settingsMode
	fields     []textinput.Model
	fieldFocus int
	notice     string
	statusMsg  string
}

// NewSettingsModel creates a new settings screen
func NewSettingsModel(a *app.App) tea.Model {
	return &SettingsModel{
		app:  a,
		mode: settingsModeView,
	}
}

// IsCapturingInput returns true when the edit form is active
func (m *SettingsModel) IsCapturingInput() bool {
	return m.mode == settingsModeEdit
}

func (m *SettingsModel) Init() tea.Cmd {
	return nil
}

func (m *SettingsModel) initForm() {
	inv, user := m.app.Config.Invoice, m.app.Config.User

	m.fields = make([]textinput.Model, settingsFieldCount)
	m.fields[settingsFieldOutputDir] = newInput("/path/to/invoices", 256, 60)
	m.fields[settingsFieldPrefix] = newInput("INV", 20, 20)
	m.fields[settingsFieldDueDays] = newInput("30", 5, 10)
	m.fields[settingsFieldTaxRate] = newInput("0", 10, 10)
	m.fields[settingsFieldCurrency] = newInput("$", 4, 6)
	m.fields[settingsFieldName] = newInput("Printed on invoices", 100, 40)
	m.fields[settingsFieldEmail] = newInput("", 100, 40)
	m.fields[settingsFieldAddress] = newInput("", 200, 60)
	m.fields[settingsFieldPhone] = newInput("", 30, 20)

	values := []string{
		inv.OutputDir, inv.NumberPrefix, strconv.Itoa(inv.DefaultDueDays), format.Number(inv.DefaultTaxRate),
		inv.CurrencySymbol, user.Name, user.Email, user.Address, user.Phone,
	}
	for i, v := range values {
		m.fields[i].SetValue(v)
	}

	m.fieldFocus = settingsFieldOutputDir
	m.fields[settingsFieldOutputDir].Focus()
}

// saveSettings validates the form and writes the config
func (m *SettingsModel) saveSettings() error {
	values := make([]string, settingsFieldCount)
	for i := range m.fields {
		values[i] = strings.TrimSpace(m.fields[i].Value())
	}

	if values[settingsFieldOutputDir] == "" {
		return fmt.Errorf("output directory is required")
	}
	if values[settingsFieldPrefix] == "" {
		return fmt.Errorf("invoice prefix is required")
	}

	dueDays, err := strconv.Atoi(values[settingsFieldDueDays])
	if err != nil || dueDays < 0 {
		return fmt.Errorf("due days must be zero or a positive number")
	}

	taxRate, err := strconv.ParseFloat(values[settingsFieldTaxRate], 64)
	if err != nil || taxRate < 0 || taxRate > 100 {
		return fmt.Errorf("tax rate must be a number between 0 and 100")
	}

	next := *m.app.Config
	next.Invoice.OutputDir = values[settingsFieldOutputDir]
	next.Invoice.NumberPrefix = values[settingsFieldPrefix]
	next.Invoice.DefaultDueDays = dueDays
	next.Invoice.DefaultTaxRate = taxRate
	next.Invoice.CurrencySymbol = values[settingsFieldCurrency]
	next.User = config.UserConfig{
		Name:    values[settingsFieldName],
		Email:   values[settingsFieldEmail],
		Address: values[settingsFieldAddress],
		Phone:   values[settingsFieldPhone],
	}
	if err := next.Validate(); err != nil {
		return err
	}

	*m.app.Config = next
	if err := m.app.SaveConfig(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func (m *SettingsModel) save() {
	if err := m.saveSettings(); err != nil {
		m.notice = err.Error()
		return
	}
	m.mode = settingsModeView
	m.notice = ""
	m.statusMsg = "Settings saved"
}

func (m *SettingsModel) signOut() tea.Cmd {
	session := m.app.Session
	return func() tea.Msg {
		return signedOutMsg{err: session.SignOut()}
	}
}

func (m *SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.mode == settingsModeEdit {
		return m.updateForm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		m.notice = ""
		switch keyMsg.String() {
		case "enter":
			m.mode = settingsModeEdit
			m.statusMsg = ""
			m.initForm()
			return m, m.fields[m.fieldFocus].Focus()
		case "o":
			return m, m.signOut()
		}
	}
	return m, nil
}

func (m *SettingsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.mode = settingsModeView
			m.notice = ""
			return m, nil

		case "tab", "down":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus + 1) % settingsFieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "shift+tab", "up":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus - 1 + settingsFieldCount) % settingsFieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "enter":
			if m.fieldFocus == settingsFieldCount-1 {
				m.save()
				return m, nil
			}
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus++
			return m, m.fields[m.fieldFocus].Focus()

		case "ctrl+s":
			m.save()
			return m, nil
		}
	}

	// Update the focused text input
	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	return m, cmd
}

func (m *SettingsModel) View() string {
	if m.mode == settingsModeEdit {
		return m.viewForm()
	}
	return m.viewSettings()
}

func (m *SettingsModel) viewSettings() string {
	var s string
	s += titleStyle.Render("Settings") + "\n\n"
	s += renderStatus(m.statusMsg)
	s += renderNotice(m.notice)

	cfg := m.app.Config
	labelStyle := lipgloss.NewStyle().Bold(true).Width(22)
	valueStyle := lipgloss.NewStyle().Foreground(primaryColor)
	row := func(label, value string) string {
		return fmt.Sprintf("  %s %s\n", labelStyle.Render(label), valueStyle.Render(value))
	}

	s += subtitleStyle.Render("  Invoice Settings") + "\n\n"
	s += row("Output Directory:", cfg.Invoice.OutputDir)
	s += row("Number Prefix:", cfg.Invoice.NumberPrefix)
	s += row("Default Due Days:", strconv.Itoa(cfg.Invoice.DefaultDueDays))
	s += row("Default Tax Rate:", format.Percent(cfg.Invoice.DefaultTaxRate))
	s += row("Currency Symbol:", cfg.Invoice.CurrencySymbol)

	s += "\n" + subtitleStyle.Render("  Printed on Invoices") + "\n\n"
	s += row("Name:", cfg.User.Name)
	s += row("Email:", cfg.User.Email)
	s += row("Address:", cfg.User.Address)
	s += row("Phone:", cfg.User.Phone)

	s += "\n" + subtitleStyle.Render("  Account") + "\n\n"
	if user, _ := m.app.Session.State(); user != nil {
		s += row("Signed in as:", user.Email)
	}
	s += row("Database:", cfg.Database.Driver)

	s += "\n" + helpStyle.Render("  enter: edit settings  o: sign out")
	return s
}

func (m *SettingsModel) viewForm() string {
	var s string
	s += titleStyle.Render("Edit Settings") + "\n\n"
	s += renderFields(settingsLabels, m.fields, m.fieldFocus)
	s += renderNotice(m.notice)
	s += subtitleStyle.Render("  A new number prefix applies the next time invoicer starts.") + "\n\n"
	s += helpStyle.Render("  tab/shift+tab: navigate fields  ctrl+s: save  enter: next/save  esc: cancel")
	return s
}
