package tui

import (
	"fmt"
	"strings"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/local"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type customerMode int

const (
	customerModeList customerMode = iota
	customerModeSearch
	customerModeForm
)

const (
	custFieldName = iota
	custFieldEmail
	custFieldPhone
	custFieldAddress
	custFieldGST
	custFieldCount
)

var customerLabels = []string{"Name:", "Email:", "Phone:", "Address:", "GST number:"}

// CustomersModel manages the local customer book. The book lives on disk
// next to the config, so changes are applied directly.
type CustomersModel struct {
	app  *app.App
	mode customerMode

	search  textinput.Model
	rows    []local.IndexedCustomer
	cursor  int
	confirm *local.IndexedCustomer
	notice  string
	status  string

	fields     []textinput.Model
	fieldFocus int
	editIndex  int // -1 for a new customer
}

// NewCustomersModel creates the customers screen
func NewCustomersModel(a *app.App) tea.Model {
	m := &CustomersModel{
		app:       a,
		search:    newInput("name, email or phone", 60, 30),
		editIndex: -1,
	}
	m.refresh()
	return m
}

// IsCapturingInput returns true while typing a search, filling the form or
// confirming a delete
func (m *CustomersModel) IsCapturingInput() bool {
	return m.mode != customerModeList || m.confirm != nil
}

func (m *CustomersModel) Init() tea.Cmd {
	return nil
}

func (m *CustomersModel) refresh() {
	m.rows = m.app.Customers.Search(m.search.Value())
	if m.cursor >= len(m.rows) {
		m.cursor = max(0, len(m.rows)-1)
	}
}

func (m *CustomersModel) openForm(row *local.IndexedCustomer) tea.Cmd {
	m.fields = make([]textinput.Model, custFieldCount)
	m.fields[custFieldName] = newInput("Full name", 100, 40)
	m.fields[custFieldEmail] = newInput("name@example.com", 100, 40)
	m.fields[custFieldPhone] = newInput("Phone", 30, 20)
	m.fields[custFieldAddress] = newInput("Optional", 200, 50)
	m.fields[custFieldGST] = newInput("Optional", 30, 20)

	m.editIndex = -1
	if row != nil {
		m.editIndex = row.Index
		c := row.Customer
		for i, v := range []string{c.Name, c.Email, c.Phone, c.Address, c.GSTNumber} {
			m.fields[i].SetValue(v)
		}
	}

	m.mode = customerModeForm
	m.notice = ""
	m.fieldFocus = custFieldName
	return m.fields[custFieldName].Focus()
}

func (m *CustomersModel) save() {
	c := domain.Customer{
		Name:      m.fields[custFieldName].Value(),
		Email:     m.fields[custFieldEmail].Value(),
		Phone:     m.fields[custFieldPhone].Value(),
		Address:   m.fields[custFieldAddress].Value(),
		GSTNumber: m.fields[custFieldGST].Value(),
	}

	var err error
	if m.editIndex < 0 {
		_, err = m.app.Customers.Add(c)
	} else {
		err = m.app.Customers.Update(m.editIndex, c)
	}
	if err != nil {
		m.notice = userNotice(m.app.Logger, err, "Could not save the customer.")
		return
	}

	m.mode = customerModeList
	m.status = "Saved: " + strings.TrimSpace(c.Name)
	m.refresh()
}

func (m *CustomersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(RefreshDataMsg); ok {
		m.refresh()
		return m, nil
	}

	switch m.mode {
	case customerModeSearch:
		return m.updateSearch(msg)
	case customerModeForm:
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.confirm != nil {
		row := m.confirm
		m.confirm = nil
		if keyMsg.String() == "y" || keyMsg.String() == "Y" {
			if err := m.app.Customers.Delete(row.Index); err != nil {
				m.notice = userNotice(m.app.Logger, err, "Could not delete the customer.")
				return m, nil
			}
			m.status = "Deleted: " + row.Customer.Name
			m.refresh()
			return m, nil
		}
		m.status = "Delete cancelled"
		return m, nil
	}

	m.status = ""
	m.notice = ""
	switch {
	case key.Matches(keyMsg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, DefaultKeyMap.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, DefaultKeyMap.Search):
		m.mode = customerModeSearch
		return m, m.search.Focus()
	case key.Matches(keyMsg, DefaultKeyMap.New):
		return m, m.openForm(nil)
	case key.Matches(keyMsg, DefaultKeyMap.Select):
		if m.cursor < len(m.rows) {
			row := m.rows[m.cursor]
			return m, m.openForm(&row)
		}
	case key.Matches(keyMsg, DefaultKeyMap.Delete):
		if m.cursor < len(m.rows) {
			row := m.rows[m.cursor]
			m.confirm = &row
		}
	case key.Matches(keyMsg, DefaultKeyMap.Back):
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.refresh()
		}
	}
	return m, nil
}

func (m *CustomersModel) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter", "esc":
			if keyMsg.String() == "esc" {
				m.search.SetValue("")
			}
			m.search.Blur()
			m.mode = customerModeList
			m.refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cursor = 0
	m.refresh()
	return m, cmd
}

func (m *CustomersModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.mode = customerModeList
			m.notice = ""
			return m, nil
		case "tab", "down":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus + 1) % custFieldCount
			return m, m.fields[m.fieldFocus].Focus()
		case "shift+tab", "up":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus - 1 + custFieldCount) % custFieldCount
			return m, m.fields[m.fieldFocus].Focus()
		case "enter":
			if m.fieldFocus == custFieldCount-1 {
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

	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	return m, cmd
}

func (m *CustomersModel) View() string {
	if m.mode == customerModeForm {
		title := "New Customer"
		if m.editIndex >= 0 {
			title = fmt.Sprintf("Edit Customer #%d", m.editIndex+1)
		}
		s := titleStyle.Render(title) + "\n\n"
		s += renderFields(customerLabels, m.fields, m.fieldFocus)
		s += renderNotice(m.notice)
		return s + helpStyle.Render("  tab/shift+tab: navigate fields  ctrl+s: save  enter: next/save  esc: cancel")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Customers") + subtitleStyle.Render("  (stored on this computer)") + "\n\n")

	if m.mode == customerModeSearch || m.search.Value() != "" {
		b.WriteString("  Search: " + m.search.View() + "\n\n")
	}
	b.WriteString(renderNotice(m.notice))
	b.WriteString(renderStatus(m.status))

	if len(m.rows) == 0 {
		if m.search.Value() != "" {
			b.WriteString(subtitleStyle.Render("  No customers match.") + "\n")
		} else {
			b.WriteString(subtitleStyle.Render("  No customers yet. Press 'n' to add one.") + "\n")
		}
	} else {
		b.WriteString(boldStyle.Render(fmt.Sprintf("  %-4s %-22s %-28s %-16s %s", "#", "Name", "Email", "Phone", "GST")) + "\n")
		for i, row := range m.rows {
			c := row.Customer
			line := fmt.Sprintf("%-4d %-22s %-28s %-16s %s",
				row.Index+1,
				truncateStr(c.Name, 22),
				truncateStr(c.Email, 28),
				truncateStr(c.Phone, 16),
				c.GSTNumber,
			)
			if i == m.cursor {
				b.WriteString(focusStyle.Render("> "+line) + "\n")
			} else {
				b.WriteString("  " + line + "\n")
			}
		}
	}

	if m.confirm != nil {
		b.WriteString("\n" + confirmStyle.Render(fmt.Sprintf("  Delete customer %s? [y/N]", m.confirm.Customer.Name)) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("  j/k: navigate  /: search  n: new  enter: edit  d: delete"))
	return b.String()
}
