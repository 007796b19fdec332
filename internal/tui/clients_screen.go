package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/store"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// clientMode represents the current screen mode
type clientMode int

const (
	clientModeList clientMode = iota
	clientModeNew
	clientModeEdit
)

// form field indices
const (
	fieldName = iota
	fieldEmail
	fieldPhone
	fieldAddress
	fieldCity
	fieldState
	fieldZip
	fieldCountry
	fieldCount
)

var clientLabels = []string{"Name:", "Email:", "Phone:", "Address:", "City:", "State:", "ZIP:", "Country:"}

// ClientsModel displays a navigable list of clients with create/edit forms
type ClientsModel struct {
	app     *app.App
	clients []*domain.Client
	cursor  int
	loading bool
	seq     int
	notice  string
	status  string
	confirm *domain.Client

	// Form state
	mode          clientMode
	fields        []textinput.Model
	fieldFocus    int
	editing       *domain.Client // nil for a new client
	autoNewClient bool           // open new client form after data loads
}

type clientsDataMsg struct {
	seq     int
	clients []*domain.Client
	err     error
}

type clientSavedMsg struct {
	name string
	err  error
}

type clientDeletedMsg struct {
	name string
	err  error
}

func (clientsDataMsg) screen() Screen   { return ScreenClients }
func (clientSavedMsg) screen() Screen   { return ScreenClients }
func (clientDeletedMsg) screen() Screen { return ScreenClients }

// NewClientsModel creates a new clients screen model
func NewClientsModel(a *app.App) tea.Model {
	return &ClientsModel{app: a, loading: true}
}

// IsCapturingInput returns true when the form is active
func (m *ClientsModel) IsCapturingInput() bool {
	return m.mode == clientModeNew || m.mode == clientModeEdit || m.confirm != nil
}

func (m *ClientsModel) Init() tea.Cmd {
	return m.loadClients()
}

func (m *ClientsModel) loadClients() tea.Cmd {
	m.seq++
	m.loading = true
	seq := m.seq
	clients := m.app.ClientService
	return func() tea.Msg {
		list, err := clients.ListClients(context.Background())
		return clientsDataMsg{seq: seq, clients: list, err: err}
	}
}

func (m *ClientsModel) initForm(editing *domain.Client) {
	m.fields = make([]textinput.Model, fieldCount)
	m.fields[fieldName] = newInput("Client name", 100, 40)
	m.fields[fieldEmail] = newInput("billing@example.com", 100, 40)
	m.fields[fieldPhone] = newInput("Optional", 30, 20)
	m.fields[fieldAddress] = newInput("Street address", 200, 50)
	m.fields[fieldCity] = newInput("", 80, 30)
	m.fields[fieldState] = newInput("", 40, 20)
	m.fields[fieldZip] = newInput("", 20, 12)
	m.fields[fieldCountry] = newInput("", 60, 30)

	m.editing = editing
	if editing != nil {
		values := []string{editing.Name, editing.Email, editing.Phone, editing.Address,
			editing.City, editing.State, editing.Zip, editing.Country}
		for i, v := range values {
			m.fields[i].SetValue(v)
		}
	}

	m.notice = ""
	m.fieldFocus = fieldName
	m.fields[fieldName].Focus()
}

func (m *ClientsModel) openForm(editing *domain.Client) tea.Cmd {
	if editing == nil {
		m.mode = clientModeNew
	} else {
		m.mode = clientModeEdit
	}
	m.initForm(editing)
	return m.fields[fieldName].Focus()
}

func (m *ClientsModel) saveClient() tea.Cmd {
	values := make([]string, fieldCount)
	for i := range m.fields {
		values[i] = strings.TrimSpace(m.fields[i].Value())
	}
	if values[fieldName] == "" {
		m.notice = "Name is required."
		return nil
	}

	var client domain.Client
	if m.editing != nil {
		client = *m.editing
	}
	client.Name = values[fieldName]
	client.Email = values[fieldEmail]
	client.Phone = values[fieldPhone]
	client.Address = values[fieldAddress]
	client.City = values[fieldCity]
	client.State = values[fieldState]
	client.Zip = values[fieldZip]
	client.Country = values[fieldCountry]

	clients := m.app.ClientService
	isNew := m.editing == nil
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		if isNew {
			err = clients.CreateClient(ctx, &client)
		} else {
			err = clients.UpdateClient(ctx, &client)
		}
		return clientSavedMsg{name: client.Name, err: err}
	}
}

func (m *ClientsModel) deleteClient(c *domain.Client) tea.Cmd {
	id, name := c.ID, c.Name
	clients := m.app.ClientService
	return func() tea.Msg {
		err := clients.DeleteClient(context.Background(), id)
		return clientDeletedMsg{name: name, err: err}
	}
}

func (m *ClientsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle OpenNewClientFormMsg at the top so it works regardless of mode
	if _, ok := msg.(OpenNewClientFormMsg); ok {
		if m.loading {
			// Data hasn't loaded yet; set flag to auto-open form when it does
			m.autoNewClient = true
			return m, nil
		}
		return m, m.openForm(nil)
	}

	switch msg := msg.(type) {
	case clientsDataMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.notice = userNotice(m.app.Logger, msg.err, "Could not load clients.")
		} else {
			m.clients = msg.clients
			if m.cursor >= len(m.clients) {
				m.cursor = max(0, len(m.clients)-1)
			}
		}
		// Auto-open new client form on first run
		if m.autoNewClient {
			m.autoNewClient = false
			return m, m.openForm(nil)
		}
		return m, nil

	case clientSavedMsg:
		if msg.err != nil {
			m.notice = userNotice(m.app.Logger, msg.err, "Could not save the client.")
			return m, nil
		}
		m.mode = clientModeList
		m.notice = ""
		m.status = fmt.Sprintf("Saved: %s", msg.name)
		return m, m.loadClients()

	case clientDeletedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, store.ErrConstraint) {
				m.notice = "Could not delete " + msg.name + ". Delete its invoices first."
				m.app.Logger.Warn("client delete refused", zap.Error(msg.err))
				return m, nil
			}
			m.notice = userNotice(m.app.Logger, msg.err, "Could not delete "+msg.name+".")
			return m, nil
		}
		m.status = fmt.Sprintf("Deleted: %s", msg.name)
		return m, m.loadClients()

	case RefreshDataMsg:
		if m.mode == clientModeList {
			return m, m.loadClients()
		}
		return m, nil
	}

	if m.mode == clientModeNew || m.mode == clientModeEdit {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.loading {
		return m, nil
	}

	if m.confirm != nil {
		c := m.confirm
		m.confirm = nil
		if keyMsg.String() == "y" || keyMsg.String() == "Y" {
			return m, m.deleteClient(c)
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
		if m.cursor < len(m.clients)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, DefaultKeyMap.New):
		return m, m.openForm(nil)
	case key.Matches(keyMsg, DefaultKeyMap.Select):
		if m.cursor < len(m.clients) {
			return m, m.openForm(m.clients[m.cursor])
		}
	case key.Matches(keyMsg, DefaultKeyMap.Delete):
		if m.cursor < len(m.clients) {
			m.confirm = m.clients[m.cursor]
		}
	}
	return m, nil
}

func (m *ClientsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.mode = clientModeList
			m.notice = ""
			return m, nil

		case "tab", "down":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus + 1) % fieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "shift+tab", "up":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus - 1 + fieldCount) % fieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "enter":
			if m.fieldFocus == fieldCount-1 {
				return m, m.saveClient()
			}
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus++
			return m, m.fields[m.fieldFocus].Focus()

		case "ctrl+s":
			return m, m.saveClient()
		}
	}

	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	return m, cmd
}

func (m *ClientsModel) View() string {
	if m.mode == clientModeNew || m.mode == clientModeEdit {
		return m.viewForm()
	}
	return m.viewList()
}

func (m *ClientsModel) viewForm() string {
	var s string

	if m.mode == clientModeNew {
		if len(m.clients) == 0 {
			s += titleStyle.Render("Welcome to invoicer!") + "\n"
			s += subtitleStyle.Render("  Add your first client to start invoicing.") + "\n\n"
		} else {
			s += titleStyle.Render("New Client") + "\n\n"
		}
	} else {
		s += titleStyle.Render("Edit Client") + "\n\n"
	}

	s += renderFields(clientLabels, m.fields, m.fieldFocus)
	s += renderNotice(m.notice)
	s += helpStyle.Render("  tab/shift+tab: navigate fields  ctrl+s: save  enter: next/save  esc: cancel")
	return s
}

func (m *ClientsModel) viewList() string {
	s := titleStyle.Render("Clients") + "\n\n"
	s += renderNotice(m.notice)
	s += renderStatus(m.status)

	if m.loading && len(m.clients) == 0 {
		return s + "  Loading clients..."
	}

	if len(m.clients) == 0 {
		return s + subtitleStyle.Render("  No clients yet. Press 'n' to add one.") + "\n"
	}

	for i, client := range m.clients {
		s += m.renderClient(i, client) + "\n"
	}

	if m.confirm != nil {
		s += "\n" + confirmStyle.Render(fmt.Sprintf("  Delete client %s? [y/N]", m.confirm.Name)) + "\n"
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  n: new  enter: edit  d: delete")
	return s
}

func (m *ClientsModel) renderClient(index int, client *domain.Client) string {
	selected := index == m.cursor

	indicator := "  "
	if selected {
		indicator = "> "
	}
	line1 := indicator + client.Name

	var details []string
	for _, v := range []string{client.Email, client.Phone, client.Locality(), client.Country} {
		if v != "" {
			details = append(details, v)
		}
	}

	nameStyle := boldStyle
	if selected {
		nameStyle = focusStyle
	}
	result := nameStyle.Render(line1)
	if len(details) > 0 {
		result += "\n" + subtitleStyle.Render("    "+truncateStr(strings.Join(details, "  |  "), 70))
	}
	return result
}
