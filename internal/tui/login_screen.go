package tui

import (
	"context"
	"strings"

	"github.com/andy/invoicer/internal/app"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	loginFieldEmail = iota
	loginFieldName
	loginFieldCount
)

// LoginModel asks for an email address and signs in with a locally issued
// identity token
type LoginModel struct {
	app        *app.App
	fields     []textinput.Model
	fieldFocus int
	submitting bool
	notice     string
}

// NewLoginModel creates the sign-in screen
func NewLoginModel(a *app.App) *LoginModel {
	m := &LoginModel{app: a, fields: make([]textinput.Model, loginFieldCount)}
	m.fields[loginFieldEmail] = newInput("you@example.com", 120, 40)
	m.fields[loginFieldName] = newInput("Your name (optional)", 80, 40)
	if a.Config.User.Email != "" {
		m.fields[loginFieldEmail].SetValue(a.Config.User.Email)
		m.fields[loginFieldName].SetValue(a.Config.User.Name)
	}
	m.fields[loginFieldEmail].Focus()
	return m
}

func (m *LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *LoginModel) signIn() tea.Cmd {
	email := strings.TrimSpace(m.fields[loginFieldEmail].Value())
	name := strings.TrimSpace(m.fields[loginFieldName].Value())
	session := m.app.Session
	return func() tea.Msg {
		user, err := session.SignInWithEmail(context.Background(), email, name)
		return signedInMsg{user: user, err: err}
	}
}

func (m *LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case signedInMsg:
		m.submitting = false
		if msg.err != nil {
			m.notice = userNotice(m.app.Logger, msg.err, "Sign-in failed. Please try again.")
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down", "shift+tab", "up":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus + 1) % loginFieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "enter":
			if strings.TrimSpace(m.fields[loginFieldEmail].Value()) == "" {
				m.notice = "Email is required."
				return m, nil
			}
			m.notice = ""
			m.submitting = true
			return m, m.signIn()
		}
	}

	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	return m, cmd
}

func (m *LoginModel) View() string {
	s := titleStyle.Render("Sign in to invoicer") + "\n"
	s += subtitleStyle.Render("  Your invoices and clients are kept per account.") + "\n\n"
	s += renderFields([]string{"Email:", "Name:"}, m.fields, m.fieldFocus)
	s += renderNotice(m.notice)
	if m.submitting {
		s += "  Signing in...\n\n"
	}
	s += helpStyle.Render("  enter: sign in  tab: next field  ctrl+c: quit")
	return s
}
