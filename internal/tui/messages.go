package tui

import "github.com/andy/invoicer/internal/auth"

// SwitchScreenMsg requests a screen change
type SwitchScreenMsg struct {
	Screen Screen
}

// RefreshDataMsg requests data refresh
type RefreshDataMsg struct{}

// ErrorMsg carries error information
type ErrorMsg struct {
	Err error
}

// OpenNewClientFormMsg tells the clients screen to open the new client form
type OpenNewClientFormMsg struct{}

// screenMsg is a result addressed to one screen. The root model delivers it
// to that screen even when another one is showing.
type screenMsg interface {
	screen() Screen
}

// sessionReadyMsg reports the outcome of resolving the stored session
type sessionReadyMsg struct {
	user *auth.Identity
	err  error
}

// signedInMsg reports a sign-in attempt from the login screen
type signedInMsg struct {
	user *auth.Identity
	err  error
}

// signedOutMsg is sent after the session was cleared
type signedOutMsg struct {
	err error
}

// firstRunCheckMsg reports whether the signed-in user has any clients
type firstRunCheckMsg struct {
	hasClients bool
}
