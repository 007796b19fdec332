package service

import (
	"errors"

	"github.com/andy/invoicer/internal/auth"
)

var (
	// ErrTransitionInFlight rejects a status change while another change to
	// the same invoice is still running in this process.
	ErrTransitionInFlight = errors.New("a status change for this invoice is already in progress")
	ErrClientNotFound     = errors.New("client not found")
	ErrInvoiceNotFound    = errors.New("invoice not found")
)

// UserSource resolves the signed-in user. *auth.Session implements it.
type UserSource interface {
	CurrentUser() (*auth.Identity, error)
}
