package domain

import (
	"strings"
	"time"
)

// Client is a billable party owned by a user and referenced by invoices.
type Client struct {
	ID        string
	OwnerID   string
	Name      string
	Email     string
	Phone     string
	Address   string
	City      string
	State     string
	Zip       string
	Country   string
	CreatedAt time.Time
}

// NewClient creates a new client with required fields
func NewClient(ownerID, name string) *Client {
	return &Client{
		OwnerID: ownerID,
		Name:    strings.TrimSpace(name),
	}
}

// Validate returns an error if the client is invalid
func (c *Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "client name is required")
	}
	return nil
}

// Locality joins city, state and zip the way an address block prints them,
// e.g. "Springfield, IL 62701". Empty when none are set.
func (c *Client) Locality() string {
	var b strings.Builder
	if c.City != "" {
		b.WriteString(c.City)
		if c.State != "" || c.Zip != "" {
			b.WriteString(", ")
		}
	}
	b.WriteString(strings.TrimSpace(c.State + " " + c.Zip))
	return b.String()
}
