package domain

import "strings"

// Customer is a locally stored contact, independent of the synced Client
// records. Customers are addressed by their position in the stored list.
type Customer struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	GSTNumber string `json:"gstNumber"`
}

// Validate returns an error if the customer is invalid
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return NewValidationError("email", "email is required")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return NewValidationError("phone", "phone is required")
	}
	return nil
}

// MatchesSearch reports whether q appears in the name or email (ignoring
// case) or in the phone number
func (c *Customer) MatchesSearch(q string) bool {
	lq := strings.ToLower(q)
	return strings.Contains(strings.ToLower(c.Name), lq) ||
		strings.Contains(strings.ToLower(c.Email), lq) ||
		strings.Contains(c.Phone, q)
}
