package local

import (
	"fmt"
	"strings"
	"sync"

	"github.com/andy/invoicer/internal/domain"
)

// SlotCustomers holds the customer list.
const SlotCustomers = "customers"

// CustomerBook is the ordered customer list, loaded once and written back
// whole after every change.
type CustomerBook struct {
	mu        sync.Mutex
	slots     *Slots
	customers []domain.Customer
}

// IndexedCustomer is a search hit together with its position in the book.
type IndexedCustomer struct {
	Index    int
	Customer domain.Customer
}

// NewCustomerBook loads the customer slot
func NewCustomerBook(slots *Slots) (*CustomerBook, error) {
	var customers []domain.Customer
	if _, err := slots.Load(SlotCustomers, &customers); err != nil {
		return nil, err
	}
	return &CustomerBook{slots: slots, customers: customers}, nil
}

// List returns a copy of all customers in order
func (b *CustomerBook) List() []domain.Customer {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Customer, len(b.customers))
	copy(out, b.customers)
	return out
}

// Len returns the number of customers
func (b *CustomerBook) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.customers)
}

// Add appends c and returns its index
func (b *CustomerBook) Add(c domain.Customer) (int, error) {
	c = trimCustomer(c)
	if err := c.Validate(); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	next := append(append([]domain.Customer(nil), b.customers...), c)
	if err := b.commit(next); err != nil {
		return 0, err
	}
	return len(next) - 1, nil
}

// Update replaces the customer at index
func (b *CustomerBook) Update(index int, c domain.Customer) error {
	c = trimCustomer(c)
	if err := c.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkIndex(index); err != nil {
		return err
	}
	next := append([]domain.Customer(nil), b.customers...)
	next[index] = c
	return b.commit(next)
}

// Delete removes the customer at index; later customers shift down
func (b *CustomerBook) Delete(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkIndex(index); err != nil {
		return err
	}
	next := make([]domain.Customer, 0, len(b.customers)-1)
	next = append(next, b.customers[:index]...)
	next = append(next, b.customers[index+1:]...)
	return b.commit(next)
}

// Search returns customers whose name or email contains q (ignoring case) or
// whose phone contains q. An empty query matches everyone.
func (b *CustomerBook) Search(q string) []IndexedCustomer {
	q = strings.TrimSpace(q)

	b.mu.Lock()
	defer b.mu.Unlock()

	var hits []IndexedCustomer
	for i, c := range b.customers {
		if q == "" || c.MatchesSearch(q) {
			hits = append(hits, IndexedCustomer{Index: i, Customer: c})
		}
	}
	return hits
}

func (b *CustomerBook) checkIndex(index int) error {
	if index < 0 || index >= len(b.customers) {
		return fmt.Errorf("%w: customer %d of %d", ErrIndexOutOfRange, index, len(b.customers))
	}
	return nil
}

// commit persists next and only then makes it current
func (b *CustomerBook) commit(next []domain.Customer) error {
	if err := b.slots.Save(SlotCustomers, next); err != nil {
		return err
	}
	b.customers = next
	return nil
}

func trimCustomer(c domain.Customer) domain.Customer {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.GSTNumber = strings.TrimSpace(c.GSTNumber)
	return c
}
