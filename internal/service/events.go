package service

import (
	"sync"

	"github.com/andy/invoicer/internal/domain"
)

type InvoiceEventKind int

const (
	InvoiceCreated InvoiceEventKind = iota
	InvoiceStatusChanged
	InvoiceDeleted
)

func (k InvoiceEventKind) String() string {
	switch k {
	case InvoiceCreated:
		return "created"
	case InvoiceStatusChanged:
		return "status_changed"
	case InvoiceDeleted:
		return "deleted"
	}
	return "unknown"
}

// InvoiceEvent announces that the invoice set changed.
type InvoiceEvent struct {
	Kind      InvoiceEventKind
	InvoiceID string
	Status    domain.InvoiceStatus
}

// Bus fans invoice events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan InvoiceEvent
	next int
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan InvoiceEvent)}
}

// Subscribe returns a channel of events and a function that cancels the
// subscription and closes the channel
func (b *Bus) Subscribe(buffer int) (<-chan InvoiceEvent, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan InvoiceEvent, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber with room in its buffer
func (b *Bus) Publish(e InvoiceEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
