// Package events fans out domain change notifications to live consumers.
package events

import (
	"context"
	"log"
	"sync"
	"time"

	"rentmate/internal/domain"
)

type Kind string

const (
	BookingCreated          Kind = "booking.created"
	BookingPaymentConfirmed Kind = "booking.payment_confirmed"
	BookingApproved         Kind = "booking.approved"
	BookingRejected         Kind = "booking.rejected"
	ChatSessionCreated      Kind = "chat.session_created"
	ChatMessage             Kind = "chat.message"
	ChatRead                Kind = "chat.read"
	ChatTyping              Kind = "chat.typing"
	SettingsUpdated         Kind = "settings.updated"
	MitraUpdated            Kind = "mitra.updated"
)

type Event struct {
	Kind       Kind              `json:"kind"`
	BookingID  int64             `json:"booking_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	TalentID   int64             `json:"talent_id,omitempty"`
	BookerID   int64             `json:"booker_id,omitempty"`
	BookerType domain.BookerType `json:"booker_type,omitempty"`
	MitraID    int64             `json:"mitra_id,omitempty"`
	Payload    interface{}       `json:"payload,omitempty"`
	At         time.Time         `json:"at"`
}

// Publisher is what services depend on. Publishing never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

const subscriberBuffer = 64

// Bus is an in-process fan-out. Slow subscribers lose events rather than block publishers.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
	now    func() time.Time
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event), now: time.Now}
}

// Subscribe returns a channel of future events and a function that closes it.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
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

func (b *Bus) Publish(_ context.Context, e Event) {
	if e.At.IsZero() {
		e.At = b.now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			log.Printf("level=warn msg=event_dropped kind=%s subscriber=%d", e.Kind, id)
		}
	}
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
