// Package events carries the task change feed from the store to its subscribers.
package events

import (
	"sync"
	"time"
)

// Event types, named after the SQL operation that produced them.
const (
	TypeInsert = "INSERT"
	TypeUpdate = "UPDATE"
	TypeDelete = "DELETE"
)

// Event tells that a task changed. It carries no task data: subscribers re-read the store.
type Event struct {
	Type       string    `json:"type"`
	TaskID     string    `json:"task_id"`
	AssignedTo string    `json:"assigned_to"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(ev Event)
}

// Filter selects the events a subscriber receives. A nil Filter receives everything.
type Filter func(ev Event) bool

// ForAssignee only lets through the events of the tasks assigned to userID.
func ForAssignee(userID string) Filter {
	return func(ev Event) bool { return ev.AssignedTo == userID }
}

type subscription struct {
	ch     chan Event
	filter Filter
}

// Broker fans events out to any number of subscribers.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Broker struct {
	mu      sync.RWMutex
	subs    map[int]*subscription
	nextID  int
	bufSize int
	closed  bool

	dropped func(ev Event)
}

var _ Publisher = (*Broker)(nil)

func NewBroker(bufSize int) *Broker {
	if bufSize <= 0 {
		bufSize = 16
	}
	return &Broker{subs: make(map[int]*subscription), bufSize: bufSize}
}

// OnDrop sets a hook called whenever an event could not be delivered to a subscriber.
func (b *Broker) OnDrop(fn func(ev Event)) {
	b.mu.Lock()
	b.dropped = fn
	b.mu.Unlock()
}

// Subscribe returns the channel receiving the events and a function to unsubscribe.
// The channel is closed on unsubscribe or when the broker is closed.
func (b *Broker) Subscribe(filter Filter) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = &subscription{ch: ch, filter: filter}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub.ch)
			}
		})
	}
}

func (b *Broker) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if sub.filter != nil && !sub.filter(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			if b.dropped != nil {
				b.dropped(ev)
			}
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscription. Later events are discarded.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}
