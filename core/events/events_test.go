package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) (Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-ch:
		return ev, ok
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}, false
	}
}

func assertNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Errorf("failed! unexpected event %+v", ev)
	default:
	}
}

func TestBroker_PublishSubscribe(t *testing.T) {
	b := NewBroker(4)
	all, unsubAll := b.Subscribe(nil)
	defer unsubAll()
	mine, unsubMine := b.Subscribe(ForAssignee("tech-1"))
	defer unsubMine()
	require.Equal(t, 2, b.Subscribers())

	b.Publish(Event{Type: TypeInsert, TaskID: "t1", AssignedTo: "tech-2"})
	b.Publish(Event{Type: TypeUpdate, TaskID: "t2", AssignedTo: "tech-1"})

	ev, ok := receive(t, all)
	require.True(t, ok)
	assert.Equal(t, "t1", ev.TaskID)
	assert.False(t, ev.At.IsZero())

	ev, _ = receive(t, all)
	assert.Equal(t, "t2", ev.TaskID)

	ev, _ = receive(t, mine)
	assert.Equal(t, "t2", ev.TaskID)
	assert.Equal(t, TypeUpdate, ev.Type)
	assertNoEvent(t, mine)
}

func TestBroker_Unsubscribe(t *testing.T) {
	b := NewBroker(1)
	ch, unsub := b.Subscribe(nil)
	unsub()
	unsub() // idempotent

	_, ok := <-ch
	assert.False(t, ok, "channel must be closed")
	assert.Equal(t, 0, b.Subscribers())

	b.Publish(Event{TaskID: "t1"}) // no subscriber, no panic
}

func TestBroker_slowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroker(1)
	var mu sync.Mutex
	var dropped []string
	b.OnDrop(func(ev Event) {
		mu.Lock()
		dropped = append(dropped, ev.TaskID)
		mu.Unlock()
	})
	ch, unsub := b.Subscribe(nil)
	defer unsub()

	b.Publish(Event{TaskID: "t1"})
	b.Publish(Event{TaskID: "t2"}) // buffer full

	ev, _ := receive(t, ch)
	assert.Equal(t, "t1", ev.TaskID)
	assertNoEvent(t, ch)
	mu.Lock()
	assert.Equal(t, []string{"t2"}, dropped)
	mu.Unlock()
}

func TestBroker_Close(t *testing.T) {
	b := NewBroker(1)
	ch, unsub := b.Subscribe(nil)
	b.Close()
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)
	unsub() // after close, no double close panic

	late, _ := b.Subscribe(nil)
	_, ok = <-late
	assert.False(t, ok)
	b.Publish(Event{TaskID: "t1"})
}
