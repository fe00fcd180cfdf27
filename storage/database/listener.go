package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/gmao/core"
	"github.com/trezcool/gmao/core/events"
)

// TaskChangesChannel is notified by the tasks table trigger.
const TaskChangesChannel = "task_changes"

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	idlePingInterval     = 90 * time.Second
)

// Listener forwards the NOTIFY payloads of the task trigger to a publisher,
// so changes made by any process connected to the database are observed.
type Listener struct {
	pql    *pq.Listener
	pub    events.Publisher
	logger core.Logger
	done   chan struct{}
}

func NewListener(conf *core.Config, pub events.Publisher, logger core.Logger) (*Listener, error) {
	l := &Listener{pub: pub, logger: logger, done: make(chan struct{})}
	l.pql = pq.NewListener(
		conf.Database.URL(conf.Database.Name, false),
		minReconnectInterval, maxReconnectInterval,
		l.onConnEvent,
	)
	if err := l.pql.Listen(TaskChangesChannel); err != nil {
		_ = l.pql.Close()
		return nil, errors.Wrap(err, "listening to task changes")
	}
	return l, nil
}

func (l *Listener) onConnEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
		if err != nil {
			l.logger.Warn(fmt.Sprintf("database.Listener: %v", err))
		}
	case pq.ListenerEventReconnected:
		l.logger.Info("database.Listener: reconnected")
	}
}

// Run blocks until ctx is done, publishing every notification received.
func (l *Listener) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-l.pql.Notify:
			if !ok {
				return
			}
			// nil after a reconnection: notifications may have been missed
			if n == nil {
				continue
			}
			evt, err := ParseNotification(n.Extra)
			if err != nil {
				l.logger.Error(fmt.Sprintf("database.Listener: %v", err), err)
				continue
			}
			l.pub.Publish(evt)
		case <-time.After(idlePingInterval):
			go func() { _ = l.pql.Ping() }()
		}
	}
}

// Close stops listening. Run returns once the listener is closed.
func (l *Listener) Close() error {
	return l.pql.Close()
}

// Done is closed when Run returns.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// ParseNotification decodes a task trigger payload.
func ParseNotification(payload string) (events.Event, error) {
	var evt events.Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return events.Event{}, errors.Wrap(err, "decoding task notification")
	}
	if evt.TaskID == "" {
		return events.Event{}, errors.New("task notification without task_id")
	}
	evt.At = evt.At.UTC()
	return evt, nil
}
