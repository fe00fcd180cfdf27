// Package eventsvc exports the task change feed to kafka.
package eventsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/trezcool/gmao/core"
	"github.com/trezcool/gmao/core/events"
)

const writeTimeout = 10 * time.Second

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter returns a writer publishing to the configured topic, keyed by task ID.
func NewKafkaWriter(conf *core.Config) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(conf.Kafka.Brokers...),
		Topic:        conf.Kafka.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// Sink forwards broker events to kafka. Delivery is best effort: failed writes are logged and dropped.
type Sink struct {
	w      MessageWriter
	logger core.Logger
}

func NewSink(w MessageWriter, logger core.Logger) *Sink {
	return &Sink{w: w, logger: logger}
}

// Message encodes ev as a kafka message.
func Message(ev events.Event) (kafka.Message, error) {
	val, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "encoding event")
	}
	return kafka.Message{
		Key:   []byte(ev.TaskID),
		Value: val,
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}, nil
}

// Run writes every event received on evts until the channel is closed or ctx is done.
func (s *Sink) Run(ctx context.Context, evts <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-evts:
			if !ok {
				return
			}
			if err := s.write(ctx, ev); err != nil {
				s.logger.Error(fmt.Sprintf("eventsvc.Sink.Run: %v", err), err)
			}
		}
	}
}

func (s *Sink) write(ctx context.Context, ev events.Event) error {
	msg, err := Message(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err = s.w.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "writing %s event of task %s", ev.Type, ev.TaskID)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.w.Close()
}
