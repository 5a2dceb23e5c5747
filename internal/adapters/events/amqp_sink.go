package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/atvirokodosprendimai/switchcore/internal/core/ports"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel the sink uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPSink publishes api events as persistent messages to a durable queue.
// The topic passed to Publish is carried as the message type; routing is by
// queue name.
type AMQPSink struct {
	conn  *amqp.Connection
	ch    Channel
	queue string
}

var _ ports.EventSink = (*AMQPSink)(nil)

func DialAMQPSink(url, queue string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	sink, err := NewAMQPSinkWithChannel(ch, queue)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	sink.conn = conn
	return sink, nil
}

// NewAMQPSinkWithChannel declares queue on ch and returns a sink bound to it.
func NewAMQPSinkWithChannel(ch Channel, queue string) (*AMQPSink, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("amqp declare queue %q: %w", queue, err)
	}
	return &AMQPSink{ch: ch, queue: queue}, nil
}

func (s *AMQPSink) Publish(ctx context.Context, topic string, event domain.ApiEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.RequestID(),
		Timestamp:    event.CreatedAt(),
		Type:         topic,
		Headers: amqp.Table{
			"event_type": event.EventType().EventTypeName(),
			"tenant_id":  event.TenantID(),
			"api_flow":   event.APIFlow(),
		},
		Body: payload,
	}
	if err := s.ch.PublishWithContext(ctx, "", s.queue, false, false, msg); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (s *AMQPSink) Close() error {
	err := s.ch.Close()
	if s.conn != nil {
		err = errors.Join(err, s.conn.Close())
	}
	return err
}
