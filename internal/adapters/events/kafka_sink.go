package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/atvirokodosprendimai/switchcore/internal/core/ports"
	skafka "github.com/segmentio/kafka-go"
)

// Writer is the subset of kafka.Writer the sink needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// KafkaSink writes api events to a kafka topic keyed by request id, so all
// events of one request land on one partition.
type KafkaSink struct {
	writer Writer
}

var _ ports.EventSink = (*KafkaSink)(nil)

// NewKafkaSink dials nothing up front; kafka-go connects lazily on the first
// write. The topic is taken per message.
func NewKafkaSink(brokers []string) *KafkaSink {
	w := &skafka.Writer{
		Addr:                   skafka.TCP(brokers...),
		Balancer:               &skafka.Hash{},
		RequiredAcks:           skafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &KafkaSink{writer: w}
}

func NewKafkaSinkWithWriter(w Writer) *KafkaSink {
	return &KafkaSink{writer: w}
}

func (s *KafkaSink) Publish(ctx context.Context, topic string, event domain.ApiEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	msg := skafka.Message{
		Topic: topic,
		Key:   []byte(event.Key()),
		Value: payload,
		Time:  event.CreatedAt(),
		Headers: []skafka.Header{
			{Key: "event_type", Value: []byte(event.EventType().EventTypeName())},
			{Key: "tenant_id", Value: []byte(event.TenantID())},
			{Key: "api_flow", Value: []byte(event.APIFlow())},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// SplitBrokers parses a comma separated broker list.
func SplitBrokers(raw string) []string {
	var out []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
