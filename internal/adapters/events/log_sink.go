package events

import (
	"context"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/atvirokodosprendimai/switchcore/internal/core/ports"
	"github.com/rs/zerolog"
)

// LogSink writes each api event as one structured log line.
type LogSink struct {
	logger zerolog.Logger
}

var _ ports.EventSink = (*LogSink)(nil)

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(_ context.Context, topic string, event domain.ApiEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	s.logger.Info().
		Str("topic", topic).
		Str("request_id", event.RequestID()).
		Str("api_flow", event.APIFlow()).
		Str("event_type", event.EventType().EventTypeName()).
		RawJSON("event", payload).
		Msg("api event")
	return nil
}
