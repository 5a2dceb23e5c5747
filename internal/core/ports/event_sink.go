package ports

import (
	"context"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
)

// EventSink delivers one api event to the event log.
type EventSink interface {
	Publish(ctx context.Context, topic string, event domain.ApiEvent) error
}
