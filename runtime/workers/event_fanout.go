package workers

import (
	"chat-rooms/contract"
	"chat-rooms/domain/event"
	"context"
	"fmt"
	"log/slog"
	"time"
)

const DefaultSinkTimeout = time.Second

// EventFanout hands every session event to each sink in turn.
//
// Delivery is best effort: a failing or slow sink is logged and skipped,
// it never blocks the session loop since the session publishes without
// waiting. Sinks receive events in publication order.
type EventFanout struct {
	log         *slog.Logger
	events      <-chan event.DomainEvent
	sinks       []contract.EventSink
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, events <-chan event.DomainEvent, sinkTimeout time.Duration, sinks ...contract.EventSink) *EventFanout {
	if sinkTimeout <= 0 {
		sinkTimeout = DefaultSinkTimeout
	}
	return &EventFanout{log: log, events: events, sinkTimeout: sinkTimeout, sinks: sinks}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Event channel closed")
				return nil
			}
			w.Fanout(ctx, evt)
		}
	}
}

// Fanout delivers one event, each sink bounded by the sink timeout.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Warn("Sink failed to consume event",
				"event", fmt.Sprintf("%T", evt), "room", evt.RoomID(), "error", err)
		}
		cancel()
	}
}
