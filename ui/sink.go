package ui

import (
	"chat-rooms/domain/event"
	"context"
)

// Sink feeds session events to the terminal program.
type Sink struct {
	events chan event.DomainEvent
}

func NewSink(bufferSize int) *Sink {
	return &Sink{events: make(chan event.DomainEvent, max(bufferSize, 1))}
}

// Consume waits for room in the buffer until ctx expires.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sink) Events() <-chan event.DomainEvent {
	return s.events
}
