// Package projection builds read models from session events.
// It never emits events and never touches the session state.
package projection

import (
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"context"
	"sync"
)

// RoomActivity summarizes what happened in a room while it was not shown.
type RoomActivity struct {
	Unread      int
	LastMessage *domain.Message
}

// Timeline counts unread messages per room. It is fed by the event fanout
// and read by the terminal UI, hence the lock.
type Timeline struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]RoomActivity
}

func NewTimeline() *Timeline {
	return &Timeline{rooms: make(map[domain.RoomID]RoomActivity)}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch evt := e.(type) {
	case event.MessageAppended:
		activity := t.rooms[evt.Room]
		if !evt.Active {
			activity.Unread++
		}
		message := evt.Message
		activity.LastMessage = &message
		t.rooms[evt.Room] = activity
	case event.RoomSwitched:
		activity := t.rooms[evt.To]
		activity.Unread = 0
		t.rooms[evt.To] = activity
	case event.IdentityRequired:
		// logged out, the next session starts from scratch
		t.rooms = make(map[domain.RoomID]RoomActivity)
	}
	return nil
}

func (t *Timeline) Activity(room domain.RoomID) RoomActivity {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rooms[room]
}

func (t *Timeline) Unread(room domain.RoomID) int {
	return t.Activity(room).Unread
}
