package runtime

import (
	"chat-rooms/domain"
	"chat-rooms/errors"
	"fmt"
	"sync"
)

// RoomRegistry holds the known rooms of a session and which one is active.
// It is created when a session starts and dropped when it ends.
type RoomRegistry struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID]*domain.Room
	order  []domain.RoomID
	active domain.RoomID
}

// NewRoomRegistry builds the registry with the first room active.
func NewRoomRegistry(rooms []domain.RoomID) *RoomRegistry {
	r := &RoomRegistry{
		rooms: make(map[domain.RoomID]*domain.Room, len(rooms)),
	}
	for _, id := range rooms {
		if _, ok := r.rooms[id]; ok {
			continue
		}
		r.rooms[id] = domain.NewRoom(id)
		r.order = append(r.order, id)
	}
	if len(r.order) > 0 {
		r.active = r.order[0]
	}
	return r
}

func (r *RoomRegistry) Rooms() []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RoomID, len(r.order))
	copy(out, r.order)
	return out
}

func (r *RoomRegistry) Has(room domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room]
	return ok
}

func (r *RoomRegistry) Active() domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// SetActive switches the active room and marks it loaded.
// It reports false when the room was already active.
func (r *RoomRegistry) SetActive(room domain.RoomID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.rooms[room]
	if !ok {
		return false, fmt.Errorf("%w: %s", errors.ErrUnknownRoom, room)
	}
	target.MarkLoaded()
	if r.active == room {
		return false, nil
	}
	r.active = room
	return true, nil
}

// Append adds a message to any known room, active or not.
func (r *RoomRegistry) Append(room domain.RoomID, message domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.rooms[room]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnknownRoom, room)
	}
	target.PostMessage(message)
	return nil
}

// Merge adds the history entries the room does not hold yet and marks it
// loaded. It returns how many messages were added.
func (r *RoomRegistry) Merge(room domain.RoomID, history []domain.Message) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.rooms[room]
	if !ok {
		return 0, fmt.Errorf("%w: %s", errors.ErrUnknownRoom, room)
	}
	target.MarkLoaded()
	return target.Merge(history), nil
}

// MessagesOf returns a copy of the room's log and whether the room was loaded.
func (r *RoomRegistry) MessagesOf(room domain.RoomID) ([]domain.Message, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	target, ok := r.rooms[room]
	if !ok {
		return nil, false
	}
	return target.Messages(), target.Loaded()
}
