package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type RoomID string

var DefaultRooms = []RoomID{"#general", "#coding", "#art", "#movies"}

// ParseRooms reads a comma separated list of room names.
// Blank entries and duplicates are skipped, order is kept.
func ParseRooms(list string) []RoomID {
	names := lo.FilterMap(strings.Split(list, ","), func(item string, _ int) (RoomID, bool) {
		name := strings.TrimSpace(item)
		return RoomID(name), name != ""
	})
	return lo.Uniq(names)
}

// Room is an append-only message log.
// A room is loaded once it has been joined at least once,
// an empty loaded room differs from a room never joined.
type Room struct {
	ID       RoomID
	messages []Message
	loaded   bool
}

func NewRoom(id RoomID) *Room {
	return &Room{
		ID:       id,
		messages: nil,
	}
}

func (r *Room) PostMessage(message Message) {
	r.messages = append(r.messages, message)
}

// Merge appends the history entries the room does not hold yet, in
// history order, and returns how many were added. Entries carrying an ID
// are matched by ID. Entries without one are matched on user, text and
// date, each held message absorbing at most one entry.
func (r *Room) Merge(history []Message) int {
	known := make(map[uuid.UUID]struct{}, len(r.messages))
	var anonymous []Message
	for _, m := range r.messages {
		if m.ID == uuid.Nil {
			anonymous = append(anonymous, m)
			continue
		}
		known[m.ID] = struct{}{}
	}

	added := 0
	for _, m := range history {
		if m.ID != uuid.Nil {
			if _, ok := known[m.ID]; ok {
				continue
			}
			known[m.ID] = struct{}{}
		} else {
			_, i, found := lo.FindIndexOf(anonymous, func(item Message) bool { return item.sameAs(m) })
			if found {
				anonymous = append(anonymous[:i:i], anonymous[i+1:]...)
				continue
			}
		}
		r.messages = append(r.messages, m)
		added++
	}
	return added
}

// Messages returns a copy, callers can't reorder the log.
func (r *Room) Messages() []Message {
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

func (r *Room) MarkLoaded() {
	r.loaded = true
}

func (r *Room) Loaded() bool {
	return r.loaded
}
