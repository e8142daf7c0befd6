// Package hub is the distribution service: it relays messages and typing
// sets between the clients joined to the same room and keeps a short
// history per room.
package hub

import (
	"chat-rooms/domain/event"

	"github.com/samber/lo"
)

const DefaultHistoryLimit = 20

// State holds the per room history and typing sets.
// Only the hub worker touches it.
type State struct {
	historyLimit int
	history      map[string][]event.ChatMessage
	typing       map[string][]string
}

func NewState(historyLimit int) *State {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &State{
		historyLimit: historyLimit,
		history:      make(map[string][]event.ChatMessage),
		typing:       make(map[string][]string),
	}
}

// Append stores a message, only the newest historyLimit are kept.
func (s *State) Append(room string, message event.ChatMessage) {
	messages := append(s.history[room], message)
	if overflow := len(messages) - s.historyLimit; overflow > 0 {
		messages = append([]event.ChatMessage(nil), messages[overflow:]...)
	}
	s.history[room] = messages
}

// History returns the kept messages of a room, oldest first.
func (s *State) History(room string) []event.ChatMessage {
	out := make([]event.ChatMessage, len(s.history[room]))
	copy(out, s.history[room])
	return out
}

func (s *State) StartTyping(room, user string) []string {
	if !lo.Contains(s.typing[room], user) {
		s.typing[room] = append(s.typing[room], user)
	}
	return s.Typing(room)
}

func (s *State) StopTyping(room, user string) []string {
	s.typing[room] = lo.Without(s.typing[room], user)
	if len(s.typing[room]) == 0 {
		delete(s.typing, room)
	}
	return s.Typing(room)
}

func (s *State) IsTyping(room, user string) bool {
	return lo.Contains(s.typing[room], user)
}

// Typing returns the typing set of a room, never nil so it encodes as [].
func (s *State) Typing(room string) []string {
	out := make([]string, len(s.typing[room]))
	copy(out, s.typing[room])
	return out
}
