package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain"
)

// Scope owns the subscriptions registered for one joined room.
// Release must be called before the next room is subscribed.
type Scope struct {
	Room          domain.RoomID
	subscriptions []contract.Subscription
}

func NewScope(room domain.RoomID) *Scope {
	return &Scope{Room: room}
}

func (s *Scope) Add(subscription contract.Subscription) {
	s.subscriptions = append(s.subscriptions, subscription)
}

func (s *Scope) Release() {
	if s == nil {
		return
	}
	for _, subscription := range s.subscriptions {
		subscription.Dispose()
	}
	s.subscriptions = nil
}
