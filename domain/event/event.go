package event

import (
	"chat-rooms/domain"
)

// DomainEvent is published by the session after each state change.
// Events not bound to a room return an empty RoomID.
type DomainEvent interface {
	RoomID() domain.RoomID
}

type RoomSwitched struct {
	From domain.RoomID
	To   domain.RoomID
}

func (e RoomSwitched) RoomID() domain.RoomID {
	return e.To
}

type MessageAppended struct {
	Room    domain.RoomID
	Message domain.Message
	Active  bool
}

func (e MessageAppended) RoomID() domain.RoomID {
	return e.Room
}

type HistoryLoaded struct {
	Room  domain.RoomID
	Count int
}

func (e HistoryLoaded) RoomID() domain.RoomID {
	return e.Room
}

type TypingChanged struct {
	Room  domain.RoomID
	Users []domain.Identity
}

func (e TypingChanged) RoomID() domain.RoomID {
	return e.Room
}

type ConnectionChanged struct {
	State domain.ConnectionState
}

func (ConnectionChanged) RoomID() domain.RoomID {
	return ""
}

// IdentityRequired asks the presentation layer to prompt for a username.
type IdentityRequired struct{}

func (IdentityRequired) RoomID() domain.RoomID {
	return ""
}
