package runtime

import (
	"chat-rooms/domain"
	"chat-rooms/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_FirstRoomActive(t *testing.T) {
	req := require.New(t)
	registry := NewRoomRegistry(domain.DefaultRooms)

	req.Equal(domain.DefaultRooms, registry.Rooms())
	req.Equal(domain.RoomID("#general"), registry.Active())

	// No room was joined yet
	_, loaded := registry.MessagesOf("#general")
	req.False(loaded)
}

func TestRegistry_SetActive(t *testing.T) {
	req := require.New(t)
	registry := NewRoomRegistry(domain.DefaultRooms)

	// When switching to a known room
	changed, err := registry.SetActive("#coding")
	req.NoError(err)
	req.True(changed)
	req.Equal(domain.RoomID("#coding"), registry.Active())

	// Then the room is loaded, even without messages
	messages, loaded := registry.MessagesOf("#coding")
	req.True(loaded)
	req.Empty(messages)

	// When switching to the same room
	changed, err = registry.SetActive("#coding")
	req.NoError(err)
	req.False(changed)

	// When switching to an unknown room
	_, err = registry.SetActive("#unknown")
	req.ErrorIs(err, errors.ErrUnknownRoom)
	req.Equal(domain.RoomID("#coding"), registry.Active())
}

func TestRegistry_Append_InactiveRoom(t *testing.T) {
	req := require.New(t)
	registry := NewRoomRegistry(domain.DefaultRooms)

	// When a message arrives for a room that is not active
	err := registry.Append("#art", domain.Message{User: "Bob", Text: "hello"})
	req.NoError(err)

	// Then it is kept for later display
	messages, _ := registry.MessagesOf("#art")
	req.Len(messages, 1)
	req.Equal(domain.RoomID("#general"), registry.Active())

	err = registry.Append("#unknown", domain.Message{User: "Bob", Text: "hello"})
	req.ErrorIs(err, errors.ErrUnknownRoom)
}

func TestRegistry_Merge(t *testing.T) {
	req := require.New(t)
	registry := NewRoomRegistry(domain.DefaultRooms)
	history := []domain.Message{{User: "Alice", Text: "one"}, {User: "Bob", Text: "two"}}

	added, err := registry.Merge("#general", history)
	req.NoError(err)
	req.Equal(2, added)

	// A second delivery after a reconnection adds nothing
	added, err = registry.Merge("#general", history)
	req.NoError(err)
	req.Zero(added)

	messages, loaded := registry.MessagesOf("#general")
	req.True(loaded)
	req.Equal(history, messages)

	_, err = registry.Merge("#unknown", history)
	req.ErrorIs(err, errors.ErrUnknownRoom)
}

func TestRegistry_DuplicateRooms(t *testing.T) {
	req := require.New(t)
	registry := NewRoomRegistry([]domain.RoomID{"#art", "#art", "#movies"})
	req.Equal([]domain.RoomID{"#art", "#movies"}, registry.Rooms())
}
