package projection

import (
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeline_Consume_MessageAppended(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	ctx := context.Background()

	first := domain.Message{User: "Alice", Text: "Hello Bob", At: time.Now()}
	second := domain.Message{User: "Clara", Text: "Hi Bob", At: time.Now().Add(time.Second)}

	// Given two messages in a hidden room and one in the active room
	req.NoError(timeline.Consume(ctx, event.MessageAppended{Room: "#art", Message: first}))
	req.NoError(timeline.Consume(ctx, event.MessageAppended{Room: "#art", Message: second}))
	req.NoError(timeline.Consume(ctx, event.MessageAppended{Room: "#general", Message: first, Active: true}))

	// Then only the hidden room has unread messages
	req.Equal(2, timeline.Unread("#art"))
	req.Zero(timeline.Unread("#general"))
	req.Equal("Clara", timeline.Activity("#art").LastMessage.User.String())
}

func TestTimeline_Consume_RoomSwitched(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	ctx := context.Background()
	req.NoError(timeline.Consume(ctx, event.MessageAppended{Room: "#art", Message: domain.Message{Text: "hi"}}))

	// When the user opens the room
	req.NoError(timeline.Consume(ctx, event.RoomSwitched{From: "#general", To: "#art"}))

	// Then its messages are read
	req.Zero(timeline.Unread("#art"))
	req.NotNil(timeline.Activity("#art").LastMessage)
}

func TestTimeline_Consume_IdentityRequired(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	ctx := context.Background()
	req.NoError(timeline.Consume(ctx, event.MessageAppended{Room: "#art", Message: domain.Message{Text: "hi"}}))

	req.NoError(timeline.Consume(ctx, event.IdentityRequired{}))

	req.Equal(RoomActivity{}, timeline.Activity("#art"))
}
