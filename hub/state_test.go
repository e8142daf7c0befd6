package hub

import (
	"chat-rooms/domain/event"
	"fmt"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestState_History_KeepsNewest(t *testing.T) {
	req := require.New(t)
	state := NewState(3)

	// When five messages are stored in a room limited to three
	for i := 1; i <= 5; i++ {
		state.Append("#general", event.ChatMessage{User: "Alice", Text: fmt.Sprintf("m%d", i)})
	}

	// Then the three newest remain, oldest first
	texts := lo.Map(state.History("#general"), func(item event.ChatMessage, _ int) string { return item.Text })
	req.Equal([]string{"m3", "m4", "m5"}, texts)

	// And other rooms are empty, not nil
	req.NotNil(state.History("#art"))
	req.Empty(state.History("#art"))
}

func TestState_DefaultLimit(t *testing.T) {
	req := require.New(t)
	state := NewState(0)
	for i := 0; i < DefaultHistoryLimit+5; i++ {
		state.Append("#general", event.ChatMessage{Text: fmt.Sprint(i)})
	}
	req.Len(state.History("#general"), DefaultHistoryLimit)
	req.Equal("5", state.History("#general")[0].Text)
}

func TestState_Typing(t *testing.T) {
	req := require.New(t)
	state := NewState(0)

	req.Equal([]string{"alice"}, state.StartTyping("#general", "alice"))
	req.Equal([]string{"alice", "bob"}, state.StartTyping("#general", "bob"))

	// Typing twice does not duplicate
	req.Equal([]string{"alice", "bob"}, state.StartTyping("#general", "alice"))
	req.True(state.IsTyping("#general", "bob"))

	req.Equal([]string{"bob"}, state.StopTyping("#general", "alice"))
	req.Equal([]string{}, state.StopTyping("#general", "bob"))

	// Stopping a user not typing is harmless
	req.Equal([]string{}, state.StopTyping("#coding", "carol"))
	req.Empty(state.Typing("#coding"))
}
