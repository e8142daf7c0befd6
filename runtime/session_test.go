package runtime

import (
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"chat-rooms/errors"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

type sessionFixture struct {
	session   *Session
	conn      *Connection
	transport *fakeTransport
	identity  *memoryIdentity
	events    chan event.DomainEvent
}

func newSessionFixture(t *testing.T, user domain.Identity) sessionFixture {
	t.Helper()
	return newSessionFixtureWithPolicy(t, user, ReconnectPolicy{Attempts: 3, Delay: 10 * time.Millisecond})
}

func newSessionFixtureWithPolicy(t *testing.T, user domain.Identity, policy ReconnectPolicy) sessionFixture {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	transport := &fakeTransport{}
	conn := NewConnection(log, transport, 16, policy)
	identity := &memoryIdentity{user: user}
	events := make(chan event.DomainEvent, 128)
	session := NewSession(log, conn, identity, events, SessionConfig{
		TypingDebounce: 50 * time.Millisecond,
		CommandBuffer:  8,
	})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = session.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return sessionFixture{session: session, conn: conn, transport: transport, identity: identity, events: events}
}

// joined waits until the current channel received a join for room.
func (f sessionFixture) joined(t *testing.T, room domain.RoomID) *fakeChannel {
	t.Helper()
	require.Eventually(t, func() bool {
		channel := f.transport.Last()
		if channel == nil {
			return false
		}
		return lo.ContainsBy(channel.Written(event.Join), func(item event.Frame) bool {
			var name string
			return item.Decode(&name) == nil && name == string(room)
		})
	}, waitFor, tick)
	return f.transport.Last()
}

func (f sessionFixture) received(t *testing.T, match func(event.DomainEvent) bool) {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case evt := <-f.events:
			if match(evt) {
				return
			}
		case <-deadline:
			require.FailNow(t, "expected event not published")
		}
	}
}

func isIdentityRequired(evt event.DomainEvent) bool {
	_, ok := evt.(event.IdentityRequired)
	return ok
}

func TestSession_WithoutIdentity_DoesNotConnect(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSessionFixture(t, "")

	// Then the identity is asked for
	f.received(t, isIdentityRequired)
	req.False(f.session.View().HasIdentity())

	// And every gated operation is refused
	req.ErrorIs(f.session.Send(ctx, "hello"), errors.ErrIdentityRequired)
	req.ErrorIs(f.session.SwitchRoom(ctx, "#coding"), errors.ErrIdentityRequired)
	req.ErrorIs(f.session.InputChanged(ctx), errors.ErrIdentityRequired)
	req.Zero(f.transport.Dials())
}

func TestSession_Login(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSessionFixture(t, "")

	// When an invalid name is given
	err := f.session.Login(ctx, "a")

	// Then nothing is stored and no channel is opened
	req.ErrorIs(err, errors.ErrInvalidIdentity)
	_, ok := f.identity.Get()
	req.False(ok)
	req.Zero(f.transport.Dials())

	// When a valid name is given
	req.NoError(f.session.Login(ctx, "Alice"))

	// Then the default room is joined
	f.joined(t, "#general")
	req.Eventually(func() bool {
		view := f.session.View()
		return view.Identity == "Alice" && view.ActiveRoom == "#general" && view.Loaded &&
			view.ConnectionState == domain.Connected
	}, waitFor, tick)
}

func TestSession_Startup_JoinsDefaultRoom(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture(t, "Alice")

	channel := f.joined(t, "#general")

	req.Len(channel.Written(event.Join), 1)
	req.Equal(domain.DefaultRooms, f.session.View().Rooms)
}

func TestSession_SwitchRoom_SingleSubscription(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSessionFixture(t, "Alice")
	channel := f.joined(t, "#general")

	// When switching rooms back and forth
	for i := 0; i < 3; i++ {
		req.NoError(f.session.SwitchRoom(ctx, "#coding"))
		req.NoError(f.session.SwitchRoom(ctx, "#general"))
	}
	req.NoError(f.session.SwitchRoom(ctx, "#coding"))

	// Then each switch joined the room
	req.Len(channel.Written(event.Join), 8)

	// And a single handler per event is registered
	req.Equal(1, f.conn.handlers.Count(event.Message))
	req.Equal(1, f.conn.handlers.Count(event.Messages))
	req.Equal(1, f.conn.handlers.Count(event.Typing))
	req.Equal(1, f.conn.handlers.Count(event.StoppedTyping))

	// And a single inbound message is stored once
	channel.Send(event.Message, event.ChatMessage{User: "Bob", Text: "hello", Date: time.Now()})
	req.Eventually(func() bool {
		return len(f.session.View().Messages) == 1
	}, waitFor, tick)
	time.Sleep(20 * time.Millisecond)
	req.Len(f.session.View().Messages, 1)
	req.Equal(domain.RoomID("#coding"), f.session.View().ActiveRoom)
}

func TestSession_SwitchRoom_Rejected(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSessionFixture(t, "Alice")
	channel := f.joined(t, "#general")

	req.ErrorIs(f.session.SwitchRoom(ctx, "#unknown"), errors.ErrUnknownRoom)

	// Switching to the active room does nothing
	req.NoError(f.session.SwitchRoom(ctx, "#general"))
	req.Len(channel.Written(event.Join), 1)
	req.Equal(domain.RoomID("#general"), f.session.View().ActiveRoom)
}

func TestSession_Send(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSessionFixture(t, "Alice")
	channel := f.joined(t, "#general")

	// Empty text is ignored
	req.ErrorIs(f.session.Send(ctx, "   "), errors.ErrEmptyMessage)
	req.Empty(channel.Written(event.Message))

	// When a message is sent
	req.NoError(f.session.Send(ctx, "hello"))

	// Then it is emitted for the active room, followed by stop-typing
	written := channel.Written(event.Message, event.StopTyping)
	req.Len(written, 2)
	req.Equal(event.Message, written[0].Event)
	req.Equal(event.StopTyping, written[1].Event)
	var payload event.PostMessage
	req.NoError(written[0].Decode(&payload))
	req.Equal(event.PostMessage{Text: "hello", Room: "#general", User: "Alice"}, payload)

	// And the log waits for the service echo
	req.Empty(f.session.View().Messages)
}

func TestSession_InboundMessage_OtherRoom(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture(t, "Alice")
	channel := f.joined(t, "#general")

	// When the service attributes a message to another known room
	channel.Send(event.Message, event.ChatMessage{User: "Bob", Text: "hello", Room: "#art"})

	// Then it is stored there and not shown in the active room
	f.received(t, func(evt event.DomainEvent) bool {
		appended, ok := evt.(event.MessageAppended)
		return ok && appended.Room == "#art" && !appended.Active
	})
	req.Empty(f.session.View().Messages)
}

func TestSession_History_NoDuplicateAfterReconnect(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture(t, "Alice")
	channel := f.joined(t, "#general")
	history := event.History{Messages: []event.ChatMessage{
		{User: "Bob", Text: "one"},
		{User: "Clara", Text: "two"},
	}}

	channel.Send(event.Messages, history)
	req.Eventually(func() bool {
		return len(f.session.View().Messages) == 2
	}, waitFor, tick)

	// When the channel drops and the session reconnects
	_ = channel.Close()
	req.Eventually(func() bool { return f.transport.Dials() == 2 }, waitFor, tick)
	reconnected := f.joined(t, "#general")

	// Then the room is joined again with the same handlers
	req.Equal(1, f.conn.handlers.Count(event.Message))

	// And the replayed history is not appended twice
	reconnected.Send(event.Messages, history)
	reconnected.Send(event.Message, event.ChatMessage{User: "Bob", Text: "three"})
	req.Eventually(func() bool {
		return len(f.session.View().Messages) == 3
	}, waitFor, tick)
	req.Equal("three", f.session.View().Messages[2].Text)
}

func TestSession_History_CatchesUpAfterSwitchingBack(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSessionFixture(t, "Alice")
	channel := f.joined(t, "#general")
	at := time.Now().UTC()
	first := event.ChatMessage{ID: uuid.NewString(), User: "Alice", Text: "first", Date: at, Room: "#general"}
	away := event.ChatMessage{ID: uuid.NewString(), User: "Bob", Text: "while away", Date: at.Add(time.Second), Room: "#general"}

	channel.Send(event.Messages, event.History{Messages: []event.ChatMessage{first}})
	req.Eventually(func() bool { return len(f.session.View().Messages) == 1 }, waitFor, tick)

	// Given Alice sits in another room while Bob posts in #general
	req.NoError(f.session.SwitchRoom(ctx, "#coding"))

	// When she comes back, the service answers the join with the room history
	req.NoError(f.session.SwitchRoom(ctx, "#general"))
	req.Len(channel.Written(event.Join), 3)
	channel.Send(event.Messages, event.History{Messages: []event.ChatMessage{first, away}})

	// Then the missed message is shown once, after the one already held
	req.Eventually(func() bool { return len(f.session.View().Messages) == 2 }, waitFor, tick)
	texts := lo.Map(f.session.View().Messages, func(item domain.Message, _ int) string { return item.Text })
	req.Equal([]string{"first", "while away"}, texts)
}

func TestSession_Typing_Debounce(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSessionFixture(t, "Alice")
	channel := f.joined(t, "#general")

	// When the input changes several times quickly
	for i := 0; i < 3; i++ {
		req.NoError(f.session.InputChanged(ctx))
	}

	// Then "is-typing" is emitted once
	req.Len(channel.Written(event.IsTyping), 1)

	// And "stop-typing" once the debounce elapsed
	req.Eventually(func() bool {
		return len(channel.Written(event.StopTyping)) == 1
	}, waitFor, tick)
	time.Sleep(100 * time.Millisecond)
	req.Len(channel.Written(event.StopTyping), 1)
}

func TestSession_Typing_RemoteSet(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSessionFixture(t, "Alice")
	channel := f.joined(t, "#general")

	// When the service reports who is typing, self included
	channel.Send(event.Typing, event.TypingUsers{"Alice", "Bob"})

	// Then self is hidden
	req.Eventually(func() bool {
		users := f.session.View().TypingUsers
		return len(users) == 1 && users[0] == "Bob"
	}, waitFor, tick)

	// And the set is emptied by "stopped-typing"
	channel.Send(event.StoppedTyping, event.TypingUsers{})
	req.Eventually(func() bool {
		return len(f.session.View().TypingUsers) == 0
	}, waitFor, tick)

	// And a room switch forgets the previous room
	channel.Send(event.Typing, event.TypingUsers{"Bob"})
	req.Eventually(func() bool {
		return len(f.session.View().TypingUsers) == 1
	}, waitFor, tick)
	req.NoError(f.session.SwitchRoom(ctx, "#coding"))
	req.Empty(f.session.View().TypingUsers)
}

func TestSession_SwitchRoom_WhileTyping(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSessionFixture(t, "Alice")
	channel := f.joined(t, "#general")

	req.NoError(f.session.InputChanged(ctx))
	req.NoError(f.session.SwitchRoom(ctx, "#coding"))

	// Then typing stopped in the previous room before joining
	written := channel.Written(event.IsTyping, event.StopTyping, event.Join)
	names := lo.Map(written, func(item event.Frame, _ int) string { return item.Event })
	req.Equal([]string{event.Join, event.IsTyping, event.StopTyping, event.Join}, names)
	var signal event.TypingSignal
	req.NoError(written[2].Decode(&signal))
	req.Equal("#general", signal.Room)
}

func TestSession_Send_Disconnected(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSessionFixtureWithPolicy(t, "Alice", ReconnectPolicy{})
	f.joined(t, "#general")

	// Given the session lost its channel for good
	_ = f.transport.Last().Close()
	req.Eventually(func() bool {
		return f.session.View().ConnectionState == domain.Disconnected
	}, waitFor, tick)

	// Then sending fails and typing is silently skipped
	req.ErrorIs(f.session.Send(ctx, "hello"), errors.ErrNotConnected)
	req.NoError(f.session.InputChanged(ctx))
}

func TestSession_Logout(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSessionFixture(t, "Alice")
	channel := f.joined(t, "#general")

	// When the user logs out
	req.NoError(f.session.Logout(ctx))

	// Then the identity is forgotten and the channel closed
	_, ok := f.identity.Get()
	req.False(ok)
	req.True(channel.IsClosed())
	req.False(f.session.View().HasIdentity())
	req.Equal(domain.Disconnected, f.session.View().ConnectionState)
	f.received(t, isIdentityRequired)
	req.ErrorIs(f.session.Send(ctx, "hello"), errors.ErrIdentityRequired)

	// And a new login starts a fresh session
	req.NoError(f.session.Login(ctx, "Bob"))
	f.joined(t, "#general")
	req.Equal(2, f.transport.Dials())
	req.Empty(f.session.View().Messages)
}

func TestSession_Dispatch_ContextCanceled(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	conn := NewConnection(log, &fakeTransport{}, 16, ReconnectPolicy{})
	session := NewSession(log, conn, &memoryIdentity{}, nil, SessionConfig{CommandBuffer: 1})

	// Given a session loop that is not running
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Then the caller is released by its context
	req.ErrorIs(session.Send(ctx, "hello"), context.DeadlineExceeded)

	// And the full command channel drops the next command
	req.ErrorIs(session.Send(context.Background(), "hello"), errors.ErrCommandDropped)
}
