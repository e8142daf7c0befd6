// Package runtime drives the live chat session: the channel to the
// distribution service, the rooms and the typing protocol.
// All session state is mutated by the goroutine running Session.Run.
package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"chat-rooms/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const timerBufferSize = 16

type SessionConfig struct {
	Rooms          []domain.RoomID
	TypingDebounce time.Duration
	CommandBuffer  int
}

type request struct {
	cmd   domain.Command
	reply chan error
}

// Session composes the connection, the identity, the room registry and the
// typing coordinator. UI intents enter through Dispatch, inbound frames
// through the connection, timer expirations through the scheduler; Run
// handles them one at a time.
type Session struct {
	log       *slog.Logger
	conn      contract.IConnection
	identity  contract.IIdentityStore
	rooms     []domain.RoomID
	events    chan<- event.DomainEvent
	commands  chan request
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
	ctx       context.Context

	typing   *TypingCoordinator
	registry *RoomRegistry
	scope    *Scope

	viewMu sync.RWMutex
	view   domain.View
}

func NewSession(log *slog.Logger, conn contract.IConnection, identity contract.IIdentityStore,
	events chan<- event.DomainEvent, config SessionConfig) *Session {
	rooms := config.Rooms
	if len(rooms) == 0 {
		rooms = domain.DefaultRooms
	}
	s := &Session{
		log:      log,
		conn:     conn,
		identity: identity,
		rooms:    rooms,
		events:   events,
		commands: make(chan request, max(config.CommandBuffer, 1)),
		tasks:    make(chan func(), timerBufferSize),
		done:     make(chan struct{}),
		ctx:      context.Background(),
	}
	s.typing = NewTypingCoordinator(log, conn, loopScheduler{tasks: s.tasks, done: s.done}, config.TypingDebounce)
	s.refresh()
	return s
}

// Run is the session loop. It returns when ctx is canceled.
func (s *Session) Run(ctx context.Context) error {
	s.ctx = ctx
	s.start()
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case req := <-s.commands:
			req.reply <- s.handle(req.cmd)
		case frame := <-s.conn.Frames():
			s.route(frame)
		case task := <-s.tasks:
			task()
			s.refresh()
		}
	}
}

// Dispatch hands a command to the loop and waits for its outcome.
func (s *Session) Dispatch(ctx context.Context, cmd domain.Command) error {
	req := request{cmd: cmd, reply: make(chan error, 1)}
	select {
	case s.commands <- req:
	default:
		s.log.Warn("Command channel full, dropping command", "command", cmd.CommandName())
		return errors.ErrCommandDropped
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Login(ctx context.Context, name string) error {
	return s.Dispatch(ctx, domain.LoginCommand{Name: name})
}

func (s *Session) Logout(ctx context.Context) error {
	return s.Dispatch(ctx, domain.LogoutCommand{})
}

func (s *Session) SwitchRoom(ctx context.Context, room domain.RoomID) error {
	return s.Dispatch(ctx, domain.SwitchRoomCommand{Room: room})
}

func (s *Session) Send(ctx context.Context, text string) error {
	return s.Dispatch(ctx, domain.SendMessageCommand{Text: text})
}

func (s *Session) InputChanged(ctx context.Context) error {
	return s.Dispatch(ctx, domain.InputChangedCommand{})
}

// View returns the latest read model snapshot.
func (s *Session) View() domain.View {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view
}

func (s *Session) start() {
	if _, ok := s.identity.Get(); !ok {
		s.publish(event.IdentityRequired{})
		s.refresh()
		return
	}
	s.begin()
}

// begin creates the session scoped state and opens the channel.
func (s *Session) begin() {
	if s.registry == nil {
		s.registry = NewRoomRegistry(s.rooms)
	}
	ctx := s.ctx
	go func() {
		if err := s.conn.Connect(ctx); err != nil {
			s.log.Warn("Unable to connect", "error", err)
		}
	}()
	s.refresh()
}

func (s *Session) handle(cmd domain.Command) error {
	defer s.refresh()
	switch c := cmd.(type) {
	case domain.LoginCommand:
		return s.login(c.Name)
	case domain.LogoutCommand:
		return s.logout()
	case domain.SwitchRoomCommand:
		return s.switchRoom(c.Room)
	case domain.SendMessageCommand:
		return s.send(c.Text)
	case domain.InputChangedCommand:
		return s.inputChanged()
	default:
		return fmt.Errorf("unsupported command %s", cmd.CommandName())
	}
}

func (s *Session) route(frame event.Frame) {
	defer s.refresh()
	switch frame.Event {
	case event.Connect:
		s.onConnected()
	case event.Disconnect:
		s.onDisconnected()
	default:
		s.conn.Dispatch(frame)
	}
}

func (s *Session) login(name string) error {
	if _, err := s.identity.Set(name); err != nil {
		return err
	}
	s.begin()
	return nil
}

func (s *Session) logout() error {
	s.typing.Cancel(true)
	s.typing.Reset()
	s.scope.Release()
	s.scope = nil
	s.conn.Disconnect()
	s.registry = nil
	err := s.identity.Clear()
	s.publish(event.ConnectionChanged{State: domain.Disconnected})
	s.publish(event.IdentityRequired{})
	return err
}

func (s *Session) requireIdentity() (domain.Identity, error) {
	user, ok := s.identity.Get()
	if !ok || s.registry == nil {
		s.publish(event.IdentityRequired{})
		return "", errors.ErrIdentityRequired
	}
	return user, nil
}

func (s *Session) switchRoom(room domain.RoomID) error {
	if _, err := s.requireIdentity(); err != nil {
		return err
	}
	if !s.registry.Has(room) {
		return fmt.Errorf("%w: %s", errors.ErrUnknownRoom, room)
	}
	previous := s.registry.Active()
	if room == previous {
		return nil
	}

	// typing state does not carry over to another room
	s.typing.Cancel(true)
	s.scope.Release()
	s.scope = nil
	s.typing.ClearRemote(previous)

	if _, err := s.registry.SetActive(room); err != nil {
		return err
	}
	s.join(room)
	s.publish(event.RoomSwitched{From: previous, To: room})
	return nil
}

// join emits "join" and subscribes the room's handlers unless they are
// already registered, as after a reconnection.
func (s *Session) join(room domain.RoomID) {
	if err := s.conn.Emit(event.Join, string(room)); err != nil {
		s.log.Warn("Join not sent", "room", room, "error", err)
	}
	if s.scope == nil || s.scope.Room != room {
		s.scope.Release()
		s.scope = s.subscribe(room)
	}
}

func (s *Session) subscribe(room domain.RoomID) *Scope {
	scope := NewScope(room)
	scope.Add(s.conn.On(event.Message, func(frame event.Frame) { s.onMessage(room, frame) }))
	scope.Add(s.conn.On(event.Messages, func(frame event.Frame) { s.onHistory(room, frame) }))
	scope.Add(s.conn.On(event.Typing, func(frame event.Frame) { s.onTyping(room, frame) }))
	scope.Add(s.conn.On(event.StoppedTyping, func(frame event.Frame) { s.onTyping(room, frame) }))
	return scope
}

func (s *Session) send(text string) error {
	user, err := s.requireIdentity()
	if err != nil {
		return err
	}
	if err = domain.ValidateText(text); err != nil {
		if !stderrors.Is(err, errors.ErrEmptyMessage) {
			s.log.Debug("Message rejected", "error", err)
		}
		return err
	}
	room := s.registry.Active()
	err = s.conn.Emit(event.Message, event.PostMessage{Text: text, Room: string(room), User: string(user)})
	s.typing.MessageSent(room, user)
	return err
}

func (s *Session) inputChanged() error {
	user, err := s.requireIdentity()
	if err != nil {
		return err
	}
	if s.conn.State() != domain.Connected {
		return nil
	}
	s.typing.InputChanged(s.registry.Active(), user)
	return nil
}

func (s *Session) onConnected() {
	s.publish(event.ConnectionChanged{State: domain.Connected})
	if s.registry == nil {
		// logged out while dialing
		s.conn.Disconnect()
		return
	}
	active := s.registry.Active()
	if _, err := s.registry.SetActive(active); err != nil {
		s.log.Error("Active room is unknown", "room", active, "error", err)
		return
	}
	s.join(active)
}

func (s *Session) onDisconnected() {
	s.typing.Cancel(false)
	s.publish(event.ConnectionChanged{State: domain.Disconnected})
}

func (s *Session) onMessage(room domain.RoomID, frame event.Frame) {
	if s.registry == nil {
		return
	}
	var payload event.ChatMessage
	if err := frame.Decode(&payload); err != nil {
		s.log.Warn("Invalid message payload", "error", err)
		return
	}
	target := room
	if payload.Room != "" && s.registry.Has(domain.RoomID(payload.Room)) {
		target = domain.RoomID(payload.Room)
	}
	message := event.ToMessage(payload)
	if err := s.registry.Append(target, message); err != nil {
		s.log.Warn("Message not stored", "room", target, "error", err)
		return
	}
	s.publish(event.MessageAppended{Room: target, Message: message, Active: target == s.registry.Active()})
}

func (s *Session) onHistory(room domain.RoomID, frame event.Frame) {
	if s.registry == nil {
		return
	}
	var payload event.History
	if err := frame.Decode(&payload); err != nil {
		s.log.Warn("Invalid history payload", "error", err)
		return
	}
	added, err := s.registry.Merge(room, event.ToMessages(payload.Messages))
	if err != nil {
		s.log.Warn("History not stored", "room", room, "error", err)
		return
	}
	if added == 0 {
		s.log.Debug("History holds nothing new", "room", room)
		return
	}
	s.publish(event.HistoryLoaded{Room: room, Count: added})
}

func (s *Session) onTyping(room domain.RoomID, frame event.Frame) {
	var payload event.TypingUsers
	if err := frame.Decode(&payload); err != nil {
		s.log.Warn("Invalid typing payload", "event", frame.Event, "error", err)
		return
	}
	s.typing.ApplySnapshot(room, event.ToIdentities(payload))
	self, _ := s.identity.Get()
	s.publish(event.TypingChanged{Room: room, Users: s.typing.TypingUsers(room, self)})
}

func (s *Session) shutdown() {
	s.typing.Cancel(true)
	s.scope.Release()
	s.scope = nil
	s.conn.Disconnect()
	s.closeOnce.Do(func() { close(s.done) })
	s.log.Info("Session stopped")
}

func (s *Session) publish(evt event.DomainEvent) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- evt:
	default:
		s.log.Debug("Session event lost", "event", fmt.Sprintf("%T", evt))
	}
}

func (s *Session) refresh() {
	user, _ := s.identity.Get()
	view := domain.View{
		Identity:        user,
		Rooms:           append([]domain.RoomID(nil), s.rooms...),
		ConnectionState: s.conn.State(),
	}
	if s.registry != nil {
		view.ActiveRoom = s.registry.Active()
		view.Messages, view.Loaded = s.registry.MessagesOf(view.ActiveRoom)
		view.TypingUsers = s.typing.TypingUsers(view.ActiveRoom, user)
	}
	s.viewMu.Lock()
	s.view = view
	s.viewMu.Unlock()
}
