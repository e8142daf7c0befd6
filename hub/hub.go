package hub

import (
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"chat-rooms/moderation"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Moderator interface {
	Review(text string) moderation.Verdict
}

type inbound struct {
	client *Client
	frame  event.Frame
}

// Hub serializes every state change on its Run goroutine. Clients talk to
// it through channels and receive frames on their own send buffer.
type Hub struct {
	log        *slog.Logger
	moderator  Moderator
	state      *State
	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	clients    map[*Client]struct{}
	rooms      map[string]map[*Client]struct{}
	now        func() time.Time
}

func NewHub(log *slog.Logger, moderator Moderator, historyLimit, bufferSize int) *Hub {
	return &Hub{
		log:        log,
		moderator:  moderator,
		state:      NewState(historyLimit),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, bufferSize),
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (h *Hub) Register(ctx context.Context, c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

func (h *Hub) Unregister(ctx context.Context, c *Client) {
	select {
	case h.unregister <- c:
	case <-ctx.Done():
	}
}

// Receive queues a client frame. It reports false once the hub stopped.
func (h *Hub) Receive(ctx context.Context, c *Client, frame event.Frame) bool {
	select {
	case h.inbound <- inbound{client: c, frame: frame}:
		return true
	case <-ctx.Done():
		return false
	}
}

// Inbound exposes the frame buffer for capacity sampling.
func (h *Hub) Inbound() any {
	return h.inbound
}

func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			h.log.Info("Hub stopped")
			return nil
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.log.Info("Client connected", "client", c.ID, "clients", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.remove(c)
				h.log.Info("Client disconnected", "client", c.ID, "clients", len(h.clients))
			}
		case in := <-h.inbound:
			if _, ok := h.clients[in.client]; ok {
				h.handle(in.client, in.frame)
			}
		}
	}
}

func (h *Hub) handle(c *Client, frame event.Frame) {
	switch frame.Event {
	case event.Join:
		var room string
		if err := frame.Decode(&room); err != nil || room == "" {
			c.log.Warn("Invalid join payload", "error", err)
			return
		}
		h.join(c, room)
	case event.Message:
		var payload event.PostMessage
		if err := frame.Decode(&payload); err != nil {
			c.log.Warn("Invalid message payload", "error", err)
			return
		}
		h.post(c, payload)
	case event.IsTyping, event.StopTyping:
		var signal event.TypingSignal
		if err := frame.Decode(&signal); err != nil || signal.Room == "" || signal.User == "" {
			c.log.Warn("Invalid typing payload", "event", frame.Event, "error", err)
			return
		}
		h.typing(c, frame.Event, signal)
	default:
		c.log.Debug("Unknown event", "event", frame.Event)
	}
}

// join leaves the current room before entering the new one and answers
// with the room history.
func (h *Hub) join(c *Client, room string) {
	h.leave(c)
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.room = room
	h.log.Debug("Client joined", "client", c.ID, "room", room, "members", len(members))

	h.deliver(c, event.Messages, event.History{Messages: h.state.History(room)})
}

func (h *Hub) post(c *Client, payload event.PostMessage) {
	if err := domain.ValidateText(payload.Text); err != nil {
		c.log.Warn("Message rejected", "error", err)
		return
	}
	if _, err := domain.NewIdentity(payload.User); err != nil {
		c.log.Warn("Message rejected", "error", err)
		return
	}
	room := payload.Room
	if room == "" {
		room = c.room
	}
	if room == "" {
		c.log.Warn("Message without room dropped", "user", payload.User)
		return
	}
	c.user = payload.User

	verdict := h.moderator.Review(payload.Text)
	if len(verdict.CensoredWords) > 0 {
		h.log.Info("Message censored", "room", room, "user", payload.User,
			"words", verdict.CensoredWords, "lang", verdict.Lang)
	}
	message := event.ChatMessage{
		ID:   uuid.NewString(),
		User: payload.User,
		Text: verdict.Text,
		Date: h.now(),
		Room: room,
	}
	h.state.Append(room, message)
	h.broadcast(room, event.Message, message)
}

func (h *Hub) typing(c *Client, name string, signal event.TypingSignal) {
	c.user = signal.User
	if name == event.IsTyping {
		h.broadcast(signal.Room, event.Typing, h.state.StartTyping(signal.Room, signal.User))
		return
	}
	h.broadcast(signal.Room, event.StoppedTyping, h.state.StopTyping(signal.Room, signal.User))
}

// leave drops the client from its room, clearing its typing entry.
func (h *Hub) leave(c *Client) {
	if c.room == "" {
		return
	}
	room := c.room
	delete(h.rooms[room], c)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
	c.room = ""
	if c.user != "" && h.state.IsTyping(room, c.user) {
		h.broadcast(room, event.StoppedTyping, h.state.StopTyping(room, c.user))
	}
}

func (h *Hub) remove(c *Client) {
	h.leave(c)
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) broadcast(room, name string, payload any) {
	frame, err := event.NewFrame(name, payload)
	if err != nil {
		h.log.Error("Unable to encode frame", "event", name, "error", err)
		return
	}
	for member := range h.rooms[room] {
		h.push(member, frame)
	}
}

func (h *Hub) deliver(c *Client, name string, payload any) {
	frame, err := event.NewFrame(name, payload)
	if err != nil {
		h.log.Error("Unable to encode frame", "event", name, "error", err)
		return
	}
	h.push(c, frame)
}

// push never blocks the hub, a client too slow to drain its buffer loses
// the frame.
func (h *Hub) push(c *Client, frame event.Frame) {
	select {
	case c.send <- frame:
	default:
		c.log.Warn("Client buffer full, frame dropped", "event", frame.Event)
	}
}
