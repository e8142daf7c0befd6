package event

import (
	"chat-rooms/domain"
	"chat-rooms/errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Names of the events exchanged with the distribution service.
const (
	Join          = "join"
	Message       = "message"
	Messages      = "messages"
	IsTyping      = "is-typing"
	StopTyping    = "stop-typing"
	Typing        = "typing"
	StoppedTyping = "stopped-typing"
	Connect       = "connect"
	Disconnect    = "disconnect"
)

// Frame is the envelope carried by the channel.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func NewFrame(name string, payload any) (Frame, error) {
	if payload == nil {
		return Frame{Event: name}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: name, Data: data}, nil
}

// Decode unmarshals the frame payload into v. Failures wrap ErrInvalidPayload.
func (f Frame) Decode(v any) error {
	if err := json.Unmarshal(f.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrInvalidPayload, f.Event, err)
	}
	return nil
}

// PostMessage is sent with the "message" event.
type PostMessage struct {
	Text string `json:"text"`
	Room string `json:"room"`
	User string `json:"user"`
}

// TypingSignal is sent with "is-typing" and "stop-typing".
type TypingSignal struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// ChatMessage is a message delivered by the service.
type ChatMessage struct {
	ID   string    `json:"id,omitempty"`
	User string    `json:"user"`
	Text string    `json:"text"`
	Date time.Time `json:"date"`
	Room string    `json:"room,omitempty"`
}

// History answers a "join" with the latest messages of the room, oldest first.
type History struct {
	Messages []ChatMessage `json:"messages"`
}

// TypingUsers is the full set carried by "typing" and "stopped-typing".
type TypingUsers []string

func ToMessage(m ChatMessage) domain.Message {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		id = uuid.Nil
	}
	return domain.Message{
		ID:   id,
		User: domain.Identity(m.User),
		Text: m.Text,
		At:   m.Date,
	}
}

func FromMessage(room domain.RoomID, m domain.Message) ChatMessage {
	return ChatMessage{
		ID:   m.ID.String(),
		User: string(m.User),
		Text: m.Text,
		Date: m.At,
		Room: string(room),
	}
}

func ToMessages(history []ChatMessage) []domain.Message {
	return lo.Map(history, func(item ChatMessage, _ int) domain.Message {
		return ToMessage(item)
	})
}

func ToIdentities(users TypingUsers) []domain.Identity {
	return lo.Map(users, func(item string, _ int) domain.Identity {
		return domain.Identity(item)
	})
}
