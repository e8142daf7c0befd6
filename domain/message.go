// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"chat-rooms/errors"
	stderrors "errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const MaxMessageLength = 500

// Message represents an immutable chat event.
type Message struct {
	ID   uuid.UUID // unique identifier, zero when the service did not provide one
	User Identity
	Text string
	At   time.Time
}

// sameAs compares messages without service ID.
func (m Message) sameAs(other Message) bool {
	return m.User == other.User && m.Text == other.Text && m.At.Equal(other.At)
}

type outgoingText struct {
	Trimmed string `validate:"required"`
	Text    string `validate:"max=500"`
}

// ValidateText rejects blank text and text longer than MaxMessageLength characters.
func ValidateText(text string) error {
	err := validate.Struct(outgoingText{Trimmed: strings.TrimSpace(text), Text: text})
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if stderrors.As(err, &validationErrors) && len(validationErrors) > 0 &&
		validationErrors[0].Tag() == "max" {
		return errors.ErrMessageTooLong
	}
	return errors.ErrEmptyMessage
}
