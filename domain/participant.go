// Package domain contains core concepts of the chat system.
// This file defines the participant Identity and its invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"chat-rooms/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	MinIdentityLength = 2
	MaxIdentityLength = 256
)

var validate = validator.New()

// Identity is the display name chosen by the local user.
type Identity string

// NewIdentity checks the length bounds of a display name.
// Length is counted in characters, not bytes.
func NewIdentity(name string) (Identity, error) {
	rule := fmt.Sprintf("min=%d,max=%d", MinIdentityLength, MaxIdentityLength)
	if err := validate.Var(name, rule); err != nil {
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidIdentity, name)
	}
	return Identity(name), nil
}

func (i Identity) String() string {
	return string(i)
}
