package errors

import "fmt"

var (
	ErrInvalidIdentity  = fmt.Errorf("username must have between 2 and 256 characters")
	ErrIdentityRequired = fmt.Errorf("a username is required before chatting")
	ErrNotConnected     = fmt.Errorf("not connected to the distribution service")
	ErrEmptyMessage     = fmt.Errorf("message is empty")
	ErrMessageTooLong   = fmt.Errorf("message is longer than 500 characters")
	ErrUnknownRoom      = fmt.Errorf("unknown room")
	ErrSessionClosed    = fmt.Errorf("session is closed")
	ErrCommandDropped   = fmt.Errorf("command channel full, command dropped")
	ErrInvalidPayload   = fmt.Errorf("invalid event payload")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrEmptyWords       = fmt.Errorf("no censored word loaded")
)
