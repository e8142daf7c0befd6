package domain

// Command is an intent coming from the presentation layer.
// Commands are executed one at a time by the session loop.
type Command interface {
	CommandName() string
}

type SwitchRoomCommand struct {
	Room RoomID
}

func (SwitchRoomCommand) CommandName() string { return "switch-room" }

type SendMessageCommand struct {
	Text string
}

func (SendMessageCommand) CommandName() string { return "send-message" }

// InputChangedCommand is raised on every keystroke in the message input.
type InputChangedCommand struct{}

func (InputChangedCommand) CommandName() string { return "input-changed" }

type LogoutCommand struct{}

func (LogoutCommand) CommandName() string { return "logout" }

// LoginCommand sets the display name and starts the session.
type LoginCommand struct {
	Name string
}

func (LoginCommand) CommandName() string { return "login" }
