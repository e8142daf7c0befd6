package domain

// View is the read model handed to the presentation layer.
// It is a snapshot, mutating it has no effect on the session.
type View struct {
	Identity        Identity
	Rooms           []RoomID
	ActiveRoom      RoomID
	Messages        []Message
	Loaded          bool
	TypingUsers     []Identity
	ConnectionState ConnectionState
}

// HasIdentity tells the presentation layer whether to prompt for a username.
func (v View) HasIdentity() bool {
	return v.Identity != ""
}
