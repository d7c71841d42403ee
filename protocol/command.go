package protocol

type Kind string

const (
	EMPTY   Kind = "EMPTY"
	BYE     Kind = "BYE"
	LEAVE   Kind = "LEAVE"
	CHAT    Kind = "CHAT"
	DIRECT  Kind = "DIRECT"
	MESSAGE Kind = "MESSAGE"
)

// Command is a single parsed client line.
type Command interface {
	GetKind() Kind
}

// EmptyCommand is a blank line. It is ignored.
type EmptyCommand struct{}

func (c *EmptyCommand) GetKind() Kind {
	return EMPTY
}

// ByeCommand ends the session.
type ByeCommand struct{}

func (c *ByeCommand) GetKind() Kind {
	return BYE
}

// LeaveCommand ends the current chat but keeps the session open.
type LeaveCommand struct{}

func (c *LeaveCommand) GetKind() Kind {
	return LEAVE
}

// ChatCommand asks to be paired with Target. An empty Target is a usage error.
type ChatCommand struct {
	Target string
}

func (c *ChatCommand) GetKind() Kind {
	return CHAT
}

// DirectCommand is the `target:text` form. It pairs with Target if needed and
// then relays Text.
type DirectCommand struct {
	Target string
	Text   string
}

func (c *DirectCommand) GetKind() Kind {
	return DIRECT
}

// MessageCommand is any other line, relayed to the current partner.
type MessageCommand struct {
	Text string
}

func (c *MessageCommand) GetKind() Kind {
	return MESSAGE
}

var _ Command = (*EmptyCommand)(nil)
var _ Command = (*ByeCommand)(nil)
var _ Command = (*LeaveCommand)(nil)
var _ Command = (*ChatCommand)(nil)
var _ Command = (*DirectCommand)(nil)
var _ Command = (*MessageCommand)(nil)
