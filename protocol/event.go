package protocol

import "strings"

type EventType string

const (
	EventWelcome     EventType = "WELCOME"
	EventConnected   EventType = "CONNECTED"
	EventChatStarted EventType = "CHAT_STARTED"
	EventPeerLeft    EventType = "PEER_LEFT"
	EventChatEnded   EventType = "CHAT_ENDED"
	EventFrom        EventType = "FROM"
	EventOk          EventType = "OK"
	EventErr         EventType = "ERR"
	EventUnknown     EventType = "UNKNOWN"
)

// Event is a server line as seen by a client.
type Event struct {
	Type EventType

	// Name is the other user for CHAT_STARTED, PEER_LEFT, FROM and the
	// errors that carry a name.
	Name string

	// Text is the message for FROM, the reason for CHAT_ENDED, and whatever
	// follows "OK " for plain acknowledgements.
	Text string

	Err *Error

	// Line is the raw line, without its terminator.
	Line string
}

// ParseEvent classifies a single line sent by the server.
func ParseEvent(line string) *Event {
	ev := &Event{Type: EventUnknown, Line: line}

	switch {
	case line == Welcome:
		ev.Type = EventWelcome

	case line == Connected:
		ev.Type = EventConnected

	case strings.HasPrefix(line, PrefixChatStarted):
		ev.Type = EventChatStarted
		ev.Name = line[len(PrefixChatStarted):]

	case strings.HasPrefix(line, PrefixPeerLeft):
		ev.Type = EventPeerLeft
		ev.Name = line[len(PrefixPeerLeft):]

	case strings.HasPrefix(line, PrefixFrom):
		rest := line[len(PrefixFrom):]
		i := strings.Index(rest, ": ")
		if i < 0 {
			return ev
		}

		ev.Type = EventFrom
		ev.Name = rest[:i]
		ev.Text = rest[i+2:]

	case strings.HasPrefix(line, PrefixChatEnded) && strings.HasSuffix(line, ")"):
		ev.Type = EventChatEnded
		ev.Text = line[len(PrefixChatEnded) : len(line)-1]

	case line == PrefixOk:
		ev.Type = EventOk

	case strings.HasPrefix(line, PrefixOk+" "):
		ev.Type = EventOk
		ev.Text = line[len(PrefixOk)+1:]

	default:
		if perr, ok := ParseError(line); ok {
			ev.Type = EventErr
			ev.Name = perr.Name
			ev.Err = perr
		}
	}

	return ev
}
