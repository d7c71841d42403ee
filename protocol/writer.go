package protocol

import (
	"io"
	"strings"
)

const (
	Welcome     = "OK Welcome. Send your name:"
	Connected   = "CONNECTED"
	CommandHint = "OK Commands: /chat <name> | /leave | /bye | target:message | or plain message after /chat"
	OKSent      = "OK sent"
	OKLeft      = "OK left chat"
	OKBye       = "OK bye"

	PrefixChatStarted = "CHAT_STARTED "
	PrefixPeerLeft    = "PEER_LEFT "
	PrefixFrom        = "FROM "
	PrefixChatEnded   = "OK chat ended ("
	PrefixOk          = "OK"
	PrefixErr         = "ERR "

	Terminal = "\n"
)

// Reasons reported to the partner when a chat ends.
const (
	ReasonClosedWindow = "peer closed the window"
	ReasonLeftChat     = "peer left the chat"
	ReasonDisconnected = "peer disconnected"
)

func ChatStarted(name string) string {
	return PrefixChatStarted + name
}

func PeerLeft(name string) string {
	return PrefixPeerLeft + name
}

func From(sender, text string) string {
	return PrefixFrom + sender + ": " + text
}

func ChatEnded(reason string) string {
	return PrefixChatEnded + reason + ")"
}

// Frame returns line terminated for the wire. Embedded newlines are replaced
// with spaces so that a line can never be split into two.
func Frame(line string) []byte {
	if strings.ContainsAny(line, "\r\n") {
		line = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(line)
	}

	return []byte(line + Terminal)
}

// WriteLine writes a single framed line in one Write call.
func WriteLine(w io.Writer, line string) error {
	_, err := w.Write(Frame(line))
	return err
}
