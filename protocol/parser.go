package protocol

import (
	"bufio"
	"errors"
	"strings"
)

var (
	ErrLineTooLong = errors.New("Line is too long")

	ChatPrefix = "/chat"
)

// ReadLine reads a single '\n' terminated line from the provided Reader. The
// line terminator, and an optional '\r' before it, are stripped.
//
// A final line that is not terminated before EOF is still returned as a line,
// the next call will return io.EOF.
//
// To avoid denial of service attacks, lines longer than limit bytes fail with
// ErrLineTooLong. A limit of zero or less disables the check.
func ReadLine(r *bufio.Reader, limit int) (string, error) {
	var line []byte

	for {
		chunk, more, err := r.ReadLine()
		if err != nil {
			return "", err
		}

		line = append(line, chunk...)

		if limit > 0 && len(line) > limit {
			return "", ErrLineTooLong
		}

		if !more {
			break
		}
	}

	return string(line), nil
}

// ParseCommand classifies a single client line. It never fails: anything that
// isn't a known command is a message for the current chat partner.
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)
	if line == "" {
		return &EmptyCommand{}
	}

	switch {
	case strings.EqualFold(line, "/bye"),
		strings.EqualFold(line, "bye"),
		strings.EqualFold(line, "exit"):
		return &ByeCommand{}

	case strings.EqualFold(line, "/leave"):
		return &LeaveCommand{}

	case strings.EqualFold(line, ChatPrefix):
		// Missing the target, the caller reports usage
		return &ChatCommand{}

	case hasChatPrefix(line):
		return &ChatCommand{Target: strings.TrimSpace(line[len(ChatPrefix):])}
	}

	// target:message, split on the first colon only so messages may contain colons
	if i := strings.IndexByte(line, ':'); i >= 0 {
		return &DirectCommand{
			Target: strings.TrimSpace(line[:i]),
			Text:   strings.TrimSpace(line[i+1:]),
		}
	}

	return &MessageCommand{Text: line}
}

// hasChatPrefix reports whether line is "/chat" followed by whitespace,
// ignoring case.
func hasChatPrefix(line string) bool {
	n := len(ChatPrefix)
	if len(line) <= n {
		return false
	}

	return strings.EqualFold(line[:n], ChatPrefix) && (line[n] == ' ' || line[n] == '\t')
}
