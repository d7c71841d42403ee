package protocol

import "strings"

// Code identifies a protocol level failure independently of its wire text.
type Code string

const (
	CodeEmptyName      Code = "EMPTY_NAME"
	CodeNameTaken      Code = "NAME_TAKEN"
	CodeCannotPairSelf Code = "CANNOT_PAIR_SELF"
	CodeUserNotFound   Code = "USER_NOT_FOUND"
	CodeAlreadyInChat  Code = "ALREADY_IN_CHAT_WITH"
	CodeUserBusy       Code = "USER_BUSY"
	CodeNotInChat      Code = "NOT_IN_CHAT"
	CodeUsage          Code = "USAGE"
)

const (
	lineEmptyName      = "ERR empty name"
	lineCannotPairSelf = "ERR cannot chat with yourself"
	lineNotInChat      = "ERR you are not in a chat (use /chat <name> or target:message)"
	lineUsage          = "ERR usage: /chat <name>"
)

// Error is a failure that is reported to the client as a single line. Name is
// only set for the codes whose reply carries a user name.
type Error struct {
	Code Code
	Name string
}

var (
	ErrEmptyName      = &Error{Code: CodeEmptyName}
	ErrNameTaken      = &Error{Code: CodeNameTaken}
	ErrCannotPairSelf = &Error{Code: CodeCannotPairSelf}
	ErrUserNotFound   = &Error{Code: CodeUserNotFound}
	ErrAlreadyInChat  = &Error{Code: CodeAlreadyInChat}
	ErrUserBusy       = &Error{Code: CodeUserBusy}
	ErrNotInChat      = &Error{Code: CodeNotInChat}
	ErrUsage          = &Error{Code: CodeUsage}
)

// AlreadyInChatWith is returned when the requester is paired with partner.
func AlreadyInChatWith(partner string) *Error {
	return &Error{Code: CodeAlreadyInChat, Name: partner}
}

// UserBusy is returned when target is paired with someone else.
func UserBusy(target string) *Error {
	return &Error{Code: CodeUserBusy, Name: target}
}

func (e *Error) Error() string {
	return e.Line()
}

// Is matches on Code only, so errors.Is(UserBusy("bob"), ErrUserBusy) holds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Code == e.Code
}

// Line renders the error exactly as it is sent to the client.
func (e *Error) Line() string {
	switch e.Code {
	case CodeEmptyName:
		return lineEmptyName
	case CodeNameTaken:
		return string(CodeNameTaken)
	case CodeCannotPairSelf:
		return lineCannotPairSelf
	case CodeUserNotFound:
		return string(CodeUserNotFound)
	case CodeAlreadyInChat:
		return string(CodeAlreadyInChat) + " " + e.Name
	case CodeUserBusy:
		return string(CodeUserBusy) + " " + e.Name
	case CodeNotInChat:
		return lineNotInChat
	case CodeUsage:
		return lineUsage
	default:
		return "ERR " + string(e.Code)
	}
}

// ParseError turns a server error line back into an Error. It returns false if
// line isn't an error reply.
func ParseError(line string) (*Error, bool) {
	switch line {
	case lineEmptyName:
		return ErrEmptyName, true
	case string(CodeNameTaken):
		return ErrNameTaken, true
	case lineCannotPairSelf:
		return ErrCannotPairSelf, true
	case string(CodeUserNotFound):
		return ErrUserNotFound, true
	case lineNotInChat:
		return ErrNotInChat, true
	case lineUsage:
		return ErrUsage, true
	}

	if name, ok := cutPrefix(line, string(CodeAlreadyInChat)+" "); ok {
		return AlreadyInChatWith(name), true
	}

	if name, ok := cutPrefix(line, string(CodeUserBusy)+" "); ok {
		return UserBusy(name), true
	}

	if rest, ok := cutPrefix(line, "ERR "); ok {
		return &Error{Code: Code(rest)}, true
	}

	return nil, false
}

func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return s, false
	}

	return s[len(prefix):], true
}
