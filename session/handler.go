package session

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luma/parley/hub"
	"github.com/luma/parley/internal/metrics"
	"github.com/luma/parley/protocol"
)

// Conn is a bidirectional line stream. The session owns it and closes it
// exactly once, when it terminates.
type Conn interface {
	hub.Peer

	// ReadLine blocks until a full line is available. Any error ends the
	// session.
	ReadLine() (string, error)

	Close() error
}

type State int

const (
	AwaitName State = iota
	Active
	Terminated
)

func (s State) String() string {
	switch s {
	case AwaitName:
		return "AWAIT_NAME"
	case Active:
		return "ACTIVE"
	case Terminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

type Handler struct {
	hub *hub.Hub
	log *zap.Logger
}

func NewHandler(h *hub.Hub, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}

	return &Handler{hub: h, log: log}
}

// Serve runs a session on conn until the client says bye, fails to register,
// or the stream fails. conn is always closed when Serve returns.
func (h *Handler) Serve(conn Conn) {
	s := &session{
		conn:  conn,
		hub:   h.hub,
		log:   h.log,
		state: AwaitName,
	}

	defer s.terminate()

	if !s.handshake() {
		return
	}

	for {
		line, err := conn.ReadLine()
		if err != nil {
			s.log.Debug("Read failed, ending session", zap.Error(err))
			return
		}

		if !s.dispatch(protocol.ParseCommand(line)) {
			return
		}
	}
}

type session struct {
	conn Conn
	hub  *hub.Hub
	log  *zap.Logger

	state State

	// name is only set once it's registered in the hub
	name string

	// byeSent is set when /bye has already ended the chat
	byeSent bool
}

func (s *session) handshake() bool {
	s.send(protocol.Welcome)

	line, err := s.conn.ReadLine()
	if err != nil {
		s.log.Debug("Read failed before registering", zap.Error(err))
		return false
	}

	name := strings.TrimSpace(line)

	if err := s.hub.Register(name, s.conn); err != nil {
		s.log.Info("Registration refused", zap.String("name", name), zap.Error(err))
		s.reply(err)
		return false
	}

	s.name = name
	s.state = Active
	s.log = s.log.With(zap.String("name", name))

	s.send(protocol.Connected)
	s.send(protocol.CommandHint)

	return true
}

// dispatch handles a single command, returning false when the session should
// end.
func (s *session) dispatch(cmd protocol.Command) bool {
	kind := cmd.GetKind()
	if kind == protocol.EMPTY {
		return true
	}

	start := time.Now()
	outcome := "ok"

	defer func() {
		metrics.CommandsTotal.WithLabelValues(string(kind), outcome).Inc()
		metrics.CommandDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}()

	fail := func(err error) {
		outcome = "error"
		s.reply(err)
	}

	switch c := cmd.(type) {
	case *protocol.ByeCommand:
		s.hub.EndPairing(s.name, protocol.ReasonClosedWindow)
		s.byeSent = true
		s.send(protocol.OKBye)
		return false

	case *protocol.LeaveCommand:
		s.hub.EndPairing(s.name, protocol.ReasonLeftChat)
		s.send(protocol.OKLeft)

	case *protocol.ChatCommand:
		if c.Target == "" {
			fail(protocol.ErrUsage)
			break
		}

		started, err := s.hub.RequestPairing(s.name, c.Target)
		if err != nil {
			fail(err)
			break
		}

		if !started {
			// Already chatting with them, confirm rather than stay silent
			s.send(protocol.ChatStarted(c.Target))
		}

	case *protocol.DirectCommand:
		if _, err := s.hub.RequestPairing(s.name, c.Target); err != nil {
			fail(err)
			break
		}

		if err := s.hub.Relay(s.name, c.Text); err != nil {
			fail(err)
			break
		}

		s.send(protocol.OKSent)

	case *protocol.MessageCommand:
		if err := s.hub.Relay(s.name, c.Text); err != nil {
			fail(err)
			break
		}

		s.send(protocol.OKSent)

	default:
		s.log.Warn("Unhandled command", zap.String("kind", string(kind)))
	}

	return true
}

// terminate is the single exit path of every session: end the chat, give up
// the name, close the stream.
func (s *session) terminate() {
	if s.state == Terminated {
		return
	}

	s.state = Terminated

	if s.name != "" {
		if !s.byeSent {
			s.hub.EndPairing(s.name, protocol.ReasonDisconnected)
		}

		s.hub.Unregister(s.name)
	}

	if err := s.conn.Close(); err != nil {
		s.log.Debug("Failed to close connection cleanly", zap.Error(err))
	}

	s.log.Debug("Session terminated")
}

func (s *session) reply(err error) {
	var perr *protocol.Error
	if !errors.As(err, &perr) {
		s.log.Error("Unexpected session error", zap.Error(err))
		return
	}

	s.send(perr.Line())
}

// send is best effort. If our own stream is broken the next read fails and
// the session ends there.
func (s *session) send(line string) {
	if err := s.conn.Send(line); err != nil {
		s.log.Debug("Failed to send", zap.String("line", line), zap.Error(err))
	}
}
