package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luma/parley/protocol"
)

const (
	EventBufferSize = 255
)

var (
	ErrNotConnected    = errors.New("Not connected")
	ErrUnexpectedReply = errors.New("Unexpected reply from server")
)

// Conn is a client connection to a Parley server.
//
// Server lines other than the handshake are pushed to Events as they arrive.
// Replies to commands and lines caused by the chat partner share that
// channel, in the order the server sent them.
type Conn struct {
	conn   net.Conn
	reader *bufio.Reader

	writeMu sync.Mutex

	events   chan *protocol.Event
	readDone chan struct{}

	// closing is closed by Disconnect so a reader blocked on a full events
	// channel gives up
	closing   chan struct{}
	closeOnce sync.Once

	log *zap.Logger
}

func New(log *zap.Logger) *Conn {
	if log == nil {
		log = zap.NewNop()
	}

	return &Conn{
		log:     log,
		events:  make(chan *protocol.Event, EventBufferSize),
		closing: make(chan struct{}),
	}
}

func (c *Conn) Connect(ctx context.Context, addr string) error {
	var d net.Dialer

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)

	return nil
}

// Register performs the name handshake. It returns the server's refusal as a
// *protocol.Error (protocol.ErrNameTaken or protocol.ErrEmptyName), in which
// case the server has closed the connection.
func (c *Conn) Register(ctx context.Context, name string) error {
	if c.conn == nil {
		return ErrNotConnected
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return err
		}

		defer c.conn.SetReadDeadline(time.Time{})
	}

	ev, err := c.readEvent()
	if err != nil {
		return err
	}

	if ev.Type != protocol.EventWelcome {
		return fmt.Errorf("%w: %q", ErrUnexpectedReply, ev.Line)
	}

	if err := c.WriteLine(name); err != nil {
		return err
	}

	connected := false

	for {
		ev, err := c.readEvent()
		if err != nil {
			return err
		}

		switch {
		case !connected && ev.Type == protocol.EventErr:
			return ev.Err

		case ev.Type == protocol.EventConnected:
			connected = true

		case connected && ev.Line == protocol.CommandHint:
			c.readDone = make(chan struct{})
			go c.readLoop()

			return nil

		default:
			// Someone started a chat with us before the handshake finished,
			// the server may send that before CONNECTED
			if !c.push(ev) {
				return ErrNotConnected
			}
		}
	}
}

func (c *Conn) Disconnect() error {
	if c.conn == nil {
		return ErrNotConnected
	}

	c.closeOnce.Do(func() {
		close(c.closing)
	})

	err := c.conn.Close()

	if c.readDone != nil {
		<-c.readDone
	}

	return err
}

// Events is closed once the connection is gone.
func (c *Conn) Events() <-chan *protocol.Event {
	return c.events
}

func (c *Conn) Chat(target string) error {
	return c.WriteLine(protocol.ChatPrefix + " " + target)
}

func (c *Conn) Leave() error {
	return c.WriteLine("/leave")
}

func (c *Conn) Bye() error {
	return c.WriteLine("/bye")
}

// Send sends text to the current partner. text is sent as is, so a text that
// looks like a command is treated as one.
func (c *Conn) Send(text string) error {
	return c.WriteLine(text)
}

// SendTo sends text to target, starting a chat with them if needed.
func (c *Conn) SendTo(target, text string) error {
	return c.WriteLine(target + ":" + text)
}

// WriteLine sends a raw protocol line.
func (c *Conn) WriteLine(line string) error {
	if c.conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return protocol.WriteLine(c.conn, line)
}

func (c *Conn) readLoop() {
	log := c.log.Named("readLoop")

	defer func() {
		close(c.events)
		close(c.readDone)
	}()

	for {
		ev, err := c.readEvent()
		if err != nil {
			log.Debug("Connection closed", zap.Error(err))
			return
		}

		if !c.push(ev) {
			return
		}
	}
}

// push hands ev to Events. It returns false if Disconnect was called while it
// waited for room.
func (c *Conn) push(ev *protocol.Event) bool {
	select {
	case c.events <- ev:
		return true

	case <-c.closing:
		return false
	}
}

func (c *Conn) readEvent() (*protocol.Event, error) {
	line, err := protocol.ReadLine(c.reader, 0)
	if err != nil {
		return nil, err
	}

	return protocol.ParseEvent(line), nil
}
