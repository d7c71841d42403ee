package transport

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luma/parley/protocol"
	"github.com/luma/parley/session"
)

const (
	WriteQueueSize = 127
)

var ErrConnClosed = errors.New("Connection is closed")

type connOptions struct {
	maxLineBytes int
	writeTimeout time.Duration
	idleTimeout  time.Duration
	trace        bool
}

// TCPConn is a session.Conn over a TCP socket. Reads happen on the session's
// goroutine, writes are queued and performed by a dedicated write loop so
// that lines keep the order they were sent in.
type TCPConn struct {
	ctx    context.Context
	cancel context.CancelFunc

	conn   net.Conn
	reader *bufio.Reader
	opts   connOptions

	// mu guards closed and closing writeQueue. Senders hold the read lock.
	mu         sync.RWMutex
	closed     bool
	writeQueue chan []byte
	writeDone  chan struct{}

	closeOnce sync.Once

	log *zap.Logger
}

func NewTCPConn(
	parentCtx context.Context,
	conn net.Conn,
	opts connOptions,
	log *zap.Logger,
) *TCPConn {
	ctx, cancel := context.WithCancel(parentCtx)

	return &TCPConn{
		ctx:        ctx,
		cancel:     cancel,
		conn:       conn,
		reader:     bufio.NewReader(conn),
		opts:       opts,
		writeQueue: make(chan []byte, WriteQueueSize),
		writeDone:  make(chan struct{}),
		log:        log,
	}
}

// Start runs a session on the connection and returns when it has ended and
// the connection is closed.
func (t *TCPConn) Start(handler *session.Handler) {
	go t.WriteLoop()

	// Serve always closes the connection
	handler.Serve(t)
}

func (t *TCPConn) ReadLine() (string, error) {
	if t.opts.idleTimeout > 0 {
		if err := t.conn.SetReadDeadline(time.Now().Add(t.opts.idleTimeout)); err != nil {
			return "", err
		}
	}

	line, err := protocol.ReadLine(t.reader, t.opts.maxLineBytes)
	if err != nil {
		return "", err
	}

	if t.opts.trace {
		t.log.Debug("Read line", zap.String("line", line))
	}

	return line, nil
}

// Send queues line for the write loop. It only blocks while the queue is
// full.
func (t *TCPConn) Send(line string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return ErrConnClosed
	}

	select {
	case t.writeQueue <- protocol.Frame(line):
		return nil

	case <-t.ctx.Done():
		return ErrConnClosed
	}
}

func (t *TCPConn) WriteLoop() {
	log := t.log.Named("writeLoop")
	defer close(t.writeDone)

	for data := range t.writeQueue {
		if !t.isRunning() {
			// Aborted, drain the queue without writing
			continue
		}

		if t.opts.writeTimeout > 0 {
			if err := t.conn.SetWriteDeadline(time.Now().Add(t.opts.writeTimeout)); err != nil {
				log.Debug("Failed to set write deadline", zap.Error(err))
			}
		}

		if _, err := t.conn.Write(data); err != nil {
			log.Debug("Failed to write, dropping connection", zap.Error(err))

			// The session notices on its next read and cleans up
			t.abort()
			continue
		}

		if t.opts.trace {
			log.Debug("Wrote line", zap.ByteString("line", data))
		}
	}
}

// Close flushes queued lines and closes the socket. Only the first call does
// anything.
func (t *TCPConn) Close() (err error) {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		close(t.writeQueue)
		t.mu.Unlock()

		<-t.writeDone
		t.cancel()

		if cerr := t.conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	})

	return err
}

// abort drops the connection without flushing. A blocked ReadLine fails,
// which ends the session and runs its cleanup.
func (t *TCPConn) abort() {
	t.cancel()
	_ = t.conn.Close()
}

// isRunning returns true if the connection hasn't been aborted or closed
func (t *TCPConn) isRunning() bool {
	select {
	case <-t.ctx.Done():
		return false

	default:
		return true
	}
}

var _ session.Conn = (*TCPConn)(nil)
