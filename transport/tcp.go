package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"sync"

	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/parley/hub"
	"github.com/luma/parley/internal/metrics"
	"github.com/luma/parley/session"
)

const (
	DefaultMaxLineBytes = 4096
)

type TCP struct {
	cancel     context.CancelFunc
	stopWaiter sync.WaitGroup

	addr      string
	reuseport bool

	numListeners int
	listeners    []*TCPListener

	hub     *hub.Hub
	handler *session.Handler
	opts    connOptions

	log *zap.Logger
}

func NewTCP(options Options) *TCP {
	numListeners := options.NumListeners

	switch {
	case !options.Reuseport:
		// Only one socket can bind the port without SO_REUSEPORT
		numListeners = 1
	case numListeners < 1:
		numListeners = runtime.NumCPU()
	}

	maxLineBytes := options.MaxLineBytes
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}

	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	h := options.Hub
	if h == nil {
		h = hub.New(log.Named("hub"))
	}

	return &TCP{
		addr:         net.JoinHostPort(options.Host, strconv.Itoa(options.Port)),
		reuseport:    options.Reuseport,
		numListeners: numListeners,
		listeners:    make([]*TCPListener, 0, numListeners),
		hub:          h,
		handler:      session.NewHandler(h, log.Named("session")),
		opts: connOptions{
			maxLineBytes: maxLineBytes,
			writeTimeout: options.WriteTimeout,
			idleTimeout:  options.IdleTimeout,
			trace:        options.Trace,
		},
		log: log,
	}
}

// Start binds every listener and starts accepting connections. It returns
// once the server is listening.
func (t *TCP) Start(parentCtx context.Context) error {
	ctx, cancel := context.WithCancel(parentCtx)
	t.cancel = cancel

	t.log.Info("Starting tcp listeners", zap.Int("count", t.numListeners))

	for i := 0; i < t.numListeners; i++ {
		if err := t.startListener(ctx); err != nil {
			return multierr.Append(err, t.Close())
		}
	}

	return nil
}

func (t *TCP) Hub() *hub.Hub {
	return t.hub
}

// Addr returns the address the server is listening on, or nil before Start.
func (t *TCP) Addr() net.Addr {
	if len(t.listeners) == 0 {
		return nil
	}

	return t.listeners[0].Addr()
}

func (t *TCP) startListener(ctx context.Context) error {
	listener := NewTCPListener(
		ctx,
		t.handler,
		t.opts,
		t.log.Named("listener").With(zap.Int("listener", len(t.listeners))),
	)

	if err := listener.Listen(t.addr, t.reuseport); err != nil {
		return err
	}

	if len(t.listeners) == 0 {
		// The remaining listeners share the first one's port, even when it
		// was picked by the OS
		t.addr = listener.Addr().String()
	}

	t.listeners = append(t.listeners, listener)

	t.stopWaiter.Add(1)
	go func() {
		defer t.stopWaiter.Done()

		if err := listener.Serve(); err != nil {
			// Other listeners may still be accepting so this isn't fatal
			t.log.Error("Listener stopped accepting", zap.Error(err))
		}
	}()

	return nil
}

// Close stops accepting connections and closes every active one. Each
// session still runs its normal cleanup before Close returns.
func (t *TCP) Close() error {
	t.log.Info("Stopping TCP server")

	if t.cancel != nil {
		t.cancel()
	}

	var err error
	for _, listener := range t.listeners {
		err = multierr.Append(err, listener.Close())
	}

	t.stopWaiter.Wait()
	t.log.Info("TCP server stopped")

	return err
}

type TCPListener struct {
	ctx context.Context

	handler *session.Handler
	opts    connOptions

	listener  net.Listener
	serveDone chan struct{}

	mu          sync.Mutex
	activeConns map[*TCPConn]struct{}
	connWaiter  sync.WaitGroup

	closeOnce sync.Once

	log *zap.Logger
}

func NewTCPListener(
	ctx context.Context,
	handler *session.Handler,
	opts connOptions,
	log *zap.Logger,
) *TCPListener {
	return &TCPListener{
		ctx:         ctx,
		handler:     handler,
		opts:        opts,
		serveDone:   make(chan struct{}),
		activeConns: make(map[*TCPConn]struct{}),
		log:         log,
	}
}

func (t *TCPListener) Listen(addr string, reuse bool) (err error) {
	if reuse {
		t.listener, err = reuseport.Listen("tcp", addr)
	} else {
		t.listener, err = net.Listen("tcp", addr)
	}

	if err != nil {
		return fmt.Errorf("Failed to listen on %s: %w", addr, err)
	}

	return nil
}

func (t *TCPListener) Addr() net.Addr {
	return t.listener.Addr()
}

// Serve accepts connections until the listener is closed. Every connection
// gets its own goroutine running a session.
func (t *TCPListener) Serve() error {
	defer close(t.serveDone)

	go func() {
		<-t.ctx.Done()

		if err := t.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			t.log.Warn("TCP Listener did not close cleanly", zap.Error(err))
		}
	}()

	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				// The listener was closed while we were waiting for new
				// connections, that's fine.
				t.log.Info("Stopped accepting new connections")
				return nil
			}

			return err
		}

		metrics.ConnectionsTotal.Inc()

		tcpConn := NewTCPConn(
			t.ctx,
			conn,
			t.opts,
			t.log.Named("conn").With(zap.String("remote", conn.RemoteAddr().String())),
		)

		t.addConn(tcpConn)
		t.connWaiter.Add(1)

		go func() {
			defer t.connWaiter.Done()
			defer t.removeConn(tcpConn)

			tcpConn.Start(t.handler)
		}()
	}
}

// Close stops the listener, drops every active connection and waits for
// their sessions to finish.
func (t *TCPListener) Close() (err error) {
	t.closeOnce.Do(func() {
		if cerr := t.listener.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}

		// No more connections can be added once Serve has returned
		<-t.serveDone

		t.mu.Lock()
		conns := make([]*TCPConn, 0, len(t.activeConns))
		for conn := range t.activeConns {
			conns = append(conns, conn)
		}
		t.mu.Unlock()

		t.log.Info("Closing active connections", zap.Int("count", len(conns)))

		for _, conn := range conns {
			conn.abort()
		}

		t.connWaiter.Wait()
	})

	return err
}

func (t *TCPListener) addConn(conn *TCPConn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.activeConns[conn] = struct{}{}
}

func (t *TCPListener) removeConn(conn *TCPConn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.activeConns, conn)
}
