package transport

import (
	"time"

	"go.uber.org/zap"

	"github.com/luma/parley/hub"
)

type Options struct {
	// Host to listen on
	Host string

	// Port to listen on, 0 picks a free port
	Port int

	// Reuseport controls setting SO_REUSEPORT
	Reuseport bool

	// NumListeners is only honoured with Reuseport, otherwise a single
	// listener is used
	NumListeners int

	// Trace logs every line in and out at debug level. This is only useful in
	// local debugging
	Trace bool

	// MaxLineBytes bounds a single client line. Defaults to DefaultMaxLineBytes
	MaxLineBytes int

	// WriteTimeout bounds every write to a client. Zero disables it
	WriteTimeout time.Duration

	// IdleTimeout closes connections that send nothing for this long. Zero
	// disables it
	IdleTimeout time.Duration

	Hub *hub.Hub

	Log *zap.Logger
}
