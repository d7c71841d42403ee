package hub

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/parley/internal/metrics"
)

// Peer is the handle the hub uses to push lines to a connected client.
//
// Send must not block for long: the hub calls it after releasing its lock, but
// still from the goroutine of the session that caused the notification.
type Peer interface {
	Send(line string) error
}

// Hub owns the registry (name -> peer) and the pairing table (name -> partner
// name). Both maps are only read or written with mu held, and mu is never held
// while sending to a peer.
type Hub struct {
	mu      sync.Mutex
	clients map[string]Peer
	pairs   map[string]string

	log *zap.Logger
}

func New(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}

	return &Hub{
		clients: make(map[string]Peer),
		pairs:   make(map[string]string),
		log:     log,
	}
}

// delivery is a batch of lines for one peer, collected under the lock and
// sent after it is released.
type delivery struct {
	to    string
	peer  Peer
	lines []string
}

// deliver sends every batch in order. Failures are best effort: they're
// logged and counted, never returned to the caller.
func (h *Hub) deliver(ds ...delivery) {
	var err error

	for _, d := range ds {
		if d.peer == nil {
			continue
		}

		for _, line := range d.lines {
			if serr := d.peer.Send(line); serr != nil {
				metrics.DroppedSendsTotal.Inc()
				err = multierr.Append(err, fmt.Errorf("send to %s: %w", d.to, serr))

				// The rest would fail in the same way
				break
			}
		}
	}

	if err != nil {
		h.log.Debug("Failed to notify peers", zap.Error(err))
	}
}

// Names returns the registered names in sorted order.
func (h *Hub) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.namesLocked()
}

func (h *Hub) namesLocked() []string {
	names := make([]string, 0, len(h.clients))
	for name := range h.clients {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// updateGaugesLocked must be called with mu held after any mutation.
func (h *Hub) updateGaugesLocked() {
	metrics.RegisteredClients.Set(float64(len(h.clients)))
	metrics.ActivePairings.Set(float64(len(h.pairs) / 2))
}
