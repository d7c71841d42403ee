package hub

import (
	"go.uber.org/zap"

	"github.com/luma/parley/internal/metrics"
	"github.com/luma/parley/protocol"
)

// Relay forwards text from sender to its current partner as
// `FROM <sender>: <text>`. It fails with protocol.ErrNotInChat if sender has
// no partner. A failed send to the partner is not an error for the sender.
func (h *Hub) Relay(sender, text string) error {
	d, err := h.route(sender, protocol.From(sender, text))
	if err != nil {
		if d.to != "" {
			// Can't happen while Unregister ends chats, but never relay into the void
			h.log.Warn("Partner missing from registry",
				zap.String("sender", sender),
				zap.String("partner", d.to))
		}

		return err
	}

	h.deliver(d)
	metrics.RelayedTotal.Inc()

	return nil
}

func (h *Hub) route(sender, line string) (delivery, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	partner, ok := h.pairs[sender]
	if !ok {
		return delivery{}, protocol.ErrNotInChat
	}

	peer, ok := h.clients[partner]
	if !ok {
		return delivery{to: partner}, protocol.ErrNotInChat
	}

	return delivery{to: partner, peer: peer, lines: []string{line}}, nil
}
