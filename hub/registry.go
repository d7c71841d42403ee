package hub

import (
	"strings"

	"go.uber.org/zap"

	"github.com/luma/parley/protocol"
)

// Register binds name to peer. It fails with protocol.ErrEmptyName or
// protocol.ErrNameTaken. On success the name is immediately visible to every
// other session.
func (h *Hub) Register(name string, peer Peer) error {
	if strings.TrimSpace(name) == "" {
		return protocol.ErrEmptyName
	}

	h.mu.Lock()
	if _, taken := h.clients[name]; taken {
		h.mu.Unlock()
		return protocol.ErrNameTaken
	}

	h.clients[name] = peer
	h.updateGaugesLocked()
	h.mu.Unlock()

	h.log.Info("Client registered", zap.String("name", name))

	return nil
}

// Unregister removes name from the registry. It's a no-op if name isn't
// registered.
//
// A chat that still involves name is ended as if the client disconnected, so
// that no pairing ever outlives one of its registry entries.
func (h *Hub) Unregister(name string) {
	h.mu.Lock()
	_, registered := h.clients[name]
	delete(h.clients, name)

	d, ended := h.unpairLocked(name, protocol.ReasonDisconnected)
	h.updateGaugesLocked()
	h.mu.Unlock()

	if registered {
		h.log.Info("Client unregistered", zap.String("name", name))
	}

	if ended {
		h.logChatEnded(name, d.to, protocol.ReasonDisconnected)
		h.deliver(d)
	}
}

// Lookup returns the peer registered under name.
func (h *Hub) Lookup(name string) (Peer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	peer, ok := h.clients[name]
	return peer, ok
}
