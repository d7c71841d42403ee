package hub

import (
	"go.uber.org/zap"

	"github.com/luma/parley/protocol"
)

// RequestPairing pairs requester with target. The checks run in this order,
// all under one critical section:
//
//  1. requester == target              -> protocol.ErrCannotPairSelf
//  2. target isn't registered          -> protocol.ErrUserNotFound
//  3. requester is paired with someone -> protocol.AlreadyInChatWith(partner)
//     else
//  4. target is paired with someone    -> protocol.UserBusy(target)
//     else
//
// Asking for the partner you are already paired with succeeds without doing
// anything, started is false in that case. A new pairing sends CHAT_STARTED to
// both sides before returning.
func (h *Hub) RequestPairing(requester, target string) (started bool, err error) {
	ds, err := h.pair(requester, target)
	if err != nil || len(ds) == 0 {
		return false, err
	}

	h.log.Info("Chat started",
		zap.String("requester", requester),
		zap.String("target", target))

	h.deliver(ds...)
	return true, nil
}

func (h *Hub) pair(requester, target string) ([]delivery, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if requester == target {
		return nil, protocol.ErrCannotPairSelf
	}

	targetPeer, ok := h.clients[target]
	if !ok {
		return nil, protocol.ErrUserNotFound
	}

	if current, ok := h.pairs[requester]; ok {
		if current != target {
			return nil, protocol.AlreadyInChatWith(current)
		}

		// Already chatting with target
		return nil, nil
	}

	if current, ok := h.pairs[target]; ok && current != requester {
		return nil, protocol.UserBusy(target)
	}

	h.pairs[requester] = target
	h.pairs[target] = requester
	h.updateGaugesLocked()

	return []delivery{
		{to: requester, peer: h.clients[requester], lines: []string{protocol.ChatStarted(target)}},
		{to: target, peer: targetPeer, lines: []string{protocol.ChatStarted(requester)}},
	}, nil
}

// EndPairing ends name's chat, if any, and tells the partner why. Both
// directions are removed together, so calling it again, or concurrently from
// the partner's session, is a no-op.
func (h *Hub) EndPairing(name, reason string) (partner string, ended bool) {
	h.mu.Lock()
	partner, ended = h.pairs[name]
	d, notify := h.unpairLocked(name, reason)
	h.mu.Unlock()

	if notify {
		h.logChatEnded(name, partner, reason)
		h.deliver(d)
	}

	return partner, ended
}

// unpairLocked removes name's pairing, returning the notification for the
// partner. The bool is false if there was nothing to remove.
func (h *Hub) unpairLocked(name, reason string) (delivery, bool) {
	partner, ok := h.pairs[name]
	if !ok {
		return delivery{}, false
	}

	delete(h.pairs, name)
	delete(h.pairs, partner)
	h.updateGaugesLocked()

	return delivery{
		to:    partner,
		peer:  h.clients[partner],
		lines: []string{protocol.PeerLeft(name), protocol.ChatEnded(reason)},
	}, true
}

func (h *Hub) logChatEnded(name, partner, reason string) {
	h.log.Info("Chat ended",
		zap.String("name", name),
		zap.String("partner", partner),
		zap.String("reason", reason))
}

// Partner returns the name that name is currently chatting with.
func (h *Hub) Partner(name string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	partner, ok := h.pairs[name]
	return partner, ok
}
