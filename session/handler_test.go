package session_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/parley/hub"
	"github.com/luma/parley/protocol"
	"github.com/luma/parley/session"
)

var _ = Describe("session / Handler", func() {
	var (
		h       *hub.Hub
		handler *session.Handler
	)

	BeforeEach(func() {
		h = hub.New(nil)
		handler = session.NewHandler(h, nil)
	})

	// serve runs a session on a new pipeConn, the returned channel is closed
	// when Serve returns.
	serve := func() (*pipeConn, chan struct{}) {
		conn := newPipeConn()
		done := make(chan struct{})

		go func() {
			defer close(done)
			handler.Serve(conn)
		}()

		return conn, done
	}

	expectLines := func(conn *pipeConn, lines ...string) {
		for _, line := range lines {
			EventuallyWithOffset(1, conn.Out).Should(Receive(Equal(line)))
		}
	}

	expectNothing := func(conn *pipeConn) {
		ConsistentlyWithOffset(1, conn.Out, "100ms").ShouldNot(Receive())
	}

	// connect completes the handshake for name
	connect := func(name string) (*pipeConn, chan struct{}) {
		conn, done := serve()
		expectLines(conn, protocol.Welcome)

		conn.Type(name)
		expectLines(conn, protocol.Connected, protocol.CommandHint)

		return conn, done
	}

	Describe("AWAIT_NAME", func() {
		It("registers the trimmed name", func() {
			conn, _ := connect("  alice ")
			defer conn.Hangup()

			_, ok := h.Lookup("alice")
			Expect(ok).To(BeTrue())
		})

		It("closes the connection on an empty name", func() {
			conn, done := serve()
			expectLines(conn, protocol.Welcome)

			conn.Type("   ")
			expectLines(conn, "ERR empty name")

			Eventually(done).Should(BeClosed())
			Expect(conn.Closes()).To(Equal(1))
			Expect(h.Names()).To(BeEmpty())
		})

		It("closes the connection on a taken name and keeps the first owner", func() {
			alice, _ := connect("alice")
			defer alice.Hangup()

			impostor, done := serve()
			expectLines(impostor, protocol.Welcome)
			impostor.Type("alice")
			expectLines(impostor, "NAME_TAKEN")

			Eventually(done).Should(BeClosed())
			Expect(impostor.Closes()).To(Equal(1))

			peer, ok := h.Lookup("alice")
			Expect(ok).To(BeTrue())
			Expect(peer).To(BeIdenticalTo(alice))
		})

		It("terminates silently if the stream closes before a name is sent", func() {
			conn, done := serve()
			expectLines(conn, protocol.Welcome)

			conn.Hangup()

			Eventually(done).Should(BeClosed())
			Expect(conn.Out).NotTo(Receive())
			Expect(conn.Closes()).To(Equal(1))
		})
	})

	Describe("ACTIVE", func() {
		var alice, bob *pipeConn

		BeforeEach(func() {
			alice, _ = connect("alice")
			bob, _ = connect("bob")
		})

		AfterEach(func() {
			alice.Hangup()
			bob.Hangup()
		})

		It("ignores empty lines", func() {
			alice.Type("")
			alice.Type("   ")
			expectNothing(alice)
		})

		It("starts a chat with /chat and notifies both sides", func() {
			alice.Type("/chat bob")

			expectLines(alice, "CHAT_STARTED bob")
			expectLines(bob, "CHAT_STARTED alice")
		})

		It("relays plain messages once paired", func() {
			alice.Type("/chat bob")
			expectLines(alice, "CHAT_STARTED bob")
			expectLines(bob, "CHAT_STARTED alice")

			alice.Type("hello there")
			expectLines(bob, "FROM alice: hello there")
			expectLines(alice, "OK sent")
		})

		It("confirms /chat with the current partner without notifying them again", func() {
			alice.Type("/chat bob")
			expectLines(alice, "CHAT_STARTED bob")
			expectLines(bob, "CHAT_STARTED alice")

			alice.Type("/chat bob")
			expectLines(alice, "CHAT_STARTED bob")
			expectNothing(bob)
		})

		It("reports usage for /chat without a name", func() {
			alice.Type("/chat")
			expectLines(alice, "ERR usage: /chat <name>")
		})

		It("reports pairing errors and keeps the session open", func() {
			alice.Type("/chat alice")
			expectLines(alice, "ERR cannot chat with yourself")

			alice.Type("/chat dave")
			expectLines(alice, "USER_NOT_FOUND")

			alice.Type("/chat bob")
			expectLines(alice, "CHAT_STARTED bob")
		})

		It("refuses a message when not in a chat", func() {
			alice.Type("anyone there?")
			expectLines(alice, "ERR you are not in a chat (use /chat <name> or target:message)")
			expectNothing(bob)
		})

		It("pairs implicitly with target:message", func() {
			alice.Type("bob:hi")

			expectLines(alice, "CHAT_STARTED bob", "OK sent")
			expectLines(bob, "CHAT_STARTED alice", "FROM alice: hi")
		})

		It("relays target:message to the current partner without a pairing line", func() {
			alice.Type("/chat bob")
			expectLines(alice, "CHAT_STARTED bob")
			expectLines(bob, "CHAT_STARTED alice")

			alice.Type("bob: how are you?")
			expectLines(alice, "OK sent")
			expectLines(bob, "FROM alice: how are you?")
		})

		It("refuses target:message to someone other than the partner", func() {
			carol, _ := connect("carol")
			defer carol.Hangup()

			alice.Type("/chat bob")
			expectLines(alice, "CHAT_STARTED bob")

			alice.Type("carol:psst")
			expectLines(alice, "ALREADY_IN_CHAT_WITH bob")
			expectNothing(carol)
		})

		It("tells a third client the target is busy", func() {
			carol, _ := connect("carol")
			defer carol.Hangup()

			alice.Type("/chat bob")
			expectLines(alice, "CHAT_STARTED bob")
			expectLines(bob, "CHAT_STARTED alice")

			carol.Type("/chat bob")
			expectLines(carol, "USER_BUSY bob")

			partner, _ := h.Partner("bob")
			Expect(partner).To(Equal("alice"))
		})

		It("ends the chat with /leave and stays connected", func() {
			alice.Type("/chat bob")
			expectLines(alice, "CHAT_STARTED bob")
			expectLines(bob, "CHAT_STARTED alice")

			alice.Type("/LEAVE")
			expectLines(alice, "OK left chat")
			expectLines(bob, "PEER_LEFT alice", "OK chat ended (peer left the chat)")

			bob.Type("still there?")
			expectLines(bob, "ERR you are not in a chat (use /chat <name> or target:message)")

			alice.Type("/chat bob")
			expectLines(alice, "CHAT_STARTED bob")
		})

		It("ends the chat and the session with /bye", func() {
			carol, carolDone := connect("carol")

			carol.Type("/chat bob")
			expectLines(carol, "CHAT_STARTED bob")
			expectLines(bob, "CHAT_STARTED carol")

			carol.Type("Bye")
			expectLines(carol, "OK bye")
			expectLines(bob, "PEER_LEFT carol", "OK chat ended (peer closed the window)")

			Eventually(carolDone).Should(BeClosed())
			Expect(carol.Closes()).To(Equal(1))

			_, ok := h.Lookup("carol")
			Expect(ok).To(BeFalse())

			// No second "peer disconnected" notification
			expectNothing(bob)
		})

		It("cleans up when a paired client disconnects abruptly", func() {
			carol, carolDone := connect("carol")

			carol.Type("/chat bob")
			expectLines(carol, "CHAT_STARTED bob")
			expectLines(bob, "CHAT_STARTED carol")

			carol.Hangup()

			expectLines(bob, "PEER_LEFT carol", "OK chat ended (peer disconnected)")
			Eventually(carolDone).Should(BeClosed())
			Expect(carol.Closes()).To(Equal(1))

			_, ok := h.Lookup("carol")
			Expect(ok).To(BeFalse())

			_, ok = h.Partner("bob")
			Expect(ok).To(BeFalse())

			expectNothing(bob)
		})

		It("frees the name after a disconnect", func() {
			carol, carolDone := connect("carol")
			carol.Hangup()
			Eventually(carolDone).Should(BeClosed())

			again, _ := connect("carol")
			again.Hangup()
		})
	})
})
