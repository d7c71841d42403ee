package client_test

import (
	"bufio"
	"context"
	"net"
	"strings"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/parley/client"
	"github.com/luma/parley/protocol"
)

// scriptedServer accepts a single connection, reads the client's name after
// the welcome and then writes lines verbatim.
type scriptedServer struct {
	ln   net.Listener
	name chan string
	done chan struct{}
}

func startScriptedServer(lines ...string) *scriptedServer {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	s := &scriptedServer{
		ln:   ln,
		name: make(chan string, 1),
		done: make(chan struct{}),
	}

	go func() {
		defer GinkgoRecover()
		defer close(s.done)

		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		if err := protocol.WriteLine(conn, protocol.Welcome); err != nil {
			return
		}

		name, err := bufio.NewReader(conn).ReadString('\n')
		if err != nil {
			return
		}
		s.name <- strings.TrimSpace(name)

		for _, line := range lines {
			if err := protocol.WriteLine(conn, line); err != nil {
				return
			}
		}

		// Hold the connection open until the client hangs up
		_, _ = conn.Read(make([]byte, 1))
	}()

	return s
}

func (s *scriptedServer) Addr() string {
	return s.ln.Addr().String()
}

func (s *scriptedServer) Close() {
	_ = s.ln.Close()
	Eventually(s.done, "2s").Should(BeClosed())
}

var _ = Describe("client / Conn against a scripted server", func() {
	dial := func(addr string) (*client.Conn, context.Context, context.CancelFunc) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)

		c := client.New(nil)
		ExpectWithOffset(1, c.Connect(ctx, addr)).To(Succeed())

		return c, ctx, cancel
	}

	It("keeps a chat that starts before CONNECTED", func() {
		s := startScriptedServer(
			protocol.ChatStarted("alice"),
			protocol.Connected,
			protocol.CommandHint,
			protocol.From("alice", "hey"),
		)
		defer s.Close()

		c, ctx, cancel := dial(s.Addr())
		defer cancel()

		Expect(c.Register(ctx, "bob")).To(Succeed())
		defer c.Disconnect()

		Expect(s.name).To(Receive(Equal("bob")))

		var ev *protocol.Event
		Eventually(c.Events(), "2s").Should(Receive(&ev))
		Expect(ev.Type).To(Equal(protocol.EventChatStarted))
		Expect(ev.Name).To(Equal("alice"))

		Eventually(c.Events(), "2s").Should(Receive(&ev))
		Expect(ev.Type).To(Equal(protocol.EventFrom))
		Expect(ev.Text).To(Equal("hey"))
	})

	It("still reports a refused name", func() {
		s := startScriptedServer(string(protocol.CodeNameTaken))
		defer s.Close()

		c, ctx, cancel := dial(s.Addr())
		defer cancel()
		defer c.Disconnect()

		Expect(c.Register(ctx, "bob")).To(MatchError(protocol.ErrNameTaken))
	})

	It("disconnects while nobody reads the events", func() {
		lines := []string{protocol.Connected, protocol.CommandHint}
		for i := 0; i < client.EventBufferSize+45; i++ {
			lines = append(lines, protocol.From("alice", "spam"))
		}

		s := startScriptedServer(lines...)
		defer s.Close()

		c, ctx, cancel := dial(s.Addr())
		defer cancel()

		Expect(c.Register(ctx, "bob")).To(Succeed())

		// Let the reader fill the buffer and block on it
		Eventually(func() int { return len(c.Events()) }, "2s").Should(Equal(client.EventBufferSize))

		disconnected := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			defer close(disconnected)

			_ = c.Disconnect()
		}()

		Eventually(disconnected, "2s").Should(BeClosed())
	})
})
