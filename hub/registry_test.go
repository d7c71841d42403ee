package hub_test

import (
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/parley/hub"
	"github.com/luma/parley/protocol"
)

var _ = Describe("hub / Registry", func() {
	var h *hub.Hub

	BeforeEach(func() {
		h = hub.New(nil)
	})

	Describe("Register()", func() {
		It("makes the name visible to Lookup", func() {
			alice := &recorder{}
			Expect(h.Register("alice", alice)).To(Succeed())

			peer, ok := h.Lookup("alice")
			Expect(ok).To(BeTrue())
			Expect(peer).To(BeIdenticalTo(alice))
		})

		It("rejects empty names", func() {
			Expect(h.Register("", &recorder{})).To(MatchError(protocol.ErrEmptyName))
			Expect(h.Register("   ", &recorder{})).To(MatchError(protocol.ErrEmptyName))
			Expect(h.Names()).To(BeEmpty())
		})

		It("rejects a name that is taken and keeps the original entry", func() {
			alice := &recorder{}
			Expect(h.Register("alice", alice)).To(Succeed())
			Expect(h.Register("alice", &recorder{})).To(MatchError(protocol.ErrNameTaken))

			peer, _ := h.Lookup("alice")
			Expect(peer).To(BeIdenticalTo(alice))
		})

		It("lets exactly one of many concurrent registrations win", func() {
			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				wins int
			)

			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()

					if err := h.Register("alice", &recorder{}); err == nil {
						mu.Lock()
						wins++
						mu.Unlock()
					} else {
						Expect(err).To(MatchError(protocol.ErrNameTaken))
					}
				}()
			}

			wg.Wait()
			Expect(wins).To(Equal(1))
		})
	})

	Describe("Unregister()", func() {
		It("is idempotent", func() {
			Expect(h.Register("alice", &recorder{})).To(Succeed())

			h.Unregister("alice")
			h.Unregister("alice")
			h.Unregister("nobody")

			_, ok := h.Lookup("alice")
			Expect(ok).To(BeFalse())
		})

		It("frees the name for a new client", func() {
			Expect(h.Register("alice", &recorder{})).To(Succeed())
			h.Unregister("alice")
			Expect(h.Register("alice", &recorder{})).To(Succeed())
		})

		It("ends a chat the client is still in and notifies the partner", func() {
			alice, bob := &recorder{}, &recorder{}
			Expect(h.Register("alice", alice)).To(Succeed())
			Expect(h.Register("bob", bob)).To(Succeed())
			pair(h, "alice", "bob")
			bob.Reset()

			h.Unregister("alice")

			_, paired := h.Partner("bob")
			Expect(paired).To(BeFalse())
			Expect(bob.Lines()).To(Equal([]string{
				"PEER_LEFT alice",
				"OK chat ended (peer disconnected)",
			}))
		})
	})

	Describe("Names()", func() {
		It("is sorted", func() {
			for _, name := range []string{"carol", "alice", "bob"} {
				Expect(h.Register(name, &recorder{})).To(Succeed())
			}

			Expect(h.Names()).To(Equal([]string{"alice", "bob", "carol"}))
		})

		It("never holds a name twice under churn", func() {
			var wg sync.WaitGroup

			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					name := fmt.Sprintf("user%d", i%5)

					for j := 0; j < 50; j++ {
						if h.Register(name, &recorder{}) == nil {
							h.Unregister(name)
						}
					}
				}(i)
			}

			wg.Wait()
			Expect(h.Names()).To(BeEmpty())
		})
	})
})
