package conversation_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gongwen/pkg/conversation"
	"github.com/papercomputeco/gongwen/pkg/protocol"
)

// counterIDs returns a deterministic IDSource starting at 1.
func counterIDs() conversation.IDSource {
	var n int64
	return func() int64 {
		n++
		return n
	}
}

func chunk(s string) *protocol.MessageEvent {
	return &protocol.MessageEvent{Chunk: s}
}

var _ = Describe("Conversation", func() {
	var conv *conversation.Conversation

	BeforeEach(func() {
		conv = conversation.New(conversation.WithIDSource(counterIDs()))
	})

	Describe("BeginSend", func() {
		It("appends the user message and an empty placeholder", func() {
			id, err := conv.BeginSend("写一个通知")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(int64(2)))

			msgs := conv.Messages()
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0]).To(Equal(conversation.Message{ID: 1, Role: conversation.RoleUser, Content: "写一个通知"}))
			Expect(msgs[1]).To(Equal(conversation.Message{ID: 2, Role: conversation.RoleAssistant}))
			Expect(conv.State()).To(Equal(conversation.StateSending))
			Expect(conv.Preview()).To(BeEmpty())
		})

		It("clears the preview of the previous generation", func() {
			_, _ = conv.BeginSend("a")
			conv.ApplyEvent(chunk("first"))
			_, err := conv.CompleteSend()
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.Preview()).To(Equal("first"))

			_, err = conv.BeginSend("b")
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.Preview()).To(BeEmpty())
		})

		It("refuses a second concurrent send without touching the list", func() {
			_, err := conv.BeginSend("first")
			Expect(err).NotTo(HaveOccurred())
			before := conv.Messages()
			session, _ := conv.Session()

			_, err = conv.BeginSend("second")
			Expect(err).To(MatchError(conversation.ErrSendInFlight))
			Expect(conv.Messages()).To(Equal(before))

			after, ok := conv.Session()
			Expect(ok).To(BeTrue())
			Expect(after.PlaceholderID).To(Equal(session.PlaceholderID))
		})
	})

	Describe("ApplyEvent", func() {
		It("accumulates chunks in arrival order", func() {
			id, _ := conv.BeginSend("q")
			for _, c := range []string{"尊敬的", "各位", "同事：", "\n", "现将有关事项通知如下。"} {
				conv.ApplyEvent(chunk(c))
			}

			session, ok := conv.Session()
			Expect(ok).To(BeTrue())
			Expect(session.PlaceholderID).To(Equal(id))
			Expect(session.Accumulated).To(Equal("尊敬的各位同事：\n现将有关事项通知如下。"))
			Expect(conv.Messages()[1].Content).To(Equal(session.Accumulated))
			Expect(conv.Preview()).To(Equal(session.Accumulated))
		})

		It("treats blank chunks as no-ops", func() {
			_, _ = conv.BeginSend("q")
			conv.ApplyEvent(chunk("text"))

			conv.ApplyEvent(chunk(""))
			conv.ApplyEvent(chunk("   \t"))

			Expect(conv.Messages()[1].Content).To(Equal("text"))
			Expect(conv.Preview()).To(Equal("text"))
		})

		It("merges metadata without touching content or preview", func() {
			_, _ = conv.BeginSend("q")
			conv.ApplyEvent(chunk("body"))
			conv.ApplyEvent(&protocol.MetadataEvent{Metadata: protocol.Metadata{Filename: "a.docx", ConvID: "42"}})

			session, _ := conv.Session()
			Expect(session.Metadata.Filename).To(Equal("a.docx"))
			Expect(conv.ConvID()).To(Equal("42"))
			Expect(conv.Messages()[1].Content).To(Equal("body"))
			Expect(conv.Messages()[1].DocxFile).To(BeEmpty())
			Expect(conv.Preview()).To(Equal("body"))
		})

		It("replaces the placeholder on an error event and ends the session", func() {
			_, _ = conv.BeginSend("q")
			conv.ApplyEvent(chunk("partial"))
			conv.ApplyEvent(&protocol.ErrorEvent{Detail: "boom"})

			msg := conv.Messages()[1]
			Expect(msg.Content).To(Equal(conversation.ErrorMarker + "boom"))
			Expect(msg.Content).NotTo(ContainSubstring("partial"))
			Expect(msg.Failed).To(BeTrue())
			Expect(conv.Preview()).To(Equal("partial"))
			Expect(conv.State()).To(Equal(conversation.StateIdle))

			_, err := conv.BeginSend("retry")
			Expect(err).NotTo(HaveOccurred())
		})

		It("ignores events while idle", func() {
			conv.ApplyEvent(chunk("stray"))
			conv.ApplyEvent(&protocol.ErrorEvent{Detail: "stray"})

			Expect(conv.Messages()).To(BeEmpty())
			Expect(conv.Preview()).To(BeEmpty())
		})

		It("ignores events after the session completed", func() {
			_, _ = conv.BeginSend("q")
			conv.ApplyEvent(chunk("done"))
			_, _ = conv.CompleteSend()

			conv.ApplyEvent(chunk(" more"))
			Expect(conv.Messages()[1].Content).To(Equal("done"))
		})
	})

	Describe("CompleteSend", func() {
		It("attaches the last metadata filename", func() {
			_, _ = conv.BeginSend("q")
			conv.ApplyEvent(chunk("text"))
			conv.ApplyEvent(&protocol.MetadataEvent{Metadata: protocol.Metadata{Filename: "a.docx"}})
			conv.ApplyEvent(&protocol.MetadataEvent{Metadata: protocol.Metadata{Filename: "b.docx"}})

			final, err := conv.CompleteSend()
			Expect(err).NotTo(HaveOccurred())
			Expect(final.DocxFile).To(Equal("b.docx"))
			Expect(final.Content).To(Equal("text"))
			Expect(conv.Messages()[1]).To(Equal(final))
			Expect(conv.Preview()).To(Equal("text"))
			Expect(conv.State()).To(Equal(conversation.StateIdle))
		})

		It("leaves DocxFile empty without metadata", func() {
			_, _ = conv.BeginSend("q")
			conv.ApplyEvent(chunk("text"))

			final, err := conv.CompleteSend()
			Expect(err).NotTo(HaveOccurred())
			Expect(final.DocxFile).To(BeEmpty())
		})

		It("rejects an empty result", func() {
			_, _ = conv.BeginSend("q")
			conv.ApplyEvent(chunk("  "))
			conv.ApplyEvent(&protocol.MetadataEvent{Metadata: protocol.Metadata{Filename: "a.docx"}})

			final, err := conv.CompleteSend()
			Expect(err).To(MatchError(conversation.ErrEmptyResult))
			Expect(final.Content).To(Equal(conversation.ErrorMarker + conversation.EmptyResultDetail))
			Expect(final.DocxFile).To(BeEmpty())
			Expect(final.Failed).To(BeTrue())
			Expect(conv.State()).To(Equal(conversation.StateIdle))
		})

		It("fails when no session is active", func() {
			_, err := conv.CompleteSend()
			Expect(err).To(MatchError(conversation.ErrNoSession))
		})
	})

	Describe("AbortSend", func() {
		It("substitutes the reason and clears the session", func() {
			_, _ = conv.BeginSend("q")
			conv.ApplyEvent(chunk("partial"))

			final, err := conv.AbortSend("status 502")
			Expect(err).NotTo(HaveOccurred())
			Expect(final.Content).To(Equal(conversation.ErrorMarker + "status 502"))
			Expect(conv.State()).To(Equal(conversation.StateIdle))
			Expect(conv.Messages()).To(HaveLen(2))
			Expect(conv.Messages()[0].Content).To(Equal("q"))
		})

		It("uses a generic reason when none is given", func() {
			_, _ = conv.BeginSend("q")

			final, err := conv.AbortSend(" ")
			Expect(err).NotTo(HaveOccurred())
			Expect(final.Content).To(Equal(conversation.ErrorMarker + protocol.DefaultErrorDetail))
		})

		It("fails when no session is active", func() {
			_, err := conv.AbortSend("x")
			Expect(err).To(MatchError(conversation.ErrNoSession))
		})
	})

	Describe("Close", func() {
		It("discards the session and ignores later mutations", func() {
			_, _ = conv.BeginSend("q")
			conv.ApplyEvent(chunk("partial"))
			conv.Close()

			conv.ApplyEvent(chunk(" late"))
			_, err := conv.CompleteSend()
			Expect(err).To(MatchError(conversation.ErrClosed))
			_, err = conv.AbortSend("late")
			Expect(err).To(MatchError(conversation.ErrClosed))
			_, err = conv.BeginSend("again")
			Expect(err).To(MatchError(conversation.ErrClosed))

			Expect(conv.Closed()).To(BeTrue())
			Expect(conv.State()).To(Equal(conversation.StateIdle))
			Expect(conv.Messages()[1].Content).To(Equal("partial"))
		})

		It("can race with a stream being applied", func() {
			_, _ = conv.BeginSend("q")

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 1000 {
					conv.ApplyEvent(chunk("x"))
				}
			}()
			conv.Close()
			wg.Wait()

			Expect(conv.Closed()).To(BeTrue())
		})
	})

	Describe("Reset", func() {
		It("loads another conversation while idle", func() {
			history := []conversation.Message{
				{ID: 10, Role: conversation.RoleUser, Content: "q"},
				{ID: 11, Role: conversation.RoleAssistant, Content: "answer", DocxFile: "x.docx"},
			}

			Expect(conv.Reset("7", history)).To(Succeed())
			Expect(conv.ConvID()).To(Equal("7"))
			Expect(conv.Messages()).To(Equal(history))
			Expect(conv.Preview()).To(Equal("answer"))
		})

		It("is refused while sending", func() {
			_, _ = conv.BeginSend("q")
			Expect(conv.Reset("7", nil)).To(MatchError(conversation.ErrSendInFlight))
		})
	})

	Describe("WithHistory", func() {
		It("previews the last successful assistant message", func() {
			c := conversation.New(conversation.WithHistory("3", []conversation.Message{
				{ID: 1, Role: conversation.RoleAssistant, Content: "good"},
				{ID: 2, Role: conversation.RoleUser, Content: "again"},
				{ID: 3, Role: conversation.RoleAssistant, Content: conversation.ErrorMarker + "x", Failed: true},
			}))

			Expect(c.Preview()).To(Equal("good"))
			Expect(c.ConvID()).To(Equal("3"))
		})
	})

	Describe("Subscribe", func() {
		It("notifies listeners with snapshots after each change", func() {
			var snaps []conversation.Snapshot
			conv.Subscribe(func(s conversation.Snapshot) {
				snaps = append(snaps, s)
			})

			_, _ = conv.BeginSend("q")
			conv.ApplyEvent(chunk("a"))
			conv.ApplyEvent(chunk(" "))
			conv.ApplyEvent(chunk("b"))
			_, _ = conv.CompleteSend()

			Expect(snaps).To(HaveLen(4))
			Expect(snaps[0].State).To(Equal(conversation.StateSending))
			Expect(snaps[1].Preview).To(Equal("a"))
			Expect(snaps[2].Preview).To(Equal("ab"))
			Expect(snaps[3].State).To(Equal(conversation.StateIdle))
		})

		It("lets listeners read the conversation without deadlocking", func() {
			var states []conversation.State
			conv.Subscribe(func(conversation.Snapshot) {
				states = append(states, conv.State())
			})

			_, _ = conv.BeginSend("q")
			Expect(states).To(Equal([]conversation.State{conversation.StateSending}))
		})
	})
})

var _ = Describe("NextID", func() {
	It("is strictly increasing", func() {
		prev := conversation.NextID()
		for range 100 {
			next := conversation.NextID()
			Expect(next).To(BeNumerically(">", prev))
			prev = next
		}
	})
})

var _ = Describe("State", func() {
	It("has readable names", func() {
		Expect(conversation.StateIdle.String()).To(Equal("idle"))
		Expect(conversation.StateSending.String()).To(Equal("sending"))
	})
})
