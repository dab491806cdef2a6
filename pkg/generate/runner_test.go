package generate_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing/iotest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gongwen/pkg/conversation"
	"github.com/papercomputeco/gongwen/pkg/generate"
	"github.com/papercomputeco/gongwen/pkg/storage"
	"github.com/papercomputeco/gongwen/pkg/storage/inmemory"
	"github.com/papercomputeco/gongwen/pkg/transport"
	testutils "github.com/papercomputeco/gongwen/pkg/utils/test"
)

var _ = Describe("Runner", func() {
	var (
		tr     *testutils.MockTransport
		store  *inmemory.Driver
		pub    *testutils.MockPublisher
		runner *generate.Runner
		conv   *conversation.Conversation
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		tr = &testutils.MockTransport{}
		store = inmemory.NewDriver()
		pub = &testutils.MockPublisher{}
		runner, err = generate.NewRunner(generate.Config{
			Transport: tr,
			Store:     store,
			Publisher: pub,
		})
		Expect(err).NotTo(HaveOccurred())
		conv = conversation.New()
	})

	archived := func() []*storage.Record {
		recs, err := store.List(ctx, storage.ListOptions{IncludeFailed: true})
		Expect(err).NotTo(HaveOccurred())
		return recs
	}

	It("requires a transport", func() {
		_, err := generate.NewRunner(generate.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("streams a generation end to end", func() {
		tr.Body = testutils.Stream(
			testutils.Chunk("尊敬的"),
			testutils.Chunk("各位"),
			testutils.Frame("metadata", map[string]any{"filename": "out.docx", "conv_id": 42}),
		)

		out := runner.Run(ctx, conv, "写一个通知", generate.Options{})
		Expect(out.Err).NotTo(HaveOccurred())
		Expect(out.Message.Content).To(Equal("尊敬的各位"))
		Expect(out.Message.DocxFile).To(Equal("out.docx"))
		Expect(out.Metadata.ConvID).To(Equal("42"))

		Expect(conv.State()).To(Equal(conversation.StateIdle))
		Expect(conv.Preview()).To(Equal("尊敬的各位"))
		Expect(conv.ConvID()).To(Equal("42"))

		msgs := conv.Messages()
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[0].Content).To(Equal("写一个通知"))
		Expect(msgs[1]).To(Equal(out.Message))

		req := tr.LastRequest()
		Expect(req.DocType).To(Equal(generate.DefaultDocType))
		Expect(req.UserInput).To(Equal("写一个通知"))
		Expect(req.ConvID).To(BeEmpty())
	})

	It("reuses the learned conversation id on the next send", func() {
		tr.Body = testutils.Stream(
			testutils.Chunk("一"),
			testutils.Frame("metadata", map[string]any{"conv_id": "c-9"}),
		)
		Expect(runner.Run(ctx, conv, "first", generate.Options{}).Err).NotTo(HaveOccurred())

		tr.Body = testutils.Stream(testutils.Chunk("二"))
		Expect(runner.Run(ctx, conv, "second", generate.Options{DocType: "请示", TemplateID: "t1"}).Err).NotTo(HaveOccurred())

		req := tr.LastRequest()
		Expect(req.ConvID).To(Equal("c-9"))
		Expect(req.DocType).To(Equal("请示"))
		Expect(req.TemplateID).To(Equal("t1"))
		Expect(conv.Messages()).To(HaveLen(4))
	})

	It("falls back to the runner defaults for doc type and template", func() {
		var got transport.GenerateRequest
		fn := transport.Func(func(_ context.Context, req transport.GenerateRequest) (io.ReadCloser, error) {
			got = req
			return io.NopCloser(strings.NewReader(testutils.Stream(testutils.Chunk("正文")))), nil
		})
		r, err := generate.NewRunner(generate.Config{Transport: fn, DocType: "报告", TemplateID: "t7"})
		Expect(err).NotTo(HaveOccurred())

		out := r.Run(ctx, conv, "年度总结", generate.Options{})
		Expect(out.Err).NotTo(HaveOccurred())
		Expect(got.DocType).To(Equal("报告"))
		Expect(got.TemplateID).To(Equal("t7"))
		Expect(got.UserInput).To(Equal("年度总结"))
	})

	It("survives malformed fragments", func() {
		tr.Body = "event: message\ndata: {broken\n\ndata: \n\n" + testutils.Chunk("ok")

		out := runner.Run(ctx, conv, "x", generate.Options{})
		Expect(out.Err).NotTo(HaveOccurred())
		Expect(out.Message.Content).To(Equal("ok"))
		Expect(out.Skipped).To(Equal(2))
	})

	It("replaces the reply when the backend signals an error", func() {
		tr.Body = testutils.Stream(
			testutils.Chunk("部分"),
			testutils.Frame("error", map[string]string{"detail": "模型超时"}),
			testutils.Chunk("ignored"),
		)

		out := runner.Run(ctx, conv, "x", generate.Options{})
		var backendErr *generate.BackendError
		Expect(errors.As(out.Err, &backendErr)).To(BeTrue())
		Expect(backendErr.Detail).To(Equal("模型超时"))

		Expect(out.Message.Failed).To(BeTrue())
		Expect(out.Message.Content).To(Equal(conversation.ErrorMarker + "模型超时"))
		Expect(conv.Preview()).To(Equal("部分"))
		Expect(conv.State()).To(Equal(conversation.StateIdle))
	})

	It("reports an empty stream as a failure", func() {
		tr.Body = testutils.Stream(testutils.Chunk("   "))

		out := runner.Run(ctx, conv, "x", generate.Options{})
		Expect(out.Err).To(MatchError(conversation.ErrEmptyResult))
		Expect(out.Message.Content).To(Equal(conversation.ErrorMarker + conversation.EmptyResultDetail))
		Expect(conv.State()).To(Equal(conversation.StateIdle))
	})

	It("aborts with the backend detail on transport failure", func() {
		tr.Err = &transport.StatusError{StatusCode: http.StatusUnauthorized, Detail: "未登录"}

		out := runner.Run(ctx, conv, "x", generate.Options{})
		var statusErr *transport.StatusError
		Expect(errors.As(out.Err, &statusErr)).To(BeTrue())
		Expect(out.Message.Content).To(Equal(conversation.ErrorMarker + "未登录"))
		Expect(out.Message.Failed).To(BeTrue())
		Expect(conv.State()).To(Equal(conversation.StateIdle))

		// the view stays usable
		tr.Err = nil
		tr.Body = testutils.Chunk("retry")
		Expect(runner.Run(ctx, conv, "again", generate.Options{}).Err).NotTo(HaveOccurred())
	})

	It("aborts when the stream breaks mid-way", func() {
		tr.Reader = io.NopCloser(io.MultiReader(
			strings.NewReader(testutils.Chunk("half")),
			iotest.ErrReader(errors.New("connection reset")),
		))

		out := runner.Run(ctx, conv, "x", generate.Options{})
		Expect(out.Err).To(MatchError(ContainSubstring("connection reset")))
		Expect(out.Message.Failed).To(BeTrue())
		Expect(conv.Preview()).To(Equal("half"))
		Expect(conv.State()).To(Equal(conversation.StateIdle))
	})

	It("does not start while another generation is in flight", func() {
		_, err := conv.BeginSend("busy")
		Expect(err).NotTo(HaveOccurred())

		out := runner.Run(ctx, conv, "x", generate.Options{})
		Expect(out.Err).To(MatchError(conversation.ErrSendInFlight))
		Expect(tr.Requests).To(BeEmpty())
		Expect(conv.Messages()).To(HaveLen(2))
	})

	It("tees the raw stream", func() {
		tr.Body = testutils.Chunk("a")
		var raw strings.Builder

		out := runner.Run(ctx, conv, "x", generate.Options{RawTee: &raw})
		Expect(out.Err).NotTo(HaveOccurred())
		Expect(raw.String()).To(Equal(tr.Body))
	})

	Context("cancellation", func() {
		var (
			pr *io.PipeReader
			pw *io.PipeWriter
		)

		BeforeEach(func() {
			pr, pw = io.Pipe()
			tr.Reader = pr
		})

		AfterEach(func() {
			_ = pw.Close()
		})

		It("discards the session of a closed view", func() {
			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan generate.Outcome, 1)
			go func() {
				done <- runner.Run(runCtx, conv, "x", generate.Options{})
			}()

			_, err := pw.Write([]byte(testutils.Chunk("partial")))
			Expect(err).NotTo(HaveOccurred())
			Eventually(conv.Preview).Should(Equal("partial"))

			conv.Close()
			cancel()

			var out generate.Outcome
			Eventually(done).Should(Receive(&out))
			Expect(out.Canceled()).To(BeTrue())
			Expect(conv.State()).To(Equal(conversation.StateIdle))
			Expect(conv.Messages()[1].Content).To(Equal("partial"))
			Expect(archived()).To(BeEmpty())
			Expect(pub.Published()).To(BeEmpty())
		})

		It("leaves a cancellation notice in an open view", func() {
			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan generate.Outcome, 1)
			go func() {
				done <- runner.Run(runCtx, conv, "x", generate.Options{})
			}()

			Eventually(conv.State).Should(Equal(conversation.StateSending))
			cancel()

			var out generate.Outcome
			Eventually(done, time.Second).Should(Receive(&out))
			Expect(out.Err).To(MatchError(generate.ErrCanceled))
			Expect(out.Message.Content).To(Equal(conversation.ErrorMarker + generate.CanceledDetail))
			Expect(conv.State()).To(Equal(conversation.StateIdle))
		})
	})

	Describe("sinks", func() {
		It("archives and publishes successful generations", func() {
			tr.Body = testutils.Stream(
				testutils.Chunk("正文"),
				testutils.Frame("metadata", map[string]any{"filename": "a.docx", "conv_id": "c1", "doc_id": 5}),
			)

			out := runner.Run(ctx, conv, "写", generate.Options{})
			Expect(out.Err).NotTo(HaveOccurred())

			recs := archived()
			Expect(recs).To(HaveLen(1))
			Expect(recs[0].ConvID).To(Equal("c1"))
			Expect(recs[0].DocID).To(Equal("5"))
			Expect(recs[0].Content).To(Equal("正文"))
			Expect(recs[0].DocxFile).To(Equal("a.docx"))
			Expect(recs[0].Failed).To(BeFalse())

			events := pub.Published()
			Expect(events).To(HaveLen(1))
			Expect(events[0].Result.Chars).To(Equal(2))
			Expect(events[0].Result.Failed).To(BeFalse())
			Expect(events[0].Request.ConvID).To(Equal("c1"))
		})

		It("records failures as failed", func() {
			tr.Err = errors.New("dial tcp: refused")

			runner.Run(ctx, conv, "写", generate.Options{})

			recs := archived()
			Expect(recs).To(HaveLen(1))
			Expect(recs[0].Failed).To(BeTrue())

			events := pub.Published()
			Expect(events).To(HaveLen(1))
			Expect(events[0].Result.Failed).To(BeTrue())
			Expect(events[0].Result.Error).To(ContainSubstring("refused"))
		})

		It("does not fail the run when a sink fails", func() {
			pub.Err = errors.New("broker down")
			tr.Body = testutils.Chunk("ok")

			out := runner.Run(ctx, conv, "x", generate.Options{})
			Expect(out.Err).NotTo(HaveOccurred())
			Expect(archived()).To(HaveLen(1))
		})
	})
})
