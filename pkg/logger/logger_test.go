package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gongwen/pkg/logger"
)

// decodeJSON parses the single JSON record in buf.
func decodeJSON(buf *bytes.Buffer) map[string]any {
	var rec map[string]any
	ExpectWithOffset(1, json.Unmarshal(buf.Bytes(), &rec)).To(Succeed())
	return rec
}

// failingHandler accepts every record and fails to write it.
type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("disk full")
}

var _ = Describe("New", func() {
	It("writes text records at info level by default", func() {
		var buf bytes.Buffer
		log := logger.New(logger.WithWriter(&buf))
		log.Info("generation finished", "conv_id", "42")
		log.Debug("chunk applied")

		Expect(buf.String()).To(ContainSubstring("generation finished"))
		Expect(buf.String()).To(ContainSubstring("conv_id=42"))
		Expect(buf.String()).NotTo(ContainSubstring("chunk applied"))
	})

	It("logs debug records with WithDebug", func() {
		var buf bytes.Buffer
		log := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))
		log.Debug("chunk applied", "bytes", 12)

		Expect(buf.String()).To(ContainSubstring("chunk applied"))
	})

	It("writes JSON records with WithJSON", func() {
		var buf bytes.Buffer
		log := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
		log.Warn("skipping malformed data line", "line", 3)

		rec := decodeJSON(&buf)
		Expect(rec["msg"]).To(Equal("skipping malformed data line"))
		Expect(rec["level"]).To(Equal("WARN"))
		Expect(rec["line"]).To(BeNumerically("==", 3))
	})

	It("prefers JSON over pretty output", func() {
		var buf bytes.Buffer
		log := logger.New(logger.WithWriter(&buf), logger.WithPretty(true), logger.WithJSON(true))
		log.Info("both")

		Expect(decodeJSON(&buf)["msg"]).To(Equal("both"))
	})

	It("renders pretty records, including debug ones when enabled", func() {
		var buf bytes.Buffer
		log := logger.New(logger.WithWriter(&buf), logger.WithPretty(true), logger.WithDebug(true))
		log.Info("stream opened")
		log.Debug("event decoded", "event", "metadata")

		Expect(buf.String()).To(ContainSubstring("stream opened"))
		Expect(buf.String()).To(ContainSubstring("event decoded"))
	})

	It("adds the call site with WithSource", func() {
		var buf bytes.Buffer
		log := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithSource(true))
		log.Info("with source")

		Expect(decodeJSON(&buf)).To(HaveKey(slog.SourceKey))
	})

	It("writes to every writer given to WithWriters", func() {
		var a, b bytes.Buffer
		log := logger.New(logger.WithWriters(&a, &b))
		log.Info("archived")

		Expect(a.String()).To(ContainSubstring("archived"))
		Expect(b.String()).To(ContainSubstring("archived"))
	})

	It("nests grouped attributes", func() {
		var buf bytes.Buffer
		log := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
		log.WithGroup("request").Info("sent", "doc_type", "通知")

		group, ok := decodeJSON(&buf)["request"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(group["doc_type"]).To(Equal("通知"))
	})
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		log := logger.Nop()
		for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
			Expect(log.Handler().Enabled(context.Background(), level)).To(BeFalse())
		}
		Expect(func() { log.With("k", "v").WithGroup("g").Error("dropped") }).NotTo(Panic())
	})
})

var _ = Describe("Multi", func() {
	It("writes each record to every logger", func() {
		var console, file bytes.Buffer
		log := logger.Multi(
			logger.New(logger.WithWriter(&console), logger.WithPretty(true)),
			logger.New(logger.WithWriter(&file), logger.WithJSON(true)),
		)
		log.Info("starting mock backend", "listen", ":8765")

		Expect(console.String()).To(ContainSubstring("starting mock backend"))
		Expect(decodeJSON(&file)["listen"]).To(Equal(":8765"))
	})

	It("respects the level of each logger", func() {
		var info, debug bytes.Buffer
		log := logger.Multi(
			logger.New(logger.WithWriter(&info)),
			logger.New(logger.WithWriter(&debug), logger.WithDebug(true)),
		)
		log.Debug("client went away")

		Expect(info.String()).To(BeEmpty())
		Expect(debug.String()).To(ContainSubstring("client went away"))
	})

	It("carries attributes and groups to every logger", func() {
		var a, b bytes.Buffer
		log := logger.Multi(
			logger.New(logger.WithWriter(&a), logger.WithJSON(true)),
			logger.New(logger.WithWriter(&b), logger.WithJSON(true)),
		)
		log.With("component", "mockserver").WithGroup("stream").Info("frame", "n", 1)

		for _, buf := range []*bytes.Buffer{&a, &b} {
			rec := decodeJSON(buf)
			Expect(rec["component"]).To(Equal("mockserver"))
			Expect(rec["stream"]).To(HaveKeyWithValue("n", BeNumerically("==", 1)))
		}
	})

	It("keeps writing when one handler fails", func() {
		var buf bytes.Buffer
		ok := logger.New(logger.WithWriter(&buf))
		broken := slog.New(failingHandler{})
		h := logger.Multi(broken, ok).Handler()

		rec := slog.NewRecord(time.Now(), slog.LevelInfo, "still logged", 0)
		err := h.Handle(context.Background(), rec)
		Expect(err).To(MatchError("disk full"))
		Expect(buf.String()).To(ContainSubstring("still logged"))
	})
})
