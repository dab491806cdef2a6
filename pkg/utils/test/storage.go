package testutils

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gongwen/pkg/storage"
)

// NewRecord builds an archived generation for driver tests.
func NewRecord(id, convID string, createdAt time.Time) *storage.Record {
	return &storage.Record{
		ID:         id,
		ConvID:     convID,
		DocType:    "通知",
		Prompt:     "写一个通知",
		Content:    "关于" + id + "的通知",
		DocxFile:   id + ".docx",
		CreatedAt:  createdAt,
		DurationMs: 1200,
	}
}

// DescribeDriver registers the behaviour every storage.Driver must share.
// newDriver is called before each test; the driver is closed afterwards.
func DescribeDriver(name string, newDriver func() storage.Driver) bool {
	return Describe(name+" driver contract", func() {
		var (
			driver storage.Driver
			ctx    context.Context
			base   time.Time
		)

		BeforeEach(func() {
			ctx = context.Background()
			base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
			driver = newDriver()
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("stores and retrieves a record", func() {
			rec := NewRecord("r1", "c1", base)
			Expect(driver.Put(ctx, rec)).To(Succeed())

			got, err := driver.Get(ctx, "r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Content).To(Equal(rec.Content))
			Expect(got.DocxFile).To(Equal("r1.docx"))
			Expect(got.CreatedAt.Equal(base)).To(BeTrue())
			Expect(got.DurationMs).To(Equal(int64(1200)))
		})

		It("replaces a record with the same ID", func() {
			Expect(driver.Put(ctx, NewRecord("r1", "c1", base))).To(Succeed())
			updated := NewRecord("r1", "c1", base)
			updated.Content = "修订稿"
			Expect(driver.Put(ctx, updated)).To(Succeed())

			got, err := driver.Get(ctx, "r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Content).To(Equal("修订稿"))
		})

		It("returns NotFoundError for unknown IDs", func() {
			_, err := driver.Get(ctx, "missing")
			Expect(err).To(MatchError(storage.NotFoundError{ID: "missing"}))

			Expect(driver.Delete(ctx, "missing")).To(MatchError(storage.NotFoundError{ID: "missing"}))
		})

		It("rejects nil and ID-less records", func() {
			Expect(driver.Put(ctx, nil)).NotTo(Succeed())
			Expect(driver.Put(ctx, &storage.Record{})).NotTo(Succeed())
		})

		It("lists newest first with filters and limits", func() {
			Expect(driver.Put(ctx, NewRecord("old", "c1", base))).To(Succeed())
			Expect(driver.Put(ctx, NewRecord("mid", "c2", base.Add(time.Minute)))).To(Succeed())
			Expect(driver.Put(ctx, NewRecord("new", "c1", base.Add(2*time.Minute)))).To(Succeed())
			failed := NewRecord("bad", "c1", base.Add(3*time.Minute))
			failed.Failed = true
			Expect(driver.Put(ctx, failed)).To(Succeed())

			all, err := driver.List(ctx, storage.ListOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(all)).To(Equal([]string{"new", "mid", "old"}))

			withFailed, err := driver.List(ctx, storage.ListOptions{IncludeFailed: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(withFailed)).To(Equal([]string{"bad", "new", "mid", "old"}))

			conv, err := driver.List(ctx, storage.ListOptions{ConvID: "c1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(conv)).To(Equal([]string{"new", "old"}))

			limited, err := driver.List(ctx, storage.ListOptions{Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(limited)).To(Equal([]string{"new", "mid"}))
		})

		It("deletes records", func() {
			Expect(driver.Put(ctx, NewRecord("r1", "c1", base))).To(Succeed())
			Expect(driver.Delete(ctx, "r1")).To(Succeed())

			_, err := driver.Get(ctx, "r1")
			Expect(err).To(HaveOccurred())
		})
	})
}

func ids(records []*storage.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
