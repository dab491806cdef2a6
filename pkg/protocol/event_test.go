package protocol_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gongwen/pkg/protocol"
)

var _ = Describe("Metadata", func() {
	Describe("Merge", func() {
		It("lets later values win", func() {
			md := protocol.Metadata{Filename: "a.docx", ConvID: "1"}
			md.Merge(protocol.Metadata{Filename: "b.docx"})

			Expect(md.Filename).To(Equal("b.docx"))
			Expect(md.ConvID).To(Equal("1"))
		})

		It("merges extra keys", func() {
			md := protocol.Metadata{}
			md.Merge(protocol.Metadata{Extra: map[string]json.RawMessage{"pages": json.RawMessage("2")}})
			md.Merge(protocol.Metadata{Extra: map[string]json.RawMessage{"pages": json.RawMessage("3")}})

			Expect(md.Extra).To(HaveKeyWithValue("pages", json.RawMessage("3")))
		})
	})

	Describe("UnmarshalJSON", func() {
		It("treats null identifiers as absent", func() {
			var md protocol.Metadata
			Expect(json.Unmarshal([]byte(`{"conv_id":null,"filename":"x.docx"}`), &md)).To(Succeed())

			Expect(md.ConvID).To(BeEmpty())
			Expect(md.Filename).To(Equal("x.docx"))
		})

		It("rejects non-scalar identifiers", func() {
			var md protocol.Metadata
			Expect(json.Unmarshal([]byte(`{"conv_id":{"id":1}}`), &md)).NotTo(Succeed())
		})
	})
})
