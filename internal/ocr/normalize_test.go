package ocr

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Normalize", func() {
	It("should collapse whitespace and blank lines but keep line breaks", func() {
		in := "Invoice\r\nTotal:\t\t$10.00   \r\n\r\n\r\n\r\nThanks"
		Expect(Normalize(in)).To(Equal("Invoice\nTotal: $10.00\n\nThanks"))
	})

	It("should drop ruler lines", func() {
		Expect(Normalize("A\n=====\nB")).To(Equal("A\n\nB"))
	})

	It("should keep empty input empty", func() {
		Expect(Normalize("")).To(BeEmpty())
	})
})

var _ = Describe("TextQuality", func() {
	DescribeTable("scores",
		func(txt string, want int) {
			Expect(TextQuality(txt)).To(Equal(want))
		},
		Entry("empty", "", 0),
		Entry("noise", "lorem ipsum", 0),
		Entry("keyword and amount", "Invoice total 12.00", 60),
		Entry("full invoice", richInvoiceText, 100),
	)
})

var _ = Describe("BuildMetadata", func() {
	It("should flag short text as image-only and needing AI", func() {
		md := BuildMetadata("Invoice 12", nil)
		Expect(md.IsImageOnlyPDF).To(BeTrue())
		Expect(md.RequiresAIEnhancement).To(BeTrue())
		Expect(md.ParsedData).NotTo(BeNil())
	})

	It("should trust a complete text layer", func() {
		md := BuildMetadata(richInvoiceText, nil)
		Expect(md.IsImageOnlyPDF).To(BeFalse())
		Expect(md.RequiresAIEnhancement).To(BeFalse())
		Expect(md.Confidence).To(BeNumerically(">=", 70))
		Expect(md.ParsedData.InvoiceNumber).To(Equal("INV-2024-001"))
	})
})
