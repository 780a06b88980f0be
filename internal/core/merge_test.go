package core

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/ocr"
)

var _ = Describe("ShouldEnhance", func() {
	high := entity.Confidence{Overall: 95}
	low := entity.Confidence{Overall: 60}

	DescribeTable("decisions",
		func(provider constants.Provider, md *ocr.Metadata, conf entity.Confidence, want bool) {
			Expect(ShouldEnhance(provider, md, conf)).To(Equal(want))
		},
		Entry("no provider", constants.ProviderNone, &ocr.Metadata{RequiresAIEnhancement: true}, low, false),
		Entry("low confidence", constants.ProviderOpenAI, nil, low, true),
		Entry("confident parse", constants.ProviderOpenAI, nil, high, false),
		Entry("acquisition asks for AI", constants.ProviderGemini, &ocr.Metadata{RequiresAIEnhancement: true}, high, true),
		Entry("image-only document", constants.ProviderAzure, &ocr.Metadata{IsImageOnlyPDF: true}, high, true),
		Entry("threshold is exclusive", constants.ProviderOpenAI, nil, entity.Confidence{Overall: 90}, false),
	)
})

var _ = Describe("Merge", func() {
	It("should let non-empty AI values win and keep the rest", func() {
		base := &entity.ExtractedFields{
			InvoiceNumber: "H-1",
			Vendor:        "Heuristic Co",
			TotalAmount:   entity.Float(10),
			LineItems:     []entity.LineItem{{Description: "x", Quantity: 1, UnitPrice: 10, Total: 10}},
			Currency:      "USD",
		}
		ai := &entity.ExtractedFields{
			Vendor:       "AI Co",
			Date:         "2024-05-01",
			CustomerInfo: &entity.CustomerInfo{Name: "Bob"},
		}

		out := Merge(base, ai)
		Expect(out.InvoiceNumber).To(Equal("H-1"))
		Expect(out.Vendor).To(Equal("AI Co"))
		Expect(out.Date).To(Equal("2024-05-01"))
		Expect(out.LineItems).To(HaveLen(1))
		Expect(out.CustomerInfo.Name).To(Equal("Bob"))
		Expect(base.Vendor).To(Equal("Heuristic Co"))
	})

	It("should keep baseline amounts when the AI reports zero", func() {
		base := &entity.ExtractedFields{
			TotalAmount: entity.Float(150),
			Subtotal:    entity.Float(140),
			Tax:         entity.Float(10),
		}
		ai := &entity.ExtractedFields{
			TotalAmount: entity.Float(0),
			Subtotal:    entity.Float(0),
			Tax:         entity.Float(0),
		}

		out := Merge(base, ai)
		Expect(*out.TotalAmount).To(Equal(150.0))
		Expect(*out.Subtotal).To(Equal(140.0))
		Expect(*out.Tax).To(Equal(10.0))
	})

	It("should keep baseline values when AI fields are empty", func() {
		base := &entity.ExtractedFields{
			InvoiceNumber: "H-1",
			Date:          "2024-01-15",
			Vendor:        "Heuristic Co",
			Currency:      "EUR",
			TaxRate:       "8%",
			LineItems:     []entity.LineItem{{Description: "Widget", Quantity: 3, UnitPrice: 10, Total: 30}},
		}
		ai := &entity.ExtractedFields{LineItems: []entity.LineItem{}}

		out := Merge(base, ai)
		Expect(out).To(Equal(base))
		Expect(out).NotTo(BeIdenticalTo(base))
	})

	It("should let a non-zero AI amount win", func() {
		out := Merge(&entity.ExtractedFields{TotalAmount: entity.Float(10)}, &entity.ExtractedFields{TotalAmount: entity.Float(12.5)})
		Expect(*out.TotalAmount).To(Equal(12.5))
	})

	It("should not alias inputs", func() {
		base := &entity.ExtractedFields{TotalAmount: entity.Float(1)}
		out := Merge(base, nil)
		*out.TotalAmount = 5
		Expect(*base.TotalAmount).To(Equal(1.0))
	})

	It("should handle a nil baseline", func() {
		out := Merge(nil, &entity.ExtractedFields{Vendor: "AI"})
		Expect(out.Vendor).To(Equal("AI"))
	})
})
