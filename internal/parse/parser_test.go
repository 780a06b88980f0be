package parse

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

const sampleInvoice = `From: Acme Supplies Inc.
Invoice Number: INV-2024-001
Date: 01/15/2024

Description Qty Price Total
Widget 2 10.00 20.00
Gadget 1 5.50 5.50

Subtotal: $25.50
Tax: $2.04
Grand Total: $27.54
`

var _ = Describe("Parse", func() {
	var (
		text   string
		fields *entity.ExtractedFields
	)

	JustBeforeEach(func() {
		fields = Parse(text)
	})

	When("parsing a typical invoice", func() {
		BeforeEach(func() {
			text = sampleInvoice
		})

		It("should select the labelled invoice number", func() {
			Expect(fields.InvoiceNumber).To(Equal("INV-2024-001"))
		})

		It("should normalize the date", func() {
			Expect(fields.Date).To(Equal("2024-01-15"))
		})

		It("should prefer the vendor with a legal suffix", func() {
			Expect(fields.Vendor).To(Equal("Acme Supplies Inc"))
		})

		It("should pick the grand total", func() {
			Expect(fields.TotalAmount).NotTo(BeNil())
			Expect(*fields.TotalAmount).To(BeNumerically("~", 27.54, 0.001))
		})

		It("should extract both line items with header words stripped", func() {
			Expect(fields.LineItems).To(Equal([]entity.LineItem{
				{Description: "Widget", Quantity: 2, UnitPrice: 10, Total: 20},
				{Description: "Gadget", Quantity: 1, UnitPrice: 5.5, Total: 5.5},
			}))
		})

		It("should extract the money extras", func() {
			Expect(fields.Currency).To(Equal("USD"))
			Expect(fields.Subtotal).NotTo(BeNil())
			Expect(*fields.Subtotal).To(BeNumerically("~", 25.50, 0.001))
			Expect(fields.Tax).NotTo(BeNil())
			Expect(*fields.Tax).To(BeNumerically("~", 2.04, 0.001))
			Expect(fields.TaxRate).To(BeEmpty())
		})

		It("should be deterministic", func() {
			Expect(Parse(text)).To(Equal(fields))
		})
	})

	When("parsing empty text", func() {
		BeforeEach(func() {
			text = ""
		})

		It("should return empty fields with the default currency", func() {
			Expect(fields.InvoiceNumber).To(BeEmpty())
			Expect(fields.Date).To(BeEmpty())
			Expect(fields.Vendor).To(BeEmpty())
			Expect(fields.TotalAmount).To(BeNil())
			Expect(fields.LineItems).To(BeEmpty())
			Expect(fields.Currency).To(Equal(DefaultCurrency))
		})
	})
})

var _ = Describe("selectors", func() {
	It("should reject reserved words as invoice numbers", func() {
		c := Candidate{Value: "TOTAL", FullMatch: "TOTAL", FieldType: FieldInvoiceNumber}
		Expect(InvoiceNumberRules.Score(c)).To(BeNumerically("<", 0))
		Expect(SelectInvoiceNumber([]Candidate{c})).To(BeEmpty())
	})

	It("should keep the first candidate on equal scores", func() {
		cs := []Candidate{
			{Value: "ABC-1234", FullMatch: "ABC-1234"},
			{Value: "XYZ-5678", FullMatch: "XYZ-5678"},
		}
		Expect(SelectInvoiceNumber(cs)).To(Equal("ABC-1234"))
	})

	It("should skip dates that do not parse", func() {
		cs := []Candidate{
			{Value: "99/99/2024", FullMatch: "Date: 99/99/2024"},
			{Value: "2024-02-29", FullMatch: "2024-02-29"},
		}
		Expect(SelectDate(cs)).To(Equal("2024-02-29"))
	})

	It("should return no date for a lone impossible date", func() {
		cs := []Candidate{{Value: "99/99/9999", FullMatch: "Date: 99/99/9999"}}
		Expect(SelectDate(cs)).To(BeEmpty())
		Expect(Parse("Date: 99/99/9999").Date).To(BeEmpty())
	})

	It("should return nil when no total is positive", func() {
		cs := []Candidate{{Value: "0.00", FullMatch: "Total: 0.00"}}
		Expect(SelectTotal(cs)).To(BeNil())
	})

	It("should add the trailing position bonus only near the end", func() {
		early := Candidate{Value: "12.00", FullMatch: "12.00", Position: 10, SourceLen: 100}
		late := Candidate{Value: "12.00", FullMatch: "12.00", Position: 90, SourceLen: 100}
		Expect(TotalRules.Score(late) - TotalRules.Score(early)).To(Equal(5))
	})
})

var _ = Describe("VendorRules", func() {
	base := Candidate{Value: "Acme Supplies", FullMatch: "Acme Supplies"}

	DescribeTable("context bonuses",
		func(full string, delta int) {
			c := Candidate{Value: base.Value, FullMatch: full}
			Expect(VendorRules.Score(c) - VendorRules.Score(base)).To(Equal(delta))
		},
		Entry("from", "From: Acme Supplies", 15),
		Entry("vendor", "Vendor: Acme Supplies", 20),
		Entry("billed by", "Billed by Acme Supplies", 20),
		Entry("company", "Company: Acme Supplies", 15),
	)

	It("should reward a legal suffix", func() {
		plain := Candidate{Value: "Acme Supplies Shop", FullMatch: "Acme Supplies Shop"}
		legal := Candidate{Value: "Acme Supplies Inc.", FullMatch: "Acme Supplies Inc."}
		Expect(VendorRules.Score(legal) - VendorRules.Score(plain)).To(Equal(20))
	})

	It("should penalize values starting with a label word", func() {
		label := Candidate{Value: "Invoice Services", FullMatch: "Invoice Services"}
		plain := Candidate{Value: "Acme Services", FullMatch: "Acme Services"}
		Expect(VendorRules.Score(label) - VendorRules.Score(plain)).To(Equal(-30))
	})

	It("should select nothing when only label words score", func() {
		Expect(SelectVendor([]Candidate{{Value: "Total", FullMatch: "Total"}})).To(BeEmpty())
	})

	It("should prefer the vendor with context and a legal suffix", func() {
		cs := []Candidate{
			{Value: "Description Qty", FullMatch: "Description Qty"},
			{Value: "Acme Supplies Inc.", FullMatch: "From: Acme Supplies Inc."},
		}
		Expect(SelectVendor(cs)).To(Equal("Acme Supplies Inc."))
	})
})

var _ = Describe("TotalRules", func() {
	base := Candidate{Value: "1234", FullMatch: "1234"}

	DescribeTable("context weights",
		func(value, full string, delta int) {
			c := Candidate{Value: value, FullMatch: full}
			Expect(TotalRules.Score(c) - TotalRules.Score(base)).To(Equal(delta))
		},
		Entry("total", "1234", "Total: 1234", 25),
		Entry("amount due", "1234", "Amount Due: 1234", 30),
		Entry("grand total", "1234", "Grand Total: 1234", 55),
		Entry("balance", "1234", "Balance: 1234", 20),
		Entry("currency symbol", "1234", "$1234", 15),
		Entry("two decimals", "1234.00", "1234.00", 10),
	)

	It("should pick the amount due over a larger unlabelled amount", func() {
		cs := []Candidate{
			{Value: "5000.00", FullMatch: "5000.00"},
			{Value: "150.00", FullMatch: "Amount Due: $150.00"},
		}
		Expect(SelectTotal(cs)).To(HaveValue(Equal(150.0)))
	})
})

var _ = Describe("line item arithmetic", func() {
	DescribeTable("every parsed item adds up",
		func(text string) {
			for _, item := range Parse(text).LineItems {
				Expect(math.Abs(item.Total-item.Quantity*item.UnitPrice)).To(BeNumerically("<=", 0.02), item.Description)
			}
		},
		Entry("sample invoice", sampleInvoice),
		Entry("mixed rows", "Widget 2 10.00 25.00\nGadget 3 $1.99 $5.97\nBolts 4 2,50 10,00\nTV 1 $100.00 $99.00"),
		Entry("run together", "Items Widget 3 10.00 30.00 Cable 2 4.99 9.99 Fan 1 20.00 20.00"),
	)

	It("should drop rows that do not add up", func() {
		items := Parse("Widget 2 10.00 25.00\nGadget 3 $1.99 $5.97").LineItems
		Expect(items).To(HaveLen(1))
		Expect(items[0].Description).To(Equal("Gadget"))
	})
})

var _ = Describe("ExtractCandidates", func() {
	It("should return candidates in pattern table order", func() {
		cs := ExtractCandidates("Date: 2024-03-01 shipped 03/05/2024", Patterns, FieldDate)
		Expect(cs).NotTo(BeEmpty())
		Expect(cs[0].Value).To(Equal("2024-03-01"))
		for _, c := range cs {
			Expect(c.FieldType).To(Equal(FieldDate))
			Expect(c.SourceLen).To(Equal(35))
		}
	})
})

var _ = Describe("CleanText", func() {
	It("should collapse whitespace and trim", func() {
		Expect(CleanText("  a\r\n  b\t c  ")).To(Equal("a b c"))
	})
})
