package llm

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

var _ = Describe("StripCodeFences", func() {
	It("should unwrap a fenced json block", func() {
		Expect(StripCodeFences("```json\n{\"a\":1}\n```")).To(Equal(`{"a":1}`))
	})

	It("should leave bare json alone", func() {
		Expect(StripCodeFences("  {\"a\":1} ")).To(Equal(`{"a":1}`))
	})
})

var _ = Describe("NormalizeAIFields", func() {
	var (
		raw     string
		fields  *entity.ExtractedFields
		dropped []string
		err     error
	)

	JustBeforeEach(func() {
		fields, dropped, err = NormalizeAIFields([]byte(raw))
	})

	When("the reply uses loose types", func() {
		BeforeEach(func() {
			raw = `{
				"invoiceNumber": 12345,
				"date": "03/04/2024",
				"vendor": " Acme Ltd ",
				"totalAmount": "$1,234.50",
				"tax": "n/a",
				"taxRate": 8,
				"currency": "eur",
				"customerInfo": "Bob",
				"lineItems": [
					{"description": "Widget", "quantity": 2, "price": "5", "total": 10},
					"junk",
					{"description": "", "total": 3}
				]
			}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should coerce scalars", func() {
			Expect(fields.InvoiceNumber).To(Equal("12345"))
			Expect(fields.Date).To(Equal("2024-03-04"))
			Expect(fields.Vendor).To(Equal("Acme Ltd"))
			Expect(fields.Currency).To(Equal("EUR"))
			Expect(fields.TaxRate).To(Equal("8%"))
			Expect(fields.TotalAmount).To(HaveValue(BeNumerically("~", 1234.5, 0.001)))
			Expect(fields.Tax).To(BeNil())
		})

		It("should wrap a bare customer string", func() {
			Expect(fields.CustomerInfo).To(Equal(&entity.CustomerInfo{Name: "Bob"}))
		})

		It("should keep valid line items and accept price as unit price", func() {
			Expect(fields.LineItems).To(Equal([]entity.LineItem{
				{Description: "Widget", Quantity: 2, UnitPrice: 5, Total: 10},
			}))
		})

		It("should report what it dropped", func() {
			Expect(dropped).To(ConsistOf("tax", "lineItems[1]", "lineItems[2]"))
		})
	})

	When("the reply is not json", func() {
		BeforeEach(func() {
			raw = "sorry, I cannot help"
		})

		It("should return an error", func() {
			Expect(err).To(HaveOccurred())
			Expect(fields).To(BeNil())
		})
	})

	When("the reply is json null", func() {
		BeforeEach(func() {
			raw = "null"
		})

		It("should return an error", func() {
			Expect(err).To(MatchError(ContainSubstring("not a json object")))
			Expect(fields).To(BeNil())
		})
	})
})

var _ = Describe("ValidateJSONAgainstSchema", func() {
	schema := BuildInvoiceJSONSchema()

	It("should accept a complete reply", func() {
		doc := `{"invoiceNumber":"A1","date":"2024-01-01","vendor":"V","totalAmount":10,"lineItems":[]}`
		Expect(ValidateJSONAgainstSchema(schema, []byte(doc))).To(Succeed())
	})

	It("should reject a reply missing required fields", func() {
		Expect(ValidateJSONAgainstSchema(schema, []byte(`{"vendor":"V"}`))).NotTo(Succeed())
	})
})

var _ = Describe("BuildInvoicePrompt", func() {
	It("should include the text and the field list", func() {
		p := BuildInvoicePrompt("  INVOICE 42  ", false)
		Expect(p).To(ContainSubstring("invoiceNumber"))
		Expect(p).To(ContainSubstring("INVOICE 42"))
		Expect(p).NotTo(ContainSubstring("scanned"))
	})

	It("should add OCR guidance for image-only documents", func() {
		Expect(BuildInvoicePrompt("x", true)).To(ContainSubstring("scanned"))
	})

	It("should truncate very long text", func() {
		long := make([]byte, maxPromptText+500)
		for i := range long {
			long[i] = 'a'
		}
		Expect(BuildInvoicePrompt(string(long), false)).To(ContainSubstring("(truncated)"))
	})
})
