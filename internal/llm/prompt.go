package llm

import (
	"strings"
)

// SystemPrompt is sent as the system message by chat-style providers.
const SystemPrompt = "You are an expert invoice parser. Return ONLY a JSON object, with no markdown fences and no commentary."

const maxPromptText = 12000

const imageOnlyGuidance = `The text below came from OCR of a scanned or image-only document and may contain
recognition errors: misread characters (O/0, l/1, S/5), broken lines and shuffled columns.
Reconstruct values from context, prefer amounts labelled total or amount due, and leave a
field out rather than guess when it is unreadable.`

// BuildInvoicePrompt asks for the invoice JSON shape for ocrText.
func BuildInvoicePrompt(ocrText string, isImageOnly bool) string {
	text := strings.TrimSpace(ocrText)
	if len(text) > maxPromptText {
		text = text[:maxPromptText] + "\n…(truncated)"
	}

	var b strings.Builder
	b.WriteString("Extract the following information from this invoice text:\n")
	b.WriteString("- invoiceNumber (string)\n")
	b.WriteString("- date (invoice date, YYYY-MM-DD)\n")
	b.WriteString("- vendor (company issuing the invoice)\n")
	b.WriteString("- totalAmount (number, final amount due)\n")
	b.WriteString("- lineItems (array of {description, quantity, unitPrice, total})\n")
	b.WriteString("Optional when visible: currency (ISO 4217 code), subtotal, tax, taxRate (e.g. \"8%\"), dueDate (YYYY-MM-DD), customerInfo ({name, address}).\n")
	b.WriteString("Amounts are plain numbers without currency symbols or thousands separators. Omit fields that are not present; never output null.\n")
	if isImageOnly {
		b.WriteString("\n")
		b.WriteString(imageOnlyGuidance)
		b.WriteString("\n")
	}
	b.WriteString("\nInvoice text:\n")
	b.WriteString(text)
	b.WriteString("\n\nRespond with a single JSON object.")
	return b.String()
}
