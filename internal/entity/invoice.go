package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

// LineItem is one billed row of an invoice.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

// CustomerInfo is only ever populated by AI enhancement.
type CustomerInfo struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// ExtractedFields is the structured result for one invoice.
// Empty strings and nil pointers mean "absent".
type ExtractedFields struct {
	InvoiceNumber string        `json:"invoiceNumber,omitempty"`
	Date          string        `json:"date,omitempty"` // YYYY-MM-DD when normalized
	Vendor        string        `json:"vendor,omitempty"`
	TotalAmount   *float64      `json:"totalAmount,omitempty"`
	LineItems     []LineItem    `json:"lineItems,omitempty"`
	Currency      string        `json:"currency,omitempty"`
	Subtotal      *float64      `json:"subtotal,omitempty"`
	Tax           *float64      `json:"tax,omitempty"`
	TaxRate       string        `json:"taxRate,omitempty"`
	DueDate       string        `json:"dueDate,omitempty"`
	CustomerInfo  *CustomerInfo `json:"customerInfo,omitempty"`
}

// PopulatedCount counts the non-empty top-level fields.
func (f *ExtractedFields) PopulatedCount() int {
	if f == nil {
		return 0
	}
	n := 0
	for _, s := range []string{f.InvoiceNumber, f.Date, f.Vendor, f.Currency, f.TaxRate, f.DueDate} {
		if s != "" {
			n++
		}
	}
	for _, p := range []*float64{f.TotalAmount, f.Subtotal, f.Tax} {
		if p != nil {
			n++
		}
	}
	if len(f.LineItems) > 0 {
		n++
	}
	if f.CustomerInfo != nil {
		n++
	}
	return n
}

// Confidence is the scorer output; Fields is keyed by ExtractedFields JSON names.
type Confidence struct {
	Overall int            `json:"overall"`
	Fields  map[string]int `json:"fields"`
}

// Invoice is one uploaded document and its extraction state.
type Invoice struct {
	ID              uuid.UUID               `json:"id"`
	FileName        string                  `json:"fileName"`
	UploadDate      time.Time               `json:"uploadDate"`
	Status          constants.InvoiceStatus `json:"status"`
	ExtractedFields *ExtractedFields        `json:"extractedFields,omitempty"`
	Confidence      *Confidence             `json:"confidence,omitempty"`
	OCRText         string                  `json:"ocrText,omitempty"`
	ErrorMessage    string                  `json:"errorMessage,omitempty"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
