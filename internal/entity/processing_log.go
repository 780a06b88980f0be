package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

// ProcessingLog is one timestamped entry in an invoice's processing trail.
type ProcessingLog struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	Type      constants.LogType `json:"type"`
	InvoiceID *uuid.UUID        `json:"invoiceId,omitempty"`
}
