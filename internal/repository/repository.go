package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

// ListFilter narrows invoice listings. Zero values mean no constraint.
type ListFilter struct {
	Status constants.InvoiceStatus
	Limit  int
	Offset int
}

// InvoiceRepository persists invoices. List returns newest uploads first.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	Update(ctx context.Context, inv *entity.Invoice) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]*entity.Invoice, error)
}

// LogRepository persists processing log entries. ListByInvoice is oldest first;
// ListRecent is newest first.
type LogRepository interface {
	Append(ctx context.Context, entry *entity.ProcessingLog) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*entity.ProcessingLog, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.ProcessingLog, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Invoices InvoiceRepository
	Logs     LogRepository

	health func(ctx context.Context) error
	close  func() error
}

// HealthCheck pings the backend.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s.health == nil {
		return nil
	}
	return s.health(ctx)
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
