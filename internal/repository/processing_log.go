package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	dbschema "github.com/joseph-ayodele/invoice-tracker/db/ent/schema"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

var logColumns = []string{"id", "timestamp", "message", "type", "invoice_id"}

var logValidators = validators(dbschema.ProcessingLog{})

type logRepository struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

func NewLogRepository(drv *entsql.Driver, logger *slog.Logger) LogRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &logRepository{drv: drv, logger: logger}
}

func (r *logRepository) Append(ctx context.Context, entry *entity.ProcessingLog) error {
	if err := prepareLog(entry); err != nil {
		return err
	}
	var invoiceID any
	if entry.InvoiceID != nil {
		invoiceID = *entry.InvoiceID
	}
	q, args := entsql.Dialect(r.drv.Dialect()).
		Insert(logsTable).
		Columns(logColumns...).
		Values(entry.ID, entry.Timestamp, entry.Message, string(entry.Type), invoiceID).
		Query()
	if err := r.drv.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("failed to append processing log", "invoice_id", entry.InvoiceID, "error", err)
		return common.NewAppError("DB_ERROR", "append log", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	return nil
}

func (r *logRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*entity.ProcessingLog, error) {
	q, args := entsql.Dialect(r.drv.Dialect()).
		Select(logColumns...).
		From(entsql.Table(logsTable)).
		Where(entsql.EQ("invoice_id", invoiceID)).
		OrderBy("timestamp", "id").
		Query()
	return r.query(ctx, q, args)
}

func (r *logRepository) ListRecent(ctx context.Context, limit int) ([]*entity.ProcessingLog, error) {
	if limit <= 0 {
		limit = 100
	}
	q, args := entsql.Dialect(r.drv.Dialect()).
		Select(logColumns...).
		From(entsql.Table(logsTable)).
		OrderBy(entsql.Desc("timestamp")).
		Limit(limit).
		Query()
	return r.query(ctx, q, args)
}

func (r *logRepository) query(ctx context.Context, q string, args []any) ([]*entity.ProcessingLog, error) {
	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		r.logger.Error("failed to query processing logs", "error", err)
		return nil, common.NewAppError("DB_ERROR", "query logs", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []*entity.ProcessingLog
	for rows.Next() {
		var (
			e       entity.ProcessingLog
			typ     string
			invoice sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Message, &typ, &invoice); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		e.Type = constants.LogType(typ)
		if invoice.Valid {
			id, err := uuid.Parse(invoice.String)
			if err != nil {
				return nil, fmt.Errorf("scan log invoice_id: %w", err)
			}
			e.InvoiceID = &id
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// prepareLog fills defaults and validates the log type.
func prepareLog(entry *entity.ProcessingLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Timestamp = entry.Timestamp.UTC()
	if entry.Type == "" {
		entry.Type = constants.LogInfo
	}
	for _, v := range logValidators["type"] {
		if err := v(string(entry.Type)); err != nil {
			return common.NewAppError("VALIDATION_ERROR", "log type", fmt.Errorf("%w: %v", common.ErrValidation, err))
		}
	}
	if entry.Message == "" {
		return common.NewAppError("VALIDATION_ERROR", "log message is required", common.ErrValidation)
	}
	return nil
}
