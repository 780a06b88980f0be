package repository

import (
	"context"
	"database/sql"
	"encoding/json"
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

var invoiceColumns = []string{
	"id", "file_name", "upload_date", "status", "extracted_fields",
	"confidence", "ocr_text", "error_message", "created_at", "updated_at",
}

var invoiceValidators = validators(dbschema.Invoice{})

type invoiceRepository struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

func NewInvoiceRepository(drv *entsql.Driver, logger *slog.Logger) InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &invoiceRepository{drv: drv, logger: logger}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *entity.Invoice) error {
	now := time.Now().UTC()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.UploadDate.IsZero() {
		inv.UploadDate = now
	}
	if inv.Status == "" {
		inv.Status = constants.StatusProcessing
	}
	inv.CreatedAt, inv.UpdatedAt = now, now

	vals, err := invoiceValues(inv)
	if err != nil {
		return err
	}
	q, args := entsql.Dialect(r.drv.Dialect()).
		Insert(invoicesTable).
		Columns(invoiceColumns...).
		Values(vals...).
		Query()
	if err := r.drv.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("failed to create invoice", "invoice_id", inv.ID, "error", err)
		return common.NewAppError("DB_ERROR", "create invoice", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	r.logger.Debug("invoice created", "invoice_id", inv.ID, "file_name", inv.FileName)
	return nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *entity.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	vals, err := invoiceValues(inv)
	if err != nil {
		return err
	}

	u := entsql.Dialect(r.drv.Dialect()).Update(invoicesTable)
	// id, file_name, upload_date and created_at are immutable
	for i, col := range invoiceColumns {
		switch col {
		case "id", "file_name", "upload_date", "created_at":
			continue
		}
		if vals[i] == nil {
			u.SetNull(col)
		} else {
			u.Set(col, vals[i])
		}
	}
	q, args := u.Where(entsql.EQ("id", inv.ID)).Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, q, args, &res); err != nil {
		r.logger.Error("failed to update invoice", "invoice_id", inv.ID, "error", err)
		return common.NewAppError("DB_ERROR", "update invoice", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.NewAppError("NOT_FOUND", "invoice "+inv.ID.String(), common.ErrNotFound)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	q, args := entsql.Dialect(r.drv.Dialect()).
		Select(invoiceColumns...).
		From(entsql.Table(invoicesTable)).
		Where(entsql.EQ("id", id)).
		Query()
	list, err := r.query(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to get invoice", "invoice_id", id, "error", err)
		return nil, err
	}
	if len(list) == 0 {
		return nil, common.NewAppError("NOT_FOUND", "invoice "+id.String(), common.ErrNotFound)
	}
	return list[0], nil
}

func (r *invoiceRepository) List(ctx context.Context, filter ListFilter) ([]*entity.Invoice, error) {
	s := entsql.Dialect(r.drv.Dialect()).
		Select(invoiceColumns...).
		From(entsql.Table(invoicesTable))
	if filter.Status != "" {
		s.Where(entsql.EQ("status", string(filter.Status)))
	}
	s.OrderBy(entsql.Desc("upload_date"), entsql.Desc("created_at"))
	if filter.Limit > 0 {
		s.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		s.Offset(filter.Offset)
	}
	q, args := s.Query()
	list, err := r.query(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to list invoices", "status", filter.Status, "error", err)
		return nil, err
	}
	return list, nil
}

func (r *invoiceRepository) query(ctx context.Context, q string, args []any) ([]*entity.Invoice, error) {
	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, common.NewAppError("DB_ERROR", "query invoices", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []*entity.Invoice
	for rows.Next() {
		var (
			inv              entity.Invoice
			status           string
			fields, conf     sql.NullString
			ocrText, errText sql.NullString
		)
		if err := rows.Scan(&inv.ID, &inv.FileName, &inv.UploadDate, &status, &fields,
			&conf, &ocrText, &errText, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		inv.Status = constants.InvoiceStatus(status)
		inv.OCRText = ocrText.String
		inv.ErrorMessage = errText.String
		if fields.Valid && fields.String != "" {
			inv.ExtractedFields = &entity.ExtractedFields{}
			if err := json.Unmarshal([]byte(fields.String), inv.ExtractedFields); err != nil {
				return nil, fmt.Errorf("decode extracted_fields: %w", err)
			}
		}
		if conf.Valid && conf.String != "" {
			inv.Confidence = &entity.Confidence{}
			if err := json.Unmarshal([]byte(conf.String), inv.Confidence); err != nil {
				return nil, fmt.Errorf("decode confidence: %w", err)
			}
		}
		out = append(out, &inv)
	}
	return out, rows.Err()
}

// validateInvoice applies the schema validators.
func validateInvoice(inv *entity.Invoice) error {
	for _, v := range invoiceValidators["status"] {
		if err := v(string(inv.Status)); err != nil {
			return common.NewAppError("VALIDATION_ERROR", "invoice status", fmt.Errorf("%w: %v", common.ErrValidation, err))
		}
	}
	return nil
}

// invoiceValues orders values as invoiceColumns.
func invoiceValues(inv *entity.Invoice) ([]any, error) {
	if err := validateInvoice(inv); err != nil {
		return nil, err
	}
	fields, err := jsonOrNil(inv.ExtractedFields)
	if err != nil {
		return nil, err
	}
	conf, err := jsonOrNil(inv.Confidence)
	if err != nil {
		return nil, err
	}
	return []any{
		inv.ID,
		inv.FileName,
		inv.UploadDate.UTC(),
		string(inv.Status),
		fields,
		conf,
		stringOrNil(inv.OCRText),
		stringOrNil(inv.ErrorMessage),
		inv.CreatedAt.UTC(),
		inv.UpdatedAt.UTC(),
	}, nil
}

func jsonOrNil[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func stringOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
