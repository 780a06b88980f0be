package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/confidence"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/llm"
	"github.com/joseph-ayodele/invoice-tracker/internal/ocr"
	"github.com/joseph-ayodele/invoice-tracker/internal/parse"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
)

// Enhancer is an AI field enhancer that reports which provider backs it.
type Enhancer interface {
	llm.FieldEnhancer
	Provider() constants.Provider
}

// failurePersistTimeout bounds the write that records a failed invoice after
// the caller's context is gone.
const failurePersistTimeout = 10 * time.Second

// Processor runs acquisition, heuristic parsing and optional AI enhancement for an
// invoice and persists the outcome.
type Processor struct {
	logger   *slog.Logger
	acquirer ocr.Acquirer
	enhancer Enhancer
	parser   *parse.Parser
	invoices repository.InvoiceRepository
	logs     repository.LogRepository
}

func NewProcessor(
	logger *slog.Logger,
	acquirer ocr.Acquirer,
	enhancer Enhancer,
	invoices repository.InvoiceRepository,
	logs repository.LogRepository,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:   logger,
		acquirer: acquirer,
		enhancer: enhancer,
		parser:   parse.NewParser(logger),
		invoices: invoices,
		logs:     logs,
	}
}

// Provider is the configured AI provider, none when no enhancer is wired.
func (p *Processor) Provider() constants.Provider {
	if p.enhancer == nil {
		return constants.ProviderNone
	}
	return p.enhancer.Provider()
}

// Register creates an invoice in the processing state.
func (p *Processor) Register(ctx context.Context, fileName string) (*entity.Invoice, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, common.NewAppError("VALIDATION_ERROR", "file name is required", common.ErrValidation)
	}
	inv := &entity.Invoice{
		ID:         uuid.New(),
		FileName:   fileName,
		UploadDate: time.Now().UTC(),
		Status:     constants.StatusProcessing,
	}
	if err := p.invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	p.appendLog(ctx, inv.ID, constants.LogInfo, "Started processing "+fileName)
	return inv, nil
}

// Submit registers a new invoice and processes it synchronously.
func (p *Processor) Submit(ctx context.Context, fileName, path string) (*entity.Invoice, error) {
	inv, err := p.Register(ctx, fileName)
	if err != nil {
		return nil, err
	}
	return p.ProcessFile(ctx, inv.ID, path)
}

// Reprocess resets a stored invoice to processing and runs it again.
func (p *Processor) Reprocess(ctx context.Context, id uuid.UUID, path string) (*entity.Invoice, error) {
	inv, err := p.invoices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Status = constants.StatusProcessing
	inv.ErrorMessage = ""
	if err := p.invoices.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("reset invoice: %w", err)
	}
	p.appendLog(ctx, id, constants.LogInfo, "Reprocessing "+inv.FileName)
	return p.ProcessFile(ctx, id, path)
}

// ProcessFile drives one invoice from processing to completed or failed. The
// returned invoice reflects the computed outcome even when persisting it fails.
func (p *Processor) ProcessFile(ctx context.Context, invoiceID uuid.UUID, path string) (*entity.Invoice, error) {
	start := time.Now()
	ctx = common.WithInvoiceID(ctx, invoiceID)

	inv, err := p.invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("load invoice: %w", err)
	}
	log := common.Logger(ctx, p.logger).With("file_name", inv.FileName)

	p.appendLog(ctx, invoiceID, constants.LogInfo, "Starting OCR extraction for "+inv.FileName)
	res, err := p.acquirer.Acquire(ctx, path)
	if err != nil {
		log.Error("processor.acquire.failed", "error", err)
		return p.fail(ctx, inv, fmt.Errorf("%w: %v", common.ErrAcquisition, err))
	}
	if strings.TrimSpace(res.Text) == "" {
		log.Warn("processor.acquire.empty", "method", res.Method)
		return p.fail(ctx, inv, common.ErrNoText)
	}
	p.appendLog(ctx, invoiceID, constants.LogSuccess,
		fmt.Sprintf("OCR extraction completed. Extracted %d characters", len(res.Text)))

	fields := p.parser.Parse(res.Text)
	if md := res.Metadata; md != nil && md.ParsedData != nil && md.ParsedData.PopulatedCount() >= constants.MinTrustedFields {
		log.Debug("processor.baseline.server_parsed", "fields", md.ParsedData.PopulatedCount())
		fields = cloneFields(md.ParsedData)
	}
	conf := confidence.Heuristic(fields)
	log.Debug("processor.parse.ok", "fields", fields.PopulatedCount(), "confidence", conf.Overall)

	provider := p.Provider()
	if ShouldEnhance(provider, res.Metadata, conf) {
		imageOnly := res.Metadata != nil && res.Metadata.IsImageOnlyPDF
		p.appendLog(ctx, invoiceID, constants.LogInfo, "Starting AI enhancement with "+string(provider))
		ai, aiErr := p.enhancer.Enhance(ctx, res.Text, imageOnly)
		switch {
		case ctx.Err() != nil:
			return p.fail(ctx, inv, ctx.Err())
		case aiErr != nil:
			log.Warn("processor.enhance.failed", "provider", provider, "error", aiErr)
			p.appendLog(ctx, invoiceID, constants.LogWarning, "AI enhancement failed: "+aiErr.Error())
		case ai == nil:
			log.Info("processor.enhance.empty", "provider", provider)
			p.appendLog(ctx, invoiceID, constants.LogWarning, "AI enhancement returned no usable fields")
		default:
			fields = Merge(fields, ai)
			p.appendLog(ctx, invoiceID, constants.LogSuccess, "AI enhancement completed successfully")
		}
	}

	if err := ctx.Err(); err != nil {
		return p.fail(ctx, inv, err)
	}

	var upstream *int
	if res.Metadata != nil {
		upstream = &res.Metadata.Confidence
	}
	final := confidence.Score(fields, upstream)

	inv.Status = constants.StatusCompleted
	inv.ExtractedFields = fields
	inv.Confidence = &final
	inv.OCRText = res.Text
	inv.ErrorMessage = ""
	if err := p.invoices.Update(ctx, inv); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// the deadline fired during the write; the row is still processing
			return p.fail(ctx, inv, ctxErr)
		}
		log.Error("processor.persist.failed", "error", err)
		return inv, fmt.Errorf("persist invoice: %w", err)
	}
	p.appendLog(ctx, invoiceID, constants.LogSuccess, "Successfully processed "+inv.FileName)

	log.Info("processor.completed",
		"method", res.Method,
		"confidence", final.Overall,
		"fields", fields.PopulatedCount(),
		"line_items", len(fields.LineItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return inv, nil
}

// fail records the invoice as failed. It writes with a context detached from
// cancellation so an aborted run never stays in processing.
func (p *Processor) fail(ctx context.Context, inv *entity.Invoice, cause error) (*entity.Invoice, error) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failurePersistTimeout)
	defer cancel()

	inv.Status = constants.StatusFailed
	inv.ErrorMessage = cause.Error()
	inv.ExtractedFields = nil
	inv.Confidence = nil

	p.appendLog(wctx, inv.ID, constants.LogError, "Processing failed: "+cause.Error())
	if err := p.invoices.Update(wctx, inv); err != nil {
		p.logger.Error("processor.persist_failure.failed", "invoice_id", inv.ID, "error", err)
		return inv, errors.Join(cause, fmt.Errorf("persist invoice: %w", err))
	}
	return inv, cause
}

func (p *Processor) appendLog(ctx context.Context, invoiceID uuid.UUID, typ constants.LogType, msg string) {
	if p.logs == nil {
		return
	}
	id := invoiceID
	entry := &entity.ProcessingLog{
		Timestamp: time.Now().UTC(),
		Message:   msg,
		Type:      typ,
		InvoiceID: &id,
	}
	if err := p.logs.Append(ctx, entry); err != nil {
		p.logger.Warn("processor.log_append.failed", "invoice_id", invoiceID, "error", err)
	}
}
