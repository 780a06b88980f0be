package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

const (
	invoiceBucket = "invoices"
	logBucket     = "processing_logs"
)

// BoltStore implements InvoiceRepository and LogRepository on an embedded bbolt file.
// Invoices are keyed by id; log entries by a monotonically increasing sequence.
type BoltStore struct {
	db     *bbolt.DB
	logger *slog.Logger
}

func OpenBolt(path string, logger *slog.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{invoiceBucket, logBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	logger.Info("opened bolt store", "path", path)
	return &BoltStore{db: db, logger: logger}, nil
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}

func (b *BoltStore) Create(ctx context.Context, inv *entity.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
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
	if err := validateInvoice(inv); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(invoiceBucket))
		if bucket.Get([]byte(inv.ID.String())) != nil {
			return common.NewAppError("DB_ERROR", "invoice exists: "+inv.ID.String(), common.ErrDatabase)
		}
		return putJSON(bucket, []byte(inv.ID.String()), inv)
	})
}

func (b *BoltStore) Update(ctx context.Context, inv *entity.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateInvoice(inv); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(invoiceBucket))
		data := bucket.Get([]byte(inv.ID.String()))
		if data == nil {
			return common.NewAppError("NOT_FOUND", "invoice "+inv.ID.String(), common.ErrNotFound)
		}
		var prev entity.Invoice
		if err := json.Unmarshal(data, &prev); err != nil {
			return fmt.Errorf("unmarshaling invoice: %w", err)
		}
		inv.FileName, inv.UploadDate, inv.CreatedAt = prev.FileName, prev.UploadDate, prev.CreatedAt
		inv.UpdatedAt = time.Now().UTC()
		return putJSON(bucket, []byte(inv.ID.String()), inv)
	})
}

func (b *BoltStore) Get(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var inv *entity.Invoice
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(invoiceBucket)).Get([]byte(id.String()))
		if data == nil {
			return common.NewAppError("NOT_FOUND", "invoice "+id.String(), common.ErrNotFound)
		}
		return json.Unmarshal(data, &inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (b *BoltStore) List(ctx context.Context, filter ListFilter) ([]*entity.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	invoices := make([]*entity.Invoice, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(invoiceBucket)).ForEach(func(k, v []byte) error {
			var inv entity.Invoice
			if err := json.Unmarshal(v, &inv); err != nil {
				return fmt.Errorf("unmarshaling invoice: %w", err)
			}
			if filter.Status == "" || inv.Status == filter.Status {
				invoices = append(invoices, &inv)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(invoices, func(i, j int) bool {
		if !invoices[i].UploadDate.Equal(invoices[j].UploadDate) {
			return invoices[i].UploadDate.After(invoices[j].UploadDate)
		}
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})
	return page(invoices, filter.Offset, filter.Limit), nil
}

func (b *BoltStore) Append(ctx context.Context, entry *entity.ProcessingLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepareLog(entry); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(logBucket))
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return putJSON(bucket, key, entry)
	})
}

func (b *BoltStore) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*entity.ProcessingLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*entity.ProcessingLog, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(logBucket)).ForEach(func(k, v []byte) error {
			var e entity.ProcessingLog
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("unmarshaling log: %w", err)
			}
			if e.InvoiceID != nil && *e.InvoiceID == invoiceID {
				out = append(out, &e)
			}
			return nil
		})
	})
	return out, err
}

func (b *BoltStore) ListRecent(ctx context.Context, limit int) ([]*entity.ProcessingLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	out := make([]*entity.ProcessingLog, 0, limit)
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(logBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var e entity.ProcessingLog
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("unmarshaling log: %w", err)
			}
			out = append(out, &e)
		}
		return nil
	})
	return out, err
}

func putJSON(bucket *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling: %w", err)
	}
	return bucket.Put(key, data)
}

func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
