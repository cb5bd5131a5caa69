// Package ingest turns uploaded CSV files into normalized domain records
// and tracks each upload as a batch with its processing outcome.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/costiq/backend/internal/application/normalize"
	"github.com/costiq/backend/internal/domain/analysis"
	domain "github.com/costiq/backend/internal/domain/ingest"
	"github.com/costiq/backend/internal/domain/shared"
	"github.com/costiq/backend/internal/infrastructure/csvio"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FileArchive stores raw uploaded files for later audit. Archiving is
// best effort; a failed archive never fails the upload.
type FileArchive interface {
	Store(ctx context.Context, key string, content []byte, contentType string) error
}

// UploadResult summarizes one processed upload.
type UploadResult struct {
	Batch       *domain.UploadBatch `json:"batch"`
	RecordCount int                 `json:"record_count"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// UploadService processes uploaded CSV files end to end: parse,
// normalize, build records, persist, and track the batch.
type UploadService struct {
	records analysis.RecordRepository
	batches domain.UploadBatchRepository
	archive FileArchive
	logger  *zap.Logger
}

// NewUploadService creates an UploadService. archive may be nil to
// disable raw file archiving.
func NewUploadService(
	records analysis.RecordRepository,
	batches domain.UploadBatchRepository,
	archive FileArchive,
	logger *zap.Logger,
) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{
		records: records,
		batches: batches,
		archive: archive,
		logger:  logger,
	}
}

// ProcessUpload ingests one CSV file. The batch record is persisted in
// the pending state before any parsing so failed uploads remain visible
// with a failed status. Labor files are normalized and counted but
// produce no stored records.
func (s *UploadService) ProcessUpload(
	ctx context.Context,
	filename string,
	fileType domain.FileType,
	content []byte,
) (*UploadResult, error) {
	if !fileType.IsValid() {
		return nil, shared.NewDomainError("INVALID_FILE_TYPE", fmt.Sprintf("unsupported file type %q", fileType))
	}

	batch := domain.NewUploadBatch(filename, fileType)
	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, shared.ErrStorageFailure
	}
	batch.Start()

	if s.archive != nil {
		key := fmt.Sprintf("uploads/%s/%s", batch.ID, filename)
		if err := s.archive.Store(ctx, key, content, "text/csv"); err != nil {
			s.logger.Warn("failed to archive uploaded file",
				zap.String("key", key),
				zap.Error(err))
		}
	}

	raw, err := csvio.Parse(bytes.NewReader(content))
	if err != nil {
		s.failBatch(ctx, batch)
		return nil, shared.NewDomainError("INVALID_FILE", err.Error())
	}

	table := normalize.Table{Columns: raw.Columns, Rows: raw.Rows}
	rows, warnings, err := normalize.Normalize(table, schemaFor(fileType))
	if err != nil {
		s.failBatch(ctx, batch)
		return nil, err
	}

	count, err := s.storeRows(ctx, fileType, rows)
	if err != nil {
		s.failBatch(ctx, batch)
		s.logger.Error("failed to store normalized records",
			zap.String("file_type", fileType.String()),
			zap.Error(err))
		return nil, shared.ErrStorageFailure
	}

	batch.Complete(count, warnings)
	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, shared.ErrStorageFailure
	}

	s.logger.Info("upload processed",
		zap.String("batch_id", batch.ID.String()),
		zap.String("filename", filename),
		zap.String("file_type", fileType.String()),
		zap.Int("records", count),
		zap.Int("warnings", len(warnings)))

	return &UploadResult{
		Batch:       batch,
		RecordCount: count,
		Warnings:    warnings,
	}, nil
}

// Batches returns stored upload batches, newest first.
func (s *UploadService) Batches(ctx context.Context, page, pageSize int) ([]*domain.UploadBatch, int64, error) {
	return s.batches.FindAll(ctx, page, pageSize)
}

// BatchByID returns a single upload batch.
func (s *UploadService) BatchByID(ctx context.Context, id uuid.UUID) (*domain.UploadBatch, error) {
	return s.batches.FindByID(ctx, id)
}

func (s *UploadService) storeRows(ctx context.Context, fileType domain.FileType, rows []normalize.Row) (int, error) {
	switch fileType {
	case domain.FileTypePO, domain.FileTypeInvoice:
		records := make([]analysis.ProcurementRecord, 0, len(rows))
		for _, row := range rows {
			records = append(records, procurementFromRow(row))
		}
		if err := s.records.SaveProcurementBatch(ctx, records); err != nil {
			return 0, err
		}
		return len(records), nil
	case domain.FileTypeInventory:
		records := make([]analysis.InventoryRecord, 0, len(rows))
		for _, row := range rows {
			records = append(records, inventoryFromRow(row))
		}
		if err := s.records.SaveInventoryBatch(ctx, records); err != nil {
			return 0, err
		}
		return len(records), nil
	case domain.FileTypeLabor:
		// Labor rows are validated and counted only.
		return len(rows), nil
	}
	return 0, nil
}

func (s *UploadService) failBatch(ctx context.Context, batch *domain.UploadBatch) {
	batch.Fail()
	if err := s.batches.Save(ctx, batch); err != nil {
		s.logger.Error("failed to mark batch as failed",
			zap.String("batch_id", batch.ID.String()),
			zap.Error(err))
	}
}

func schemaFor(fileType domain.FileType) normalize.Schema {
	switch fileType {
	case domain.FileTypePO:
		return normalize.SchemaPO
	case domain.FileTypeInvoice:
		return normalize.SchemaInvoice
	case domain.FileTypeInventory:
		return normalize.SchemaInventory
	case domain.FileTypeLabor:
		return normalize.SchemaLabor
	}
	return normalize.Schema(fileType)
}

// procurementFromRow builds a procurement record from a normalized row,
// applying defaults so the record invariants hold: unit price is never
// negative and quantity is never zero or negative.
func procurementFromRow(row normalize.Row) analysis.ProcurementRecord {
	unitPrice := numberField(row, "unit_price", decimal.Zero)
	if unitPrice.IsNegative() {
		unitPrice = decimal.Zero
	}
	quantity := numberField(row, "quantity", decimal.NewFromInt(1))
	if !quantity.IsPositive() {
		quantity = decimal.NewFromInt(1)
	}

	rec := analysis.ProcurementRecord{
		BaseEntity:      shared.NewBaseEntity(),
		VendorName:      textField(row, "vendor_name", "Unknown"),
		ItemSKU:         textField(row, "item_sku", "Unknown"),
		ItemDescription: textField(row, "item_description", ""),
		UnitPrice:       unitPrice,
		Quantity:        quantity,
		PONumber:        textField(row, "po_number", ""),
		PODate:          dateField(row, "po_date"),
		Department:      textField(row, "department", ""),
	}

	// A zero or negative contract price cannot anchor an overcharge, so
	// it is stored as absent.
	if d, ok := numberValue(row, "contract_price"); ok && d.IsPositive() {
		rec.ContractPrice = &d
	}
	return rec
}

func inventoryFromRow(row normalize.Row) analysis.InventoryRecord {
	qoh := numberField(row, "quantity_on_hand", decimal.Zero)
	if qoh.IsNegative() {
		qoh = decimal.Zero
	}

	rec := analysis.InventoryRecord{
		BaseEntity:      shared.NewBaseEntity(),
		SKU:             textField(row, "sku", "Unknown"),
		ItemDescription: textField(row, "item_description", ""),
		Location:        textField(row, "location", ""),
		Department:      textField(row, "department", ""),
		QuantityOnHand:  qoh,
		ExpiryDate:      dateField(row, "expiry_date"),
	}

	if d, ok := numberValue(row, "unit_cost"); ok {
		rec.UnitCost = &d
	}
	if d, ok := numberValue(row, "daily_usage_rate"); ok {
		rec.DailyUsageRate = &d
	}
	return rec
}

func textField(row normalize.Row, field, fallback string) string {
	if v, ok := row[field]; ok {
		if s, ok := v.Text(); ok && s != "" {
			return s
		}
	}
	return fallback
}

func numberField(row normalize.Row, field string, fallback decimal.Decimal) decimal.Decimal {
	if d, ok := numberValue(row, field); ok {
		return d
	}
	return fallback
}

func numberValue(row normalize.Row, field string) (decimal.Decimal, bool) {
	v, ok := row[field]
	if !ok {
		return decimal.Decimal{}, false
	}
	return v.Number()
}

func dateField(row normalize.Row, field string) *time.Time {
	if v, ok := row[field]; ok {
		if t, ok := v.Date(); ok {
			return &t
		}
	}
	return nil
}
