package ingest

import (
	"context"

	"github.com/costiq/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// FileType identifies which canonical schema an uploaded file maps onto.
type FileType string

const (
	FileTypePO        FileType = "po"
	FileTypeInvoice   FileType = "invoice"
	FileTypeInventory FileType = "inventory"
	FileTypeLabor     FileType = "labor"
)

// IsValid reports whether the file type is one of the closed set.
func (t FileType) IsValid() bool {
	switch t {
	case FileTypePO, FileTypeInvoice, FileTypeInventory, FileTypeLabor:
		return true
	}
	return false
}

func (t FileType) String() string {
	return string(t)
}

// UploadStatus tracks the processing state of an upload batch.
type UploadStatus string

const (
	StatusPending    UploadStatus = "pending"
	StatusProcessing UploadStatus = "processing"
	StatusCompleted  UploadStatus = "completed"
	StatusFailed     UploadStatus = "failed"
)

// UploadBatch tracks one uploaded CSV file and its processing outcome.
type UploadBatch struct {
	shared.BaseEntity
	Filename    string
	FileType    FileType
	Status      UploadStatus
	RecordCount int
	Warnings    []string
}

// NewUploadBatch creates an upload batch in the pending state. The batch
// moves to processing once its file is picked up.
func NewUploadBatch(filename string, fileType FileType) *UploadBatch {
	return &UploadBatch{
		BaseEntity: shared.NewBaseEntity(),
		Filename:   filename,
		FileType:   fileType,
		Status:     StatusPending,
	}
}

// Start marks the batch as being processed.
func (b *UploadBatch) Start() {
	b.Status = StatusProcessing
}

// Complete marks the batch as successfully processed.
func (b *UploadBatch) Complete(recordCount int, warnings []string) {
	b.Status = StatusCompleted
	b.RecordCount = recordCount
	b.Warnings = warnings
}

// Fail marks the batch as failed.
func (b *UploadBatch) Fail() {
	b.Status = StatusFailed
}

// UploadBatchRepository persists upload batch tracking records.
type UploadBatchRepository interface {
	Save(ctx context.Context, batch *UploadBatch) error
	FindByID(ctx context.Context, id uuid.UUID) (*UploadBatch, error)
	FindAll(ctx context.Context, page, pageSize int) ([]*UploadBatch, int64, error)
}
