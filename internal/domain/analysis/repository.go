package analysis

import (
	"context"
)

// RecordRepository supplies the full, consistent snapshot of normalized
// records for an evaluation run. Rule evaluators only ever see the
// slices it returns; they never touch storage themselves.
type RecordRepository interface {
	// ProcurementSnapshot returns all procurement records in insertion order.
	ProcurementSnapshot(ctx context.Context) ([]ProcurementRecord, error)

	// InventorySnapshot returns all inventory records in insertion order.
	InventorySnapshot(ctx context.Context) ([]InventoryRecord, error)

	// SaveProcurementBatch persists a batch of procurement records atomically.
	SaveProcurementBatch(ctx context.Context, records []ProcurementRecord) error

	// SaveInventoryBatch persists a batch of inventory records atomically.
	SaveInventoryBatch(ctx context.Context, records []InventoryRecord) error
}

// FindingFilter narrows finding queries.
type FindingFilter struct {
	Category *Category
	Severity *Severity
	Page     int
	PageSize int
}

// FindingRepository is the durable sink for findings. SaveBatch is
// all-or-nothing: either every draft is written and assigned identity,
// or none are.
type FindingRepository interface {
	// SaveBatch atomically persists all drafts and returns them with
	// identity and CreatedAt assigned.
	SaveBatch(ctx context.Context, drafts []Finding) ([]Finding, error)

	// FindAll returns persisted findings matching the filter, newest
	// first, along with the total matching count.
	FindAll(ctx context.Context, filter FindingFilter) ([]Finding, int64, error)
}
