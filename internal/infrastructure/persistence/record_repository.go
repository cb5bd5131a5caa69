package persistence

import (
	"context"

	"github.com/costiq/backend/internal/domain/analysis"
	"github.com/costiq/backend/internal/domain/shared"
	"github.com/costiq/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const recordInsertBatchSize = 500

// GormRecordRepository implements analysis.RecordRepository using GORM
type GormRecordRepository struct {
	db *gorm.DB
}

// NewGormRecordRepository creates a new GormRecordRepository
func NewGormRecordRepository(db *gorm.DB) *GormRecordRepository {
	return &GormRecordRepository{db: db}
}

// ProcurementSnapshot returns all procurement records in insertion order.
func (r *GormRecordRepository) ProcurementSnapshot(ctx context.Context) ([]analysis.ProcurementRecord, error) {
	var recordModels []models.ProcurementRecordModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]analysis.ProcurementRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = model.ToDomain()
	}
	return records, nil
}

// InventorySnapshot returns all inventory records in insertion order.
func (r *GormRecordRepository) InventorySnapshot(ctx context.Context) ([]analysis.InventoryRecord, error) {
	var recordModels []models.InventoryRecordModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]analysis.InventoryRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = model.ToDomain()
	}
	return records, nil
}

// SaveProcurementBatch persists a batch of procurement records atomically.
func (r *GormRecordRepository) SaveProcurementBatch(ctx context.Context, records []analysis.ProcurementRecord) error {
	if len(records) == 0 {
		return nil
	}

	recordModels := make([]models.ProcurementRecordModel, len(records))
	for i, record := range records {
		ensureIdentity(&record.BaseEntity)
		recordModels[i] = models.ProcurementRecordModelFromDomain(record)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&recordModels, recordInsertBatchSize).Error
	})
}

// SaveInventoryBatch persists a batch of inventory records atomically.
func (r *GormRecordRepository) SaveInventoryBatch(ctx context.Context, records []analysis.InventoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	recordModels := make([]models.InventoryRecordModel, len(records))
	for i, record := range records {
		ensureIdentity(&record.BaseEntity)
		recordModels[i] = models.InventoryRecordModelFromDomain(record)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&recordModels, recordInsertBatchSize).Error
	})
}

// ensureIdentity backfills ID and timestamps on entities constructed
// without them.
func ensureIdentity(e *shared.BaseEntity) {
	if e.ID == uuid.Nil {
		*e = shared.NewBaseEntity()
	}
}
