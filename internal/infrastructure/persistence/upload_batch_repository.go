package persistence

import (
	"context"
	"errors"

	"github.com/costiq/backend/internal/domain/ingest"
	"github.com/costiq/backend/internal/domain/shared"
	"github.com/costiq/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUploadBatchRepository implements ingest.UploadBatchRepository using GORM
type GormUploadBatchRepository struct {
	db *gorm.DB
}

// NewGormUploadBatchRepository creates a new GormUploadBatchRepository
func NewGormUploadBatchRepository(db *gorm.DB) *GormUploadBatchRepository {
	return &GormUploadBatchRepository{db: db}
}

// Save inserts or updates an upload batch. Batches are saved once when
// processing starts and again when they complete or fail.
func (r *GormUploadBatchRepository) Save(ctx context.Context, batch *ingest.UploadBatch) error {
	model := models.UploadBatchModelFromDomain(batch)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model).Error
}

// FindByID finds an upload batch by its ID
func (r *GormUploadBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*ingest.UploadBatch, error) {
	var model models.UploadBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns upload batches newest first with the total count.
func (r *GormUploadBatchRepository) FindAll(ctx context.Context, page, pageSize int) ([]*ingest.UploadBatch, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.UploadBatchModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultFindingPageSize
	}
	if pageSize > maxFindingPageSize {
		pageSize = maxFindingPageSize
	}

	var batchModels []models.UploadBatchModel
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&batchModels).Error; err != nil {
		return nil, 0, err
	}

	batches := make([]*ingest.UploadBatch, len(batchModels))
	for i := range batchModels {
		batches[i] = batchModels[i].ToDomain()
	}
	return batches, total, nil
}
