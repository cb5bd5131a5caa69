package persistence

import (
	"context"
	"time"

	"github.com/costiq/backend/internal/domain/analysis"
	"github.com/costiq/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultFindingPageSize = 50
	maxFindingPageSize     = 200
)

// GormFindingRepository implements analysis.FindingRepository using GORM
type GormFindingRepository struct {
	db *gorm.DB
}

// NewGormFindingRepository creates a new GormFindingRepository
func NewGormFindingRepository(db *gorm.DB) *GormFindingRepository {
	return &GormFindingRepository{db: db}
}

// SaveBatch atomically persists all drafts and returns them with identity
// and CreatedAt assigned. Either every draft is written or none are.
func (r *GormFindingRepository) SaveBatch(ctx context.Context, drafts []analysis.Finding) ([]analysis.Finding, error) {
	if len(drafts) == 0 {
		return []analysis.Finding{}, nil
	}

	now := time.Now().UTC()
	findingModels := make([]models.FindingModel, len(drafts))
	for i, draft := range drafts {
		if draft.ID == uuid.Nil {
			draft.ID = uuid.New()
		}
		if draft.CreatedAt.IsZero() {
			draft.CreatedAt = now
			draft.UpdatedAt = now
		}
		findingModels[i] = models.FindingModelFromDomain(draft)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&findingModels, recordInsertBatchSize).Error
	})
	if err != nil {
		return nil, err
	}

	saved := make([]analysis.Finding, len(findingModels))
	for i, model := range findingModels {
		saved[i] = model.ToDomain()
	}
	return saved, nil
}

// FindAll returns persisted findings matching the filter, newest first,
// along with the total matching count.
func (r *GormFindingRepository) FindAll(ctx context.Context, filter analysis.FindingFilter) ([]analysis.Finding, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FindingModel{})
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Severity != nil {
		query = query.Where("severity = ?", *filter.Severity)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = defaultFindingPageSize
	}
	if pageSize > maxFindingPageSize {
		pageSize = maxFindingPageSize
	}

	var findingModels []models.FindingModel
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&findingModels).Error; err != nil {
		return nil, 0, err
	}

	findings := make([]analysis.Finding, len(findingModels))
	for i, model := range findingModels {
		findings[i] = model.ToDomain()
	}
	return findings, total, nil
}
