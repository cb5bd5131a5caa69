package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/costiq/backend/internal/domain/analysis"
	"github.com/costiq/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockRecordRepo is a mock implementation of analysis.RecordRepository
type mockRecordRepo struct {
	mock.Mock
}

func (m *mockRecordRepo) ProcurementSnapshot(ctx context.Context) ([]analysis.ProcurementRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analysis.ProcurementRecord), args.Error(1)
}

func (m *mockRecordRepo) InventorySnapshot(ctx context.Context) ([]analysis.InventoryRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analysis.InventoryRecord), args.Error(1)
}

func (m *mockRecordRepo) SaveProcurementBatch(ctx context.Context, records []analysis.ProcurementRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *mockRecordRepo) SaveInventoryBatch(ctx context.Context, records []analysis.InventoryRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// mockFindingRepo is a mock implementation of analysis.FindingRepository
type mockFindingRepo struct {
	mock.Mock
}

// SaveBatch mirrors the real sink when configured with a nil return
// value: it echoes the drafts back with identity and CreatedAt assigned.
func (m *mockFindingRepo) SaveBatch(ctx context.Context, drafts []analysis.Finding) ([]analysis.Finding, error) {
	args := m.Called(ctx, drafts)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	if args.Get(0) == nil {
		persisted := make([]analysis.Finding, len(drafts))
		for i, d := range drafts {
			d.ID = uuid.New()
			d.CreatedAt = time.Now()
			persisted[i] = d
		}
		return persisted, nil
	}
	return args.Get(0).([]analysis.Finding), nil
}

func (m *mockFindingRepo) FindAll(ctx context.Context, filter analysis.FindingFilter) ([]analysis.Finding, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]analysis.Finding), args.Get(1).(int64), args.Error(2)
}

func newTestService(records *mockRecordRepo, findings *mockFindingRepo) *Service {
	return NewService(records, findings, DefaultThresholds(), zap.NewNop())
}

func TestService_Run(t *testing.T) {
	asOf := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("merges findings from all four rules and persists once", func(t *testing.T) {
		records := new(mockRecordRepo)
		findings := new(mockFindingRepo)

		records.On("ProcurementSnapshot", mock.Anything).Return([]analysis.ProcurementRecord{
			procurement("Acme", "SKU-1", "40", "1"),
			procurement("Beta", "SKU-1", "60", "1"),
			contracted("Acme", "SKU-2", "125", "3", "100"),
		}, nil)

		overstocked := stocked("SKU-3", "200")
		overstocked.DailyUsageRate = decPtr("2")
		overstocked.UnitCost = decPtr("5")
		nearExpiry := expiring("SKU-4", "10", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
		records.On("InventorySnapshot", mock.Anything).Return([]analysis.InventoryRecord{
			overstocked, nearExpiry,
		}, nil)

		findings.On("SaveBatch", mock.Anything, mock.MatchedBy(func(drafts []analysis.Finding) bool {
			return len(drafts) == 4
		})).Return(nil, nil)

		svc := newTestService(records, findings)
		result, err := svc.Run(context.Background(), asOf)
		require.NoError(t, err)

		require.Len(t, result.Findings, 4)
		// Deterministic category order: variance, mismatch, overstock, expiry.
		assert.Equal(t, analysis.CategoryPriceVariance, result.Findings[0].Category)
		assert.Equal(t, analysis.CategoryContractMismatch, result.Findings[1].Category)
		assert.Equal(t, analysis.CategoryOverstock, result.Findings[2].Category)
		assert.Equal(t, analysis.CategoryExpiryRisk, result.Findings[3].Category)

		for _, f := range result.Findings {
			assert.NotEqual(t, uuid.Nil, f.ID)
		}

		assert.Equal(t, 4, result.Summary.TotalFindings)
		assert.Equal(t, 1, result.Summary.ByCategory[analysis.CategoryOverstock])
		findings.AssertNumberOfCalls(t, "SaveBatch", 1)
	})

	t.Run("empty snapshots yield an empty run without error", func(t *testing.T) {
		records := new(mockRecordRepo)
		findings := new(mockFindingRepo)

		records.On("ProcurementSnapshot", mock.Anything).Return([]analysis.ProcurementRecord{}, nil)
		records.On("InventorySnapshot", mock.Anything).Return([]analysis.InventoryRecord{}, nil)
		findings.On("SaveBatch", mock.Anything, mock.Anything).Return([]analysis.Finding{}, nil)

		svc := newTestService(records, findings)
		result, err := svc.Run(context.Background(), asOf)
		require.NoError(t, err)
		assert.Empty(t, result.Findings)
		assert.Equal(t, 0, result.Summary.TotalFindings)
		assert.True(t, result.Summary.TotalPotentialSavings.IsZero())
	})

	t.Run("sink failure surfaces a single storage error", func(t *testing.T) {
		records := new(mockRecordRepo)
		findings := new(mockFindingRepo)

		records.On("ProcurementSnapshot", mock.Anything).Return([]analysis.ProcurementRecord{}, nil)
		records.On("InventorySnapshot", mock.Anything).Return([]analysis.InventoryRecord{}, nil)
		findings.On("SaveBatch", mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))

		svc := newTestService(records, findings)
		_, err := svc.Run(context.Background(), asOf)
		assert.ErrorIs(t, err, shared.ErrStorageFailure)
	})

	t.Run("snapshot failure aborts before persistence", func(t *testing.T) {
		records := new(mockRecordRepo)
		findings := new(mockFindingRepo)

		records.On("ProcurementSnapshot", mock.Anything).Return(nil, errors.New("connection reset"))

		svc := newTestService(records, findings)
		_, err := svc.Run(context.Background(), asOf)
		require.Error(t, err)
		findings.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	})
}

func TestService_EvaluateRule(t *testing.T) {
	asOf := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("runs a single procurement rule", func(t *testing.T) {
		records := new(mockRecordRepo)
		records.On("ProcurementSnapshot", mock.Anything).Return([]analysis.ProcurementRecord{
			contracted("Acme", "SKU-1", "125", "1", "100"),
		}, nil)

		svc := newTestService(records, new(mockFindingRepo))
		drafts, err := svc.EvaluateRule(context.Background(), analysis.CategoryContractMismatch, asOf)
		require.NoError(t, err)
		require.Len(t, drafts, 1)
		assert.Equal(t, analysis.CategoryContractMismatch, drafts[0].Category)
	})

	t.Run("rejects an unknown category", func(t *testing.T) {
		svc := newTestService(new(mockRecordRepo), new(mockFindingRepo))
		_, err := svc.EvaluateRule(context.Background(), analysis.Category("equipment"), asOf)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestSummarize(t *testing.T) {
	t.Run("counts categories and severities and sums savings", func(t *testing.T) {
		s1 := decimal.NewFromInt(100)
		s2 := decimal.NewFromInt(250)
		findings := []analysis.Finding{
			{Category: analysis.CategoryPriceVariance, Severity: analysis.SeverityHigh, PotentialSavings: &s1},
			{Category: analysis.CategoryPriceVariance, Severity: analysis.SeverityLow, PotentialSavings: &s2},
			{Category: analysis.CategoryExpiryRisk, Severity: analysis.SeverityHigh, PotentialSavings: nil},
		}

		summary := Summarize(findings)
		assert.Equal(t, 3, summary.TotalFindings)
		assert.Equal(t, 2, summary.ByCategory[analysis.CategoryPriceVariance])
		assert.Equal(t, 1, summary.ByCategory[analysis.CategoryExpiryRisk])
		assert.Equal(t, 2, summary.BySeverity[analysis.SeverityHigh])
		assert.Equal(t, 1, summary.BySeverity[analysis.SeverityLow])
		// The unquantified finding adds nothing to the total.
		assert.True(t, summary.TotalPotentialSavings.Equal(decimal.NewFromInt(350)))
	})

	t.Run("empty set summarizes to zero", func(t *testing.T) {
		summary := Summarize(nil)
		assert.Equal(t, 0, summary.TotalFindings)
		assert.True(t, summary.TotalPotentialSavings.IsZero())
	})
}

func TestService_SummarizeAll(t *testing.T) {
	t.Run("walks every page of persisted findings", func(t *testing.T) {
		s1 := decimal.NewFromInt(40)
		s2 := decimal.NewFromInt(60)
		page1 := []analysis.Finding{
			{Category: analysis.CategoryOverstock, Severity: analysis.SeverityHigh, PotentialSavings: &s1},
			{Category: analysis.CategoryOverstock, Severity: analysis.SeverityMedium, PotentialSavings: &s2},
		}
		page2 := []analysis.Finding{
			{Category: analysis.CategoryExpiryRisk, Severity: analysis.SeverityLow},
		}

		findings := new(mockFindingRepo)
		findings.On("FindAll", mock.Anything, analysis.FindingFilter{Page: 1, PageSize: 200}).
			Return(page1, int64(3), nil).Once()
		findings.On("FindAll", mock.Anything, analysis.FindingFilter{Page: 2, PageSize: 200}).
			Return(page2, int64(3), nil).Once()

		svc := newTestService(new(mockRecordRepo), findings)
		summary, err := svc.SummarizeAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, summary.TotalFindings)
		assert.Equal(t, 2, summary.ByCategory[analysis.CategoryOverstock])
		assert.True(t, summary.TotalPotentialSavings.Equal(decimal.NewFromInt(100)))
		findings.AssertExpectations(t)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		findings := new(mockFindingRepo)
		findings.On("FindAll", mock.Anything, mock.Anything).
			Return(nil, int64(0), assert.AnError)

		svc := newTestService(new(mockRecordRepo), findings)
		_, err := svc.SummarizeAll(context.Background())
		assert.Error(t, err)
	})
}
