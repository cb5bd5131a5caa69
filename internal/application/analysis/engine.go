// Package analysis implements the cost-leakage detection pipeline: four
// pure rule evaluators over in-memory record snapshots, and a service
// that fans them out, merges their draft findings and persists the batch
// atomically.
package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/costiq/backend/internal/domain/analysis"
	"github.com/costiq/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service orchestrates an evaluation run over one immutable snapshot of
// records. Evaluators are independent read-only passes, so they execute
// in parallel; persistence waits for all of them.
type Service struct {
	records    analysis.RecordRepository
	findings   analysis.FindingRepository
	thresholds Thresholds
	logger     *zap.Logger
}

// NewService creates an analysis service.
func NewService(
	records analysis.RecordRepository,
	findings analysis.FindingRepository,
	thresholds Thresholds,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		records:    records,
		findings:   findings,
		thresholds: thresholds,
		logger:     logger,
	}
}

// Summary aggregates a set of findings for reporting. Findings without a
// savings estimate count as zero in the total but stay nil on the record.
type Summary struct {
	TotalFindings         int                       `json:"total_findings"`
	ByCategory            map[analysis.Category]int `json:"findings_by_category"`
	BySeverity            map[analysis.Severity]int `json:"findings_by_severity"`
	TotalPotentialSavings decimal.Decimal           `json:"total_potential_savings"`
}

// RunResult is the outcome of one completed evaluation run.
type RunResult struct {
	Findings []analysis.Finding
	Summary  Summary
}

// EvaluateAll fetches the record snapshot and runs all four rules,
// returning the merged draft findings without persisting them. Drafts
// are concatenated in fixed category order so output is deterministic.
func (s *Service) EvaluateAll(ctx context.Context, evaluationDate time.Time) ([]analysis.Finding, error) {
	procurement, err := s.records.ProcurementSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch procurement snapshot: %w", err)
	}
	inventory, err := s.records.InventorySnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch inventory snapshot: %w", err)
	}

	evaluators := []struct {
		category analysis.Category
		run      func() []analysis.Finding
	}{
		{analysis.CategoryPriceVariance, func() []analysis.Finding {
			return EvaluatePriceVariance(procurement, s.thresholds)
		}},
		{analysis.CategoryContractMismatch, func() []analysis.Finding {
			return EvaluateContractMismatch(procurement, s.thresholds)
		}},
		{analysis.CategoryOverstock, func() []analysis.Finding {
			return EvaluateOverstock(inventory, s.thresholds)
		}},
		{analysis.CategoryExpiryRisk, func() []analysis.Finding {
			return EvaluateExpiryRisk(inventory, evaluationDate, s.thresholds)
		}},
	}

	// Fan out over the shared immutable snapshot; each evaluator owns its
	// result slot, so the only synchronization needed is the barrier.
	results := make([][]analysis.Finding, len(evaluators))
	var wg sync.WaitGroup
	for i, ev := range evaluators {
		wg.Add(1)
		go func(slot int, category analysis.Category, run func() []analysis.Finding) {
			defer wg.Done()
			start := time.Now()
			found := run()
			s.logger.Info("rule evaluated",
				zap.String("rule", category.String()),
				zap.Int("findings", len(found)),
				zap.Duration("duration", time.Since(start)),
			)
			results[slot] = found
		}(i, ev.category, ev.run)
	}
	wg.Wait()

	var drafts []analysis.Finding
	for _, r := range results {
		drafts = append(drafts, r...)
	}
	return drafts, nil
}

// EvaluateRule runs a single rule by category and returns its drafts.
func (s *Service) EvaluateRule(ctx context.Context, category analysis.Category, evaluationDate time.Time) ([]analysis.Finding, error) {
	switch category {
	case analysis.CategoryPriceVariance, analysis.CategoryContractMismatch:
		procurement, err := s.records.ProcurementSnapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch procurement snapshot: %w", err)
		}
		if category == analysis.CategoryPriceVariance {
			return EvaluatePriceVariance(procurement, s.thresholds), nil
		}
		return EvaluateContractMismatch(procurement, s.thresholds), nil
	case analysis.CategoryOverstock, analysis.CategoryExpiryRisk:
		inventory, err := s.records.InventorySnapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch inventory snapshot: %w", err)
		}
		if category == analysis.CategoryOverstock {
			return EvaluateOverstock(inventory, s.thresholds), nil
		}
		return EvaluateExpiryRisk(inventory, evaluationDate, s.thresholds), nil
	default:
		return nil, shared.ErrInvalidInput
	}
}

// Run executes all rules against the current snapshot, persists the
// merged batch atomically and returns the persisted findings with their
// summary. A sink failure aborts the whole run; no partial findings are
// ever visible.
func (s *Service) Run(ctx context.Context, evaluationDate time.Time) (*RunResult, error) {
	s.logger.Info("analysis run started", zap.Time("evaluation_date", evaluationDate))

	drafts, err := s.EvaluateAll(ctx, evaluationDate)
	if err != nil {
		return nil, err
	}

	persisted, err := s.findings.SaveBatch(ctx, drafts)
	if err != nil {
		s.logger.Error("failed to persist findings", zap.Error(err))
		return nil, shared.ErrStorageFailure
	}

	summary := Summarize(persisted)
	s.logger.Info("analysis run complete",
		zap.Int("findings", summary.TotalFindings),
		zap.String("total_potential_savings", summary.TotalPotentialSavings.StringFixed(2)),
	)

	return &RunResult{Findings: persisted, Summary: summary}, nil
}

// Findings returns persisted findings matching the filter.
func (s *Service) Findings(ctx context.Context, filter analysis.FindingFilter) ([]analysis.Finding, int64, error) {
	return s.findings.FindAll(ctx, filter)
}

// SummarizeAll summarizes every persisted finding. Listings are paged,
// so it walks pages until the reported total is collected.
func (s *Service) SummarizeAll(ctx context.Context) (Summary, error) {
	filter := analysis.FindingFilter{Page: 1, PageSize: 200}
	var all []analysis.Finding
	for {
		page, total, err := s.findings.FindAll(ctx, filter)
		if err != nil {
			return Summary{}, err
		}
		all = append(all, page...)
		if len(page) == 0 || int64(len(all)) >= total {
			break
		}
		filter.Page++
	}
	return Summarize(all), nil
}

// Summarize computes category and severity counts plus the total
// potential savings for a set of findings. Unquantified findings add
// nothing to the total.
func Summarize(findings []analysis.Finding) Summary {
	summary := Summary{
		TotalFindings:         len(findings),
		ByCategory:            make(map[analysis.Category]int),
		BySeverity:            make(map[analysis.Severity]int),
		TotalPotentialSavings: decimal.Zero,
	}
	for _, f := range findings {
		summary.ByCategory[f.Category]++
		summary.BySeverity[f.Severity]++
		if f.PotentialSavings != nil {
			summary.TotalPotentialSavings = summary.TotalPotentialSavings.Add(*f.PotentialSavings)
		}
	}
	return summary
}
