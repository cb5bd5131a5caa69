package analysis

import (
	"fmt"

	"github.com/costiq/backend/internal/domain/analysis"
	"github.com/shopspring/decimal"
)

// EvaluateOverstock flags items holding far more stock than their usage
// rate justifies. Items without a positive usage rate or with nothing on
// hand cannot be assessed and are skipped.
func EvaluateOverstock(records []analysis.InventoryRecord, th Thresholds) []analysis.Finding {
	var findings []analysis.Finding
	for _, r := range records {
		if !r.HasUsageRate() || !r.QuantityOnHand.IsPositive() {
			continue
		}

		daysOnHand := r.DaysOnHand()
		if !daysOnHand.GreaterThan(th.OverstockDays) {
			continue
		}

		var savings *decimal.Decimal
		if r.UnitCost != nil {
			optimalQty := r.DailyUsageRate.Mul(th.OptimalStockDays)
			excess := r.QuantityOnHand.Sub(optimalQty)
			if excess.IsPositive() {
				savings = positiveOrNil(excess.Mul(*r.UnitCost))
			}
		}

		severity := analysis.SeverityLow
		if daysOnHand.GreaterThan(th.OverstockHighDays) {
			severity = analysis.SeverityHigh
		} else if daysOnHand.GreaterThan(th.OverstockMediumDays) {
			severity = analysis.SeverityMedium
		}

		description := fmt.Sprintf(
			"SKU %s has %s days of inventory on hand (%s units at %s/day). Consider reducing stock to avoid tied-up capital.",
			r.SKU,
			daysOnHand.StringFixed(0),
			r.QuantityOnHand.StringFixed(0),
			r.DailyUsageRate.StringFixed(1),
		)
		if r.Location != "" {
			description += fmt.Sprintf(" Location: %s.", r.Location)
		}

		findings = append(findings, analysis.NewFinding(
			analysis.CategoryOverstock, severity, description, savings,
		))
	}
	return findings
}
