package analysis

import (
	"fmt"
	"time"

	"github.com/costiq/backend/internal/domain/analysis"
	"github.com/shopspring/decimal"
)

// EvaluateExpiryRisk flags stock that has expired or will expire within
// the risk window. The evaluation date is injected so a run is
// reproducible; the rule never reads the system clock.
func EvaluateExpiryRisk(records []analysis.InventoryRecord, evaluationDate time.Time, th Thresholds) []analysis.Finding {
	var findings []analysis.Finding
	for _, r := range records {
		if r.ExpiryDate == nil || !r.QuantityOnHand.IsPositive() {
			continue
		}

		days := daysBetween(evaluationDate, *r.ExpiryDate)

		var savings *decimal.Decimal
		if r.UnitCost != nil {
			savings = positiveOrNil(r.QuantityOnHand.Mul(*r.UnitCost))
		}

		switch {
		case days < 0:
			// Already expired: always high, whatever the value at stake.
			description := fmt.Sprintf(
				"SKU %s has EXPIRED (%s). %s units need immediate disposal",
				r.SKU,
				r.ExpiryDate.Format("2006-01-02"),
				r.QuantityOnHand.StringFixed(0),
			)
			if savings != nil {
				description += fmt.Sprintf(" - loss of $%s.", savings.StringFixed(2))
			} else {
				description += "."
			}
			findings = append(findings, analysis.NewFinding(
				analysis.CategoryExpiryRisk, analysis.SeverityHigh, description, savings,
			))

		case days <= th.ExpiryWindowDays:
			severity := analysis.SeverityLow
			if days <= th.ExpiryHighDays {
				severity = analysis.SeverityHigh
			} else if days <= th.ExpiryMediumDays {
				severity = analysis.SeverityMedium
			}
			// Large value at stake overrides the days-based tier.
			if savings != nil && savings.GreaterThan(th.ExpiryValueCutoff) {
				severity = analysis.SeverityHigh
			}

			description := fmt.Sprintf(
				"SKU %s expires in %d days (%s). %s units at risk",
				r.SKU,
				days,
				r.ExpiryDate.Format("2006-01-02"),
				r.QuantityOnHand.StringFixed(0),
			)
			if savings != nil {
				description += fmt.Sprintf(" valued at $%s.", savings.StringFixed(2))
			} else {
				description += "."
			}
			if r.Location != "" {
				description += fmt.Sprintf(" Location: %s.", r.Location)
			}
			findings = append(findings, analysis.NewFinding(
				analysis.CategoryExpiryRisk, severity, description, savings,
			))
		}
		// Beyond the window: no finding.
	}
	return findings
}

// daysBetween returns the signed whole-day distance from a to b,
// comparing calendar dates and ignoring time of day.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}
