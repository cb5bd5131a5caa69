package analysis

import (
	"fmt"
	"sort"

	"github.com/costiq/backend/internal/domain/analysis"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// EvaluatePriceVariance flags purchases priced well above the average for
// their SKU. Groups with a single purchase carry no comparison signal and
// are skipped, as are groups whose average price is not positive.
func EvaluatePriceVariance(records []analysis.ProcurementRecord, th Thresholds) []analysis.Finding {
	groups := make(map[string][]analysis.ProcurementRecord)
	for _, r := range records {
		groups[r.ItemSKU] = append(groups[r.ItemSKU], r)
	}

	skus := make([]string, 0, len(groups))
	for sku := range groups {
		skus = append(skus, sku)
	}
	// Deterministic output order regardless of map iteration.
	sort.Strings(skus)

	var findings []analysis.Finding
	for _, sku := range skus {
		group := groups[sku]
		if len(group) < 2 {
			continue
		}

		sum := decimal.Zero
		minPrice := group[0].UnitPrice
		maxPrice := group[0].UnitPrice
		for _, r := range group {
			sum = sum.Add(r.UnitPrice)
			if r.UnitPrice.LessThan(minPrice) {
				minPrice = r.UnitPrice
			}
			if r.UnitPrice.GreaterThan(maxPrice) {
				maxPrice = r.UnitPrice
			}
		}
		avgPrice := sum.Div(decimal.NewFromInt(int64(len(group))))
		if !avgPrice.IsPositive() {
			continue
		}

		varianceRatio := maxPrice.Sub(minPrice).Div(avgPrice)
		if !varianceRatio.GreaterThan(th.PriceVarianceRatio) {
			continue
		}

		thresholdPrice := avgPrice.Mul(one.Add(th.PriceVarianceRatio))
		for _, r := range group {
			// Strictly above the threshold; a record exactly at it is fine.
			if !r.UnitPrice.GreaterThan(thresholdPrice) {
				continue
			}

			overpayment := r.UnitPrice.Sub(avgPrice)
			savings := overpayment.Mul(r.Quantity)
			overpaymentPct := overpayment.Div(avgPrice).Mul(hundred)

			severity := analysis.SeverityLow
			if overpaymentPct.GreaterThan(th.PriceVarianceHighPct) {
				severity = analysis.SeverityHigh
			} else if overpaymentPct.GreaterThan(th.PriceVarianceMediumPct) {
				severity = analysis.SeverityMedium
			}

			description := fmt.Sprintf(
				"SKU %s purchased from %s at $%s is %s%% above average price of $%s. Lowest price available: $%s.",
				r.ItemSKU, r.VendorName,
				r.UnitPrice.StringFixed(2),
				overpaymentPct.StringFixed(1),
				avgPrice.StringFixed(2),
				minPrice.StringFixed(2),
			)

			findings = append(findings, analysis.NewFinding(
				analysis.CategoryPriceVariance, severity, description, positiveOrNil(savings),
			))
		}
	}

	return findings
}

// positiveOrNil reports a savings estimate only when it is meaningful; a
// zero or negative amount is "not quantifiable", never a stored zero.
func positiveOrNil(d decimal.Decimal) *decimal.Decimal {
	if d.IsPositive() {
		return &d
	}
	return nil
}
