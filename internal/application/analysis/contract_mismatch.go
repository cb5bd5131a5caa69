package analysis

import (
	"fmt"

	"github.com/costiq/backend/internal/domain/analysis"
)

// EvaluateContractMismatch flags invoices charged above their contract
// rate. Records without a positive contract price are not comparable and
// are skipped silently.
func EvaluateContractMismatch(records []analysis.ProcurementRecord, th Thresholds) []analysis.Finding {
	var findings []analysis.Finding
	for _, r := range records {
		if !r.HasContractPrice() {
			continue
		}
		if !r.UnitPrice.GreaterThan(*r.ContractPrice) {
			continue
		}

		overcharge := r.UnitPrice.Sub(*r.ContractPrice)
		overchargePct := overcharge.Div(*r.ContractPrice).Mul(hundred)
		savings := overcharge.Mul(r.Quantity)

		severity := analysis.SeverityLow
		if overchargePct.GreaterThan(th.ContractHighPct) {
			severity = analysis.SeverityHigh
		} else if overchargePct.GreaterThan(th.ContractMediumPct) {
			severity = analysis.SeverityMedium
		}

		description := fmt.Sprintf(
			"SKU %s from %s: Invoiced at $%s but contract price is $%s. Overcharge of $%s (%s%%) per unit.",
			r.ItemSKU, r.VendorName,
			r.UnitPrice.StringFixed(2),
			r.ContractPrice.StringFixed(2),
			overcharge.StringFixed(2),
			overchargePct.StringFixed(1),
		)

		findings = append(findings, analysis.NewFinding(
			analysis.CategoryContractMismatch, severity, description, positiveOrNil(savings),
		))
	}
	return findings
}
