package analysis

import "github.com/shopspring/decimal"

// Thresholds collects every tunable cutoff used by the rule evaluators.
// They are injected rather than hard-coded so boundary behavior is
// testable and deployments can tune them per customer.
type Thresholds struct {
	// PriceVarianceRatio is the minimum (max-min)/avg unit price spread
	// within a SKU group before any record in it can be flagged.
	PriceVarianceRatio decimal.Decimal
	// PriceVarianceHighPct and PriceVarianceMediumPct tier severity by
	// overpayment percentage above the group average.
	PriceVarianceHighPct   decimal.Decimal
	PriceVarianceMediumPct decimal.Decimal

	// ContractHighPct and ContractMediumPct tier severity by overcharge
	// percentage above the contract rate.
	ContractHighPct   decimal.Decimal
	ContractMediumPct decimal.Decimal

	// OverstockDays is the days-on-hand level above which an item is
	// overstocked. OptimalStockDays sets the stock level excess is
	// measured against.
	OverstockDays       decimal.Decimal
	OverstockHighDays   decimal.Decimal
	OverstockMediumDays decimal.Decimal
	OptimalStockDays    decimal.Decimal

	// ExpiryWindowDays bounds how far ahead expiry risk is evaluated.
	ExpiryWindowDays  int
	ExpiryHighDays    int
	ExpiryMediumDays  int
	ExpiryValueCutoff decimal.Decimal
}

// DefaultThresholds returns the standard production cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PriceVarianceRatio:     decimal.RequireFromString("0.10"),
		PriceVarianceHighPct:   decimal.NewFromInt(25),
		PriceVarianceMediumPct: decimal.NewFromInt(15),

		ContractHighPct:   decimal.NewFromInt(20),
		ContractMediumPct: decimal.NewFromInt(10),

		OverstockDays:       decimal.NewFromInt(90),
		OverstockHighDays:   decimal.NewFromInt(180),
		OverstockMediumDays: decimal.NewFromInt(120),
		OptimalStockDays:    decimal.NewFromInt(45),

		ExpiryWindowDays:  30,
		ExpiryHighDays:    7,
		ExpiryMediumDays:  14,
		ExpiryValueCutoff: decimal.NewFromInt(1000),
	}
}
