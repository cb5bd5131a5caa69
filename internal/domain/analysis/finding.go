package analysis

import (
	"github.com/costiq/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Category classifies the kind of cost leakage a finding describes.
type Category string

const (
	CategoryPriceVariance    Category = "price_variance"
	CategoryContractMismatch Category = "contract_mismatch"
	CategoryOverstock        Category = "overstock"
	CategoryExpiryRisk       Category = "expiry_risk"
)

// AllCategories lists every valid category in evaluation order.
func AllCategories() []Category {
	return []Category{
		CategoryPriceVariance,
		CategoryContractMismatch,
		CategoryOverstock,
		CategoryExpiryRisk,
	}
}

// IsValid reports whether the category is one of the closed set.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPriceVariance, CategoryContractMismatch, CategoryOverstock, CategoryExpiryRisk:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Severity classifies how critical a finding is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// IsValid reports whether the severity is one of the closed set.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

func (s Severity) String() string {
	return string(s)
}

// Finding represents one detected cost-saving opportunity. Findings are
// append-only: an evaluation run creates them as drafts and the finding
// repository assigns identity and CreatedAt when the batch is persisted.
// A nil PotentialSavings means the leakage could not be quantified, which
// is distinct from a savings of zero.
type Finding struct {
	shared.BaseEntity
	Category         Category
	Severity         Severity
	Description      string
	PotentialSavings *decimal.Decimal
}

// NewFinding creates a draft finding. Identity is left unset on purpose.
func NewFinding(category Category, severity Severity, description string, savings *decimal.Decimal) Finding {
	return Finding{
		Category:         category,
		Severity:         severity,
		Description:      description,
		PotentialSavings: savings,
	}
}

// Quantified reports whether the finding carries a dollar estimate.
func (f *Finding) Quantified() bool {
	return f.PotentialSavings != nil
}
