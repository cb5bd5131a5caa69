package analysis

import (
	"time"

	"github.com/costiq/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProcurementRecord is one normalized purchase order or invoice line.
// UnitPrice is never negative and Quantity is never zero or negative;
// the ingest layer enforces both before records reach this package.
type ProcurementRecord struct {
	shared.BaseEntity
	VendorName      string
	ItemSKU         string
	ItemDescription string
	UnitPrice       decimal.Decimal
	Quantity        decimal.Decimal
	ContractPrice   *decimal.Decimal
	PONumber        string
	PODate          *time.Time
	Department      string
}

// HasContractPrice reports whether a usable contract rate is attached.
// A zero contract price is treated as absent, it cannot anchor an
// overcharge percentage.
func (r *ProcurementRecord) HasContractPrice() bool {
	return r.ContractPrice != nil && r.ContractPrice.IsPositive()
}

// InventoryRecord is one normalized stock snapshot line.
type InventoryRecord struct {
	shared.BaseEntity
	SKU             string
	ItemDescription string
	Location        string
	Department      string
	QuantityOnHand  decimal.Decimal
	UnitCost        *decimal.Decimal
	ExpiryDate      *time.Time
	DailyUsageRate  *decimal.Decimal
}

// HasUsageRate reports whether days-on-hand can be computed for the record.
func (r *InventoryRecord) HasUsageRate() bool {
	return r.DailyUsageRate != nil && r.DailyUsageRate.IsPositive()
}

// DaysOnHand returns quantity_on_hand / daily_usage_rate. Callers must
// check HasUsageRate first.
func (r *InventoryRecord) DaysOnHand() decimal.Decimal {
	return r.QuantityOnHand.Div(*r.DailyUsageRate)
}
