package models

import (
	"time"

	"github.com/costiq/backend/internal/domain/analysis"
	"github.com/shopspring/decimal"
)

// ProcurementRecordModel is the persistence model for normalized purchase
// order and invoice lines.
type ProcurementRecordModel struct {
	BaseModel
	VendorName      string           `gorm:"type:varchar(200);not null;index"`
	ItemSKU         string           `gorm:"type:varchar(100);not null;index"`
	ItemDescription string           `gorm:"type:text"`
	UnitPrice       decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0"`
	Quantity        decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:1"`
	ContractPrice   *decimal.Decimal `gorm:"type:decimal(20,4)"`
	PONumber        string           `gorm:"type:varchar(100)"`
	PODate          *time.Time
	Department      string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (ProcurementRecordModel) TableName() string {
	return "procurement_records"
}

// ToDomain converts the persistence model to a domain ProcurementRecord.
func (m *ProcurementRecordModel) ToDomain() analysis.ProcurementRecord {
	return analysis.ProcurementRecord{
		BaseEntity:      m.BaseModel.ToDomain(),
		VendorName:      m.VendorName,
		ItemSKU:         m.ItemSKU,
		ItemDescription: m.ItemDescription,
		UnitPrice:       m.UnitPrice,
		Quantity:        m.Quantity,
		ContractPrice:   m.ContractPrice,
		PONumber:        m.PONumber,
		PODate:          m.PODate,
		Department:      m.Department,
	}
}

// ProcurementRecordModelFromDomain converts a domain record to its
// persistence model.
func ProcurementRecordModelFromDomain(r analysis.ProcurementRecord) ProcurementRecordModel {
	var m ProcurementRecordModel
	m.FromDomainBaseEntity(r.BaseEntity)
	m.VendorName = r.VendorName
	m.ItemSKU = r.ItemSKU
	m.ItemDescription = r.ItemDescription
	m.UnitPrice = r.UnitPrice
	m.Quantity = r.Quantity
	m.ContractPrice = r.ContractPrice
	m.PONumber = r.PONumber
	m.PODate = r.PODate
	m.Department = r.Department
	return m
}

// InventoryRecordModel is the persistence model for normalized stock
// snapshot lines.
type InventoryRecordModel struct {
	BaseModel
	SKU             string `gorm:"type:varchar(100);not null;index"`
	ItemDescription string `gorm:"type:text"`
	Location        string `gorm:"type:varchar(200)"`
	Department      string `gorm:"type:varchar(100)"`
	QuantityOnHand  decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0"`
	UnitCost        *decimal.Decimal `gorm:"type:decimal(20,4)"`
	ExpiryDate      *time.Time       `gorm:"index"`
	DailyUsageRate  *decimal.Decimal `gorm:"type:decimal(20,4)"`
}

// TableName returns the table name for GORM
func (InventoryRecordModel) TableName() string {
	return "inventory_records"
}

// ToDomain converts the persistence model to a domain InventoryRecord.
func (m *InventoryRecordModel) ToDomain() analysis.InventoryRecord {
	return analysis.InventoryRecord{
		BaseEntity:      m.BaseModel.ToDomain(),
		SKU:             m.SKU,
		ItemDescription: m.ItemDescription,
		Location:        m.Location,
		Department:      m.Department,
		QuantityOnHand:  m.QuantityOnHand,
		UnitCost:        m.UnitCost,
		ExpiryDate:      m.ExpiryDate,
		DailyUsageRate:  m.DailyUsageRate,
	}
}

// InventoryRecordModelFromDomain converts a domain record to its
// persistence model.
func InventoryRecordModelFromDomain(r analysis.InventoryRecord) InventoryRecordModel {
	var m InventoryRecordModel
	m.FromDomainBaseEntity(r.BaseEntity)
	m.SKU = r.SKU
	m.ItemDescription = r.ItemDescription
	m.Location = r.Location
	m.Department = r.Department
	m.QuantityOnHand = r.QuantityOnHand
	m.UnitCost = r.UnitCost
	m.ExpiryDate = r.ExpiryDate
	m.DailyUsageRate = r.DailyUsageRate
	return m
}

// FindingModel is the persistence model for cost leakage findings.
type FindingModel struct {
	BaseModel
	Category         analysis.Category `gorm:"type:varchar(50);not null;index"`
	Severity         analysis.Severity `gorm:"type:varchar(20);not null;index"`
	Description      string            `gorm:"type:text;not null"`
	PotentialSavings *decimal.Decimal  `gorm:"type:decimal(20,4)"`
}

// TableName returns the table name for GORM
func (FindingModel) TableName() string {
	return "findings"
}

// ToDomain converts the persistence model to a domain Finding.
func (m *FindingModel) ToDomain() analysis.Finding {
	return analysis.Finding{
		BaseEntity:       m.BaseModel.ToDomain(),
		Category:         m.Category,
		Severity:         m.Severity,
		Description:      m.Description,
		PotentialSavings: m.PotentialSavings,
	}
}

// FindingModelFromDomain converts a domain finding to its persistence model.
func FindingModelFromDomain(f analysis.Finding) FindingModel {
	var m FindingModel
	m.FromDomainBaseEntity(f.BaseEntity)
	m.Category = f.Category
	m.Severity = f.Severity
	m.Description = f.Description
	m.PotentialSavings = f.PotentialSavings
	return m
}
