package normalize

import "strings"

// Schema names the canonical column layout a raw table is normalized onto.
type Schema string

const (
	SchemaPO        Schema = "po"
	SchemaInvoice   Schema = "invoice"
	SchemaInventory Schema = "inventory"
	SchemaLabor     Schema = "labor"
)

// IsValid reports whether the schema is recognized.
func (s Schema) IsValid() bool {
	switch s {
	case SchemaPO, SchemaInvoice, SchemaInventory, SchemaLabor:
		return true
	}
	return false
}

// fieldAlias binds a canonical field to the header spellings that map onto
// it. Alias lists are ordered and scoped per schema so that an ambiguous
// header like "quantity" resolves to the field it means in that schema.
type fieldAlias struct {
	Canonical string
	Aliases   []string
}

// procurementAliases covers both purchase orders and invoices.
var procurementAliases = []fieldAlias{
	{"vendor_name", []string{"vendor_name", "vendor", "supplier", "supplier_name"}},
	{"item_sku", []string{"item_sku", "sku", "product_code", "item_code"}},
	{"item_description", []string{"item_description", "description", "item_name"}},
	{"unit_price", []string{"unit_price", "price", "cost", "unit_cost"}},
	{"quantity", []string{"quantity", "qty", "amount"}},
	{"contract_price", []string{"contract_price", "contract_rate", "contracted_price"}},
	{"po_number", []string{"po_number", "po", "purchase_order", "order_number"}},
	{"po_date", []string{"po_date", "order_date", "date"}},
	{"department", []string{"department", "dept", "cost_center"}},
}

var inventoryAliases = []fieldAlias{
	{"sku", []string{"sku", "item_sku", "product_code"}},
	{"item_description", []string{"item_description", "description", "item_name"}},
	{"location", []string{"location", "storage_location", "warehouse"}},
	{"department", []string{"department", "dept", "cost_center"}},
	{"quantity_on_hand", []string{"quantity_on_hand", "qty_on_hand", "on_hand", "quantity"}},
	{"unit_cost", []string{"unit_cost", "cost", "price"}},
	{"expiry_date", []string{"expiry_date", "exp_date", "expiration_date"}},
	{"daily_usage_rate", []string{"daily_usage_rate", "usage_rate", "daily_usage"}},
}

var laborAliases = []fieldAlias{
	{"staff_id", []string{"staff_id", "employee_id", "emp_id"}},
	{"department", []string{"department", "dept", "cost_center"}},
	{"shift_date", []string{"shift_date", "date", "work_date"}},
	{"hours_worked", []string{"hours_worked", "hours", "total_hours"}},
	{"overtime_hours", []string{"overtime_hours", "ot_hours", "overtime"}},
}

// aliasesFor returns the ordered alias table for a schema.
func aliasesFor(schema Schema) []fieldAlias {
	switch schema {
	case SchemaPO, SchemaInvoice:
		return procurementAliases
	case SchemaInventory:
		return inventoryAliases
	case SchemaLabor:
		return laborAliases
	}
	return nil
}

// requiredFields returns the canonical columns that must be present after
// mapping for a schema. A miss is a warning, not a failure.
func requiredFields(schema Schema) []string {
	switch schema {
	case SchemaPO, SchemaInvoice:
		return []string{"vendor_name", "item_sku", "unit_price"}
	case SchemaInventory:
		return []string{"sku", "quantity_on_hand"}
	case SchemaLabor:
		return []string{"department", "hours_worked"}
	}
	return nil
}

// Field classes drive type coercion for canonical columns.
var numericFields = map[string]bool{
	"unit_price":       true,
	"quantity":         true,
	"contract_price":   true,
	"quantity_on_hand": true,
	"unit_cost":        true,
	"daily_usage_rate": true,
	"hours_worked":     true,
	"overtime_hours":   true,
}

var dateFields = map[string]bool{
	"po_date":     true,
	"expiry_date": true,
	"shift_date":  true,
}

// canonicalizeName lowercases a header and strips whitespace, underscores
// and hyphens so that "Unit Price", "unit-price" and "unit_price" compare
// equal.
func canonicalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch r {
		case ' ', '\t', '\n', '\r', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// aliasLookup builds the normalized-spelling to canonical-field map for a
// schema. Earlier entries win when two canonical fields claim the same
// spelling, which cannot happen within the tables above but keeps the
// resolution order deterministic regardless.
func aliasLookup(schema Schema) map[string]string {
	lookup := make(map[string]string)
	for _, fa := range aliasesFor(schema) {
		for _, alias := range fa.Aliases {
			key := canonicalizeName(alias)
			if _, taken := lookup[key]; !taken {
				lookup[key] = fa.Canonical
			}
		}
	}
	return lookup
}
