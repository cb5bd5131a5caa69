// Package normalize maps heterogeneous CSV column layouts onto canonical
// schemas and coerces cell values into typed fields. It is pure: the same
// table and schema always produce the same rows and warnings.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/costiq/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Table is a raw parsed table: ordered source columns and ordered rows of
// string cells. Rows may be ragged; missing cells read as absent.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Kind discriminates the typed value variants.
type Kind int

const (
	KindAbsent Kind = iota
	KindNumber
	KindText
	KindDate
)

// Value is one coerced cell: a number, text, date, or absent. Absent is
// how unparsable numeric and date cells resolve, so downstream arithmetic
// can exclude them without ever seeing a parse error.
type Value struct {
	kind   Kind
	number decimal.Decimal
	text   string
	date   time.Time
}

// Absent returns the absent value.
func Absent() Value {
	return Value{kind: KindAbsent}
}

// NumberValue wraps a decimal as a typed value.
func NumberValue(d decimal.Decimal) Value {
	return Value{kind: KindNumber, number: d}
}

// TextValue wraps a string as a typed value.
func TextValue(s string) Value {
	return Value{kind: KindText, text: s}
}

// DateValue wraps a date as a typed value.
func DateValue(t time.Time) Value {
	return Value{kind: KindDate, date: t}
}

// Kind returns the value's variant.
func (v Value) Kind() Kind {
	return v.kind
}

// IsAbsent reports whether the value is absent.
func (v Value) IsAbsent() bool {
	return v.kind == KindAbsent
}

// Number returns the numeric value if present.
func (v Value) Number() (decimal.Decimal, bool) {
	return v.number, v.kind == KindNumber
}

// Text returns the text value if present.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindText
}

// Date returns the date value if present.
func (v Value) Date() (time.Time, bool) {
	return v.date, v.kind == KindDate
}

// Row maps canonical field names to coerced values.
type Row map[string]Value

// Normalize maps a raw table onto the canonical schema and coerces every
// cell. Unmapped source columns are dropped. When several source columns
// resolve to the same canonical field, the last one in source column
// order wins. Missing required columns produce a single warning; only an
// empty table is a failure.
func Normalize(table Table, schema Schema) ([]Row, []string, error) {
	if !schema.IsValid() {
		return nil, nil, shared.NewDomainError("INVALID_SCHEMA", fmt.Sprintf("unknown schema %q", schema))
	}
	if len(table.Rows) == 0 || len(table.Columns) == 0 {
		return nil, nil, shared.ErrEmptyTable
	}

	lookup := aliasLookup(schema)

	// Resolve each source column to its canonical target up front; ""
	// marks a dropped column.
	targets := make([]string, len(table.Columns))
	mapped := make(map[string]bool)
	for i, col := range table.Columns {
		if canonical, ok := lookup[canonicalizeName(col)]; ok {
			targets[i] = canonical
			mapped[canonical] = true
		}
	}

	rows := make([]Row, 0, len(table.Rows))
	for _, raw := range table.Rows {
		row := make(Row)
		for i, target := range targets {
			if target == "" {
				continue
			}
			var cell string
			if i < len(raw) {
				cell = raw[i]
			}
			// Iterating source columns in order means a later duplicate
			// overwrites an earlier one here.
			row[target] = coerce(target, cell)
		}
		rows = append(rows, row)
	}

	var warnings []string
	var missing []string
	for _, field := range requiredFields(schema) {
		if !mapped[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		warnings = append(warnings, "Missing columns: "+strings.Join(missing, ", "))
	}

	return rows, warnings, nil
}

// coerce converts one raw cell into the typed value its canonical field
// expects. Numeric and date parse failures resolve to absent.
func coerce(field, cell string) Value {
	switch {
	case numericFields[field]:
		return coerceNumber(cell)
	case dateFields[field]:
		return coerceDate(cell)
	default:
		return coerceText(cell)
	}
}

func isNullToken(s string) bool {
	switch strings.ToLower(s) {
	case "nan", "null":
		return true
	}
	return false
}

func coerceNumber(cell string) Value {
	s := strings.TrimSpace(cell)
	if s == "" || isNullToken(s) {
		return Absent()
	}
	// Tolerate currency formatting in numeric cells.
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Absent()
	}
	return NumberValue(d)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func coerceDate(cell string) Value {
	s := strings.TrimSpace(cell)
	if s == "" || isNullToken(s) {
		return Absent()
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateValue(t)
		}
	}
	return Absent()
}

func coerceText(cell string) Value {
	s := strings.TrimSpace(cell)
	if isNullToken(s) {
		return TextValue("")
	}
	return TextValue(s)
}
