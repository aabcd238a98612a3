package core

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Canonical field names of a sales row.
const (
	FieldDate     = "date"
	FieldProduct  = "product"
	FieldCategory = "category"
	FieldRegion   = "region"
	FieldQuantity = "quantity"
	FieldPrice    = "price"
	FieldRevenue  = "revenue"
)

// CanonicalFields lists the sales row fields in file column order.
var CanonicalFields = []string{
	FieldDate, FieldProduct, FieldCategory, FieldRegion,
	FieldQuantity, FieldPrice, FieldRevenue,
}

// ColumnCandidates maps each canonical field to the header names that may
// carry it, in priority order. Both parsers share this table.
var ColumnCandidates = buildColumnCandidates(CanonicalFields)

func buildColumnCandidates(fields []string) map[string][]string {
	m := make(map[string][]string, len(fields))
	for _, f := range fields {
		m[f] = []string{f, strings.ToUpper(f[:1]) + f[1:], strings.ToUpper(f)}
	}
	return m
}

// lookup returns the first candidate value that is non-empty after cleanup.
func (r RawRow) lookup(field string) string {
	for _, key := range ColumnCandidates[field] {
		if v := CleanCell(r[key]); v != "" {
			return v
		}
	}
	return ""
}

// NormalizeRow maps one raw row to a SalesRecord. It reports false when the
// row fails the acceptance gate.
//
// A row is accepted when the date parses, product, category and region are
// non-empty, and quantity and price are strictly positive. Revenue is not
// gated; a missing or non-numeric revenue is stored as 0.
func NormalizeRow(row RawRow) (SalesRecord, bool) {
	date, ok := ParseDate(row.lookup(FieldDate))
	if !ok {
		return SalesRecord{}, false
	}

	rec := SalesRecord{
		Date:     date,
		Product:  row.lookup(FieldProduct),
		Category: row.lookup(FieldCategory),
		Region:   row.lookup(FieldRegion),
	}
	if rec.Product == "" || rec.Category == "" || rec.Region == "" {
		return SalesRecord{}, false
	}

	rec.Quantity, _ = ParseQuantity(row.lookup(FieldQuantity))
	rec.Price = decimalOrZero(row.lookup(FieldPrice))
	rec.Revenue = decimalOrZero(row.lookup(FieldRevenue))

	if rec.Quantity <= 0 || !rec.Price.IsPositive() {
		return SalesRecord{}, false
	}

	rec.ID = uuid.New()
	return rec, true
}

// Normalize applies NormalizeRow to every row, keeping accepted records in
// input order.
func Normalize(rows []RawRow) []SalesRecord {
	out := make([]SalesRecord, 0, len(rows))
	for _, row := range rows {
		if rec, ok := NormalizeRow(row); ok {
			out = append(out, rec)
		}
	}
	return out
}

func decimalOrZero(s string) decimal.Decimal {
	d, ok := ParseDecimal(s)
	if !ok {
		return decimal.Zero
	}
	return d
}
