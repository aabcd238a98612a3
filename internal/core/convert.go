package core

// convert.go turns spreadsheet cell text into typed values.
//
// These functions handle the messy reality of user-provided files:
//   - Multiple date formats (US, EU, ISO, dotted, Excel serial numbers)
//   - Currency symbols and thousand separators in numbers
//   - Accounting negatives "(123.45)"
//   - Excel formula prefixes (="value")
//
// Every Parse* function reports ok=false for empty or invalid input so the
// normalizer can apply its own defaults.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// excelSerialRegex matches the day numbers Excel writes for date cells
// when a workbook is read without cell formatting.
var excelSerialRegex = regexp.MustCompile(`^\d{1,5}(\.\d+)?$`)

// minExcelSerial is the smallest day number read as a date (1927-05-18).
// Smaller numbers are bare years or counts, not dates.
const minExcelSerial = 10000

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "2 Jan 2006", "January 2, 2006",
		"20060102",
	}
)

// ParseDate converts cell text to a UTC calendar date.
// Supports multiple layouts, 2-digit years with pivot, and Excel serials.
func ParseDate(s string) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, false
	}

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateToDate(t), true
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return truncateToDate(t), true
		}
	}

	// Excel serial day number (e.g. 45292 = 2024-01-01)
	if excelSerialRegex.MatchString(s) {
		serial, err := strconv.ParseFloat(s, 64)
		if err != nil || serial < minExcelSerial {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return truncateToDate(t), true
	}

	return time.Time{}, false
}

// ParseDecimal converts cell text to a decimal.
// Handles currency symbols, thousands separators, and accounting format (parentheses for negative).
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = CleanCell(s)
	if s == "" {
		return decimal.Zero, false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Remove common currency symbols and thousands separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseQuantity converts cell text to a whole number of units, truncating
// any fractional part toward zero.
func ParseQuantity(s string) (int64, bool) {
	d, ok := ParseDecimal(s)
	if !ok {
		return 0, false
	}
	whole := d.Truncate(0)
	if !whole.BigInt().IsInt64() {
		return 0, false
	}
	return whole.IntPart(), true
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	// Remove leading '='
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	// Remove any surrounding quotes
	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}
