package core

// validation.go checks read-side query parameters before any store work.
//
// Every problem is collected, not just the first, so the client can show
// all field errors at once. The resulting ValidationErrors value is returned
// as a single error and surfaced with field-level detail.

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Listing pagination bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// ValidationError represents a single invalid request parameter.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors collects every invalid parameter of a request.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Params is the read-only view of request parameters the validators need.
// url.Values satisfies it.
type Params interface {
	Get(key string) string
}

// paramChecker accumulates validation errors across several parameters.
type paramChecker struct {
	params Params
	errs   ValidationErrors
}

func (c *paramChecker) fail(field, value, message string) {
	c.errs = append(c.errs, ValidationError{Field: field, Value: value, Message: message})
}

func (c *paramChecker) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

// date parses an optional ISO 8601 date parameter.
func (c *paramChecker) date(field string) *time.Time {
	raw := strings.TrimSpace(c.params.Get(field))
	if raw == "" {
		return nil
	}
	t, ok := parseISODate(raw)
	if !ok {
		c.fail(field, raw, "must be an ISO 8601 date")
		return nil
	}
	return &t
}

// dateRange parses startDate/endDate and checks their order.
func (c *paramChecker) dateRange() DateRange {
	r := DateRange{Start: c.date("startDate"), End: c.date("endDate")}
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		c.fail("endDate", c.params.Get("endDate"), "must not be before startDate")
	}
	return r
}

// boundedInt parses an optional integer parameter within [min, max].
// max <= 0 means unbounded.
func (c *paramChecker) boundedInt(field string, def, min, max int) int {
	raw := strings.TrimSpace(c.params.Get(field))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || (max > 0 && n > max) {
		if max > 0 {
			c.fail(field, raw, fmt.Sprintf("must be an integer between %d and %d", min, max))
		} else {
			c.fail(field, raw, fmt.Sprintf("must be an integer >= %d", min))
		}
		return def
	}
	return n
}

// ParseDateRange validates the optional startDate/endDate parameters.
func ParseDateRange(p Params) (DateRange, error) {
	c := &paramChecker{params: p}
	r := c.dateRange()
	return r, c.err()
}

// ParseTrendParams validates the required period and the optional date range.
func ParseTrendParams(p Params) (Period, DateRange, error) {
	c := &paramChecker{params: p}
	period := Period(strings.TrimSpace(p.Get("period")))
	if !period.Valid() {
		c.fail("period", string(period), "Period must be daily, weekly, or monthly")
	}
	r := c.dateRange()
	return period, r, c.err()
}

// ParseListFilter validates the filtered listing parameters and applies
// the page/limit defaults.
func ParseListFilter(p Params) (ListFilter, error) {
	c := &paramChecker{params: p}
	f := ListFilter{
		Product:  strings.TrimSpace(p.Get("product")),
		Category: strings.TrimSpace(p.Get("category")),
		Region:   strings.TrimSpace(p.Get("region")),
		Range:    c.dateRange(),
		Page:     c.boundedInt("page", DefaultPage, 1, 0),
		Limit:    c.boundedInt("limit", DefaultLimit, 1, MaxLimit),
	}
	return f, c.err()
}

// ParseHistoryLimit validates the upload history limit parameter.
func ParseHistoryLimit(p Params) (int, error) {
	c := &paramChecker{params: p}
	n := c.boundedInt("limit", DefaultLimit, 1, MaxLimit)
	return n, c.err()
}

// parseISODate accepts a calendar date or an RFC 3339 timestamp and
// returns the UTC calendar date.
func parseISODate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateToDate(t), true
		}
	}
	return time.Time{}, false
}

// truncateToDate drops the time of day, keeping the UTC calendar date.
func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
