package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesRecord is the canonical, persisted representation of one sale.
// Records are immutable once inserted.
type SalesRecord struct {
	ID       uuid.UUID       `json:"id"`
	Date     time.Time       `json:"date"`
	Product  string          `json:"product"`
	Category string          `json:"category"`
	Region   string          `json:"region"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// RawRow maps header names, as written in the uploaded file, to cell text.
type RawRow map[string]string

// ItemError describes a single record the store refused during a bulk insert.
type ItemError struct {
	Index int   // Position in the slice passed to InsertMany
	Err   error // Store-reported reason
}

// BatchResult is the outcome of a non-atomic bulk insert.
// Failures are ordered by Index.
type BatchResult struct {
	Succeeded int
	Failures  []ItemError
}

// IngestionReport is returned once per upload and is not persisted.
type IngestionReport struct {
	UploadID string `json:"uploadId"`
	// Inserted is the number of records the store accepted.
	Inserted int `json:"inserted"`
	// Total counts rows accepted by the normalizer, before the insert.
	Total int `json:"total"`
	// Rejected counts failures reported by the bulk insert itself.
	Rejected int `json:"errors"`
}

// UploadLogEntry is one row of the upload history.
type UploadLogEntry struct {
	ID        uuid.UUID `json:"id"`
	FileName  string    `json:"fileName"`
	Format    string    `json:"format"`
	Inserted  int       `json:"inserted"`
	Total     int       `json:"total"`
	Errors    int       `json:"errors"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DateRange is an inclusive calendar-date filter. Nil bounds are open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Period selects the trend bucket width.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Valid reports whether p is one of the supported periods.
func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// Summary aggregates the whole filtered set.
type Summary struct {
	TotalSales       int64           `json:"totalSales"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	AveragePrice     decimal.Decimal `json:"averagePrice"`
	TransactionCount int64           `json:"transactionCount"`
}

// TrendPoint is one date bucket of the trend query.
type TrendPoint struct {
	Period       string          `json:"period"`
	Revenue      decimal.Decimal `json:"revenue"`
	Sales        int64           `json:"sales"`
	Transactions int64           `json:"transactions"`
}

// ProductBreakdown aggregates records sharing a product label.
type ProductBreakdown struct {
	Product      string          `json:"product"`
	Revenue      decimal.Decimal `json:"revenue"`
	Sales        int64           `json:"sales"`
	Transactions int64           `json:"transactions"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
}

// RegionBreakdown aggregates records sharing a region label.
type RegionBreakdown struct {
	Region       string          `json:"region"`
	Revenue      decimal.Decimal `json:"revenue"`
	Sales        int64           `json:"sales"`
	Transactions int64           `json:"transactions"`
}

// ListFilter selects a page of records for the filtered listing.
// Text fields match case-insensitively as substrings.
type ListFilter struct {
	Product  string
	Category string
	Region   string
	Range    DateRange
	Page     int
	Limit    int
}

// Offset returns the number of rows skipped before the page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination describes the position of a page within the full result.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// RecordPage is one page of the filtered listing.
type RecordPage struct {
	Records    []SalesRecord
	Pagination Pagination
}

// RecordWriter persists normalized records.
type RecordWriter interface {
	// InsertMany inserts records without cross-row atomicity. A non-nil error
	// means the store rejected the batch outright.
	InsertMany(ctx context.Context, records []SalesRecord) (BatchResult, error)
}

// SalesReader serves the read-side aggregation contracts.
type SalesReader interface {
	Summary(ctx context.Context, r DateRange) (Summary, error)
	Trend(ctx context.Context, p Period, r DateRange) ([]TrendPoint, error)
	ByProduct(ctx context.Context, r DateRange) ([]ProductBreakdown, error)
	ByRegion(ctx context.Context, r DateRange) ([]RegionBreakdown, error)
	DistinctCategories(ctx context.Context) ([]string, error)
	DistinctRegions(ctx context.Context) ([]string, error)
	List(ctx context.Context, f ListFilter) ([]SalesRecord, int64, error)
}

// UploadLog records and lists ingestion history.
type UploadLog interface {
	RecordUpload(ctx context.Context, entry UploadLogEntry) error
	ListUploads(ctx context.Context, limit int) ([]UploadLogEntry, error)
}

// Store is everything the Service needs from a persistence backend.
type Store interface {
	RecordWriter
	SalesReader
	UploadLog
	Ping(ctx context.Context) error
}
