// Package storetest holds the behavioural checks every core.Store must pass.
// Backends call Run from their own tests with a factory for empty stores.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/salesdash/internal/core"
)

// Factory returns an empty, migrated store. Cleanup is registered on t.
type Factory func(t *testing.T) core.Store

// Run executes the contract suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("InsertManyAndList", func(t *testing.T) { testInsertManyAndList(t, newStore(t)) })
	t.Run("InsertManyReportsRowFailures", func(t *testing.T) { testInsertManyRowFailures(t, newStore(t)) })
	t.Run("SummaryZeroShape", func(t *testing.T) { testSummaryZeroShape(t, newStore(t)) })
	t.Run("SummaryTotals", func(t *testing.T) { testSummaryTotals(t, newStore(t)) })
	t.Run("TrendMonthlyCollapse", func(t *testing.T) { testTrendMonthly(t, newStore(t)) })
	t.Run("TrendDailyAndWeekly", func(t *testing.T) { testTrendDailyWeekly(t, newStore(t)) })
	t.Run("Breakdowns", func(t *testing.T) { testBreakdowns(t, newStore(t)) })
	t.Run("DistinctLabels", func(t *testing.T) { testDistinct(t, newStore(t)) })
	t.Run("ListFilterAndPaging", func(t *testing.T) { testListFilter(t, newStore(t)) })
	t.Run("QueriesAreIdempotent", func(t *testing.T) { testIdempotent(t, newStore(t)) })
	t.Run("UploadLog", func(t *testing.T) { testUploadLog(t, newStore(t)) })
}

// Sale builds a record for seeding.
func Sale(date, product, category, region string, qty int64, price, revenue string) core.SalesRecord {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return core.SalesRecord{
		ID:       uuid.New(),
		Date:     d,
		Product:  product,
		Category: category,
		Region:   region,
		Quantity: qty,
		Price:    decimal.RequireFromString(price),
		Revenue:  decimal.RequireFromString(revenue),
	}
}

func seed(t *testing.T, s core.Store, records ...core.SalesRecord) {
	t.Helper()
	res, err := s.InsertMany(context.Background(), records)
	require.NoError(t, err)
	require.Empty(t, res.Failures)
	require.Equal(t, len(records), res.Succeeded)
}

func day(s string) *time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &d
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func testInsertManyAndList(t *testing.T, s core.Store) {
	ctx := context.Background()
	rec := Sale("2024-01-01", "Laptop", "Electronics", "North", 5, "1200", "6000")
	seed(t, s, rec)

	got, total, err := s.List(ctx, core.ListFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, got, 1)

	assert.Equal(t, rec.ID, got[0].ID)
	assert.True(t, rec.Date.Equal(got[0].Date), "date = %v", got[0].Date)
	assert.Equal(t, "Laptop", got[0].Product)
	assert.Equal(t, "Electronics", got[0].Category)
	assert.Equal(t, "North", got[0].Region)
	assert.EqualValues(t, 5, got[0].Quantity)
	assertDecimal(t, "1200", got[0].Price)
	assertDecimal(t, "6000", got[0].Revenue)
}

func testInsertManyRowFailures(t *testing.T, s core.Store) {
	ctx := context.Background()
	good := Sale("2024-01-01", "A", "C", "R", 1, "1", "1")
	dup := good
	bad := Sale("2024-01-02", "B", "C", "R", 1, "1", "-5")
	last := Sale("2024-01-03", "C", "C", "R", 1, "1", "1")

	res, err := s.InsertMany(ctx, []core.SalesRecord{good, dup, bad, last})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, 1, res.Failures[0].Index)
	assert.Equal(t, 2, res.Failures[1].Index)

	_, total, err := s.List(ctx, core.ListFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func testSummaryZeroShape(t *testing.T, s core.Store) {
	ctx := context.Background()
	seed(t, s, Sale("2024-01-01", "Laptop", "Electronics", "North", 5, "1200", "6000"))

	got, err := s.Summary(ctx, core.DateRange{Start: day("2030-01-01"), End: day("2030-12-31")})
	require.NoError(t, err)
	assert.Zero(t, got.TotalSales)
	assert.Zero(t, got.TransactionCount)
	assert.True(t, got.TotalRevenue.IsZero())
	assert.True(t, got.AveragePrice.IsZero())
}

func testSummaryTotals(t *testing.T, s core.Store) {
	ctx := context.Background()
	seed(t, s,
		Sale("2024-01-01", "Laptop", "Electronics", "North", 5, "1200", "6000"),
		Sale("2024-01-15", "Mouse", "Accessories", "South", 3, "25.5", "76.5"),
		Sale("2024-02-01", "Desk", "Furniture", "North", 1, "300", "300"),
	)

	all, err := s.Summary(ctx, core.DateRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 9, all.TotalSales)
	assert.EqualValues(t, 3, all.TransactionCount)
	assertDecimal(t, "6376.5", all.TotalRevenue)
	assertDecimal(t, "508.5", all.AveragePrice)

	jan, err := s.Summary(ctx, core.DateRange{Start: day("2024-01-01"), End: day("2024-01-15")})
	require.NoError(t, err)
	assert.EqualValues(t, 2, jan.TransactionCount, "range bounds are inclusive")
	assertDecimal(t, "6076.5", jan.TotalRevenue)
}

func testTrendMonthly(t *testing.T, s core.Store) {
	ctx := context.Background()
	seed(t, s,
		Sale("2024-01-05", "A", "C", "R", 2, "10", "20"),
		Sale("2024-01-20", "B", "C", "R", 3, "10", "30"),
		Sale("2024-03-01", "A", "C", "R", 1, "10", "10"),
	)

	got, err := s.Trend(ctx, core.PeriodMonthly, core.DateRange{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01", got[0].Period)
	assertDecimal(t, "50", got[0].Revenue)
	assert.EqualValues(t, 5, got[0].Sales)
	assert.EqualValues(t, 2, got[0].Transactions)
	assert.Equal(t, "2024-03", got[1].Period)
}

func testTrendDailyWeekly(t *testing.T, s core.Store) {
	ctx := context.Background()
	// 2023-01-01 is a Sunday; 2022-01-01 is a Saturday (week 00).
	seed(t, s,
		Sale("2022-01-01", "A", "C", "R", 1, "1", "1"),
		Sale("2023-01-01", "A", "C", "R", 1, "1", "1"),
		Sale("2023-01-07", "A", "C", "R", 1, "1", "1"),
		Sale("2023-01-08", "A", "C", "R", 1, "1", "1"),
		Sale("2024-12-31", "A", "C", "R", 1, "1", "1"),
	)

	daily, err := s.Trend(ctx, core.PeriodDaily, core.DateRange{})
	require.NoError(t, err)
	var days []string
	for _, p := range daily {
		days = append(days, p.Period)
	}
	assert.Equal(t, []string{"2022-01-01", "2023-01-01", "2023-01-07", "2023-01-08", "2024-12-31"}, days)

	weekly, err := s.Trend(ctx, core.PeriodWeekly, core.DateRange{})
	require.NoError(t, err)
	var weeks []string
	var counts []int64
	for _, p := range weekly {
		weeks = append(weeks, p.Period)
		counts = append(counts, p.Transactions)
	}
	assert.Equal(t, []string{"2022-W00", "2023-W01", "2023-W02", "2024-W52"}, weeks)
	assert.Equal(t, []int64{1, 2, 1, 1}, counts)
}

func testBreakdowns(t *testing.T, s core.Store) {
	ctx := context.Background()
	seed(t, s,
		Sale("2024-01-01", "Laptop", "Electronics", "North", 1, "1000", "1000"),
		Sale("2024-01-02", "Laptop", "Electronics", "South", 1, "1001", "1001"),
		Sale("2024-01-03", "Mouse", "Accessories", "South", 10, "20", "200"),
		Sale("2024-01-04", "Cable", "Accessories", "East", 4, "50", "200"),
	)

	products, err := s.ByProduct(ctx, core.DateRange{})
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Laptop", products[0].Product)
	assertDecimal(t, "2001", products[0].Revenue)
	assert.EqualValues(t, 2, products[0].Transactions)
	assertDecimal(t, "1000.5", products[0].AveragePrice)
	// Equal revenue ties break on the label.
	assert.Equal(t, "Cable", products[1].Product)
	assert.Equal(t, "Mouse", products[2].Product)

	regions, err := s.ByRegion(ctx, core.DateRange{})
	require.NoError(t, err)
	require.Len(t, regions, 3)
	assert.Equal(t, "South", regions[0].Region)
	assertDecimal(t, "1201", regions[0].Revenue)
	assert.EqualValues(t, 11, regions[0].Sales)
	assert.Equal(t, "North", regions[1].Region)
	assert.Equal(t, "East", regions[2].Region)

	filtered, err := s.ByRegion(ctx, core.DateRange{Start: day("2024-01-04")})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "East", filtered[0].Region)
}

func testDistinct(t *testing.T, s core.Store) {
	ctx := context.Background()

	empty, err := s.DistinctCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	seed(t, s,
		Sale("2024-01-01", "A", "Furniture", "West", 1, "1", "1"),
		Sale("2024-01-01", "B", "Electronics", "East", 1, "1", "1"),
		Sale("2024-01-01", "C", "Furniture", "East", 1, "1", "1"),
	)

	cats, err := s.DistinctCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Electronics", "Furniture"}, cats)

	regions, err := s.DistinctRegions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"East", "West"}, regions)
}

func testListFilter(t *testing.T, s core.Store) {
	ctx := context.Background()
	seed(t, s,
		Sale("2024-01-01", "Gaming Laptop", "Electronics", "North", 1, "1", "1"),
		Sale("2024-01-03", "laptop sleeve", "Accessories", "North", 1, "1", "1"),
		Sale("2024-01-02", "Desk", "Furniture", "South", 1, "1", "1"),
		Sale("2024-01-04", "100%_Cotton", "Apparel", "South", 1, "1", "1"),
	)

	got, total, err := s.List(ctx, core.ListFilter{Product: "LAPTOP", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, "laptop sleeve", got[0].Product, "newest first")
	assert.Equal(t, "Gaming Laptop", got[1].Product)

	got, total, err = s.List(ctx, core.ListFilter{Product: "%", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "wildcards are matched literally")
	require.Len(t, got, 1)

	_, total, err = s.List(ctx, core.ListFilter{Product: "0_c", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	_, total, err = s.List(ctx, core.ListFilter{Region: "south", Category: "furn", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = s.List(ctx, core.ListFilter{Range: core.DateRange{Start: day("2024-01-02"), End: day("2024-01-03")}, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	page2, total, err := s.List(ctx, core.ListFilter{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, page2, 1)
	assert.Equal(t, "Gaming Laptop", page2[0].Product)

	beyond, _, err := s.List(ctx, core.ListFilter{Page: 5, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func testIdempotent(t *testing.T, s core.Store) {
	ctx := context.Background()
	var recs []core.SalesRecord
	for i := 0; i < 10; i++ {
		recs = append(recs, Sale("2024-01-01", "Same", "C", "R", 1, "1", "1"))
	}
	seed(t, s, recs...)

	first, _, err := s.List(ctx, core.ListFilter{Page: 1, Limit: 5})
	require.NoError(t, err)
	second, _, err := s.List(ctx, core.ListFilter{Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	p1, err := s.ByProduct(ctx, core.DateRange{})
	require.NoError(t, err)
	p2, err := s.ByProduct(ctx, core.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func testUploadLog(t *testing.T, s core.Store) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordUpload(ctx, core.UploadLogEntry{
			ID:        uuid.New(),
			FileName:  []string{"a.csv", "b.xlsx", "c.csv"}[i],
			Format:    "csv",
			Inserted:  i,
			Total:     i + 1,
			Errors:    1,
			IPAddress: "10.0.0.1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := s.ListUploads(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c.csv", got[0].FileName)
	assert.Equal(t, "b.xlsx", got[1].FileName)
	assert.Equal(t, 2, got[0].Inserted)
	assert.Equal(t, 3, got[0].Total)
	assert.Equal(t, "10.0.0.1", got[0].IPAddress)
	assert.True(t, got[0].CreatedAt.Equal(base.Add(2*time.Minute)))
}
