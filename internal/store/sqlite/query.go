package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/JonMunkholm/salesdash/internal/core"
)

// bucketExprs renders the trend key. The weekly key counts Sunday-started
// weeks of the calendar year; days before the first Sunday are week 00.
var bucketExprs = map[core.Period]string{
	core.PeriodDaily:   `strftime('%Y-%m-%d', sale_date)`,
	core.PeriodWeekly:  `strftime('%Y', sale_date) || '-W' || printf('%02d', (CAST(strftime('%j', sale_date) AS INTEGER) + 6 - CAST(strftime('%w', sale_date) AS INTEGER)) / 7)`,
	core.PeriodMonthly: `strftime('%Y-%m', sale_date)`,
}

// inRange scopes a query to the inclusive date range.
func inRange(r core.DateRange) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if r.Start != nil {
			db = db.Where("sale_date >= ?", r.Start.UTC().Format(dateLayout))
		}
		if r.End != nil {
			db = db.Where("sale_date <= ?", r.End.UTC().Format(dateLayout))
		}
		return db
	}
}

func (s *Store) sales(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&saleRow{})
}

// money normalizes a float-derived aggregate.
func money(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(moneyScale)
}

// Summary returns totals over the range; no rows yields the zero shape.
func (s *Store) Summary(ctx context.Context, r core.DateRange) (core.Summary, error) {
	var row struct {
		TotalSales       int64
		TotalRevenue     float64
		AveragePrice     float64
		TransactionCount int64
	}
	err := s.sales(ctx).Scopes(inRange(r)).
		Select(`COALESCE(SUM(quantity), 0) AS total_sales,
COALESCE(SUM(revenue), 0) AS total_revenue,
COALESCE(AVG(price), 0) AS average_price,
COUNT(*) AS transaction_count`).
		Scan(&row).Error
	if err != nil {
		return core.Summary{}, fmt.Errorf("query summary: %w", err)
	}
	return core.Summary{
		TotalSales:       row.TotalSales,
		TotalRevenue:     money(row.TotalRevenue),
		AveragePrice:     money(row.AveragePrice),
		TransactionCount: row.TransactionCount,
	}, nil
}

// Trend groups by date bucket in ascending key order.
func (s *Store) Trend(ctx context.Context, p core.Period, r core.DateRange) ([]core.TrendPoint, error) {
	expr, ok := bucketExprs[p]
	if !ok {
		return nil, fmt.Errorf("unknown period %q", p)
	}
	var rows []struct {
		Bucket       string
		Revenue      float64
		Sales        int64
		Transactions int64
	}
	err := s.sales(ctx).Scopes(inRange(r)).
		Select(expr + ` AS bucket, COALESCE(SUM(revenue), 0) AS revenue, COALESCE(SUM(quantity), 0) AS sales, COUNT(*) AS transactions`).
		Group("bucket").Order("bucket ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query trend: %w", err)
	}

	out := make([]core.TrendPoint, len(rows))
	for i, row := range rows {
		out[i] = core.TrendPoint{Period: row.Bucket, Revenue: money(row.Revenue), Sales: row.Sales, Transactions: row.Transactions}
	}
	return out, nil
}

// ByProduct groups by product, highest revenue first.
func (s *Store) ByProduct(ctx context.Context, r core.DateRange) ([]core.ProductBreakdown, error) {
	var rows []struct {
		Product      string
		Revenue      float64
		Sales        int64
		Transactions int64
		AveragePrice float64
	}
	err := s.sales(ctx).Scopes(inRange(r)).
		Select(`product, COALESCE(SUM(revenue), 0) AS revenue, COALESCE(SUM(quantity), 0) AS sales, COUNT(*) AS transactions, COALESCE(AVG(price), 0) AS average_price`).
		Group("product").Order("revenue DESC, product ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query by product: %w", err)
	}

	out := make([]core.ProductBreakdown, len(rows))
	for i, row := range rows {
		out[i] = core.ProductBreakdown{
			Product:      row.Product,
			Revenue:      money(row.Revenue),
			Sales:        row.Sales,
			Transactions: row.Transactions,
			AveragePrice: money(row.AveragePrice),
		}
	}
	return out, nil
}

// ByRegion groups by region, highest revenue first.
func (s *Store) ByRegion(ctx context.Context, r core.DateRange) ([]core.RegionBreakdown, error) {
	var rows []struct {
		Region       string
		Revenue      float64
		Sales        int64
		Transactions int64
	}
	err := s.sales(ctx).Scopes(inRange(r)).
		Select(`region, COALESCE(SUM(revenue), 0) AS revenue, COALESCE(SUM(quantity), 0) AS sales, COUNT(*) AS transactions`).
		Group("region").Order("revenue DESC, region ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query by region: %w", err)
	}

	out := make([]core.RegionBreakdown, len(rows))
	for i, row := range rows {
		out[i] = core.RegionBreakdown{Region: row.Region, Revenue: money(row.Revenue), Sales: row.Sales, Transactions: row.Transactions}
	}
	return out, nil
}

// DistinctCategories lists category labels in ascending order.
func (s *Store) DistinctCategories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "category")
}

// DistinctRegions lists region labels in ascending order.
func (s *Store) DistinctRegions(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "region")
}

func (s *Store) distinct(ctx context.Context, column string) ([]string, error) {
	var labels []string
	if err := s.sales(ctx).Distinct(column).Order(column+" ASC").Pluck(column, &labels).Error; err != nil {
		return nil, fmt.Errorf("query distinct %s: %w", column, err)
	}
	return labels, nil
}

// List returns one page of matching records, newest first, and the total
// number of matches.
func (s *Store) List(ctx context.Context, f core.ListFilter) ([]core.SalesRecord, int64, error) {
	q := s.sales(ctx).Scopes(inRange(f.Range))
	for _, c := range []struct{ column, value string }{
		{"product", f.Product},
		{"category", f.Category},
		{"region", f.Region},
	} {
		if c.value != "" {
			q = q.Where("LOWER("+c.column+`) LIKE ? ESCAPE '\'`, core.LikePattern(c.value))
		}
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}

	var rows []saleRow
	err := q.Session(&gorm.Session{}).
		Order("sale_date DESC, id ASC").
		Limit(f.Limit).Offset(f.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}

	out := make([]core.SalesRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := fromSaleRow(row)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, nil
}

func fromSaleRow(row saleRow) (core.SalesRecord, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return core.SalesRecord{}, fmt.Errorf("sale %q: %w", row.ID, err)
	}
	date, err := time.Parse(dateLayout, row.SaleDate)
	if err != nil {
		return core.SalesRecord{}, fmt.Errorf("sale %q date: %w", row.ID, err)
	}
	return core.SalesRecord{
		ID:       id,
		Date:     date,
		Product:  row.Product,
		Category: row.Category,
		Region:   row.Region,
		Quantity: row.Quantity,
		Price:    row.Price,
		Revenue:  row.Revenue,
	}, nil
}

// RecordUpload appends one entry to the upload log.
func (s *Store) RecordUpload(ctx context.Context, e core.UploadLogEntry) error {
	row := uploadRow{
		ID:        e.ID.String(),
		FileName:  e.FileName,
		Format:    e.Format,
		Inserted:  e.Inserted,
		Total:     e.Total,
		Errors:    e.Errors,
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
		CreatedAt: e.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert upload log: %w", err)
	}
	return nil
}

// ListUploads returns up to limit entries, newest first.
func (s *Store) ListUploads(ctx context.Context, limit int) ([]core.UploadLogEntry, error) {
	var rows []uploadRow
	err := s.db.WithContext(ctx).Order("created_at DESC, id ASC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list upload log: %w", err)
	}

	out := make([]core.UploadLogEntry, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, fmt.Errorf("upload %q: %w", row.ID, err)
		}
		out = append(out, core.UploadLogEntry{
			ID:        id,
			FileName:  row.FileName,
			Format:    row.Format,
			Inserted:  row.Inserted,
			Total:     row.Total,
			Errors:    row.Errors,
			IPAddress: row.IPAddress,
			UserAgent: row.UserAgent,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return out, nil
}
