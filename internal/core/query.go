package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// averagePlaces is the rounding applied to every reported average price.
const averagePlaces = 2

// Summary returns sales totals for the range; an empty range yields zeros.
func (s *Service) Summary(ctx context.Context, r DateRange) (Summary, error) {
	sum, err := s.store.Summary(ctx, r)
	if err != nil {
		return Summary{}, fmt.Errorf("sales summary: %w", err)
	}
	sum.AveragePrice = roundAverage(sum.AveragePrice)
	return sum, nil
}

// Trend returns one point per date bucket in ascending bucket order.
func (s *Service) Trend(ctx context.Context, p Period, r DateRange) ([]TrendPoint, error) {
	if !p.Valid() {
		return nil, ValidationErrors{{Field: "period", Value: string(p), Message: "Period must be daily, weekly, or monthly"}}
	}
	points, err := s.store.Trend(ctx, p, r)
	if err != nil {
		return nil, fmt.Errorf("sales trend: %w", err)
	}
	return nonNil(points), nil
}

// ByProduct returns per-product totals, highest revenue first.
func (s *Service) ByProduct(ctx context.Context, r DateRange) ([]ProductBreakdown, error) {
	rows, err := s.store.ByProduct(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("sales by product: %w", err)
	}
	for i := range rows {
		rows[i].AveragePrice = roundAverage(rows[i].AveragePrice)
	}
	return nonNil(rows), nil
}

// ByRegion returns per-region totals, highest revenue first.
func (s *Service) ByRegion(ctx context.Context, r DateRange) ([]RegionBreakdown, error) {
	rows, err := s.store.ByRegion(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("sales by region: %w", err)
	}
	return nonNil(rows), nil
}

// Categories returns every distinct category label in ascending order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	labels, err := s.store.DistinctCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return nonNil(labels), nil
}

// Regions returns every distinct region label in ascending order.
func (s *Service) Regions(ctx context.Context) ([]string, error) {
	labels, err := s.store.DistinctRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	return nonNil(labels), nil
}

// List returns one page of records matching f, newest first.
func (s *Service) List(ctx context.Context, f ListFilter) (RecordPage, error) {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		f.Limit = DefaultLimit
	}

	records, total, err := s.store.List(ctx, f)
	if err != nil {
		return RecordPage{}, fmt.Errorf("list sales: %w", err)
	}
	if len(records) > f.Limit {
		records = records[:f.Limit]
	}
	return RecordPage{
		Records:    nonNil(records),
		Pagination: NewPagination(f.Page, f.Limit, total),
	}, nil
}

// NewPagination computes the page count as ceil(total/limit).
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// LikePattern builds a case-insensitive substring pattern for LIKE/ILIKE
// with '\' as the escape character.
func LikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(s)) + "%"
}

func roundAverage(d decimal.Decimal) decimal.Decimal {
	return d.Round(averagePlaces)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
