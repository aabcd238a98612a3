package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/salesdash/internal/core"
)

// rangeFilter is appended to every aggregate. $1 and $2 are the inclusive
// bounds; NULL leaves a side open.
const rangeFilter = `($1::date IS NULL OR sale_date >= $1::date) AND ($2::date IS NULL OR sale_date <= $2::date)`

// bucketExprs renders the trend key. The weekly key counts Sunday-started
// weeks of the calendar year; days before the first Sunday are week 00.
var bucketExprs = map[core.Period]string{
	core.PeriodDaily:   `to_char(sale_date, 'YYYY-MM-DD')`,
	core.PeriodWeekly:  `to_char(sale_date, 'YYYY') || '-W' || lpad(((extract(doy FROM sale_date)::int + 6 - extract(dow FROM sale_date)::int) / 7)::text, 2, '0')`,
	core.PeriodMonthly: `to_char(sale_date, 'YYYY-MM')`,
}

func rangeArgs(r core.DateRange) []any {
	return []any{toPgDateBound(r.Start), toPgDateBound(r.End)}
}

// Summary returns totals over the range; no rows yields the zero shape.
func (s *Store) Summary(ctx context.Context, r core.DateRange) (core.Summary, error) {
	q := `SELECT COALESCE(SUM(quantity), 0)::bigint, COALESCE(SUM(revenue), 0), COALESCE(AVG(price), 0), COUNT(*)
FROM sales WHERE ` + rangeFilter

	var (
		out          core.Summary
		revenue, avg pgtype.Numeric
	)
	err := s.pool.QueryRow(ctx, q, rangeArgs(r)...).Scan(&out.TotalSales, &revenue, &avg, &out.TransactionCount)
	if err != nil {
		return core.Summary{}, fmt.Errorf("query summary: %w", err)
	}
	if out.TotalRevenue, err = fromPgNumeric(revenue); err != nil {
		return core.Summary{}, err
	}
	if out.AveragePrice, err = fromPgNumeric(avg); err != nil {
		return core.Summary{}, err
	}
	return out, nil
}

// Trend groups by date bucket in ascending key order.
func (s *Store) Trend(ctx context.Context, p core.Period, r core.DateRange) ([]core.TrendPoint, error) {
	expr, ok := bucketExprs[p]
	if !ok {
		return nil, fmt.Errorf("unknown period %q", p)
	}
	q := `SELECT ` + expr + ` AS bucket, COALESCE(SUM(revenue), 0), COALESCE(SUM(quantity), 0)::bigint, COUNT(*)
FROM sales WHERE ` + rangeFilter + `
GROUP BY bucket ORDER BY bucket ASC`

	rows, err := s.pool.Query(ctx, q, rangeArgs(r)...)
	if err != nil {
		return nil, fmt.Errorf("query trend: %w", err)
	}
	return collect(rows, func(row pgx.CollectableRow) (core.TrendPoint, error) {
		var (
			pt      core.TrendPoint
			revenue pgtype.Numeric
		)
		if err := row.Scan(&pt.Period, &revenue, &pt.Sales, &pt.Transactions); err != nil {
			return pt, err
		}
		var err error
		pt.Revenue, err = fromPgNumeric(revenue)
		return pt, err
	})
}

// ByProduct groups by product, highest revenue first.
func (s *Store) ByProduct(ctx context.Context, r core.DateRange) ([]core.ProductBreakdown, error) {
	q := `SELECT product, COALESCE(SUM(revenue), 0) AS total, COALESCE(SUM(quantity), 0)::bigint, COUNT(*), COALESCE(AVG(price), 0)
FROM sales WHERE ` + rangeFilter + `
GROUP BY product ORDER BY total DESC, product ASC`

	rows, err := s.pool.Query(ctx, q, rangeArgs(r)...)
	if err != nil {
		return nil, fmt.Errorf("query by product: %w", err)
	}
	return collect(rows, func(row pgx.CollectableRow) (core.ProductBreakdown, error) {
		var (
			b            core.ProductBreakdown
			revenue, avg pgtype.Numeric
		)
		if err := row.Scan(&b.Product, &revenue, &b.Sales, &b.Transactions, &avg); err != nil {
			return b, err
		}
		var err error
		if b.Revenue, err = fromPgNumeric(revenue); err != nil {
			return b, err
		}
		b.AveragePrice, err = fromPgNumeric(avg)
		return b, err
	})
}

// ByRegion groups by region, highest revenue first.
func (s *Store) ByRegion(ctx context.Context, r core.DateRange) ([]core.RegionBreakdown, error) {
	q := `SELECT region, COALESCE(SUM(revenue), 0) AS total, COALESCE(SUM(quantity), 0)::bigint, COUNT(*)
FROM sales WHERE ` + rangeFilter + `
GROUP BY region ORDER BY total DESC, region ASC`

	rows, err := s.pool.Query(ctx, q, rangeArgs(r)...)
	if err != nil {
		return nil, fmt.Errorf("query by region: %w", err)
	}
	return collect(rows, func(row pgx.CollectableRow) (core.RegionBreakdown, error) {
		var (
			b       core.RegionBreakdown
			revenue pgtype.Numeric
		)
		if err := row.Scan(&b.Region, &revenue, &b.Sales, &b.Transactions); err != nil {
			return b, err
		}
		var err error
		b.Revenue, err = fromPgNumeric(revenue)
		return b, err
	})
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
	q := fmt.Sprintf(`SELECT DISTINCT %s FROM sales ORDER BY %s ASC`, pgx.Identifier{column}.Sanitize(), pgx.Identifier{column}.Sanitize())
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query distinct %s: %w", column, err)
	}
	labels, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan distinct %s: %w", column, err)
	}
	return labels, nil
}

// List returns one page of matching records, newest first, and the total
// number of matches.
func (s *Store) List(ctx context.Context, f core.ListFilter) ([]core.SalesRecord, int64, error) {
	where := []string{rangeFilter}
	args := rangeArgs(f.Range)
	for _, c := range []struct{ column, value string }{
		{"product", f.Product},
		{"category", f.Category},
		{"region", f.Region},
	} {
		if c.value == "" {
			continue
		}
		args = append(args, core.LikePattern(c.value))
		where = append(where, fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, c.column, len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}

	args = append(args, f.Limit, f.Offset())
	q := fmt.Sprintf(`SELECT id, sale_date, product, category, region, quantity, price, revenue
FROM sales WHERE %s
ORDER BY sale_date DESC, id ASC
LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	records, err := collect(rows, scanSale)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func scanSale(row pgx.CollectableRow) (core.SalesRecord, error) {
	var (
		rec            core.SalesRecord
		id             pgtype.UUID
		date           pgtype.Date
		price, revenue pgtype.Numeric
	)
	if err := row.Scan(&id, &date, &rec.Product, &rec.Category, &rec.Region, &rec.Quantity, &price, &revenue); err != nil {
		return rec, err
	}
	rec.ID = uuid.UUID(id.Bytes)
	rec.Date = date.Time
	var err error
	if rec.Price, err = fromPgNumeric(price); err != nil {
		return rec, err
	}
	rec.Revenue, err = fromPgNumeric(revenue)
	return rec, err
}

func collect[T any](rows pgx.Rows, fn pgx.RowToFunc[T]) ([]T, error) {
	out, err := pgx.CollectRows(rows, fn)
	if err != nil {
		return nil, fmt.Errorf("scan rows: %w", err)
	}
	return out, nil
}
