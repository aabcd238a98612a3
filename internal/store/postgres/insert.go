package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/salesdash/internal/core"
)

var salesColumns = []string{"id", "sale_date", "product", "category", "region", "quantity", "price", "revenue"}

const insertSaleSQL = `INSERT INTO sales (id, sale_date, product, category, region, quantity, price, revenue)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// InsertMany inserts records without cross-row atomicity.
//
// Large batches first try a single COPY inside a transaction. If COPY fails
// (one bad row aborts it) the batch is replayed row by row, each row under
// its own savepoint, so only the offending rows are reported as failures.
func (s *Store) InsertMany(ctx context.Context, records []core.SalesRecord) (core.BatchResult, error) {
	if len(records) == 0 {
		return core.BatchResult{}, nil
	}

	if s.copyThreshold > 0 && len(records) >= s.copyThreshold {
		n, err := s.copyRecords(ctx, records)
		if err == nil {
			return core.BatchResult{Succeeded: n}, nil
		}
		if ctx.Err() != nil {
			return core.BatchResult{}, ctx.Err()
		}
		slog.Debug("copy failed, falling back to row inserts", "rows", len(records), "error", err)
	}

	return s.insertWithSavepoints(ctx, records)
}

func (s *Store) copyRecords(ctx context.Context, records []core.SalesRecord) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"sales"}, salesColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			return saleArgs(records[i]), nil
		}))
	if err != nil {
		return 0, fmt.Errorf("copy sales: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(n), nil
}

func (s *Store) insertWithSavepoints(ctx context.Context, records []core.SalesRecord) (core.BatchResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return core.BatchResult{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var res core.BatchResult
	for i, rec := range records {
		savepoint := fmt.Sprintf("sp_%d", i)
		if _, err := tx.Exec(ctx, "SAVEPOINT "+savepoint); err != nil {
			return core.BatchResult{}, fmt.Errorf("create savepoint: %w", err)
		}

		if _, err := tx.Exec(ctx, insertSaleSQL, saleArgs(rec)...); err != nil {
			if _, rbErr := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
				return core.BatchResult{}, fmt.Errorf("rollback savepoint: %w", rbErr)
			}
			res.Failures = append(res.Failures, core.ItemError{Index: i, Err: err})
			continue
		}

		_, _ = tx.Exec(ctx, "RELEASE SAVEPOINT "+savepoint)
		res.Succeeded++
	}

	if err := tx.Commit(ctx); err != nil {
		return core.BatchResult{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func saleArgs(r core.SalesRecord) []any {
	return []any{
		toPgUUID(r.ID),
		toPgDate(r.Date),
		r.Product,
		r.Category,
		r.Region,
		r.Quantity,
		toPgNumeric(r.Price),
		toPgNumeric(r.Revenue),
	}
}
