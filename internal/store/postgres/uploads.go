package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/salesdash/internal/core"
)

// RecordUpload appends one entry to the upload log.
func (s *Store) RecordUpload(ctx context.Context, e core.UploadLogEntry) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO upload_log
    (id, file_name, format, inserted, total, errors, ip_address, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		toPgUUID(e.ID), e.FileName, e.Format, e.Inserted, e.Total, e.Errors,
		e.IPAddress, e.UserAgent, pgtype.Timestamptz{Time: e.CreatedAt, Valid: true})
	if err != nil {
		return fmt.Errorf("insert upload log: %w", err)
	}
	return nil
}

// ListUploads returns up to limit entries, newest first.
func (s *Store) ListUploads(ctx context.Context, limit int) ([]core.UploadLogEntry, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, file_name, format, inserted, total, errors, ip_address, user_agent, created_at
FROM upload_log ORDER BY created_at DESC, id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list upload log: %w", err)
	}
	return collect(rows, func(row pgx.CollectableRow) (core.UploadLogEntry, error) {
		var (
			e         core.UploadLogEntry
			id        pgtype.UUID
			createdAt pgtype.Timestamptz
			inserted  int32
			total     int32
			errs      int32
		)
		err := row.Scan(&id, &e.FileName, &e.Format, &inserted, &total, &errs, &e.IPAddress, &e.UserAgent, &createdAt)
		e.ID = uuid.UUID(id.Bytes)
		e.Inserted, e.Total, e.Errors = int(inserted), int(total), int(errs)
		e.CreatedAt = createdAt.Time.UTC()
		return e, err
	})
}
