package core

// ingest.go drives one upload through its phases:
//
//	Received -> Parsed -> Normalized -> Persisted
//	    \__________\___________\________> Failed
//
// Parsing is all-or-nothing. The insert that follows is not: the store
// reports how many records it accepted and the report carries both counts.

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/salesdash/internal/logging"
)

// Phase names an ingestion step in the upload log output.
type Phase string

const (
	PhaseReceived   Phase = "received"
	PhaseParsed     Phase = "parsed"
	PhaseNormalized Phase = "normalized"
	PhasePersisted  Phase = "persisted"
	PhaseFailed     Phase = "failed"
)

// Upload is a file arriving over a request body.
type Upload struct {
	FileName string
	Body     io.Reader
}

// Ingest parses, normalizes and persists an in-memory file.
func (s *Service) Ingest(ctx context.Context, payload []byte, fileName string) (IngestionReport, error) {
	if int64(len(payload)) > s.opts.MaxFileSize {
		return IngestionReport{}, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(payload))
	}
	run := s.newRun(ctx, fileName)
	return run.execute(ctx, bytes.NewReader(payload))
}

// IngestUpload spools the upload body to a temporary file and ingests it.
// The buffer is removed before IngestUpload returns, whatever the outcome.
func (s *Service) IngestUpload(ctx context.Context, up Upload) (IngestionReport, error) {
	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		return IngestionReport{}, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, s.opts.UploadTimeout)
	defer cancel()

	tmp, err := NewTempFile(s.opts.TempDir)
	if err != nil {
		return IngestionReport{}, err
	}
	defer func() {
		if err := tmp.Release(); err != nil {
			logging.FromContext(ctx).Warn("failed to remove upload buffer", "path", tmp.Path(), "error", err)
		}
	}()

	run := s.newRun(ctx, up.FileName)
	if err := tmp.Spool(up.Body, s.opts.MaxFileSize); err != nil {
		return IngestionReport{}, run.fail(err)
	}
	run.log.Debug("upload spooled", "bytes", tmp.Size())
	r, err := tmp.Reader()
	if err != nil {
		return IngestionReport{}, run.fail(err)
	}
	return run.execute(ctx, r)
}

// ingestRun carries per-upload state through the phases.
type ingestRun struct {
	svc      *Service
	id       uuid.UUID
	fileName string
	start    time.Time
	log      *slog.Logger
}

func (s *Service) newRun(ctx context.Context, fileName string) *ingestRun {
	id := uuid.New()
	log := logging.WithFields(ctx, "upload_id", id.String(), "file", fileName)
	log.Info("upload phase", "phase", PhaseReceived)
	return &ingestRun{svc: s, id: id, fileName: fileName, start: time.Now(), log: log}
}

func (r *ingestRun) fail(err error) error {
	r.log.Warn("upload phase", "phase", PhaseFailed, "error", err,
		"duration_ms", time.Since(r.start).Milliseconds())
	return err
}

func (r *ingestRun) execute(ctx context.Context, body io.Reader) (IngestionReport, error) {
	format, err := DetectFormat(r.fileName)
	if err != nil {
		return IngestionReport{}, r.fail(err)
	}

	rows, err := ParseRows(body, format)
	if err != nil {
		return IngestionReport{}, r.fail(err)
	}
	r.log.Debug("upload phase", "phase", PhaseParsed, "format", format, "rows", len(rows))

	if err := ctx.Err(); err != nil {
		return IngestionReport{}, r.fail(err)
	}

	records := Normalize(rows)
	r.log.Debug("upload phase", "phase", PhaseNormalized, "accepted", len(records),
		"skipped", len(rows)-len(records))
	if len(records) == 0 {
		return IngestionReport{}, r.fail(fmt.Errorf("%w: %d rows read, none accepted", ErrNoValidData, len(rows)))
	}

	res, err := r.svc.store.InsertMany(ctx, records)
	if err != nil {
		return IngestionReport{}, r.fail(fmt.Errorf("%w: %w", ErrPersistence, err))
	}

	report := IngestionReport{
		UploadID: r.id.String(),
		Inserted: res.Succeeded,
		Total:    len(records),
		Rejected: len(res.Failures),
	}
	for _, f := range res.Failures {
		r.log.Debug("record rejected by store", "index", f.Index, "error", f.Err)
	}
	r.log.Info("upload phase", "phase", PhasePersisted,
		"inserted", report.Inserted, "total", report.Total, "errors", report.Rejected,
		"duration_ms", time.Since(r.start).Milliseconds())

	r.recordHistory(ctx, format, report)
	return report, nil
}

// recordHistory appends the upload to the log. A failure here is logged and
// never fails the upload itself.
func (r *ingestRun) recordHistory(ctx context.Context, format Format, report IngestionReport) {
	meta := RequestMetaFrom(ctx)
	entry := UploadLogEntry{
		ID:        r.id,
		FileName:  r.fileName,
		Format:    string(format),
		Inserted:  report.Inserted,
		Total:     report.Total,
		Errors:    report.Rejected,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.svc.store.RecordUpload(ctx, entry); err != nil {
		r.log.Warn("failed to record upload history", "error", err)
	}
}

// UploadHistory returns the most recent uploads, newest first.
func (s *Service) UploadHistory(ctx context.Context, limit int) ([]UploadLogEntry, error) {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	entries, err := s.store.ListUploads(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return entries, nil
}
