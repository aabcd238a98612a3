package core

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// stubStore records calls and returns canned results.
type stubStore struct {
	mu sync.Mutex

	inserted   [][]SalesRecord
	insertErr  error
	failIdx    map[int]bool
	uploads    []UploadLogEntry
	uploadErr  error
	summary    Summary
	trend      []TrendPoint
	products   []ProductBreakdown
	regions    []RegionBreakdown
	categories []string
	regionList []string
	listed     []SalesRecord
	listTotal  int64
	lastFilter ListFilter
	queryErr   error
}

func (s *stubStore) InsertMany(_ context.Context, records []SalesRecord) (BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return BatchResult{}, s.insertErr
	}
	var res BatchResult
	for i := range records {
		if s.failIdx[i] {
			res.Failures = append(res.Failures, ItemError{Index: i, Err: errors.New("check constraint")})
			continue
		}
		res.Succeeded++
	}
	s.inserted = append(s.inserted, records)
	return res, nil
}

func (s *stubStore) Summary(context.Context, DateRange) (Summary, error) {
	return s.summary, s.queryErr
}

func (s *stubStore) Trend(context.Context, Period, DateRange) ([]TrendPoint, error) {
	return s.trend, s.queryErr
}

func (s *stubStore) ByProduct(context.Context, DateRange) ([]ProductBreakdown, error) {
	return s.products, s.queryErr
}

func (s *stubStore) ByRegion(context.Context, DateRange) ([]RegionBreakdown, error) {
	return s.regions, s.queryErr
}

func (s *stubStore) DistinctCategories(context.Context) ([]string, error) {
	return s.categories, s.queryErr
}

func (s *stubStore) DistinctRegions(context.Context) ([]string, error) {
	return s.regionList, s.queryErr
}

func (s *stubStore) List(_ context.Context, f ListFilter) ([]SalesRecord, int64, error) {
	s.lastFilter = f
	return s.listed, s.listTotal, s.queryErr
}

func (s *stubStore) RecordUpload(_ context.Context, e UploadLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploads = append(s.uploads, e)
	return nil
}

func (s *stubStore) ListUploads(_ context.Context, limit int) ([]UploadLogEntry, error) {
	if len(s.uploads) > limit {
		return s.uploads[:limit], nil
	}
	return s.uploads, nil
}

func (s *stubStore) Ping(context.Context) error { return nil }

const salesScenarioCSV = "date,product,category,region,quantity,price,revenue\n" +
	"2024-01-01,Laptop,Electronics,North,5,1200,6000\n" +
	"2024-01-02,,Electronics,South,3,800,2400\n"

func newTestService(t *testing.T, store *stubStore) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	return NewService(store, Options{TempDir: dir, MaxFileSize: 1 << 20}), dir
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir has %d leftover files, want 0", len(entries))
	}
}

func TestIngest_SalesScenario(t *testing.T) {
	store := &stubStore{}
	svc, _ := newTestService(t, store)

	report, err := svc.Ingest(context.Background(), []byte(salesScenarioCSV), "sales.csv")
	if err != nil {
		t.Fatalf("Ingest error = %v", err)
	}
	if report.Inserted != 1 || report.Total != 1 || report.Rejected != 0 {
		t.Errorf("report = %+v, want inserted=1 total=1 errors=0", report)
	}
	if report.UploadID == "" {
		t.Error("report has no upload ID")
	}
	if len(store.inserted) != 1 || len(store.inserted[0]) != 1 {
		t.Fatalf("InsertMany calls = %v, want one call with one record", store.inserted)
	}
	if got := store.inserted[0][0]; got.Product != "Laptop" || got.Revenue.String() != "6000" {
		t.Errorf("inserted record = %+v", got)
	}
	if len(store.uploads) != 1 || store.uploads[0].Format != "csv" {
		t.Errorf("upload log = %+v", store.uploads)
	}
}

func TestIngest_Errors(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		fileName string
		store    *stubStore
		wantErr  error
	}{
		{
			name:     "unsupported extension",
			payload:  salesScenarioCSV,
			fileName: "sales.txt",
			store:    &stubStore{},
			wantErr:  ErrUnsupportedFormat,
		},
		{
			name:     "empty csv",
			payload:  "",
			fileName: "sales.csv",
			store:    &stubStore{},
			wantErr:  ErrNoValidData,
		},
		{
			name:     "corrupt workbook",
			payload:  "not a zip",
			fileName: "sales.xlsx",
			store:    &stubStore{},
			wantErr:  ErrParse,
		},
		{
			name:     "header only",
			payload:  "date,product,category,region,quantity,price,revenue\n",
			fileName: "sales.csv",
			store:    &stubStore{},
			wantErr:  ErrNoValidData,
		},
		{
			name:     "every row rejected",
			payload:  "date,product,category,region,quantity,price\n2024-01-01,Laptop,Electronics,North,0,1200\n",
			fileName: "sales.csv",
			store:    &stubStore{},
			wantErr:  ErrNoValidData,
		},
		{
			name:     "store unavailable",
			payload:  salesScenarioCSV,
			fileName: "sales.csv",
			store:    &stubStore{insertErr: errors.New("connection refused")},
			wantErr:  ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, tt.store)
			_, err := svc.Ingest(context.Background(), []byte(tt.payload), tt.fileName)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Ingest error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != ErrPersistence && len(tt.store.inserted) != 0 {
				t.Error("store was written on a failed upload")
			}
			if len(tt.store.uploads) != 0 {
				t.Error("failed upload was recorded in history")
			}
		})
	}
}

func TestIngest_PartialInsert(t *testing.T) {
	csv := "date,product,category,region,quantity,price,revenue\n" +
		"2024-01-01,A,C,R,1,1,1\n" +
		"2024-01-02,B,C,R,1,1,1\n" +
		"2024-01-03,C,C,R,1,1,1\n"
	store := &stubStore{failIdx: map[int]bool{1: true}}
	svc, _ := newTestService(t, store)

	report, err := svc.Ingest(context.Background(), []byte(csv), "sales.csv")
	if err != nil {
		t.Fatalf("Ingest error = %v", err)
	}
	if report.Inserted != 2 || report.Total != 3 || report.Rejected != 1 {
		t.Errorf("report = %+v, want inserted=2 total=3 errors=1", report)
	}
}

func TestIngest_HistoryFailureDoesNotFailUpload(t *testing.T) {
	store := &stubStore{uploadErr: errors.New("disk full")}
	svc, _ := newTestService(t, store)

	report, err := svc.Ingest(context.Background(), []byte(salesScenarioCSV), "sales.csv")
	if err != nil {
		t.Fatalf("Ingest error = %v", err)
	}
	if report.Inserted != 1 {
		t.Errorf("Inserted = %d, want 1", report.Inserted)
	}
}

func TestIngest_TooLarge(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, Options{MaxFileSize: 10})
	_, err := svc.Ingest(context.Background(), []byte(salesScenarioCSV), "sales.csv")
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("error = %v, want ErrFileTooLarge", err)
	}
}

func TestIngestUpload_ReleasesBufferOnEveryPath(t *testing.T) {
	tests := []struct {
		name     string
		body     io.Reader
		fileName string
		store    *stubStore
		maxSize  int64
		wantErr  error
	}{
		{
			name:     "success",
			body:     strings.NewReader(salesScenarioCSV),
			fileName: "sales.csv",
			store:    &stubStore{},
		},
		{
			name:     "unsupported format",
			body:     strings.NewReader(salesScenarioCSV),
			fileName: "sales.pdf",
			store:    &stubStore{},
			wantErr:  ErrUnsupportedFormat,
		},
		{
			name:     "parse error",
			body:     strings.NewReader("garbage"),
			fileName: "sales.xlsx",
			store:    &stubStore{},
			wantErr:  ErrParse,
		},
		{
			name:     "no valid data",
			body:     strings.NewReader("date,product\n"),
			fileName: "sales.csv",
			store:    &stubStore{},
			wantErr:  ErrNoValidData,
		},
		{
			name:     "persistence failure",
			body:     strings.NewReader(salesScenarioCSV),
			fileName: "sales.csv",
			store:    &stubStore{insertErr: errors.New("boom")},
			wantErr:  ErrPersistence,
		},
		{
			name:     "too large",
			body:     strings.NewReader(salesScenarioCSV),
			fileName: "sales.csv",
			store:    &stubStore{},
			maxSize:  16,
			wantErr:  ErrFileTooLarge,
		},
		{
			name:     "body read error",
			body:     io.MultiReader(strings.NewReader("date,"), errReader{}),
			fileName: "sales.csv",
			store:    &stubStore{},
			wantErr:  errBodyRead,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			maxSize := tt.maxSize
			if maxSize == 0 {
				maxSize = 1 << 20
			}
			svc := NewService(tt.store, Options{TempDir: dir, MaxFileSize: maxSize})

			_, err := svc.IngestUpload(context.Background(), Upload{FileName: tt.fileName, Body: tt.body})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("IngestUpload error = %v, want %v", err, tt.wantErr)
			}
			assertDirEmpty(t, dir)
			if got := svc.UploadStatus().Active; got != 0 {
				t.Errorf("limiter still holds %d slots", got)
			}
		})
	}
}

func TestIngestUpload_TooManyUploads(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, Options{
		TempDir:              t.TempDir(),
		MaxConcurrentUploads: 1,
		MaxUploadWait:        20 * time.Millisecond,
	})

	release, err := svc.limiter.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	_, err = svc.IngestUpload(context.Background(), Upload{FileName: "sales.csv", Body: strings.NewReader(salesScenarioCSV)})
	if !errors.Is(err, ErrTooManyUploads) {
		t.Errorf("error = %v, want ErrTooManyUploads", err)
	}
}

func TestIngestUpload_RecordsRequestMeta(t *testing.T) {
	store := &stubStore{}
	svc, _ := newTestService(t, store)
	ctx := WithRequestMeta(context.Background(), RequestMeta{IPAddress: "10.0.0.1", UserAgent: "curl/8"})

	if _, err := svc.IngestUpload(ctx, Upload{FileName: "sales.csv", Body: strings.NewReader(salesScenarioCSV)}); err != nil {
		t.Fatalf("IngestUpload error = %v", err)
	}
	if len(store.uploads) != 1 {
		t.Fatalf("upload log has %d entries, want 1", len(store.uploads))
	}
	got := store.uploads[0]
	if got.IPAddress != "10.0.0.1" || got.UserAgent != "curl/8" || got.FileName != "sales.csv" {
		t.Errorf("entry = %+v", got)
	}
}

func TestTempFile_ReleaseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	tmp, err := NewTempFile(dir)
	if err != nil {
		t.Fatalf("NewTempFile: %v", err)
	}
	if err := tmp.Spool(strings.NewReader("abc"), 0); err != nil {
		t.Fatalf("Spool: %v", err)
	}
	if tmp.Size() != 3 {
		t.Errorf("Size = %d, want 3", tmp.Size())
	}
	if err := tmp.Release(); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := tmp.Release(); err != nil {
		t.Errorf("second Release: %v", err)
	}
	assertDirEmpty(t, dir)
}

var errBodyRead = errors.New("connection dropped")

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errBodyRead }
