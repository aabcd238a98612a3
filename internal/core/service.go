package core

import (
	"context"
	"time"
)

// Ingestion defaults used when Options leaves a field zero.
const (
	DefaultMaxFileSize   = 10 << 20
	DefaultUploadTimeout = 2 * time.Minute
)

// Options tunes the ingestion side of the Service.
type Options struct {
	MaxFileSize          int64         // Upload byte limit; 0 uses DefaultMaxFileSize
	UploadTimeout        time.Duration // Per-upload deadline; 0 uses DefaultUploadTimeout
	TempDir              string        // Where upload buffers are spooled; "" uses os.TempDir
	MaxConcurrentUploads int
	MaxUploadWait        time.Duration
}

// Service provides the core business logic for sales ingestion and reporting.
// It is safe for concurrent use; the only shared state is the store and the
// upload limiter.
type Service struct {
	store   Store
	limiter *UploadLimiter
	opts    Options
}

// NewService creates a Service on top of store.
func NewService(store Store, opts Options) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = DefaultUploadTimeout
	}
	return &Service{
		store:   store,
		limiter: NewUploadLimiter(opts.MaxConcurrentUploads, opts.MaxUploadWait),
		opts:    opts,
	}
}

// MaxFileSize returns the effective upload byte limit.
func (s *Service) MaxFileSize() int64 {
	return s.opts.MaxFileSize
}

// UploadStatus reports the upload limiter state.
func (s *Service) UploadStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx is done.
// Used during graceful shutdown.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
