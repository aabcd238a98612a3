package core

import "errors"

// Upload and ingestion failures. Callers classify with errors.Is; the
// concrete error usually wraps one of these with technical detail.
var (
	// ErrUnsupportedFormat is returned for file extensions other than
	// .csv, .xlsx and .xls.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrParse is returned when a file with a supported extension cannot
	// be read as a table with a header row.
	ErrParse = errors.New("invalid file contents")

	// ErrNoValidData is returned when the file parsed but no row passed
	// normalization.
	ErrNoValidData = errors.New("no valid data found in the uploaded file")

	// ErrPersistence is returned when the store is unreachable or rejects
	// a batch outright.
	ErrPersistence = errors.New("persistence failure")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnsupportedMediaType is returned when the declared MIME type of an
	// upload is not a spreadsheet type.
	ErrUnsupportedMediaType = errors.New("invalid file type")

	// ErrNoFile is returned when the request carries no file part.
	ErrNoFile = errors.New("no file provided")
)
