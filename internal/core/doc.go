// Package core provides the business logic for sales ingestion and reporting.
//
// This package holds all domain logic independent of any transport or
// storage engine. It can be used by web handlers, CLI tools, or tests
// without modification; persistence is reached only through [Store].
//
// # Ingestion
//
// An upload moves through fixed phases:
//
//  1. The body is spooled to a temporary file under [Service.IngestUpload],
//     bounded by the upload limiter and the configured size limit
//  2. The file extension selects CSV or workbook parsing ([DetectFormat],
//     [ParseRows]); header names are resolved through [ColumnCandidates]
//  3. Rows are normalized into [SalesRecord] values and rows failing the
//     gate (valid date, non-blank labels, positive quantity and price) are
//     dropped silently
//  4. Accepted records go to the store in one [RecordWriter.InsertMany]
//     call, which may refuse individual rows without failing the batch
//
// Parsing is all-or-nothing. Successful uploads are recorded in the upload
// log and the caller receives an [IngestionReport].
//
// # Reporting
//
// The read side ([Service.Summary], [Service.Trend], [Service.ByProduct],
// [Service.ByRegion], [Service.List] and the distinct label lists) is
// deterministic: ties are broken by label and listings by record ID, so
// repeating a query yields identical output. Query parameters are checked
// with [ParseDateRange], [ParseTrendParams] and [ParseListFilter], which
// collect every field problem into one [ValidationErrors].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each message carries a code for support reference:
//
//   - VAL007: invalid request parameters
//   - FILE001-FILE007: file size, parsing, encoding, format
//   - UPL002-UPL005: upload capacity, cancellation, timeout
//   - DB001-DB006: store failures
package core
