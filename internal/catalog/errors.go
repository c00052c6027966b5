package catalog

import "errors"

// Sentinel errors. Callers wrap them with context and test with errors.Is.
var (
	// ErrFormatMismatch means the header row matches no accepted layout.
	ErrFormatMismatch = errors.New("csv header does not match any accepted layout")

	ErrFileNotFound   = errors.New("import file not found")
	ErrFileUnreadable = errors.New("import file unreadable")
	ErrEmptyFile      = errors.New("empty file")

	// ErrRowSkipped marks a row that was classified as skip rather than written.
	ErrRowSkipped = errors.New("row skipped")

	// ErrMalformedRow marks a row with values outside the allowed range.
	ErrMalformedRow = errors.New("malformed row")

	// ErrRecordWrite wraps a storage failure for a single record.
	ErrRecordWrite = errors.New("record write failed")

	// ErrBackupFailed aborts an import before any row is read.
	ErrBackupFailed = errors.New("backup failed")

	// ErrTransactionBatch means the batch machinery itself failed; the
	// uncommitted batch was rolled back and the run stopped.
	ErrTransactionBatch = errors.New("transaction batch failed")

	ErrNotFound      = errors.New("record not found")
	ErrImportBusy    = errors.New("too many imports in progress")
	ErrUnknownEntity = errors.New("unknown entity")
	ErrInvalidFilter = errors.New("invalid export filter")
)
