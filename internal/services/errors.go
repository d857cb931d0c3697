package services

import "errors"

// Service-level sentinel errors. Handlers translate these into RFC 7807
// problem responses.
var (
	// Dataset errors
	ErrNoDataset      = errors.New("no dataset loaded")
	ErrDatasetInvalid = errors.New("dataset invalid")
	ErrEmptyDataset   = errors.New("dataset has no usable rows")

	// File errors
	ErrFileNotFound    = errors.New("file not found")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")

	// Export errors
	ErrUnknownExportKind = errors.New("unknown export kind")

	// General errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
