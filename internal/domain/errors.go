package domain

import "errors"

var (
	ErrUnsupportedFormat  = errors.New("unsupported document format")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrExtractionFailed   = errors.New("failed to extract text")
	ErrNoReadableText     = errors.New("no readable text found")
	ErrModelUnavailable   = errors.New("model unavailable")
	ErrNoJSONFound        = errors.New("no JSON object found in model output")
	ErrInvalidRecordShape = errors.New("model output does not match the marksheet schema")
	ErrArchiveFailed      = errors.New("document archive failed")
)
