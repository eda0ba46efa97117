package services

import "errors"

// Extraction errors are fatal to the request that triggered them.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file too large")
	ErrEmptyExtraction   = errors.New("no text could be extracted")
	ErrDecode            = errors.New("could not decode text file")
)

// AI errors never fail an analysis; callers fall back to the heuristic path.
var (
	ErrAIUnavailable       = errors.New("ai service unavailable")
	ErrAIQuotaExceeded     = errors.New("ai quota exceeded or unauthorized")
	ErrAIMalformedResponse = errors.New("ai response could not be parsed")
)

// ErrPersistence is reported alongside a result; it never discards it.
var ErrPersistence = errors.New("failed to persist analysis")

// IsExtractionError reports whether err came from document extraction.
func IsExtractionError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrEmptyExtraction) ||
		errors.Is(err, ErrDecode)
}

// ErrJobFetch means a job posting URL could not be turned into text.
var ErrJobFetch = errors.New("could not fetch job description")
