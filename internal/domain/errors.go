package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrItemNotFound indicates the requested video item does not exist
	ErrItemNotFound = errors.New("video item not found")

	// ErrScanRootMissing indicates the configured scan root does not exist
	ErrScanRootMissing = errors.New("scan root does not exist")

	// ErrThumbnailFailed indicates thumbnail extraction failed
	ErrThumbnailFailed = errors.New("thumbnail generation failed")

	// ErrNoFrame indicates the source file yielded no decodable frame
	ErrNoFrame = errors.New("no decodable frame in source")
)
