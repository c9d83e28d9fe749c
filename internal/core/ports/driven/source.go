package driven

import "context"

// DocumentSource fetches document bytes for a location (path or URI).
type DocumentSource interface {
	// Supports reports whether the source handles the location.
	Supports(location string) bool

	// Fetch returns the document bytes and a MIME hint, which may be empty.
	Fetch(ctx context.Context, location string) ([]byte, string, error)
}
