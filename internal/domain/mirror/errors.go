package mirror

import "errors"

// Error kinds surfaced by the pipeline.
var (
	// ErrTransport means an index or listing page could not be fetched.
	ErrTransport = errors.New("transport error")
	// ErrParse means a fetched page could not be parsed as HTML.
	ErrParse = errors.New("parse error")
	// ErrArtifactUnavailable means the hasher reported failure for one
	// artifact. It is recovered locally with BrokenHash.
	ErrArtifactUnavailable = errors.New("artifact unavailable")
	// ErrCacheCorrupt means the persisted cache could not be decoded.
	ErrCacheCorrupt = errors.New("cache corrupt")
	// ErrInvalidRecord means a Record was built with an empty field.
	ErrInvalidRecord = errors.New("invalid plugin record")
)
