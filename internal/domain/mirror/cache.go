package mirror

import "context"

// Cache maps an artifact download URL to its resolved Record.
//
// A hit is authoritative and never re-verified. The resolver only writes
// records with a real digest, and only for URLs that missed, so entries are
// never overwritten with different content.
type Cache interface {
	// Get returns the record stored for url. The boolean is false when the
	// backing store does not exist yet or the key is absent.
	Get(ctx context.Context, url string) (Record, bool, error)
	// Set stores record under url and persists it before returning.
	Set(ctx context.Context, url string, record Record) error
}

// Lister is implemented by caches that can enumerate their entries.
type Lister interface {
	Entries(ctx context.Context) (map[string]Record, error)
}

// Hasher computes the content digest of the artifact at url.
// It returns an error wrapping ErrArtifactUnavailable when the artifact could
// not be fetched; any other error aborts the run.
type Hasher interface {
	Hash(ctx context.Context, url string) (string, error)
}
