// Package mirror crawls a plugin repository index, resolves plugin versions to
// download URLs and content hashes, and caches those resolutions.
package mirror

import "fmt"

// BrokenHash replaces the digest of an artifact the hasher could not fetch.
const BrokenHash = "BROKEN (might be 404)"

// Record is one resolved plugin version. It is a value: copy it freely.
// Hash is never empty; it is a digest or BrokenHash.
type Record struct {
	Version string
	Name    string
	URL     string
	Hash    string
}

// NewRecord validates and builds a Record.
func NewRecord(version, name, url, hash string) (Record, error) {
	switch {
	case version == "":
		return Record{}, fmt.Errorf("%w: empty version", ErrInvalidRecord)
	case name == "":
		return Record{}, fmt.Errorf("%w: empty name", ErrInvalidRecord)
	case url == "":
		return Record{}, fmt.Errorf("%w: empty url", ErrInvalidRecord)
	case hash == "":
		return Record{}, fmt.Errorf("%w: empty hash", ErrInvalidRecord)
	}
	return Record{Version: version, Name: name, URL: url, Hash: hash}, nil
}

// BrokenRecord builds the record emitted when an artifact cannot be hashed.
func BrokenRecord(version, name, url string) Record {
	return Record{Version: version, Name: name, URL: url, Hash: BrokenHash}
}

// IsBroken reports whether the record carries the broken sentinel.
func (r Record) IsBroken() bool {
	return r.Hash == BrokenHash
}

// ID returns the stable "<name>-<version>" identifier used in the manifest.
func (r Record) ID() string {
	return r.Name + "-" + r.Version
}

// String implements fmt.Stringer.
func (r Record) String() string {
	return fmt.Sprintf("%s %s %s", r.ID(), r.URL, r.Hash)
}
