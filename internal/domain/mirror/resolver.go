package mirror

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/plugmirror/internal/ports"
)

// Defaults matching the Jenkins update site layout.
const (
	DefaultExtension   = ".hpi"
	DefaultSkipVersion = "latest"
)

// Candidate is an artifact link found on a listing page, before hashing.
type Candidate struct {
	Name    string
	Version string
	URL     string
}

// Effect describes the side effect a resolution had.
type Effect int

const (
	// EffectCacheHit means the record came from the cache; nothing ran.
	EffectCacheHit Effect = iota
	// EffectHashed means the hasher ran and the record was stored.
	EffectHashed
	// EffectBroken means the hasher failed; the record was not stored.
	EffectBroken
)

// String returns the effect name used in logs and metrics labels.
func (e Effect) String() string {
	switch e {
	case EffectCacheHit:
		return "cache_hit"
	case EffectHashed:
		return "hashed"
	case EffectBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// Resolution is a resolved record together with the effect that produced it.
type Resolution struct {
	Record Record
	Effect Effect
	// Cause is the hasher failure behind an EffectBroken resolution.
	Cause error
}

// Resolver turns a plugin listing page into resolved records.
type Resolver struct {
	fetcher     ports.Fetcher
	links       ports.LinkExtractor
	hasher      Hasher
	cache       Cache
	domain      string
	extension   string
	skipVersion string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithExtension sets the artifact file suffix (default ".hpi").
func WithExtension(ext string) ResolverOption {
	return func(r *Resolver) {
		if ext != "" {
			r.extension = ext
		}
	}
}

// WithSkipVersion sets the floating version marker that is never resolved
// (default "latest").
func WithSkipVersion(v string) ResolverOption {
	return func(r *Resolver) {
		if v != "" {
			r.skipVersion = v
		}
	}
}

// NewResolver creates a resolver. Root-relative artifact links are joined to
// domain to form download URLs.
func NewResolver(fetcher ports.Fetcher, links ports.LinkExtractor, hasher Hasher, cache Cache, domain string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher:     fetcher,
		links:       links,
		hasher:      hasher,
		cache:       cache,
		domain:      strings.TrimSuffix(domain, "/"),
		extension:   DefaultExtension,
		skipVersion: DefaultSkipVersion,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Candidates fetches a listing page and returns its artifact links in page
// order, excluding the floating "latest" version.
func (r *Resolver) Candidates(ctx context.Context, listingURL string) ([]Candidate, error) {
	hrefs, err := fetchLinks(ctx, r.fetcher, r.links, listingURL)
	if err != nil {
		return nil, err
	}

	name := PluginName(listingURL)
	var out []Candidate
	for _, href := range hrefs {
		if !strings.HasSuffix(href, r.extension) {
			continue
		}

		version, ok := VersionOf(href)
		if !ok {
			debug(ctx, "artifact link has no version segment", ports.F("href", href))
			continue
		}
		if version == r.skipVersion {
			debug(ctx, "skipping floating version", ports.F("plugin", name), ports.F("href", href))
			continue
		}

		out = append(out, Candidate{
			Name:    name,
			Version: version,
			URL:     r.downloadURL(listingURL, href),
		})
	}
	return out, nil
}

// Resolve produces the record for one candidate, consulting the cache first.
// Only successful hashes are written to the cache; a broken artifact is
// retried by every later call.
func (r *Resolver) Resolve(ctx context.Context, c Candidate) (Resolution, error) {
	cached, ok, err := r.cache.Get(ctx, c.URL)
	if err != nil {
		return Resolution{}, fmt.Errorf("reading cache for %s: %w", c.URL, err)
	}
	if ok {
		return Resolution{Record: cached, Effect: EffectCacheHit}, nil
	}

	digest, err := r.hasher.Hash(ctx, c.URL)
	if err != nil {
		if errors.Is(err, ErrArtifactUnavailable) {
			return Resolution{
				Record: BrokenRecord(c.Version, c.Name, c.URL),
				Effect: EffectBroken,
				Cause:  err,
			}, nil
		}
		return Resolution{}, fmt.Errorf("hashing %s: %w", c.URL, err)
	}

	record, err := NewRecord(c.Version, c.Name, c.URL, digest)
	if err != nil {
		return Resolution{
			Record: BrokenRecord(c.Version, c.Name, c.URL),
			Effect: EffectBroken,
			Cause:  fmt.Errorf("%w: %w", ErrArtifactUnavailable, err),
		}, nil
	}

	if err := r.cache.Set(ctx, c.URL, record); err != nil {
		return Resolution{}, fmt.Errorf("writing cache for %s: %w", c.URL, err)
	}
	return Resolution{Record: record, Effect: EffectHashed}, nil
}

// Versions lazily resolves every candidate of a listing page in page order.
// Each record is hashed only when the consumer asks for it, so breaking out
// of the loop after the first record hashes exactly one artifact.
func (r *Resolver) Versions(ctx context.Context, listingURL string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		candidates, err := r.Candidates(ctx, listingURL)
		if err != nil {
			yield(Record{}, err)
			return
		}

		for _, c := range candidates {
			res, err := r.Resolve(ctx, c)
			if err != nil {
				yield(Record{}, err)
				return
			}
			if !yield(res.Record, nil) {
				return
			}
		}
	}
}

func (r *Resolver) downloadURL(listingURL, href string) string {
	if strings.Contains(href, "://") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return r.domain + href
	}

	base, err := url.Parse(listingURL)
	if err != nil {
		return listingURL + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return listingURL + href
	}
	return base.ResolveReference(ref).String()
}

// PluginName returns the last non-empty path segment of a listing URL:
// "https://host/download/plugins/git/" yields "git".
func PluginName(listingURL string) string {
	trimmed := strings.TrimRight(listingURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// VersionOf returns the second-to-last path segment of an artifact link:
// "/download/plugins/git/4.11.0/git.hpi" yields "4.11.0".
func VersionOf(href string) (string, bool) {
	segments := strings.Split(href, "/")
	if len(segments) < 2 {
		return "", false
	}
	version := segments[len(segments)-2]
	if version == "" {
		return "", false
	}
	return version, true
}
