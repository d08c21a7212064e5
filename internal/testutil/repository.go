package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// PluginsPath is where the index lives on a Jenkins update site.
const PluginsPath = "/download/plugins/"

// Repository builds an in-process update site: an index page with one
// directory per plugin and one listing page per plugin.
type Repository struct {
	mu       sync.Mutex
	plugins  []string
	versions map[string][]string
	missing  map[string]bool
	server   *httptest.Server
}

// NewRepository creates an empty repository. Call Start to serve it.
func NewRepository() *Repository {
	return &Repository{
		versions: make(map[string][]string),
		missing:  make(map[string]bool),
	}
}

// WithPlugin adds a plugin whose listing shows a "latest" link followed by
// versions in the given order.
func (r *Repository) WithPlugin(name string, versions ...string) *Repository {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.versions[name]; !ok {
		r.plugins = append(r.plugins, name)
	}
	r.versions[name] = versions
	return r
}

// WithMissingListing keeps name in the index but serves 404 for its listing.
func (r *Repository) WithMissingListing(name string) *Repository {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.versions[name]; !ok {
		r.plugins = append(r.plugins, name)
		r.versions[name] = nil
	}
	r.missing[name] = true
	return r
}

// Start serves the repository until the test ends.
func (r *Repository) Start(t testing.TB) *Repository {
	t.Helper()
	r.server = httptest.NewServer(http.HandlerFunc(r.serve))
	t.Cleanup(r.server.Close)
	return r
}

// Domain is the scheme and host of the running server.
func (r *Repository) Domain() string {
	return r.server.URL
}

// Root is the index URL.
func (r *Repository) Root() string {
	return r.server.URL + PluginsPath
}

// ListingURL is the listing page of a plugin as the crawler yields it.
func (r *Repository) ListingURL(name string) string {
	return r.Root() + name + "/"
}

// ArtifactURL is the download URL the resolver computes for a version.
func (r *Repository) ArtifactURL(name, version string) string {
	return r.server.URL + ArtifactPath(name, version)
}

func (r *Repository) serve(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.URL.Path == PluginsPath {
		hrefs := make([]string, 0, len(r.plugins))
		for _, name := range r.plugins {
			hrefs = append(hrefs, name+"/")
		}
		_, _ = fmt.Fprint(w, IndexPage(hrefs...))
		return
	}

	name := strings.Trim(strings.TrimPrefix(req.URL.Path, PluginsPath), "/")
	versions, ok := r.versions[name]
	if !ok || r.missing[name] || strings.Contains(name, "/") {
		http.NotFound(w, req)
		return
	}
	_, _ = fmt.Fprint(w, ListingPage(name, versions...))
}

// ArtifactPath is the root-relative link of one plugin version.
func ArtifactPath(name, version string) string {
	return fmt.Sprintf("%s%s/%s/%s.hpi", PluginsPath, name, version, name)
}

// IndexPage renders an Apache-style directory index containing a sort
// link, a parent link, and hrefs in order.
func IndexPage(hrefs ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body>\n")
	sb.WriteString(`<a href="?C=N;O=D">Name</a>` + "\n")
	sb.WriteString(`<a href="/download/">Parent Directory</a>` + "\n")
	for _, h := range hrefs {
		fmt.Fprintf(&sb, "<a href=%q>%s</a>\n", h, h)
	}
	sb.WriteString("</body></html>\n")
	return sb.String()
}

// ListingPage renders a plugin listing with the floating "latest" link first.
func ListingPage(name string, versions ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body>\n")
	fmt.Fprintf(&sb, "<a href=%q>latest</a>\n", ArtifactPath(name, "latest"))
	for _, v := range versions {
		fmt.Fprintf(&sb, "<a href=%q>%s</a>\n", ArtifactPath(name, v), v)
	}
	sb.WriteString("</body></html>\n")
	return sb.String()
}
