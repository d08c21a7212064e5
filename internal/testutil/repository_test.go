package testutil

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRepository(t *testing.T) {
	t.Parallel()

	repo := NewRepository().
		WithPlugin("git", "4.11.0", "4.10.3").
		WithMissingListing("ghost").
		Start(t)

	assert.Equal(t, repo.Domain()+"/download/plugins/", repo.Root())
	assert.Equal(t, repo.Domain()+"/download/plugins/git/4.11.0/git.hpi", repo.ArtifactURL("git", "4.11.0"))

	status, body := get(t, repo.Root())
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `<a href="?C=N;O=D">`)
	assert.Contains(t, body, `<a href="git/">`)
	assert.Contains(t, body, `<a href="ghost/">`)

	status, body = get(t, repo.ListingURL("git"))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `href="/download/plugins/git/latest/git.hpi"`)
	assert.Less(t,
		strings.Index(body, "4.11.0/git.hpi"),
		strings.Index(body, "4.10.3/git.hpi"))

	status, _ = get(t, repo.ListingURL("ghost"))
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = get(t, repo.ListingURL("unknown"))
	assert.Equal(t, http.StatusNotFound, status)
}
