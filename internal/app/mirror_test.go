package app_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/plugmirror/internal/adapters/cachestore"
	"github.com/felixgeelhaar/plugmirror/internal/adapters/metrics"
	"github.com/felixgeelhaar/plugmirror/internal/adapters/prefetch"
	"github.com/felixgeelhaar/plugmirror/internal/app"
	"github.com/felixgeelhaar/plugmirror/internal/domain/config"
	"github.com/felixgeelhaar/plugmirror/internal/domain/manifest"
	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
	"github.com/felixgeelhaar/plugmirror/internal/testutil/mocks"
)

const (
	domain = "https://updates.example"
	root   = domain + "/download/plugins/"
)

func artifact(name, version string) string {
	return domain + "/download/plugins/" + name + "/" + version + "/" + name + ".hpi"
}

func href(name, version string) string {
	return "/download/plugins/" + name + "/" + version + "/" + name + ".hpi"
}

type fixture struct {
	fetcher *mocks.Fetcher
	hasher  *mocks.Hasher
	cache   mirror.Cache
}

// newFixture serves an index with three plugins: git (1.3 and 1.2 behind
// latest), credentials (2.0, whose download fails), and floating (latest
// only).
func newFixture(cache mirror.Cache) *fixture {
	f := &fixture{fetcher: mocks.NewFetcher(), hasher: mocks.NewHasher(), cache: cache}

	f.fetcher.AddLinks(root, "?C=N;O=D", "/download/", "git/", "credentials/", "floating/")
	f.fetcher.AddLinks(root+"git/", "../", href("git", "latest"), href("git", "1.3"), href("git", "1.2"))
	f.fetcher.AddLinks(root+"credentials/", href("credentials", "latest"), href("credentials", "2.0"))
	f.fetcher.AddLinks(root+"floating/", href("floating", "latest"))
	f.fetcher.AddLinks(root + "../")

	f.hasher.AddDigest(artifact("git", "1.3"), "0git13")
	f.hasher.AddDigest(artifact("git", "1.2"), "0git12")
	f.hasher.AddUnavailable(artifact("credentials", "2.0"))
	return f
}

func (f *fixture) mirror(opts ...app.Option) *app.Mirror {
	links := mocks.LineLinks{}
	crawler := mirror.NewCrawler(f.fetcher, links, root)
	resolver := mirror.NewResolver(f.fetcher, links, f.hasher, f.cache, domain)
	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	base := []app.Option{
		app.WithRunID("test-run"),
		app.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	}
	return app.NewMirror(crawler, resolver, manifest.DefaultTemplate(), append(base, opts...)...)
}

func TestMirror_Run_PageOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(mocks.NewCache())
	var buf bytes.Buffer

	summary, err := f.mirror().Run(context.Background(), manifest.NewWriter(&buf, manifest.DefaultTemplate()))
	require.NoError(t, err)

	assert.Equal(t, "test-run", summary.RunID)
	assert.Equal(t, mirror.PolicyPageOrder, summary.Policy)
	assert.Equal(t, 4, summary.Plugins, "../ is kept by the index filter")
	assert.Equal(t, 2, summary.Records)
	assert.Equal(t, 1, summary.Hashed)
	assert.Equal(t, 1, summary.Broken)
	assert.Equal(t, 2, summary.Skipped)
	assert.Zero(t, summary.CacheHits)
	require.Len(t, summary.BrokenRecords, 1)
	assert.Equal(t, "credentials-2.0", summary.BrokenRecords[0].ID())
	assert.Positive(t, summary.Duration())
	assert.NoError(t, summary.Err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 1, 0, time.UTC), summary.StartedAt, "start is stamped on entering discovery")

	out := buf.String()
	tmpl := manifest.DefaultTemplate()
	assert.True(t, strings.HasPrefix(out, tmpl.Header))
	assert.True(t, strings.HasSuffix(out, tmpl.Footer))
	assert.Contains(t, out, `"git-1.3" = mkJenkinsPlugin {`)
	assert.Contains(t, out, `sha256 = "0git13";`)
	assert.NotContains(t, out, "git-1.2")
	assert.NotContains(t, out, "latest")
	assert.Contains(t, out, `url = "`+artifact("credentials", "2.0")+`";`)
	assert.Contains(t, out, `sha256 = "BROKEN (might be 404)";`)
	assert.Less(t, strings.Index(out, "git-1.3"), strings.Index(out, "credentials-2.0"), "index order is preserved")

	assert.Zero(t, f.hasher.CallCount(artifact("git", "1.2")), "only the selected version is hashed")
}

func TestMirror_Run_SecondRunUsesCache(t *testing.T) {
	t.Parallel()

	f := newFixture(mocks.NewCache())
	m := f.mirror()

	var first, second bytes.Buffer
	_, err := m.Run(context.Background(), manifest.NewWriter(&first, manifest.DefaultTemplate()))
	require.NoError(t, err)

	summary, err := m.Run(context.Background(), manifest.NewWriter(&second, manifest.DefaultTemplate()))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.CacheHits)
	assert.Zero(t, summary.Hashed)
	assert.Equal(t, 1, summary.Broken, "broken artifacts are retried, not cached")
	assert.Equal(t, 1, f.hasher.CallCount(artifact("git", "1.3")))
	assert.Equal(t, 2, f.hasher.CallCount(artifact("credentials", "2.0")))
	assert.Equal(t, first.String(), second.String())
}

func TestMirror_Run_Highest(t *testing.T) {
	t.Parallel()

	f := newFixture(mocks.NewCache())
	f.fetcher.AddLinks(root+"git/", href("git", "1.2"), href("git", "1.10"), href("git", "1.9"))
	f.hasher.AddDigest(artifact("git", "1.10"), "0git110")

	var buf bytes.Buffer
	summary, err := f.mirror(app.WithPolicy(mirror.PolicyHighest)).
		Run(context.Background(), manifest.NewWriter(&buf, manifest.DefaultTemplate()))
	require.NoError(t, err)

	assert.Equal(t, mirror.PolicyHighest, summary.Policy)
	assert.Contains(t, buf.String(), `"git-1.10"`)
	assert.NotContains(t, buf.String(), `"git-1.2"`)
	assert.NotContains(t, buf.String(), `"git-1.9"`)
}

func TestMirror_Run_All(t *testing.T) {
	t.Parallel()

	f := newFixture(mocks.NewCache())

	var buf bytes.Buffer
	summary, err := f.mirror(app.WithPolicy(mirror.PolicyAll)).
		Run(context.Background(), manifest.NewWriter(&buf, manifest.DefaultTemplate()))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Records)
	assert.Equal(t, 2, summary.Hashed)
	assert.Contains(t, buf.String(), `"git-1.3"`)
	assert.Contains(t, buf.String(), `"git-1.2"`)
}

func TestMirror_Run_IndexUnavailable(t *testing.T) {
	t.Parallel()

	f := newFixture(mocks.NewCache())
	f.fetcher.AddError(root, errors.New("connection refused"))

	var buf bytes.Buffer
	summary, err := f.mirror().Run(context.Background(), manifest.NewWriter(&buf, manifest.DefaultTemplate()))
	require.Error(t, err)

	assert.True(t, config.IsUserError(err, config.ErrCodeIndexUnavailable))
	assert.ErrorIs(t, err, mirror.ErrTransport)
	require.NotNil(t, summary)
	assert.False(t, summary.Succeeded())
	assert.Zero(t, summary.Plugins)
	assert.Equal(t, manifest.DefaultHeader, buf.String(), "an aborted manifest has no footer")
}

func TestMirror_Run_ListingUnavailableLeavesPartialManifest(t *testing.T) {
	t.Parallel()

	f := newFixture(mocks.NewCache())
	f.fetcher.AddError(root+"credentials/", errors.New("timeout"))

	var buf bytes.Buffer
	summary, err := f.mirror().Run(context.Background(), manifest.NewWriter(&buf, manifest.DefaultTemplate()))
	require.Error(t, err)

	ue := config.GetUserError(err)
	require.NotNil(t, ue)
	assert.Equal(t, root+"credentials/", ue.Context)
	assert.Equal(t, 1, summary.Records)
	assert.Equal(t, err, summary.Err)
	assert.False(t, summary.FinishedAt.IsZero())
	assert.Contains(t, buf.String(), `"git-1.3"`)
	assert.False(t, strings.HasSuffix(buf.String(), manifest.DefaultFooter))
}

func TestMirror_Run_CacheCorrupt(t *testing.T) {
	t.Parallel()

	cache := mocks.NewCache()
	cache.GetErr = errors.Join(mirror.ErrCacheCorrupt, errors.New("yaml: line 3"))
	f := newFixture(cache)

	var buf bytes.Buffer
	_, err := f.mirror(app.WithCacheLocation(".plugmirror-cache.yaml")).
		Run(context.Background(), manifest.NewWriter(&buf, manifest.DefaultTemplate()))
	require.Error(t, err)

	ue := config.GetUserError(err)
	require.NotNil(t, ue)
	assert.Equal(t, config.ErrCodeCacheCorrupt, ue.Code)
	assert.Equal(t, ".plugmirror-cache.yaml", ue.Context)
	assert.Zero(t, f.hasher.CallCount(artifact("git", "1.3")))
}

func TestMirror_Run_HasherMissing(t *testing.T) {
	t.Parallel()

	f := newFixture(mocks.NewCache())
	f.hasher.AddError(artifact("git", "1.3"), prefetch.ErrCommandNotFound)

	var buf bytes.Buffer
	_, err := f.mirror().Run(context.Background(), manifest.NewWriter(&buf, manifest.DefaultTemplate()))
	require.Error(t, err)
	assert.True(t, config.IsUserError(err, config.ErrCodeHasherMissing))
}

func TestMirror_Run_Cancelled(t *testing.T) {
	t.Parallel()

	f := newFixture(mocks.NewCache())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := f.mirror().Run(ctx, manifest.NewWriter(&buf, manifest.DefaultTemplate()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMirror_Run_RecordsMetrics(t *testing.T) {
	t.Parallel()

	f := newFixture(mocks.NewCache())
	rec := metrics.New()

	var buf bytes.Buffer
	_, err := f.mirror(app.WithMetrics(rec)).Run(context.Background(), manifest.NewWriter(&buf, manifest.DefaultTemplate()))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "plugmirror.prom")
	require.NoError(t, rec.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "plugmirror_plugins_discovered_total 4")
	assert.Contains(t, string(data), `plugmirror_resolutions_total{effect="broken"} 1`)
	assert.Contains(t, string(data), `plugmirror_runs_total{status="success"} 1`)
}

func TestMirror_Generate_WritesFileWithFileCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := cachestore.NewFileStore(filepath.Join(dir, ".plugmirror-cache.yaml"))
	f := newFixture(store)
	out := filepath.Join(dir, "out", "plugins.nix")

	summary, err := f.mirror().Generate(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, out, summary.Output)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"git-1.3" = mkJenkinsPlugin`)

	entries, err := store.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Contains(t, entries, artifact("git", "1.3"))
}
