package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/plugmirror/internal/adapters/httpfetch"
	"github.com/felixgeelhaar/plugmirror/internal/adapters/logging"
	"github.com/felixgeelhaar/plugmirror/internal/adapters/metrics"
	"github.com/felixgeelhaar/plugmirror/internal/app"
	"github.com/felixgeelhaar/plugmirror/internal/domain/config"
	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
	"github.com/felixgeelhaar/plugmirror/internal/testutil"
)

func TestWire_EndToEnd(t *testing.T) {
	t.Parallel()

	repo := testutil.NewRepository().WithPlugin("git", "4.11.0", "4.10.3").Start(t)
	prefetch := testutil.FakePrefetch(t)
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Repository.Domain = repo.Domain()
	cfg.Repository.Root = repo.Root()
	cfg.Hasher.Command = prefetch.Command
	cfg.Cache.Path = filepath.Join(dir, "cache.json")
	cfg.Manifest.Output = filepath.Join(dir, "plugins.nix")
	require.NoError(t, cfg.Validate())

	rec := metrics.New()
	services, err := app.Wire(context.Background(), cfg, logging.NewNopLogger(), rec)
	require.NoError(t, err)
	defer func() { assert.NoError(t, services.Close()) }()

	assert.Equal(t, cfg.Cache.Path, services.Cache.Location())

	summary, err := services.Mirror().Generate(context.Background(), cfg.Manifest.Output)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Plugins)
	assert.Equal(t, 1, summary.Hashed)

	data, err := os.ReadFile(cfg.Manifest.Output)
	require.NoError(t, err)
	testutil.AssertManifestComplete(t, string(data), 1)
	testutil.AssertManifestHas(t, string(data), mirror.Record{
		Version: "4.11.0",
		Name:    "git",
		URL:     repo.ArtifactURL("git", "4.11.0"),
		Hash:    "0fake4.11.0",
	})
	assert.Equal(t, []string{repo.ArtifactURL("git", "4.11.0")}, prefetch.Calls(t))

	entries, err := services.Cache.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWire_MissingHasher(t *testing.T) {
	t.Parallel()

	repo := testutil.NewRepository().WithPlugin("git", "4.11.0").Start(t)

	cfg := config.Default()
	cfg.Repository.Domain = repo.Domain()
	cfg.Repository.Root = repo.Root()
	cfg.Hasher.Command = filepath.Join(t.TempDir(), "no-such-prefetch")
	cfg.Cache.Backend = config.BackendMemory

	services, err := app.Wire(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	defer func() { _ = services.Close() }()

	_, err = services.Mirror().Generate(context.Background(), filepath.Join(t.TempDir(), "plugins.nix"))
	require.Error(t, err)
	ue := config.GetUserError(err)
	require.NotNil(t, ue)
	assert.Equal(t, config.ErrCodeHasherMissing, ue.Code)
	assert.Equal(t, services.Hasher.Command(), ue.Context)
	assert.Equal(t, cfg.Hasher.Command, ue.Context)
}

func TestWire_CorruptCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Cache.Backend = config.BackendSQLite
	cfg.Cache.Path = filepath.Join(dir, "cache.db")
	require.NoError(t, os.WriteFile(cfg.Cache.Path, []byte(strings.Repeat("not a sqlite database\n", 64)), 0o644))

	_, err := app.Wire(context.Background(), cfg, nil, nil)
	require.Error(t, err)
	assert.True(t, config.IsUserError(err, config.ErrCodeCacheCorrupt))
}

func TestWire_MissingHeaderFile(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Cache.Backend = config.BackendMemory
	cfg.Manifest.HeaderFile = filepath.Join(t.TempDir(), "missing.nix")

	_, err := app.Wire(context.Background(), cfg, nil, nil)
	assert.Error(t, err)
}

func TestNewCrawler_SendsClientUserAgent(t *testing.T) {
	t.Parallel()

	agents := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(testutil.IndexPage("git/")))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Repository.Root = server.URL + "/"

	listings, err := app.NewCrawler(cfg).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{server.URL + "/git/"}, listings)
	assert.Equal(t, httpfetch.DefaultUserAgent, <-agents)
}
