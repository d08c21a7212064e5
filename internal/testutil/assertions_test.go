package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/plugmirror/internal/domain/manifest"
	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

func TestAssertFileHelpers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := WriteTempFile(t, dir, "plugins.nix", "in rec {\r\n}\r\n")

	AssertFileContains(t, path, "in rec")
	AssertFileEquals(t, path, "in rec {\n}\n")
	AssertFileNotExists(t, filepath.Join(dir, "missing.nix"))
}

func TestAssertYAMLEquals(t *testing.T) {
	t.Parallel()

	AssertYAMLEquals(t,
		"records:\n  a: {name: git, version: \"1.0\"}\n",
		"records:\n  a:\n    version: \"1.0\"\n    name: git\n")
}

func TestAssertManifest(t *testing.T) {
	t.Parallel()

	records := []mirror.Record{
		{Version: "4.11.0", Name: "git", URL: "https://example.test/git.hpi", Hash: "0abc"},
		mirror.BrokenRecord("2.6.1", "credentials", "https://example.test/credentials.hpi"),
	}
	text, err := manifest.Render(manifest.DefaultTemplate(), records)
	require.NoError(t, err)

	AssertManifestHas(t, text, records...)
	AssertManifestComplete(t, text, 2)
}
