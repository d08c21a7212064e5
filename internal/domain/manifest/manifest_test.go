package manifest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

var (
	recA = mirror.Record{Version: "4.11.0", Name: "git", URL: "https://updates.example.org/download/plugins/git/4.11.0/git.hpi", Hash: "0w1yq6jdmh4k5wr2s0wb8ahjv8w9lxg3pmvd6cyhj6z0d5fmyd7w"}
	recB = mirror.Record{Version: "1.0", Name: "ghost", URL: "https://updates.example.org/download/plugins/ghost/1.0/ghost.hpi", Hash: mirror.BrokenHash}
)

const stanzaA = `  "git-4.11.0" = mkJenkinsPlugin {
    name = "git-4.11.0";
    src = fetchurl {
      url = "https://updates.example.org/download/plugins/git/4.11.0/git.hpi";
      sha256 = "0w1yq6jdmh4k5wr2s0wb8ahjv8w9lxg3pmvd6cyhj6z0d5fmyd7w";
    };
  };
`

func stanza(t *testing.T, tmpl Template, r mirror.Record) string {
	t.Helper()
	got, err := tmpl.Stanza(r)
	require.NoError(t, err)
	return got
}

func render(t *testing.T, tmpl Template, records []mirror.Record) string {
	t.Helper()
	got, err := Render(tmpl, records)
	require.NoError(t, err)
	return got
}

func TestTemplate_Stanza(t *testing.T) {
	got, err := DefaultTemplate().Stanza(recA)
	require.NoError(t, err)
	assert.Equal(t, stanzaA, got)
}

func TestTemplate_StanzaCustomBuilder(t *testing.T) {
	tmpl := Template{Builder: "mkPlugin", Fetcher: "fetch"}

	got := stanza(t, tmpl, recB)

	assert.Contains(t, got, `"ghost-1.0" = mkPlugin {`)
	assert.Contains(t, got, `src = fetch {`)
	assert.Contains(t, got, `sha256 = "BROKEN (might be 404)";`)
}

func TestTemplate_NoEscaping(t *testing.T) {
	r := recA
	r.Name = `we"ird`

	assert.Contains(t, stanza(t, DefaultTemplate(), r), `"we"ird-4.11.0"`)
}

func TestRender_KeepsOrder(t *testing.T) {
	tmpl := Template{Header: "HEADER\n", Footer: "FOOTER\n"}

	got := render(t, tmpl, []mirror.Record{recA, recB})

	want := "HEADER\n" + stanza(t, tmpl, recA) + stanza(t, tmpl, recB) + "FOOTER\n"
	assert.Equal(t, want, got)
}

func TestRender_Empty(t *testing.T) {
	got := render(t, DefaultTemplate(), nil)
	assert.Equal(t, DefaultHeader+DefaultFooter, got)
}

func TestWriter_StreamsSameBytesAsRender(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, DefaultTemplate())

	require.NoError(t, w.Begin())
	require.NoError(t, w.Add(recA))
	require.NoError(t, w.Add(recB))
	require.NoError(t, w.Close())

	assert.Equal(t, render(t, DefaultTemplate(), []mirror.Record{recA, recB}), buf.String())
	assert.Equal(t, 2, w.Count())
}

func TestWriter_StateErrors(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, DefaultTemplate())

	assert.ErrorIs(t, w.Add(recA), ErrNotStarted)
	require.NoError(t, w.Begin())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Add(recA), ErrClosed)
	assert.ErrorIs(t, w.Begin(), ErrClosed)
	assert.NoError(t, w.Close())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriter_PropagatesWriteErrors(t *testing.T) {
	w := NewWriter(failingWriter{}, DefaultTemplate())
	assert.Error(t, w.Begin())
}

func TestCreate_OverwritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "plugins.nix")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("stale\n", 200)), 0o644))

	w, err := Create(path, Template{Header: "{\n", Footer: "}\n"})
	require.NoError(t, err)
	require.NoError(t, w.Begin())
	require.NoError(t, w.Add(recA))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n"+stanzaA+"}\n", string(data))
}

func TestCreate_AbortLeavesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins.nix")

	w, err := Create(path, Template{Header: "{\n", Footer: "}\n"})
	require.NoError(t, err)
	require.NoError(t, w.Begin())
	require.NoError(t, w.Add(recA))
	require.NoError(t, w.Abort())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n"+stanzaA, string(data))
}

func TestTemplate_WithFiles(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "header.nix")
	require.NoError(t, os.WriteFile(header, []byte("{ pkgs }: {\n"), 0o644))

	tmpl, err := DefaultTemplate().WithFiles(header, "")
	require.NoError(t, err)
	assert.Equal(t, "{ pkgs }: {\n", tmpl.Header)
	assert.Equal(t, DefaultFooter, tmpl.Footer)

	_, err = DefaultTemplate().WithFiles("", filepath.Join(dir, "missing.nix"))
	assert.Error(t, err)
}
