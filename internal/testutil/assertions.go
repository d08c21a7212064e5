package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/plugmirror/internal/domain/manifest"
	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

// AssertFileNotExists asserts that no file exists at the given path.
func AssertFileNotExists(t testing.TB, path string) {
	t.Helper()

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "expected file to not exist: %s", path)
}

// AssertFileContains asserts that a file contains the expected substring.
func AssertFileContains(t testing.TB, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)

	assert.Contains(t, string(content), expected, msgAndArgs...)
}

// AssertFileEquals asserts that a file contains exactly the expected content.
func AssertFileEquals(t testing.TB, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)

	// Normalize line endings
	actual := strings.ReplaceAll(string(content), "\r\n", "\n")
	expected = strings.ReplaceAll(expected, "\r\n", "\n")

	assert.Equal(t, expected, actual, msgAndArgs...)
}

// AssertYAMLEquals asserts that two YAML strings are semantically equal.
func AssertYAMLEquals(t testing.TB, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedMap, actualMap interface{}

	err := yaml.Unmarshal([]byte(expected), &expectedMap)
	require.NoError(t, err, "failed to parse expected YAML")

	err = yaml.Unmarshal([]byte(actual), &actualMap)
	require.NoError(t, err, "failed to parse actual YAML")

	assert.Equal(t, expectedMap, actualMap, msgAndArgs...)
}

// AssertManifestHas asserts that the manifest text contains the default
// stanza of every record.
func AssertManifestHas(t testing.TB, text string, records ...mirror.Record) {
	t.Helper()

	tmpl := manifest.DefaultTemplate()
	for _, r := range records {
		stanza, err := tmpl.Stanza(r)
		require.NoError(t, err)
		assert.Contains(t, text, stanza, "missing stanza for %s", r.ID())
	}
}

// AssertManifestComplete asserts that the manifest starts with the default
// header, ends with the default footer, and holds count stanzas.
func AssertManifestComplete(t testing.TB, text string, count int) {
	t.Helper()

	assert.True(t, strings.HasPrefix(text, manifest.DefaultHeader), "manifest header missing")
	assert.True(t, strings.HasSuffix(text, manifest.DefaultFooter), "manifest footer missing")
	assert.Equal(t, count, strings.Count(text, "= mkJenkinsPlugin {"), "stanza count")
}
