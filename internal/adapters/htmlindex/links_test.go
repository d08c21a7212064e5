package htmlindex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const indexPage = `<!DOCTYPE html>
<html><head><title>Index of /download/plugins</title></head>
<body>
<h1>Index of /download/plugins</h1>
<table>
<tr><th><a href="?C=N;O=D">Name</a></th><th><a href="?C=M;O=A">Last modified</a></th></tr>
<tr><td><a href="/download/">Parent Directory</a></td></tr>
<tr><td><a href="git/">git/</a></td></tr>
<tr><td><a name="anchor-only">no href</a></td></tr>
<tr><td><A HREF="credentials/">credentials/</A></td></tr>
<tr><td><a class="x" href="token&amp;macro/">token-macro/</a></td></tr>
</table>
</body></html>`

func TestExtractor_Links(t *testing.T) {
	t.Parallel()

	links, err := New().Links([]byte(indexPage))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"?C=N;O=D",
		"?C=M;O=A",
		"/download/",
		"git/",
		"credentials/",
		"token&macro/",
	}, links)
}

func TestExtractor_Links_Empty(t *testing.T) {
	t.Parallel()

	links, err := New().Links(nil)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestExtractor_Links_EmptyHref(t *testing.T) {
	t.Parallel()

	links, err := New().Links([]byte(`<a href="">here</a><a href="x.hpi"/>`))
	require.NoError(t, err)
	assert.Equal(t, []string{"", "x.hpi"}, links)
}

func TestExtractor_Links_Malformed(t *testing.T) {
	t.Parallel()

	doc := "<a href=\"" + strings.Repeat("x", maxTokenBuf+1)

	_, err := New().Links([]byte(doc))
	require.Error(t, err)
	assert.ErrorIs(t, err, html.ErrBufferExceeded)
}
