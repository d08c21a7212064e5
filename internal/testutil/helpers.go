// Package testutil provides test helpers shared by the plugmirror packages.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTempFile writes content to a file in the specified directory.
func WriteTempFile(t testing.TB, dir, filename, content string) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err, "failed to write temp file: %s", filename)

	return path
}

// ChangeDir changes to a directory for the duration of the test.
func ChangeDir(t *testing.T, dir string) {
	t.Helper()

	original, err := os.Getwd()
	require.NoError(t, err)

	err = os.Chdir(dir)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = os.Chdir(original)
	})
}

// Prefetch is a shell script standing in for nix-prefetch-url. It prints
// "0fake<version>" for an artifact URL, where version is the parent
// directory of the file, and logs every URL it is called with.
type Prefetch struct {
	Command string
	Log     string
}

// FakePrefetch writes the script. URLs containing any of failing make it
// exit 1 the way a 404 download does.
func FakePrefetch(t testing.TB, failing ...string) Prefetch {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script hasher")
	}

	dir := t.TempDir()
	p := Prefetch{
		Command: filepath.Join(dir, "fake-prefetch"),
		Log:     filepath.Join(dir, "calls.log"),
	}

	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&sb, "echo \"$1\" >> %q\n", p.Log)
	for _, pattern := range failing {
		fmt.Fprintf(&sb, "case \"$1\" in *%s*) echo \"error: unable to download: HTTP error 404\" >&2; exit 1 ;; esac\n", pattern)
	}
	sb.WriteString("echo 0fake$(basename \"$(dirname \"$1\")\")\n")

	require.NoError(t, os.WriteFile(p.Command, []byte(sb.String()), 0o755))
	return p
}

// Calls returns the URLs the script was invoked with, in order.
func (p Prefetch) Calls(t testing.TB) []string {
	t.Helper()

	data, err := os.ReadFile(p.Log)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Fields(string(data))
}
