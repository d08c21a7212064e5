package main

import (
	"bytes"
	"testing"

	"github.com/felixgeelhaar/plugmirror/internal/testutil"
)

// execute runs the root command with args after resetting every flag
// variable, and returns what was written to stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	globals = globalOptions{}
	generateOpts = generateOptions{}
	discoverNames = false
	versionsLimit = 0
	cacheListPlugin = ""
	configFormat = "yaml"

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// newRepository serves git and credentials, where credentials has a single
// release.
func newRepository(t *testing.T) *testutil.Repository {
	t.Helper()
	return testutil.NewRepository().
		WithPlugin("git", "4.11.0", "4.10.3").
		WithPlugin("credentials", "2.6.1").
		Start(t)
}

// fakePrefetch fails for every credentials artifact.
func fakePrefetch(t *testing.T) testutil.Prefetch {
	t.Helper()
	return testutil.FakePrefetch(t, "credentials")
}

func repoArgs(repo *testutil.Repository) []string {
	return []string{"--root", repo.Root(), "--domain", repo.Domain()}
}
