package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/plugmirror/internal/adapters/cachestore"
	"github.com/felixgeelhaar/plugmirror/internal/domain/config"
	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

var cacheListPlugin string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the hash cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached hashes",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where the cache is stored",
	Args:  cobra.NoArgs,
	RunE:  runCachePath,
}

func init() {
	cacheListCmd.Flags().StringVar(&cacheListPlugin, "plugin", "", "only list entries of this plugin")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := cachestore.Open(cmd.Context(), cfg.Cache)
	if err != nil {
		return cacheError(cfg, err)
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Entries(cmd.Context())
	if err != nil {
		return cacheError(cfg, err)
	}

	records := make([]mirror.Record, 0, len(entries))
	for _, r := range entries {
		if cacheListPlugin == "" || r.Name == cacheListPlugin {
			records = append(records, r)
		}
	}
	slices.SortFunc(records, func(a, b mirror.Record) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return mirror.CompareVersions(a.Version, b.Version)
	})

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tVERSION\tHASH\tURL")
	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Version, r.Hash, r.URL)
	}
	return w.Flush()
}

func runCachePath(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), cachestore.Describe(cfg.Cache))
	return err
}

func cacheError(cfg *config.Config, err error) error {
	if errors.Is(err, mirror.ErrCacheCorrupt) {
		return config.NewCacheCorruptError(cachestore.Describe(cfg.Cache), err)
	}
	return err
}
