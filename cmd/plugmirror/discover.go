package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/plugmirror/internal/app"
	"github.com/felixgeelhaar/plugmirror/internal/domain/config"
	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
	"github.com/felixgeelhaar/plugmirror/internal/ports"
)

var discoverNames bool

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List the plugin listing pages found in the index",
	Long: `Discover fetches the index page once and prints every plugin listing URL,
in index order. Sort links and root-relative links are left out.`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverNames, "names", false, "print plugin names instead of URLs")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	ctx := ports.ContextWithLogger(cmd.Context(), logger)
	crawler := app.NewCrawler(cfg)
	out := cmd.OutOrStdout()

	count := 0
	for listing, err := range crawler.Discover(ctx) {
		if err != nil {
			return config.NewIndexUnavailableError(crawler.Root(), err)
		}
		count++
		if discoverNames {
			_, _ = fmt.Fprintln(out, mirror.PluginName(listing))
			continue
		}
		_, _ = fmt.Fprintln(out, listing)
	}

	logger.Debug(ctx, "discovery finished", ports.F("plugins", count))
	return nil
}
