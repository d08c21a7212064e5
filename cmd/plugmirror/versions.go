package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/plugmirror/internal/app"
	"github.com/felixgeelhaar/plugmirror/internal/ports"
)

var versionsLimit int

var versionsCmd = &cobra.Command{
	Use:   "versions <plugin>",
	Short: "Resolve the versions of one plugin",
	Long: `Versions reads the listing page of a plugin and resolves its versions in page
order, hashing each artifact that is not cached yet. Use --limit to stop
early; versions past the limit are never hashed.`,
	Example: `  plugmirror versions git --limit 3`,
	Args:    cobra.ExactArgs(1),
	RunE:    runVersions,
}

func init() {
	versionsCmd.Flags().IntVarP(&versionsLimit, "limit", "n", 0, "stop after this many versions (0 for all)")
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if versionsLimit < 0 {
		return errors.New("--limit must not be negative")
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	ctx := ports.ContextWithLogger(cmd.Context(), logger)

	services, err := app.Wire(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = services.Close() }()

	listing := listingURL(cfg.Repository.Root, args[0])

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tVERSION\tHASH\tURL")

	count := 0
	for record, err := range services.Resolver.Versions(ctx, listing) {
		if err != nil {
			_ = w.Flush()
			return services.Explain(err, listing)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", record.Name, record.Version, record.Hash, record.URL)
		count++
		if versionsLimit > 0 && count >= versionsLimit {
			break
		}
	}
	return w.Flush()
}

// listingURL accepts a bare plugin name or a full listing URL.
func listingURL(root, plugin string) string {
	if strings.Contains(plugin, "://") {
		return plugin
	}
	return root + strings.Trim(plugin, "/") + "/"
}
