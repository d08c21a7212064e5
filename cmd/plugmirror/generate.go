package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/plugmirror/internal/adapters/metrics"
	"github.com/felixgeelhaar/plugmirror/internal/app"
	"github.com/felixgeelhaar/plugmirror/internal/domain/config"
	"github.com/felixgeelhaar/plugmirror/internal/ports"
	"github.com/felixgeelhaar/plugmirror/internal/ui"
)

type generateOptions struct {
	output      string
	selection   string
	hasher      string
	header      string
	footer      string
	metricsFile string
}

var generateOpts generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Crawl the index and write the Nix manifest",
	Long: `Generate fetches the plugin index, selects a version of every plugin,
hashes each selected artifact (or reuses the cached hash), and streams one
stanza per record into the manifest.

Artifacts that cannot be downloaded are written with the hash
"BROKEN (might be 404)" and retried on the next run. If the run aborts, the
manifest is left as written so far, without its closing footer.`,
	Example: `  plugmirror generate
  plugmirror generate -o pkgs/jenkins/plugins.nix --selection highest
  plugmirror generate --cache-backend sqlite --cache hashes.db`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&generateOpts.output, "output", "o", "", "manifest path (default: plugins.nix)")
	f.StringVar(&generateOpts.selection, "selection", "", "version selection policy (page-order, highest, all)")
	f.StringVar(&generateOpts.hasher, "hasher", "", "hashing command (default: nix-prefetch-url)")
	f.StringVar(&generateOpts.header, "header", "", "file whose contents replace the manifest header")
	f.StringVar(&generateOpts.footer, "footer", "", "file whose contents replace the manifest footer")
	f.StringVar(&generateOpts.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format to this path")

	_ = generateCmd.RegisterFlagCompletionFunc("selection", policyCompletion)

	rootCmd.AddCommand(generateCmd)
}

func (o generateOptions) apply(cfg *config.Config) {
	setIf(&cfg.Manifest.Output, o.output)
	setIf(&cfg.Selection, o.selection)
	setIf(&cfg.Hasher.Command, o.hasher)
	setIf(&cfg.Manifest.HeaderFile, o.header)
	setIf(&cfg.Manifest.FooterFile, o.footer)
	setIf(&cfg.MetricsFile, o.metricsFile)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	generateOpts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg, cmd.ErrOrStderr())
	rec := metrics.New()

	services, err := app.Wire(ctx, cfg, logger, rec)
	if err != nil {
		return err
	}
	defer func() { _ = services.Close() }()

	summary, runErr := services.Mirror().Generate(ctx, cfg.Manifest.Output)

	if cfg.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn(ctx, "could not write metrics", ports.Err(err), ports.F("path", cfg.MetricsFile))
		}
	}
	if summary != nil {
		renderSummary(cmd.OutOrStdout(), summary, stylesFor(cfg))
	}
	return runErr
}

// renderSummary prints the run report.
func renderSummary(w io.Writer, s *app.Summary, st ui.Styles) {
	status := st.Success
	if !s.Succeeded() {
		status = st.Error
	}
	broken := st.Warning

	rows := []ui.Row{
		{Label: "Run", Value: s.RunID},
		{Label: "Status", Value: string(s.Phase), Style: &status},
		{Label: "Manifest", Value: s.Output},
		{Label: "Policy", Value: string(s.Policy)},
		{Label: "Plugins", Value: fmt.Sprint(s.Plugins)},
		{Label: "Records", Value: fmt.Sprint(s.Records)},
		{Label: "Cache hits", Value: fmt.Sprint(s.CacheHits)},
		{Label: "Hashed", Value: fmt.Sprint(s.Hashed)},
		{Label: "Broken", Value: fmt.Sprint(s.Broken), Style: &broken},
		{Label: "Skipped", Value: fmt.Sprint(s.Skipped)},
		{Label: "Duration", Value: s.Duration().Round(1e6).String()},
	}
	_, _ = fmt.Fprintln(w, st.Report("plugmirror", rows))

	for _, r := range s.BrokenRecords {
		_, _ = fmt.Fprintln(w, st.Muted.Render(fmt.Sprintf("  broken: %s %s", r.ID(), r.URL)))
	}
}
