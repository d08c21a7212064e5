package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/plugmirror/internal/adapters/logging"
	"github.com/felixgeelhaar/plugmirror/internal/domain/config"
	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
	"github.com/felixgeelhaar/plugmirror/internal/ports"
	"github.com/felixgeelhaar/plugmirror/internal/ui"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	cfgFile      string
	verbose      bool
	logJSON      bool
	root         string
	domain       string
	cachePath    string
	cacheBackend string
}

var globals globalOptions

var rootCmd = &cobra.Command{
	Use:   "plugmirror",
	Short: "Mirror a plugin repository index into a Nix manifest",
	Long: `plugmirror crawls a Jenkins-style plugin repository, picks a version of
every plugin, hashes each artifact with nix-prefetch-url, and writes a Nix
expression with one derivation per plugin.

Hashes are cached by download URL, so later runs only fetch new releases.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&globals.cfgFile, "config", "", "config file (default: plugmirror.yaml or plugmirror.toml if present)")
	f.BoolVarP(&globals.verbose, "verbose", "v", false, "verbose output")
	f.BoolVar(&globals.logJSON, "log-json", false, "write logs as JSON lines")
	f.StringVar(&globals.root, "root", "", "index page listing one directory per plugin")
	f.StringVar(&globals.domain, "domain", "", "scheme and host joined with root-relative artifact links")
	f.StringVar(&globals.cachePath, "cache", "", "cache file location (default: .plugmirror-cache.yaml, or .plugmirror-cache.db for sqlite)")
	f.StringVar(&globals.cacheBackend, "cache-backend", "", "cache backend (file, sqlite, redis, memory)")

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration file and applies the persistent flags.
// Callers apply their own flags and then validate.
func loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(globals.cfgFile, wd)
	if err != nil {
		return nil, err
	}

	setIf(&cfg.Repository.Root, globals.root)
	setIf(&cfg.Repository.Domain, globals.domain)
	setIf(&cfg.Cache.Path, globals.cachePath)
	setIf(&cfg.Cache.Backend, globals.cacheBackend)
	if globals.verbose {
		cfg.Log.Level = "debug"
	}
	if globals.logJSON {
		cfg.Log.JSON = true
	}
	return cfg, nil
}

func setIf(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// newLogger creates the console logger described by cfg.
func newLogger(cfg *config.Config, w io.Writer) ports.Logger {
	return logging.NewConsoleLogger(
		logging.WithOutput(w),
		logging.WithLevel(cfg.LogLevel()),
		logging.WithJSONFormat(cfg.Log.JSON),
	)
}

// stylesFor keeps machine-readable runs free of ANSI sequences.
func stylesFor(cfg *config.Config) ui.Styles {
	if cfg.Log.JSON {
		return ui.PlainStyles()
	}
	return ui.DefaultStyles()
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if globals.verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}

	var list *config.ErrorList
	if errors.As(err, &list) {
		msg := "invalid configuration:"
		for _, e := range list.Errors() {
			msg += fmt.Sprintf("\n  - %s: %s", e.Context, e.Message)
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	_ = rootCmd.RegisterFlagCompletionFunc("cache-backend", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"file\tSingle YAML, JSON, or TOML file",
			"sqlite\tSQLite database",
			"redis\tRedis hash",
			"memory\tNo persistence",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

// policyCompletion completes --selection values.
func policyCompletion(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, 0, len(mirror.Policies))
	for _, p := range mirror.Policies {
		out = append(out, string(p))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
