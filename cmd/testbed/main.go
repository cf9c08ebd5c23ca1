package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/jbweber/testbed/internal/config"
	"github.com/jbweber/testbed/internal/fixture"
	"github.com/jbweber/testbed/internal/output"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Global flags
var (
	configPath   string
	uriOverride  string
	prefix       string
	outputFormat string
	noHeaders    bool
	verbosity    int
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "testbed",
	Short: "Testbed - libvirt fixture harness",
	Long: `Testbed builds and tears down namespaced libvirt resources for tests.

Resources are declared in FixtureSet manifests and created with a prefix
(testbed- by default) so they never collide with pre-existing objects.
Leftovers from crashed runs can be removed with sweep.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := output.ValidateFormat(outputFormat); err != nil {
			return err
		}
		cmd.SetContext(logr.NewContext(cmd.Context(), newLogger(verbosity)))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to a harness config file (YAML)")
	flags.StringVar(&uriOverride, "uri", "", "libvirt endpoint URI, overrides config and TESTBED_URI")
	flags.StringVar(&prefix, "prefix", "", "resource name prefix, overrides config and TESTBED_PREFIX")
	flags.StringVarP(&outputFormat, "output", "o", string(output.FormatTable), "output format: table, yaml, json")
	flags.BoolVar(&noHeaders, "no-headers", false, "omit table headers")
	flags.CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable)")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(testConnCmd)
}

// newLogger returns a text logger on stderr. Each -v enables one more
// logr verbosity level.
func newLogger(v int) logr.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(-v),
	})
	return logr.FromSlogHandler(handler)
}

// loadConfig reads the config file and environment, then applies flag
// overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if uriOverride != "" {
		cfg.URI = uriOverride
	}
	if prefix != "" {
		cfg.Prefix = prefix
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openHarness connects a harness using the effective configuration.
func openHarness(ctx context.Context) (*fixture.Harness, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	h, err := fixture.Open(ctx, cfg, fixture.WithLogger(logr.FromContextOrDiscard(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to open harness: %w", err)
	}
	return h, nil
}

func closeHarness(h *fixture.Harness) {
	if err := h.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close harness: %v\n", err)
	}
}

func newFormatter() (output.Formatter, error) {
	return output.NewFormatter(output.Options{
		Format:    output.Format(outputFormat),
		NoHeaders: noHeaders,
	})
}
