// Package cli implements the rights-cli commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"passenger-rights-bot/internal/catalog"
	"passenger-rights-bot/internal/config"
	"passenger-rights-bot/internal/resolver"
)

type options struct {
	catalogFile string
	policy      string
	format      string
}

// NewRootCmd builds the command tree. Flags default to the environment
// configuration.
func NewRootCmd() *cobra.Command {
	cfg := config.Load()
	opts := &options{}

	root := &cobra.Command{
		Use:           "rights-cli",
		Short:         "Air passenger rights assistant",
		Long:          "Answers questions about flight delays, cancellations and baggage from a fixed rule table.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.catalogFile, "catalog", "c", cfg.CatalogFile, "Catalog YAML file (default: bundled catalog)")
	root.PersistentFlags().StringVarP(&opts.policy, "policy", "p", string(cfg.BaggagePolicy), "Baggage policy: lenient or strict")
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", "text", "Output format: json or text")

	root.AddCommand(
		newAskCmd(opts),
		newChatCmd(opts),
		newRulesCmd(opts),
		newTemplatesCmd(opts),
		newShowCmd(opts),
		newServeCmd(cfg),
	)
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (o *options) load() (*catalog.Catalog, *resolver.Resolver, error) {
	policy, err := resolver.ParsePolicy(o.policy)
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.LoadFile(o.catalogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, resolver.New(cat, policy), nil
}

func (o *options) json() bool { return o.format == "json" }
