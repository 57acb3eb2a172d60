package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"passenger-rights-bot/internal/catalog"
)

func newRulesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List active rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, res, err := opts.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.json() {
				b, _ := json.MarshalIndent(res.Rules(), "", "  ")
				fmt.Fprintln(out, string(b))
				return nil
			}

			fmt.Fprintf(out, "catalog %s, policy %s\n", cat.Version(), res.Policy())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tRULE\tMATCH\tTEMPLATE")
			for i, r := range res.Rules() {
				groups := make([]string, len(r.Match))
				for j, g := range r.Match {
					groups[j] = "(" + strings.Join(g, " | ") + ")"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, r.Name, strings.Join(groups, " & "), r.Template)
			}
			fmt.Fprintf(tw, "-\tfallback\t*\t%s\n", cat.FallbackKey())
			return tw.Flush()
		},
	}
}

func newTemplatesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List template keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, _, err := opts.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.json() {
				b, _ := json.MarshalIndent(cat.Keys(), "", "  ")
				fmt.Fprintln(out, string(b))
				return nil
			}
			for _, k := range cat.Keys() {
				fmt.Fprintln(out, k)
			}
			return nil
		},
	}
}

func newShowCmd(opts *options) *cobra.Command {
	var hours int
	cmd := &cobra.Command{
		Use:   "show [key]",
		Short: "Print one template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if hours < 0 {
				return fmt.Errorf("hours must not be negative")
			}
			cat, _, err := opts.load()
			if err != nil {
				return err
			}
			text, err := cat.Render(args[0], catalog.Params{Hours: hours})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 3, "Hours for parameterized templates")
	return cmd
}
