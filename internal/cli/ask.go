package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [message]",
		Short: "Answer a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				return errors.New("message is required")
			}
			_, res, err := opts.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			resolution := res.ResolveDetailed(message)
			if opts.json() {
				b, _ := json.MarshalIndent(resolution, "", "  ")
				fmt.Fprintln(out, string(b))
				return nil
			}
			fmt.Fprintln(out, resolution.Text)
			return nil
		},
	}
}
