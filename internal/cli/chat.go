package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"passenger-rights-bot/internal/catalog"
	"passenger-rights-bot/internal/chat"
	"passenger-rights-bot/internal/rights"
	"passenger-rights-bot/internal/store"
)

const replSession = "cli"

func newChatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat session",
		Long: "Reads one question per line. Commands: :rights toggles the Passenger Charter, " +
			":history prints the transcript, :quit exits.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, res, err := opts.load()
			if err != nil {
				return err
			}
			svc := chat.NewService(res, store.NewMemoryStore(0), nil)
			out := cmd.OutOrStdout()

			intro, err := cat.Render("introduction", catalog.Params{})
			if err == nil {
				fmt.Fprintln(out, intro)
				fmt.Fprintln(out)
			}
			return runREPL(cmd, svc, cmd.InOrStdin(), out)
		},
	}
}

func runREPL(cmd *cobra.Command, svc *chat.Service, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	ctx := cmd.Context()

	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case ":quit", ":q", ":exit":
			return nil
		case ":rights":
			if svc.ToggleRights(replSession) {
				fmt.Fprintln(out, rights.Charter())
			} else {
				fmt.Fprintln(out, "(passenger rights hidden)")
			}
		case ":history":
			for _, m := range svc.History(replSession) {
				who := "bot"
				if m.IsUser {
					who = "you"
				}
				fmt.Fprintf(out, "[%s] %s\n", who, m.Text)
			}
		default:
			if turn, ok := svc.Submit(ctx, replSession, line); ok {
				fmt.Fprintln(out, turn.Reply.Text)
			}
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}
