package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/studentdb/internal/chat"
)

func newChatCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask about students in plain language",
		Long: `Ask the chat interpreter about the student table.

With a message argument, print one reply and exit. Without one, start an
interactive session: ':history' shows the conversation, ':clear' wipes it
and ':quit' (or EOF) ends the session.`,
		Example: `  studentdb chat "count students"
  studentdb chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app) error {
				if len(args) > 0 {
					reply, err := a.interpreter.Respond(cmd.Context(), strings.Join(args, " "))
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), reply)
					return nil
				}
				return repl(cmd, a.interpreter)
			})
		},
	}
}

func repl(cmd *cobra.Command, it *chat.Interpreter) error {
	out := cmd.OutOrStdout()
	var transcript chat.Transcript

	fmt.Fprintln(out, "Type 'help' for examples, ':quit' to leave.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case ":quit", ":exit":
			return nil
		case ":clear":
			transcript.Clear()
			fmt.Fprintln(out, "Chat history cleared.")
			continue
		case ":history":
			for _, ex := range transcript.Entries() {
				fmt.Fprintf(out, "You: %s\nBot: %s\n", ex.User, ex.Bot)
			}
			continue
		}

		reply, err := transcript.Ask(cmd.Context(), it, line)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, reply)
	}
}
