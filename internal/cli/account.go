package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aanand-mishra/studentdb/internal/accounts"
	"github.com/aanand-mishra/studentdb/internal/types"
)

func newAccountCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Register and check admin or user accounts",
		Long: `Admin and user accounts live in separate namespaces; the same
username may exist in both. Passwords are prompted for, never passed as
flags.`,
	}
	cmd.AddCommand(newAccountRegisterCmd(flags), newAccountLoginCmd(flags))
	return cmd
}

func newAccountRegisterCmd(flags *rootFlags) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := accounts.ParseNamespace(role)
			if err != nil {
				return err
			}

			p := newPrompter(cmd)
			password, err := p.secret("Password: ")
			if err != nil {
				return err
			}
			confirm, err := p.secret("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return types.NewError("cli", types.ErrInvalidInput, "passwords do not match")
			}

			return withApp(cmd, flags, func(a *app) error {
				store, err := a.roles.Get(ns)
				if err != nil {
					return err
				}
				if err := store.Register(cmd.Context(), args[0], password); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s account %s\n", ns, args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", string(accounts.User), "namespace: admin or user")
	return cmd
}

func newAccountLoginCmd(flags *rootFlags) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Check a username and password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := accounts.ParseNamespace(role)
			if err != nil {
				return err
			}

			password, err := newPrompter(cmd).secret("Password: ")
			if err != nil {
				return err
			}

			return withApp(cmd, flags, func(a *app) error {
				store, err := a.roles.Get(ns)
				if err != nil {
					return err
				}
				ok, err := store.Authenticate(cmd.Context(), args[0], password)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("invalid %s credentials", ns)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s (%s)\n", args[0], ns)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", string(accounts.User), "namespace: admin or user")
	return cmd
}

// prompter reads answers from the terminal without echo, or line by line
// from the command's input when that is not a terminal.
type prompter struct {
	out io.Writer
	in  *bufio.Reader
	tty bool
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	return &prompter{
		out: cmd.ErrOrStderr(),
		in:  bufio.NewReader(in),
		tty: in == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())),
	}
}

func (p *prompter) secret(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)

	if p.tty {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
