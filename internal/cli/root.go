// Package cli implements the studentdb command line: the HTTP server plus
// direct access to the record store, the account namespaces, bulk CSV
// transfer and the chat interpreter.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/studentdb/internal/accounts"
	"github.com/aanand-mishra/studentdb/internal/chat"
	"github.com/aanand-mishra/studentdb/internal/config"
	"github.com/aanand-mishra/studentdb/internal/records"
	"github.com/aanand-mishra/studentdb/internal/storage"
)

// Version is stamped at build time with -ldflags.
var Version = "1.0.0"

type rootFlags struct {
	configPath string
	verbose    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "studentdb",
		Short: "Student records with admin/user accounts and a chat interface",
		Long: `studentdb manages a table of student records (name, age, grade).

Records can be managed directly, imported from or exported to CSV, or
queried in plain language through the chat interpreter. Admin and user
accounts live in separate namespaces.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "",
		"path to the configuration YAML file (default $CONFIG_PATH)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"log store activity to stderr")

	root.AddCommand(
		newServeCmd(flags),
		newStudentCmd(flags),
		newImportCmd(flags),
		newExportCmd(flags),
		newAccountCmd(flags),
		newChatCmd(flags),
	)

	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// app is everything a command needs, opened from the config file.
type app struct {
	cfg         *config.Config
	log         *slog.Logger
	store       *records.Store
	roles       accounts.Roles
	interpreter *chat.Interpreter
	closers     []func() error
}

// openApp loads the config and opens storage and accounts. logOut
// receives the logs; quiet lowers the level to WARN.
func openApp(ctx context.Context, flags *rootFlags, logOut io.Writer, quiet bool) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	log := setupLogger(cfg.Env, logOut, quiet && !flags.verbose)
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn("memory storage driver: records are lost when the process exits; use it for tests and demos only")
	}

	db, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []records.Option{records.WithLogger(log)}
	if cfg.StableIDs {
		opts = append(opts, records.WithStableIDs())
	}
	store := records.New(db, opts...)

	roles, closeAccounts, err := accounts.Open(ctx, cfg.Accounts, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:         cfg,
		log:         log,
		store:       store,
		roles:       roles,
		interpreter: chat.New(store),
		closers:     []func() error{store.Close, closeAccounts},
	}, nil
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// withApp opens the app for the duration of fn. Logs go to stderr.
func withApp(cmd *cobra.Command, flags *rootFlags, fn func(a *app) error) error {
	a, err := openApp(cmd.Context(), flags, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
