package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/studentdb/internal/http/router"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Start the HTTP API and block until SIGINT or SIGTERM.

STARTUP SEQUENCE:
  1. Load configuration
  2. Initialise the logger
  3. Open the student table and the account namespaces
  4. Register all HTTP routes
  5. Serve until a shutdown signal, then drain in-flight requests`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags, os.Stdout, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr != "" {
				a.cfg.HTTPServer.Addr = addr
			}
			return serve(a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http_server.address)")
	return cmd
}

func serve(a *app) error {
	log := a.log

	log.Info("starting studentdb",
		slog.String("env", a.cfg.Env),
		slog.String("version", Version),
		slog.String("storage_driver", a.cfg.StorageDriver),
		slog.String("accounts_backend", a.cfg.Accounts.Backend),
	)

	server := &http.Server{
		Addr: a.cfg.HTTPServer.Addr,
		Handler: router.NewRouter(router.Deps{
			Students:    a.store,
			Roles:       a.roles,
			Interpreter: a.interpreter,
			Log:         log,
		}),

		// Production hardening: set timeouts to prevent slow-client attacks.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ListenAndServe blocks, so it runs in its own goroutine and reports
	// anything other than a clean shutdown on errc.
	errc := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	select {
	case err := <-errc:
		log.Error("server encountered an error", slog.String("error", err.Error()))
		return err
	case <-done:
	}

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
//
// quiet raises the level to WARN, for one-shot commands whose stdout is the
// actual output.
func setupLogger(env string, w io.Writer, quiet bool) *slog.Logger {
	var (
		level slog.Level
		json  bool
	)
	switch env {
	case "prod":
		level, json = slog.LevelInfo, true
	case "staging":
		level, json = slog.LevelDebug, true
	default: // "dev" and anything unrecognised
		level, json = slog.LevelDebug, false
	}
	if quiet {
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
