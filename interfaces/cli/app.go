// Package cli provides the broker's command-line entry point: a
// single command accepting -c/-p/-l, wiring every configured
// component and running until signalled.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer
}

// New creates the broker's CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	opts := &serveOptions{}

	app.root = &cobra.Command{
		Use:   "broker",
		Short: "Job-queue coordinator for batch model evaluation",
		Long: `broker is the central coordinator between a web front-end that submits
parameterised model-evaluation requests and a pool of workers that execute
them asynchronously and report results by email.

It owns the authoritative state of every in-flight request: it assigns
identifiers, enforces a two-phase submission protocol (email confirmation
then execution), hands work out to polling workers, tracks liveness via
heartbeats, and recycles or fails jobs whose worker disappears.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.serve(cmd.Context(), opts)
		},
	}

	app.root.Flags().StringVarP(&opts.configPath, "config", "c", "config.cfg", "Path to configuration file")
	app.root.Flags().IntVarP(&opts.port, "port", "p", 0, "Listen port (overrides the config file's listen_addr port)")
	app.root.Flags().StringVarP(&opts.logPath, "log", "l", "-", "Log file path (- for standard error)")

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application, shutting down cleanly on SIGINT/SIGTERM.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}
