package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/evalboard/internal/errors"
	"github.com/vango-dev/evalboard/pkg/shell"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		addr    string
		dev     bool
		tracing bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard server",
		Long: `Start the dashboard server.

The server answers deep links in history mode, exposes the route
table under /api and keeps a navigation session per WebSocket client.

Examples:
  evalboard serve
  evalboard serve --addr=:9000
  evalboard serve --config=s3://boards/prod/evalboard.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, flags, addr, dev, tracing)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Run in development mode")
	cmd.Flags().BoolVar(&tracing, "tracing", false, "Enable OpenTelemetry tracing")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, flags *globalFlags, addr string, dev, tracing bool) error {
	if dev {
		os.Setenv("EVALBOARD_ENV", "development")
	}
	cfg, err := loadConfig(ctx, flags)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if tracing {
		cfg.Tracing.Enabled = true
	}

	sh, err := shell.New(cfg, shell.WithLogger(shell.NewLogger(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Debug())))
	if err != nil {
		return err
	}

	success(cmd.OutOrStdout(), "Serving %s on %s (%s)", cfg.Name, cfg.Server.Addr, cfg.Mode)
	if err := sh.Run(ctx); err != nil {
		return errors.New("E301").
			WithDetail(err.Error()).
			WithSuggestion("Check that " + cfg.Server.Addr + " is free or pass --addr").
			Wrap(err)
	}
	return nil
}
