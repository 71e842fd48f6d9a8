package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/opgraph/pkg/cli"
	"mercator-hq/opgraph/pkg/config"
	"mercator-hq/opgraph/pkg/journal"
	"mercator-hq/opgraph/pkg/server"
	"mercator-hq/opgraph/pkg/telemetry/health"
)

var serveFlags struct {
	listenAddress string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP evaluation service",
	Long: `Start the HTTP evaluation service with the specified configuration.

The service loads the tree library, keeps it current (file watching or git
polling when configured), journals evaluations when enabled, and prunes the
journal on its cron schedule.

Examples:
  # Start with defaults
  opgraph serve

  # Start with a config file and a different address
  opgraph serve --config /etc/opgraph/config.yaml --listen 0.0.0.0:8090

  # Validate config and library without starting the server
  opgraph serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config and library without starting the server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg, components{library: true, journal: true})
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer a.close(ctx)

	if serveFlags.dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration valid, %d trees loaded\n", a.library.Registry().Len())
		return nil
	}

	printBanner(cmd.OutOrStdout(), cfg, a.library.Registry().Len())

	srv, err := server.New(server.Options{
		Config:    cfg,
		Service:   a.service,
		Library:   a.library,
		Journal:   a.store,
		Telemetry: a.tel,
		Version:   health.NewVersionInfo(Version, GitCommit, BuildDate),
	})
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.library.Watch(gctx) })
	if a.store != nil {
		pruner := journal.NewPruner(a.store, cfg.Journal.RetentionDays, a.tel.Metrics, a.tel.Logger)
		scheduler := journal.NewScheduler(pruner, cfg.Journal.PruneSchedule)
		if err := scheduler.Start(gctx); err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer scheduler.Stop()
	}
	g.Go(func() error { return srv.Run(gctx) })

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("serve", err)
	}
	a.tel.Logger.Info("server stopped")
	return nil
}

func printBanner(w io.Writer, cfg *config.Config, trees int) {
	fmt.Fprintf(w, "opgraph %s\n", Version)
	scheme := "http"
	if cfg.Server.TLS.Enabled {
		scheme = "https"
	}
	fmt.Fprintf(w, "  listen:  %s://%s\n", scheme, cfg.Server.ListenAddress)
	if cfg.Server.Auth.Enabled {
		fmt.Fprintf(w, "  auth:    %d api keys\n", len(cfg.Server.Auth.Keys))
	}
	if cfg.Server.RateLimit.RequestsPerSecond > 0 {
		fmt.Fprintf(w, "  limit:   %g req/s per client, burst %d\n", cfg.Server.RateLimit.RequestsPerSecond, cfg.Server.RateLimit.Burst)
	}
	fmt.Fprintf(w, "  library: %s (%d trees)\n", cfg.Library.Mode, trees)
	if cfg.Journal.Enabled {
		fmt.Fprintf(w, "  journal: %s %s, retention %d days\n", cfg.Journal.Driver, cfg.Journal.Path, cfg.Journal.RetentionDays)
	} else {
		fmt.Fprintln(w, "  journal: disabled")
	}
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(w, "  metrics: %s\n", cfg.Telemetry.Metrics.Path)
	}
}
