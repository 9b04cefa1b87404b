package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/openplanning/caseflow/modules"
	"github.com/openplanning/caseflow/modules/planning/services"
	"github.com/openplanning/caseflow/pkg/application"
	"github.com/openplanning/caseflow/pkg/composables"
	"github.com/openplanning/caseflow/pkg/configuration"
	"github.com/openplanning/caseflow/pkg/eventbus"
	"github.com/openplanning/caseflow/pkg/metrics"
	"github.com/openplanning/caseflow/pkg/server"
)

func main() {
	root := &cobra.Command{
		Use:   "caseflow",
		Short: "Planning application case management service",
	}
	root.AddCommand(serveCmd(), migrateCmd(), sweepCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func bootstrap(ctx context.Context) (application.Application, *pgxpool.Pool, error) {
	conf := configuration.Use()
	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		return nil, nil, err
	}
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(conf.Logger()),
		Logger:   conf.Logger(),
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return app, pool, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf := configuration.Use()
			logger := conf.Logger()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, pool, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			app.RegisterControllers(server.NewHealthController(pool))
			if conf.Prometheus.Enabled {
				app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
			}

			if conf.Sweep.Enabled {
				sweeper, ok := app.Service(services.AutoCloseService{}).(*services.AutoCloseService)
				if ok {
					go sweeper.Run(composables.WithPool(ctx, pool), conf.Sweep.Interval)
				}
			}

			logger.WithField("address", conf.SocketAddress()).Info("starting server")
			srv := server.NewHTTPServer(app)
			return srv.Start(conf.SocketAddress())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, pool, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			return app.Migrations().Run(cmd.Context())
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one auto-close sweep and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf := configuration.Use()
			app, pool, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			sweeper, ok := app.Service(services.AutoCloseService{}).(*services.AutoCloseService)
			if !ok {
				return nil
			}
			closed, err := sweeper.Sweep(composables.WithPool(cmd.Context(), pool))
			if err != nil {
				return err
			}
			conf.Logger().WithField("closed", closed).Info("sweep complete")
			return nil
		},
	}
}
