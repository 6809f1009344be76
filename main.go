package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billbatista/household-hub/api"
	"github.com/billbatista/household-hub/appliance"
	"github.com/billbatista/household-hub/calendar"
	"github.com/billbatista/household-hub/config"
	"github.com/billbatista/household-hub/eventlogger"
	"github.com/billbatista/household-hub/ledger"
	"github.com/billbatista/household-hub/logging"
	"github.com/billbatista/household-hub/member"
	"github.com/billbatista/household-hub/metrics"
	"github.com/billbatista/household-hub/shopping"
	"github.com/billbatista/household-hub/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		printErrorAndExit("command failed", err)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "household-hub",
		Short:         "Members, shopping list, shared expenses, calendar and appliances for one household",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd())
	return root
}

// loadConfig is shared by every subcommand: env, validation, then logging.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logging.Setup(cfg.LogFormat, cfg.LogLevel)
	return cfg, nil
}

func storeConfig(cfg *config.Config) store.Config {
	return store.Config{Driver: store.Dialect(cfg.DBDriver), DSN: cfg.DatabaseURL}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, storeConfig(cfg))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	m := metrics.New()

	activity := eventlogger.NewSqlEventLogger(db.DB())
	var sink eventlogger.Sink = activity
	if cfg.AMQPURL != "" {
		publisher, err := eventlogger.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("connect to broker: %w", err)
		}
		defer publisher.Close()
		sink = eventlogger.Multi(activity, publisher)
		slog.Info("publishing activity events", "exchange", cfg.AMQPExchange)
	}

	worker := eventlogger.NewWorker(sink, cfg.EventBuffer, eventlogger.OnDrop(func(eventlogger.Event) {
		m.ActivityDropped()
	}))
	worker.Start()
	defer worker.Shutdown()

	members := member.NewRepository(db)
	router := api.NewRouter(api.Deps{
		Store:      db,
		Members:    members,
		Ledger:     ledger.NewService(db, members, ledger.WithRecorder(worker), ledger.WithMetrics(m)),
		Shopping:   shopping.NewRepository(db),
		Calendar:   calendar.NewRepository(db),
		Appliances: appliance.NewRepository(db),
		Activity:   activity,
		Recorder:   worker,
		Metrics:    m,
		CORSOrigin: cfg.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", srv.Addr, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	run := func(name string, fn func(*store.Store) error) *cobra.Command {
		return &cobra.Command{
			Use:   name,
			Short: "Apply migrations " + name,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				db, err := store.OpenUnmigrated(cmd.Context(), storeConfig(cfg))
				if err != nil {
					return err
				}
				defer db.Close()
				return fn(db)
			},
		}
	}

	version := run("version", func(db *store.Store) error {
		v, dirty, err := db.Version()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "version %d (dirty: %t)\n", v, dirty)
		return nil
	})
	version.Short = "Print the applied schema version"

	cmd.AddCommand(
		run("up", func(db *store.Store) error {
			if err := db.MigrateUp(); err != nil {
				return err
			}
			slog.Info("migrations applied")
			return nil
		}),
		run("down", func(db *store.Store) error {
			if err := db.MigrateDown(); err != nil {
				return err
			}
			slog.Info("migrations rolled back")
			return nil
		}),
		version,
	)
	return cmd
}

func printErrorAndExit(msg string, e error) {
	slog.Error(msg, "error", e)
	os.Exit(1)
}
