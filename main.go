package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/envelope-app/segora-backend/auth"
	"github.com/envelope-app/segora-backend/config"
	"github.com/envelope-app/segora-backend/db"
	"github.com/envelope-app/segora-backend/log"
	"github.com/envelope-app/segora-backend/realtime"
	"github.com/envelope-app/segora-backend/router"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "segora",
		Short:         "Campus marketplace backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		log.Error.Fatalf("%v\n", err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and realtime streams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log.Info.Printf("Starting Segora Backend...\n")

	if cfg.Postgres.AutoMigrate {
		if err := db.MigrateUp(cfg.Postgres.URL); err != nil {
			return err
		}
	}

	dbs, err := db.Init(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbs.Close()

	ttl, err := cfg.SessionTTL()
	if err != nil {
		return err
	}

	hub := realtime.NewHub(dbs.Redis)
	listener := realtime.NewListener(cfg.Postgres.URL, dbs.Redis, hub)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Port),
		Handler: router.Init(&router.App{
			Store:  dbs,
			Cache:  dbs,
			Issuer: auth.NewIssuer(cfg.Auth.JWTSecret, ttl),
			Hub:    hub,
			Config: cfg,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		return listener.Run(gctx)
	})
	g.Go(func() error {
		log.Info.Printf("Listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info.Printf("Shutting down\n")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return errors.New("$POSTGRES_URL not set")
			}
			return db.MigrateUp(cfg.Postgres.URL)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations, one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid steps %q", args[0])
				}
				steps = n
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return errors.New("$POSTGRES_URL not set")
			}
			return db.MigrateDown(cfg.Postgres.URL, steps)
		},
	})
	return cmd
}
