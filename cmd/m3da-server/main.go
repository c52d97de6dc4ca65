// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// m3da-server accepts M3DA devices over TCP and serves their data over HTTP
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"go.e43.eu/m3da/internal/api"
	"go.e43.eu/m3da/internal/config"
	"go.e43.eu/m3da/internal/observability"
	"go.e43.eu/m3da/internal/server"
	"go.e43.eu/m3da/internal/store"
)

// Version is set by ldflags
var Version = "snapshot"

const shutdownTimeout = 5 * time.Second

func newApp() *cli.App {
	return &cli.App{
		Name:    "m3da-server",
		Usage:   "M3DA device server with an HTTP data API",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: []string{"M3DA_CONFIG"}, Usage: "TOML or YAML configuration file"},
			&cli.StringFlag{Name: "listen", EnvVars: []string{"M3DA_LISTEN"}, Usage: "TCP address for devices"},
			&cli.StringFlag{Name: "http", EnvVars: []string{"M3DA_HTTP"}, Usage: "address of the HTTP data API (empty to disable)"},
			&cli.StringFlag{Name: "metrics", EnvVars: []string{"M3DA_METRICS"}, Usage: "address of the Prometheus listener (empty to disable)"},
			&cli.StringFlag{Name: "store", EnvVars: []string{"M3DA_STORE"}, Usage: "store kind: memory or badger"},
			&cli.StringFlag{Name: "store-dir", EnvVars: []string{"M3DA_STORE_DIR"}, Usage: "badger database directory"},
			&cli.DurationFlag{Name: "idle-timeout", EnvVars: []string{"M3DA_IDLE_TIMEOUT"}, Usage: "close sessions idle for this long"},
			&cli.Int64Flag{Name: "workers", EnvVars: []string{"M3DA_WORKERS"}, Usage: "sessions served at once"},
			&cli.IntFlag{Name: "max-messages", EnvVars: []string{"M3DA_MAX_MESSAGES"}, Usage: "receptions retained per client"},
			&cli.StringFlag{Name: "log-level", EnvVars: []string{"M3DA_LOG_LEVEL"}, Usage: "debug, info, warn or error"},
		},
		Action: run,
	}
}

// loadConfig reads the configuration file, if any, then applies the flags
// which were set
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}

	if c.IsSet("listen") {
		cfg.Listen = c.String("listen")
	}
	if c.IsSet("http") {
		cfg.HTTPAddress = c.String("http")
	}
	if c.IsSet("metrics") {
		cfg.MetricsAddress = c.String("metrics")
	}
	if c.IsSet("store") {
		cfg.Store = c.String("store")
	}
	if c.IsSet("store-dir") {
		cfg.StoreDir = c.String("store-dir")
	}
	if c.IsSet("idle-timeout") {
		cfg.IdleTimeout = c.Duration("idle-timeout")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int64("workers")
	}
	if c.IsSet("max-messages") {
		cfg.MaxMessages = c.Int("max-messages")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	return cfg, cfg.Validate()
}

func openStore(cfg config.Config, logger kitlog.Logger) (store.Store, error) {
	switch cfg.Store {
	case config.StoreBadger:
		opts := store.BadgerOptions(cfg.StoreDir, observability.Component(logger, "store"))
		return store.OpenBadger(opts, cfg.MaxMessages, logger)
	default:
		return store.NewMemory(cfg.MaxMessages), nil
	}
}

// serveHTTP runs srv until ctx is done
func serveHTTP(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrapf(err, "http: serve %s", srv.Addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func run(c *cli.Context) (err error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
	}()

	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	srv := server.New(st, server.Options{
		IdleTimeout: cfg.IdleTimeout,
		Workers:     cfg.Workers,
	}, logger, metrics)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, cfg.Listen)
	})

	if cfg.HTTPAddress != "" {
		h := api.New(st, logger, metrics).Handler()
		g.Go(func() error {
			return serveHTTP(ctx, &http.Server{Addr: cfg.HTTPAddress, Handler: h})
		})
	}

	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		g.Go(func() error {
			return serveHTTP(ctx, &http.Server{Addr: cfg.MetricsAddress, Handler: mux})
		})
	}

	level.Info(logger).Log("event", "started",
		"version", Version,
		"listen", cfg.Listen,
		"http", cfg.HTTPAddress,
		"metrics", cfg.MetricsAddress,
		"store", cfg.Store)

	err = g.Wait()
	level.Info(logger).Log("event", "shut down", "err", err)
	return err
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		level.Error(kitlog.NewLogfmtLogger(os.Stderr)).Log("event", "run failure", "err", err)
		os.Exit(1)
	}
}
