package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/jensholdgaard/auctiondesk/internal/announce"
	"github.com/jensholdgaard/auctiondesk/internal/auction"
	"github.com/jensholdgaard/auctiondesk/internal/broker"
	"github.com/jensholdgaard/auctiondesk/internal/catalog"
	"github.com/jensholdgaard/auctiondesk/internal/clock"
	"github.com/jensholdgaard/auctiondesk/internal/config"
	"github.com/jensholdgaard/auctiondesk/internal/event"
	"github.com/jensholdgaard/auctiondesk/internal/health"
	"github.com/jensholdgaard/auctiondesk/internal/leader"
	"github.com/jensholdgaard/auctiondesk/internal/store"
	"github.com/jensholdgaard/auctiondesk/internal/telemetry"
	"github.com/jensholdgaard/auctiondesk/internal/web"

	// Register store drivers so they are available via store.Open.
	_ "github.com/jensholdgaard/auctiondesk/internal/store/entstore"
	_ "github.com/jensholdgaard/auctiondesk/internal/store/memory"
	_ "github.com/jensholdgaard/auctiondesk/internal/store/postgres"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		slog.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.Telemetry.ServiceVersion = version

	tp, err := telemetry.Setup(ctx, cfg.Telemetry, os.Stderr)
	if err != nil {
		slog.Warn("telemetry setup failed, continuing without OTEL export", slog.Any("error", err))
		tp = telemetry.NewNopProvider()
		tp.Logger = slog.Default()
	}
	defer func() {
		if shutdownErr := tp.Shutdown(context.Background()); shutdownErr != nil {
			slog.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	logger := tp.Logger
	clk := clock.Real{}

	repos, err := store.Open(ctx, cfg.Database, clk)
	if err != nil {
		return fmt.Errorf("opening store (driver=%s): %w", cfg.Database.Driver, err)
	}
	defer repos.Closer.Close()
	logger.InfoContext(ctx, "journal opened", slog.String("driver", cfg.Database.Driver))

	var events event.Store = repos.Events
	producer := broker.NewProducer(cfg.Kafka, logger)
	defer producer.Close()
	if producer.Enabled() {
		events = broker.NewPublishingStore(events, producer, logger)
	}

	mgr, err := auction.NewManager(ctx, auction.Options{
		HomeCountry:    cfg.Auction.HomeCountry,
		Loader:         catalog.FileLoader{Path: cfg.Auction.PlayersFile, Logger: logger},
		Events:         events,
		Sales:          repos.Sales,
		Logger:         logger,
		TracerProvider: tp.TracerProvider,
		MeterProvider:  tp.MeterProvider,
		Clock:          clk,
	})
	if err != nil {
		return fmt.Errorf("creating auction manager: %w", err)
	}

	healthHandler := health.NewHandler(clk, health.Checker{
		Name:  "journal",
		Check: repos.Ping,
	})

	srv := web.NewServer(mgr, web.Options{
		Port:        cfg.Server.Port,
		Admin:       cfg.Admin,
		StaticDir:   cfg.Auction.StaticDir,
		MaxLongPoll: cfg.Server.MaxLongPoll,
		Health:      healthHandler,
		Logger:      logger,
		Clock:       clk,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.Server.ShutdownTimeout)
	})

	if cfg.Discord.Enabled {
		bot, botErr := announce.New(cfg.Discord, mgr, logger, tp.TracerProvider)
		if botErr != nil {
			return fmt.Errorf("creating discord bot: %w", botErr)
		}
		// Only the leader posts; every replica serves HTTP.
		g.Go(func() error {
			return leader.Lead(gctx, cfg.LeaderElection, logger, func(ctx context.Context) {
				if runErr := bot.Run(ctx); runErr != nil {
					logger.ErrorContext(ctx, "discord bot stopped", slog.Any("error", runErr))
				}
			})
		})
	}

	healthHandler.SetReady(true)
	logger.InfoContext(ctx, "auctiondesk is running",
		slog.String("version", version),
		slog.Int("port", cfg.Server.Port),
	)

	err = g.Wait()
	healthHandler.SetReady(false)
	if err != nil {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}
