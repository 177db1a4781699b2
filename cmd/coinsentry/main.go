package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinsentry/internal/application/container"
	"coinsentry/internal/application/port"
	"coinsentry/internal/domain/catalog"
	"coinsentry/internal/infrastructure/config"
	"coinsentry/internal/infrastructure/logger"
	"coinsentry/internal/infrastructure/notify"
	"coinsentry/internal/infrastructure/oracle"
	"coinsentry/internal/infrastructure/storage/postgres"
	"coinsentry/internal/infrastructure/storage/sqlite"
	"coinsentry/internal/interfaces/realtime"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Setup("info")
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// store (infrastructure -> application port)
	var store port.Store
	switch cfg.Storage.Driver {
	case "postgres":
		store, err = postgres.New(cfg.Storage.DSN)
	default:
		store, err = sqlite.New(cfg.Storage.Path)
	}
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("open store failed")
	}
	defer store.Close()

	// oracle, optionally fronted by a redis quote cache
	var orc port.Oracle = oracle.NewClient(cfg.Oracle.BaseURL, time.Duration(cfg.Oracle.TimeoutSec)*time.Second)

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		orc = oracle.NewQuoteCache(orc, rdb, "coinsentry", time.Duration(cfg.Redis.QuoteTTLSec)*time.Second)
	}

	// notification fan-out
	var notifiers []port.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Notify.WebhookURL, time.Duration(cfg.Notify.TimeoutSec)*time.Second))
	} else {
		log.Warn().Msg("no webhook_url configured, alerts will not be delivered over webhook")
	}
	if rdb != nil {
		notifiers = append(notifiers, notify.NewRedisPublisher(rdb, cfg.Redis.Channel))
	}

	hub := realtime.NewHub()
	if cfg.Server.Enabled {
		notifiers = append(notifiers, hub)
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}
		go func() {
			log.Info().Str("addr", cfg.Server.Addr).Msg("realtime server listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("realtime server exited")
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	cat := catalog.New(orc, time.Duration(cfg.App.CatalogRefreshHours)*time.Hour)
	if err := cat.Refresh(ctx, true); err != nil {
		// degraded start: curated instruments still resolve
		log.Warn().Err(err).Msg("initial catalog refresh failed")
	}
	go refreshLoop(ctx, cat)

	c := container.New(store, orc, notify.NewMultiNotifier(notifiers...), cat, time.Duration(cfg.App.CheckEveryMin)*time.Minute)

	log.Info().
		Str("config", *configPath).
		Str("driver", cfg.Storage.Driver).
		Int("check_every_min", cfg.App.CheckEveryMin).
		Bool("redis", cfg.Redis.Enabled).
		Msg("coinsentry started")

	if err := c.Reconciler().Run(ctx); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("reconciler exited")
	}
}

func refreshLoop(ctx context.Context, cat *catalog.Catalog) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := cat.Refresh(ctx, false); err != nil {
				log.Warn().Err(err).Msg("catalog refresh failed")
			}
		}
	}
}
