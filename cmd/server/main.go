package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/web3-frozen/price-alert/internal/command"
	"github.com/web3-frozen/price-alert/internal/config"
	"github.com/web3-frozen/price-alert/internal/dedup"
	"github.com/web3-frozen/price-alert/internal/handler"
	"github.com/web3-frozen/price-alert/internal/line"
	"github.com/web3-frozen/price-alert/internal/middleware"
	"github.com/web3-frozen/price-alert/internal/monitor"
	"github.com/web3-frozen/price-alert/internal/monitor/sources"
	"github.com/web3-frozen/price-alert/internal/store"
	"github.com/web3-frozen/price-alert/internal/telegram"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Alert store
	db, err := store.Open(ctx, cfg.StoreDriver, cfg.StoreDSN())
	if err != nil {
		logger.Error("failed to open alert store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	pending, err := db.Count(ctx)
	if err != nil {
		logger.Error("failed to count pending alerts", "error", err)
		os.Exit(1)
	}
	logger.Info("alert store ready", "driver", cfg.StoreDriver, "pending", pending)

	src, err := sources.New(cfg.PriceSource, priceSourceURL(cfg), cfg.PriceTimeout)
	if err != nil {
		logger.Error("failed to build price source", "error", err)
		os.Exit(1)
	}

	commands := command.NewHandler(db, logger, cfg.Locale)

	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	var notifier monitor.Notifier
	switch cfg.Notifier {
	case "telegram":
		bot := telegram.NewBot(cfg.TelegramToken, cfg.TelegramAPIURL, commands, logger)
		notifier = bot
		go bot.Run(ctx)
	default:
		client := line.NewClient(cfg.LineChannelToken, cfg.LineAPIURL, cfg.NotifyTimeout)
		notifier = client
		r.Post("/callback", line.Webhook(cfg.LineChannelSecret, commands, client, logger))
	}

	opts := monitor.Options{
		Interval:      cfg.EvalInterval,
		NotifyTimeout: cfg.NotifyTimeout,
		Locale:        cfg.Locale,
	}
	if dd := connectDedup(cfg, logger); dd != nil {
		defer dd.Close()
		opts.Dedup = dd
	}

	engine := monitor.NewEngine(db, src, notifier, logger, opts)
	engine.Start(ctx)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(db))

	if cfg.APIToken == "" {
		logger.Warn("API_TOKEN not set, /api routes will reject every request")
	}
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.BearerToken(cfg.APIToken))
		r.Get("/alerts", handler.ListAlerts(db))
		r.Post("/alerts", handler.CreateAlert(commands))
		r.Get("/prices", handler.Prices(engine))
		r.Post("/evaluate", handler.Evaluate(engine))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "notifier", cfg.Notifier, "source", src.Name())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	engine.Stop()
	cancel()
}

func priceSourceURL(cfg config.Config) string {
	if cfg.PriceSource == "binance" {
		return cfg.BinanceURL
	}
	return cfg.BitbankURL
}

// connectDedup returns nil when REDIS_URL is unset or Redis stays unreachable;
// the engine then runs without delivery markers.
func connectDedup(cfg config.Config, logger *slog.Logger) *dedup.Deduplicator {
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set, delivery dedup disabled")
		return nil
	}

	// retry up to 30s for ExternalSecret to sync
	var err error
	for i := 0; i < 6; i++ {
		var dd *dedup.Deduplicator
		dd, err = dedup.New(cfg.RedisURL, cfg.RedisPassword, cfg.DedupTTL)
		if err == nil {
			logger.Info("redis connected for delivery dedup", "ttl", cfg.DedupTTL.String())
			return dd
		}
		logger.Warn("redis not ready, retrying...", "attempt", i+1, "error", err)
		time.Sleep(5 * time.Second)
	}
	logger.Error("redis unreachable, delivery dedup disabled", "error", err)
	return nil
}
