package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wolfman30/botlink/internal/api/router"
	"github.com/wolfman30/botlink/internal/bot"
	appconfig "github.com/wolfman30/botlink/internal/config"
	"github.com/wolfman30/botlink/internal/http/handlers"
	metrics "github.com/wolfman30/botlink/internal/observability/metrics"
	"github.com/wolfman30/botlink/internal/platform"
	"github.com/wolfman30/botlink/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting botlink",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	client, err := platform.New(platform.Config{
		BaseURL: cfg.APIBaseURL,
		Token:   cfg.Token,
		Timeout: cfg.APITimeout,
		Logger:  logger.Logger,
	})
	if err != nil {
		logger.Error("failed to build platform client", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	dispatchMetrics := metrics.NewDispatchMetrics(registry)

	engine, err := bot.New(bot.Config{
		Token:                cfg.Token,
		WebhookSecret:        cfg.WebhookSecret,
		Client:               client,
		Logger:               logger,
		Metrics:              dispatchMetrics,
		DisableIgnoreSelf:    !cfg.IgnoreSelf,
		DisableIgnoreBots:    !cfg.IgnoreBots,
		OnlyFirstMatch:       cfg.OnlyFirstMatch,
		PreloadOrganizations: cfg.PreloadOrganizations,
	})
	if err != nil {
		logger.Error("failed to build dispatch engine", "error", err)
		os.Exit(1)
	}
	engine.OnError(func(err error) {
		logger.Error("dispatch failure", "error", err)
	})

	webhook := handlers.NewWebhookHandler(handlers.WebhookConfig{
		Bot:     engine,
		Logger:  logger,
		Metrics: dispatchMetrics,
	})

	r := router.New(&router.Config{
		Logger:         logger,
		Webhook:        webhook,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
