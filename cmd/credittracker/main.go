package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/incari/credit-tractor-app-sub000/internal/amqp"
	"github.com/incari/credit-tractor-app-sub000/internal/cache"
	"github.com/incari/credit-tractor-app-sub000/internal/cli"
	apphttp "github.com/incari/credit-tractor-app-sub000/internal/http"
	"github.com/incari/credit-tractor-app-sub000/internal/log"
	"github.com/incari/credit-tractor-app-sub000/internal/middleware/ratelimit"
	"github.com/incari/credit-tractor-app-sub000/internal/services"
)

const dashboardCacheSize = 1000

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)

	ctx, stop := cli.ShutdownContext()
	defer stop()

	result := cli.MustOpenBackend(ctx, cfg, logger)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	dashboards := cache.NewLRUCache[services.Dashboard](dashboardCacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(dashboards)
	cacheManager.StartCleanup(cfg.CacheTTL)
	defer cacheManager.Stop()

	planOpts := []services.Option{
		services.WithDashboardCache(dashboards),
		services.WithDefaultCurrency(cfg.DefaultCurrency),
		services.WithLogger(logger),
	}

	// Event publishing is optional; without a broker the export worker only
	// sees changes on its startup sweep.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		planOpts = append(planOpts, services.WithPublisher(amqpClient))
		logger.Info("Payment events enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Payment events disabled - no AMQP_URL provided")
	}

	plans := services.NewPlanService(result.Store, result.Store, result.Store, planOpts...)

	srvOpts := []apphttp.Option{
		apphttp.WithLogger(logger),
		apphttp.WithRateLimit(ratelimit.DefaultConfig()),
		apphttp.WithTrustedProxies(cfg.TrustedProxies...),
	}
	if pinger, ok := result.Store.(interface{ Ping(context.Context) error }); ok {
		srvOpts = append(srvOpts, apphttp.WithReadiness(pinger.Ping))
	}
	srv := apphttp.NewServer(":"+cfg.Port, plans, srvOpts...)

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting credit tracker server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	<-shutdownDone

	requests, limits, suspicious := srv.Metrics()
	logger.Info("Server stopped gracefully",
		"requests", requests.TotalRequests,
		"server_errors", requests.ServerErrors,
		"rate_limited", limits.TotalHits,
		"suspicious", suspicious)
}
