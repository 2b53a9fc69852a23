package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	webAdapter "retail-suite/internal/adapters/web"
	"retail-suite/internal/app"
	"retail-suite/internal/bootstrap"
	"retail-suite/internal/config"
	"retail-suite/internal/jobs"
	"retail-suite/internal/logging"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(logging.Options{Mode: cfg.LogMode, Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer rt.Close()

	if cfg.JobsEnabled {
		scheduler := jobs.NewScheduler(cfg.Location(), logger)
		for _, t := range housekeeping(rt.Service) {
			if err := scheduler.Add(t); err != nil {
				logger.Fatal("scheduler", zap.Error(err))
			}
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}
	handler := webAdapter.NewHandler(rt.Service, logger, webAdapter.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		JWTSecret:      cfg.JWTSecret,
		TokenTTL:       cfg.TokenTTL,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func housekeeping(svc app.ApplicationService) []jobs.Task {
	return []jobs.Task{
		{Name: "release-ended-rentals", Spec: "@every 1m", Run: svc.ReleaseEndedRentals},
		{Name: "expire-subscriptions", Spec: "0 */5 * * * *", Run: svc.ExpireSubscriptions},
		{Name: "expire-coupons", Spec: "@hourly", Run: svc.ExpireCoupons},
	}
}
