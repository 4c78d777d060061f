package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ceramics-booking/admin"
	"ceramics-booking/availability"
	"ceramics-booking/booking"
	"ceramics-booking/config"
	"ceramics-booking/database"
	"ceramics-booking/errors"
	"ceramics-booking/events"
	"ceramics-booking/handlers"
	"ceramics-booking/logger"
	"ceramics-booking/notify"
	"ceramics-booking/router"
	"ceramics-booking/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg)
	if err != nil {
		zl.Fatal("failed to open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}

	registry, err := sessionRegistry(ctx, cfg)
	if err != nil {
		zl.Fatal("failed to connect to redis", zap.Error(err))
	}

	if !cfg.AdminConfigured() {
		zl.Warn("admin credentials are not configured; admin login is disabled")
	}
	if cfg.DefaultPrice().IsZero() {
		zl.Warn("default price is disabled; bookings need an active experience")
	}

	dispatcher := notify.NewDispatcher(notificationSink(cfg, zl), zl, cfg.NotifyTimeout)
	guard := session.NewGuard(cfg.SessionSecret, session.NewStaticCredentials(cfg.AdminUsername, cfg.AdminPassword), registry)

	h := handlers.New(handlers.Deps{
		Store:         store,
		Bookings:      booking.NewService(store, dispatcher, zl, cfg.DefaultPrice()),
		Availability:  availability.NewService(store),
		Slots:         admin.NewSlotManager(store, zl),
		Events:        events.NewService(store, dispatcher, zl, cfg.MercadoPagoLink),
		Guard:         guard,
		Logger:        zl,
		SecureCookies: cfg.IsProduction(),
	})

	app := fiber.New(fiber.Config{
		AppName:      "ceramics-booking",
		ErrorHandler: errorHandler(zl),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	router.SetupRoutes(app, h, router.Options{
		Secret:          cfg.SessionSecret,
		SecureCookies:   cfg.IsProduction(),
		RateLimitPerMin: cfg.RateLimitPerMin,
		AdminStaticDir:  cfg.AdminStaticDir,
		Logger:          zl,
	})

	go func() {
		zl.Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.Env), zap.String("driver", cfg.DBDriver))
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			zl.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zl.Error("server shutdown failed", zap.Error(err))
	}
	if err := dispatcher.Drain(shutdownCtx); err != nil {
		zl.Warn("pending notifications dropped", zap.Error(err))
	}
	if err := store.Close(shutdownCtx); err != nil {
		zl.Error("failed to close database", zap.Error(err))
	}
}

func sessionRegistry(ctx context.Context, cfg config.Config) (session.Registry, error) {
	if cfg.RedisURL == "" {
		return session.NoopRegistry{}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return session.NewRedisRegistry(client), nil
}

func notificationSink(cfg config.Config, zl *zap.Logger) notify.Sink {
	if cfg.ResendAPIKey == "" || cfg.NotifyTo == "" {
		zl.Warn("e-mail provider not configured; notifications are logged only")
		return notify.NewLogSink(zl)
	}
	return notify.NewResendSink(cfg.ResendAPIKey, cfg.EmailAPIURL, cfg.NotifyFrom, cfg.NotifyTo, cfg.NotifyTimeout)
}

func errorHandler(zl *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return errors.RaiseError(c, fiberErr.Code, fiberErr.Message, "")
		}
		return errors.Respond(c, zl, err)
	}
}
