package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"reminderapi/docs"
	"reminderapi/internal/config"
	"reminderapi/internal/database"
	"reminderapi/internal/database/migration"
	"reminderapi/internal/elevenlabs"
	handlers "reminderapi/internal/http/handler"
	"reminderapi/internal/http/middleware"
	"reminderapi/internal/logger"
	"reminderapi/internal/metrics"
	"reminderapi/internal/otel"
	"reminderapi/internal/repository/postgres"
	"reminderapi/internal/service"
	"reminderapi/internal/storage"
	"reminderapi/internal/telephony"
)

const shutdownTimeout = 30 * time.Second

// @title Intelligent Reminder API
// @version 1.0
// @description Places AI agent reminder calls and reports their outcome.
// @BasePath /
func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, "reminderapi", log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Error("tracing shutdown", "error", err)
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	var archive storage.Storage
	if cfg.MinIO.Enabled() {
		archive, err = storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return fmt.Errorf("init report archive: %w", err)
		}
	} else {
		log.Info("report archive disabled", "component", "storage")
	}

	dialer, err := telephony.NewTwilioDialer(cfg.Twilio)
	if err != nil {
		return fmt.Errorf("init telephony: %w", err)
	}
	agents, err := elevenlabs.NewClient(cfg.ElevenLabs)
	if err != nil {
		return fmt.Errorf("init agent client: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	domainMetrics, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	svc := service.NewReminderService(service.Deps{
		Repo:          postgres.NewCallPostgres(db),
		Store:         archive,
		Dialer:        dialer,
		Agents:        agents,
		Conversations: elevenlabs.NewConversationDialer(cfg.ElevenLabs.Timeout()),
		Metrics:       domainMetrics,
		Log:           log,
		Config:        cfg.Call,
	})

	runner := service.NewRunner(log)
	runner.Every("sync_recent", cfg.Call.SyncInterval(), func(ctx context.Context) error {
		_, err := svc.SyncRecent(ctx)
		return err
	})

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	handlers.RegisterRoutes(app, db, svc, runner, handlers.RouteConfig{
		AppHost:       cfg.AppHost,
		Log:           log,
		Gatherer:      reg,
		StreamContext: ctx,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	serverErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("server listening", "addr", addr, "archive_enabled", archive != nil)
		serverErr <- app.Listen(addr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := app.ShutdownWithContext(sctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := runner.Shutdown(sctx); err != nil {
		errs = append(errs, fmt.Errorf("background tasks: %w", err))
	}
	return errors.Join(errs...)
}
