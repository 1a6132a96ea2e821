package handler

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reminderapi/internal/service"
)

// RouteConfig carries what the handlers need besides the service.
type RouteConfig struct {
	// AppHost is the public host used in provider callbacks; empty means the request host.
	AppHost string
	Log     *slog.Logger
	// Gatherer backs /metrics.
	Gatherer prometheus.Gatherer
	// StreamContext is cancelled to end open media streams on shutdown.
	StreamContext context.Context
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.ReminderService, bg Background, cfg RouteConfig) {
	log := cfg.Log
	streamCtx := cfg.StreamContext
	if streamCtx == nil {
		streamCtx = context.Background()
	}

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))

	app.Post("/calls", CreateCall(svc, bg, NewValidator(), cfg.AppHost))
	app.Post("/update-recent-records", UpdateRecentRecords(svc, bg))

	ai := app.Group("/aicalling")
	ai.Get("/records/:country_code/:agent_id/:date", ListRecords(svc, log))
	ai.Get("/reports/:agent_id/:date", DownloadReport(svc, log))
	ai.Get("/reports/:agent_id/:date/link", ReportLink(svc, log))
	ai.Get("/conversations/:conversation_id", GetConversationRecord(svc, log))
	ai.Get("/agents", ListAgents(svc, log))

	app.Post(service.StatusCallbackPath, CallStatusCallback(svc, log))
	app.Post(service.TwiMLPath, OutboundCallTwiML(cfg.AppHost, log))
	app.Use(service.MediaStreamPath, RequireWebSocket())
	app.Get(service.MediaStreamPath, MediaStream(streamCtx, svc, log))
}
