package handler

import (
	"context"
	"log/slog"
	"net"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"reminderapi/internal/model"
	"reminderapi/internal/service"
	"reminderapi/internal/telephony"
)

// OutboundCallTwiML answers the provider's TwiML fetch with a document that
// connects the call audio to the media stream endpoint.
//
//	@Summary	TwiML for an outbound call
//	@Tags		telephony
//	@Produce	xml
//	@Param		first_message	query		string	true	"Greeting"
//	@Param		time			query		string	true	"Scheduled time"
//	@Param		calling_to		query		string	true	"Dialed number"
//	@Param		prompt			query		string	true	"Agent prompt"
//	@Param		phone_number	query		string	true	"Caller id"
//	@Param		agent_id		query		string	true	"Agent id"
//	@Success	200				{string}	string
//	@Failure	422				{object}	errorPayload
//	@Router		/outbound-call-twiml [post]
func OutboundCallTwiML(appHost string, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := model.StreamParameters{
			FirstMessage: c.Query("first_message"),
			Time:         c.Query("time"),
			CallingTo:    c.Query("calling_to"),
			Prompt:       c.Query("prompt"),
			PhoneNumber:  c.Query("phone_number"),
			AgentID:      c.Query("agent_id"),
		}
		if !p.Complete() {
			return writeError(c, fiber.StatusUnprocessableEntity, "MISSING_PARAMETERS", "Missing required parameters")
		}

		host := publicHost(c, appHost)
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		doc, err := telephony.BuildStreamTwiML("wss://"+host+service.MediaStreamPath, p)
		if err != nil {
			log.Error("build twiml", "component", "twilio", "error", err)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		log.Info("twiml generated", "component", "twilio", "agent_id", p.AgentID, "calling_to", p.CallingTo)
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXML)
		return c.Send(doc)
	}
}

// RequireWebSocket rejects plain HTTP requests on websocket routes.
func RequireWebSocket() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// MediaStream upgrades to a websocket and bridges it to an agent conversation.
func MediaStream(ctx context.Context, svc service.ReminderService, log *slog.Logger) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		if err := svc.ServeMediaStream(ctx, conn); err != nil {
			log.Error("media stream ended", "component", "stream", "error", err)
		}
	})
}
