package handler

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"reminderapi/internal/model"
	"reminderapi/internal/service"
)

// ListRecords returns an agent's calls for one day. The country code segment
// is accepted for URL compatibility and not used.
//
//	@Summary	List call records
//	@Tags		records
//	@Produce	json
//	@Param		country_code	path		string	true	"Country code (unused)"
//	@Param		agent_id		path		string	true	"Agent id"
//	@Param		date			path		string	true	"Day, YYYY-MM-DD"
//	@Success	200				{array}		model.CallRecord
//	@Failure	400				{object}	errorPayload
//	@Router		/aicalling/records/{country_code}/{agent_id}/{date} [get]
func ListRecords(svc service.ReminderService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		recs, err := svc.Records(c.UserContext(), c.Params("agent_id"), c.Params("date"))
		if err != nil {
			return serviceError(c, log, err)
		}
		if recs == nil {
			recs = []model.CallRecord{}
		}
		return c.JSON(recs)
	}
}

// GetConversationRecord returns the call linked to an agent conversation.
//
//	@Summary	Call record by conversation
//	@Tags		records
//	@Produce	json
//	@Param		conversation_id	path		string	true	"Agent conversation id"
//	@Success	200				{object}	model.CallRecord
//	@Failure	404				{object}	errorPayload
//	@Router		/aicalling/conversations/{conversation_id} [get]
func GetConversationRecord(svc service.ReminderService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := svc.RecordByConversation(c.UserContext(), c.Params("conversation_id"))
		if err != nil {
			return serviceError(c, log, err)
		}
		return c.JSON(rec)
	}
}

// DownloadReport returns an agent's calls for one day as a CSV attachment.
//
//	@Summary	Download daily call report
//	@Tags		records
//	@Produce	text/csv
//	@Param		agent_id	path		string	true	"Agent id"
//	@Param		date		path		string	true	"Day, YYYY-MM-DD"
//	@Success	200			{file}		file
//	@Failure	400			{object}	errorPayload
//	@Router		/aicalling/reports/{agent_id}/{date} [get]
func DownloadReport(svc service.ReminderService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := svc.Report(c.UserContext(), c.Params("agent_id"), c.Params("date"))
		if err != nil {
			return serviceError(c, log, err)
		}
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", r.Filename))
		return c.Send(r.Content)
	}
}

// ReportLink archives a fresh report and returns a time-limited download link.
//
//	@Summary	Presigned report link
//	@Tags		records
//	@Produce	json
//	@Param		agent_id	path		string	true	"Agent id"
//	@Param		date		path		string	true	"Day, YYYY-MM-DD"
//	@Success	200			{object}	map[string]any
//	@Failure	503			{object}	errorPayload
//	@Router		/aicalling/reports/{agent_id}/{date}/link [get]
func ReportLink(svc service.ReminderService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		link, err := svc.ReportLink(c.UserContext(), c.Params("agent_id"), c.Params("date"))
		if err != nil {
			return serviceError(c, log, err)
		}
		return c.JSON(fiber.Map{"success": true, "url": link})
	}
}

// ListAgents passes through the agents configured on the conversational AI platform.
//
//	@Summary	List agents
//	@Tags		agents
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/aicalling/agents [get]
func ListAgents(svc service.ReminderService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		agents, err := svc.Agents(c.UserContext())
		if err != nil {
			return serviceError(c, log, err)
		}
		return c.JSON(fiber.Map{"success": true, "agents": agents})
	}
}
