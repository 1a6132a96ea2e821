package handler

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"reminderapi/internal/model"
	"reminderapi/internal/service"
)

// Background runs work after the response is sent.
type Background interface {
	Go(name string, fn func(ctx context.Context) error)
}

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// publicHost is the host the telephony provider reaches this service on. The
// result does not alias the request buffer and may outlive the handler.
func publicHost(c *fiber.Ctx, appHost string) string {
	if appHost != "" {
		return appHost
	}
	return utils.CopyString(c.Hostname())
}

// CreateCall accepts a reminder call request and places the call in the background.
//
//	@Summary	Create a reminder call
//	@Tags		calls
//	@Accept		json
//	@Produce	json
//	@Param		request	body		model.CallRequest	true	"Call request"
//	@Success	201		{object}	map[string]string
//	@Failure	400		{object}	errorPayload
//	@Failure	422		{object}	errorPayload
//	@Router		/calls [post]
func CreateCall(svc service.ReminderService, bg Background, validate *validator.Validate, appHost string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.CallRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be a JSON call request")
		}
		if err := validate.Struct(req); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				fields := make([]string, 0, len(verrs))
				for _, fe := range verrs {
					fields = append(fields, fe.Field())
				}
				return writeError(c, fiber.StatusUnprocessableEntity, "VALIDATION_ERROR", "missing required fields: "+strings.Join(fields, ", "))
			}
			return writeError(c, fiber.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid call request")
		}

		host := publicHost(c, appHost)
		bg.Go("create_call", func(ctx context.Context) error {
			return svc.CreateCall(ctx, req, host)
		})
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Reminder task created successfully"})
	}
}

// CallStatusCallback receives telephony status callbacks. Processing errors are
// acknowledged with 200 so the provider does not retry.
//
//	@Summary	Telephony call status callback
//	@Tags		telephony
//	@Accept		x-www-form-urlencoded
//	@Produce	plain
//	@Param		agent_id	query		string	false	"Agent id"
//	@Param		To			formData	string	true	"Dialed number"
//	@Param		CallStatus	formData	string	true	"Call status"
//	@Param		ToCountry	formData	string	true	"Dialed country"
//	@Success	200			{string}	string	"OK"
//	@Failure	400			{string}	string	"Missing required parameters"
//	@Router		/elevenlabs/callback/outbound-call-status [post]
func CallStatusCallback(svc service.ReminderService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		to := c.FormValue("To")
		status := c.FormValue("CallStatus")
		country := c.FormValue("ToCountry")
		if to == "" || status == "" || country == "" {
			return c.Status(fiber.StatusBadRequest).SendString("Missing required parameters")
		}

		if err := svc.HandleCallStatus(c.UserContext(), to, status, c.Query("agent_id")); err != nil {
			log.Error("call status callback", "component", "twilio", "calling_to", to, "status", status, "error", err)
			return c.SendString("Error processed")
		}
		return c.SendString("OK")
	}
}

// UpdateRecentRecords starts an analysis sync in the background.
//
//	@Summary	Sync conversation analysis into recent records
//	@Tags		records
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/update-recent-records [post]
func UpdateRecentRecords(svc service.ReminderService, bg Background) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bg.Go("sync_recent", func(ctx context.Context) error {
			_, err := svc.SyncRecent(ctx)
			return err
		})
		return c.JSON(fiber.Map{"success": true, "message": "Update process initiated"})
	}
}
