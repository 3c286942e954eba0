package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"telemetry-go/internal/alarms"
	"telemetry-go/internal/domain"
)

// AlarmHandler handles HTTP requests for alarm operations.
type AlarmHandler struct {
	alarms alarms.Service
	logger *slog.Logger
}

// NewAlarmHandler creates a new alarm handler.
func NewAlarmHandler(svc alarms.Service, logger *slog.Logger) *AlarmHandler {
	return &AlarmHandler{
		alarms: svc,
		logger: logger,
	}
}

// alarmStatusBody is the request body for status updates.
type alarmStatusBody struct {
	Status string `json:"status"`
}

// alarmIDList is the request body for bulk deletion.
type alarmIDList struct {
	Items []string `json:"items"`
}

// List handles GET /v1/alarms
// Returns alarms in a time window, optionally filtered by device.
func (h *AlarmHandler) List(c *fiber.Ctx) error {
	from, to, err := parseWindow(c)
	if err != nil {
		return BadRequest(c, "invalid time window: "+err.Error())
	}

	devices, err := parseDevices(c)
	if err != nil {
		return BadRequest(c, err.Error())
	}

	order, skip, limit := parsePage(c)
	list, err := h.alarms.List(c.Context(), from, to, order, skip, limit, devices)
	if err != nil {
		if !domain.IsInvalidInput(err) {
			h.logger.Error("failed to list alarms", "error", err)
		}
		return respondError(c, err)
	}

	return Success(c, list)
}

// Get handles GET /v1/alarms/:id
// Returns a single alarm by id.
func (h *AlarmHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	alarm, err := h.alarms.Get(c.Context(), id)
	if err != nil {
		if !domain.IsNotFound(err) {
			h.logger.Error("failed to get alarm", "id", id, "error", err)
		}
		return respondError(c, err)
	}

	return Success(c, alarm)
}

// UpdateStatus handles PATCH /v1/alarms/:id
// Changes an alarm's triage state.
func (h *AlarmHandler) UpdateStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	var body alarmStatusBody
	if err := c.BodyParser(&body); err != nil {
		h.logger.Debug("failed to parse request body", "error", err)
		return BadRequest(c, "invalid request body")
	}

	status := domain.AlarmStatus(body.Status)
	if !status.IsValid() {
		return ValidationError(c,
			"status must be `open`, `acknowledged`, or `closed`; value provided: "+body.Status)
	}

	alarm, err := h.alarms.UpdateStatus(c.Context(), id, status)
	if err != nil {
		if !domain.IsNotFound(err) {
			h.logger.Error("failed to update alarm", "id", id, "error", err)
		}
		return respondError(c, err)
	}

	h.logger.Info("updated alarm status", "id", id, "status", status)
	return Success(c, alarm)
}

// Delete handles DELETE /v1/alarms/:id
func (h *AlarmHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	if err := h.alarms.Delete(c.Context(), id); err != nil {
		h.logger.Error("failed to delete alarm", "id", id, "error", err)
		return respondError(c, err)
	}

	return NoContent(c)
}

// DeleteMany handles POST /v1/alarms/delete
// Deletes a list of alarms by id.
func (h *AlarmHandler) DeleteMany(c *fiber.Ctx) error {
	var body alarmIDList
	if err := c.BodyParser(&body); err != nil {
		h.logger.Debug("failed to parse request body", "error", err)
		return BadRequest(c, "invalid request body")
	}
	if len(body.Items) == 0 || len(body.Items) > alarms.MaxDeleteBatch {
		return BadRequest(c, "items must contain between 1 and 1000 alarm ids")
	}

	if err := h.alarms.DeleteMany(c.Context(), body.Items); err != nil {
		h.logger.Error("failed to delete alarms", "error", err)
		return respondError(c, err)
	}

	return NoContent(c)
}
