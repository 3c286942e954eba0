package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"telemetry-go/internal/alarms"
	"telemetry-go/internal/domain"
	"telemetry-go/internal/rules"
)

// AlarmsByRuleHandler serves the alarm-by-rule aggregation endpoints.
type AlarmsByRuleHandler struct {
	aggregator *rules.Aggregator
	alarms     alarms.Service
	logger     *slog.Logger
}

// NewAlarmsByRuleHandler creates a new aggregation handler.
func NewAlarmsByRuleHandler(aggregator *rules.Aggregator, svc alarms.Service, logger *slog.Logger) *AlarmsByRuleHandler {
	return &AlarmsByRuleHandler{
		aggregator: aggregator,
		alarms:     svc,
		logger:     logger,
	}
}

// List handles GET /v1/alarmsbyrule
// Returns the alarm count and most recent alarm per rule that raised
// at least one alarm in the window.
func (h *AlarmsByRuleHandler) List(c *fiber.Ctx) error {
	from, to, err := parseWindow(c)
	if err != nil {
		return BadRequest(c, "invalid time window: "+err.Error())
	}

	devices, err := parseDevices(c)
	if err != nil {
		return BadRequest(c, err.Error())
	}

	order, skip, limit := parsePage(c)
	counts, err := h.aggregator.AlarmCounts(c.Context(), from, to, order, skip, limit, devices)
	if err != nil {
		if !domain.IsInvalidInput(err) {
			h.logger.Error("failed to aggregate alarms by rule", "error", err)
		}
		return respondError(c, err)
	}

	return Success(c, counts)
}

// ListByRule handles GET /v1/alarmsbyrule/:id
// Returns the alarms raised by one rule in the window.
func (h *AlarmsByRuleHandler) ListByRule(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	from, to, err := parseWindow(c)
	if err != nil {
		return BadRequest(c, "invalid time window: "+err.Error())
	}

	devices, err := parseDevices(c)
	if err != nil {
		return BadRequest(c, err.Error())
	}

	order, skip, limit := parsePage(c)
	list, err := h.alarms.ListByRule(c.Context(), id, from, to, order, skip, limit, devices)
	if err != nil {
		if !domain.IsInvalidInput(err) {
			h.logger.Error("failed to list alarms for rule", "ruleID", id, "error", err)
		}
		return respondError(c, err)
	}

	return Success(c, list)
}
