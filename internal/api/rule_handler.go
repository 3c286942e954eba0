package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"telemetry-go/internal/domain"
	"telemetry-go/internal/events"
	"telemetry-go/internal/rules"
)

// RuleHandler handles HTTP requests for rule operations.
type RuleHandler struct {
	repo      *rules.Repository
	publisher *events.Publisher
	logger    *slog.Logger
}

// NewRuleHandler creates a new rule handler.
func NewRuleHandler(repo *rules.Repository, publisher *events.Publisher, logger *slog.Logger) *RuleHandler {
	return &RuleHandler{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// ruleIDList is the request body for bulk deletion.
type ruleIDList struct {
	Items []string `json:"items"`
}

// List handles GET /v1/rules
// Returns a filtered, ordered page of rules.
func (h *RuleHandler) List(c *fiber.Ctx) error {
	order, skip, limit := parsePage(c)

	page, err := h.repo.Query(c.Context(), rules.QueryOptions{
		Order:          order,
		Skip:           skip,
		Limit:          limit,
		GroupID:        c.Query("groupId"),
		IncludeDeleted: parseBool(c, "includeDeleted"),
	})
	if err != nil {
		h.logger.Error("failed to list rules", "error", err)
		return respondError(c, err)
	}

	return Success(c, page)
}

// Get handles GET /v1/rules/:id
// Returns a single rule by id.
func (h *RuleHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	rule, err := h.repo.Get(c.Context(), id)
	if err != nil {
		if !domain.IsNotFound(err) {
			h.logger.Error("failed to get rule", "id", id, "error", err)
		}
		return respondError(c, err)
	}

	return Success(c, rule)
}

// Create handles POST /v1/rules
// Creates a new rule; the store assigns the id.
func (h *RuleHandler) Create(c *fiber.Ctx) error {
	var rule domain.Rule
	if err := c.BodyParser(&rule); err != nil {
		h.logger.Debug("failed to parse request body", "error", err)
		return BadRequest(c, "invalid request body")
	}

	if err := rule.Validate(); err != nil {
		return ValidationError(c, err.Error())
	}

	created, err := h.repo.Create(c.Context(), &rule)
	if err != nil {
		h.logger.Error("failed to create rule", "error", err)
		return respondError(c, err)
	}

	h.publisher.RuleChanged(events.RuleCreated, created.ID, created.GroupID)
	return Created(c, created)
}

// Upsert handles PUT /v1/rules/:id
// Creates or replaces a rule under the path id. A soft-deleted rule
// cannot be revived this way.
func (h *RuleHandler) Upsert(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	var rule domain.Rule
	if err := c.BodyParser(&rule); err != nil {
		h.logger.Debug("failed to parse request body", "error", err)
		return BadRequest(c, "invalid request body")
	}
	rule.ID = id

	if err := rule.Validate(); err != nil {
		return ValidationError(c, err.Error())
	}

	updated, err := h.repo.UpsertIfNotDeleted(c.Context(), &rule)
	if err != nil {
		if !domain.IsNotFound(err) && !domain.IsConflict(err) {
			h.logger.Error("failed to upsert rule", "id", id, "error", err)
		}
		return respondError(c, err)
	}

	h.publisher.RuleChanged(events.RuleUpdated, updated.ID, updated.GroupID)
	return Success(c, updated)
}

// Delete handles DELETE /v1/rules/:id
// Soft-deletes a rule; deleting an absent rule succeeds.
func (h *RuleHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	deleted, err := h.repo.Delete(c.Context(), id)
	if err != nil {
		if !domain.IsConflict(err) {
			h.logger.Error("failed to delete rule", "id", id, "error", err)
		}
		return respondError(c, err)
	}

	// A no-op delete still succeeds, but the stream only carries
	// deletions the store actually performed.
	if deleted {
		h.publisher.RuleChanged(events.RuleDeleted, id, "")
	}
	return NoContent(c)
}

// DeleteMany handles POST /v1/rules/delete
// Soft-deletes a list of rules, aborting on the first failure.
func (h *RuleHandler) DeleteMany(c *fiber.Ctx) error {
	var body ruleIDList
	if err := c.BodyParser(&body); err != nil {
		h.logger.Debug("failed to parse request body", "error", err)
		return BadRequest(c, "invalid request body")
	}
	if len(body.Items) == 0 {
		return BadRequest(c, "items must contain at least one rule id")
	}

	deleted, err := h.repo.DeleteMany(c.Context(), body.Items)
	for _, id := range deleted {
		h.publisher.RuleChanged(events.RuleDeleted, id, "")
	}
	if err != nil {
		h.logger.Error("failed to delete rules", "error", err)
		return respondError(c, err)
	}
	return NoContent(c)
}
