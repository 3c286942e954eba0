package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"telemetry-go/internal/domain"
)

// Listing defaults, matching the service's documented API contract.
const (
	defaultOrder = "asc"
	defaultLimit = 1000

	// maxDeviceFilter bounds the devices query parameter; the alarm
	// store's IN-clause limit makes larger filters unserviceable.
	maxDeviceFilter = 200
)

var errTooManyDevices = errors.New("the number of devices cannot exceed 200")

// parsePage reads order/skip/limit query parameters with defaults.
// Bounds are not validated here; the core validates before any I/O so
// violations fail the same way regardless of entry point.
func parsePage(c *fiber.Ctx) (order string, skip, limit int) {
	order = c.Query("order", defaultOrder)
	skip = c.QueryInt("skip", 0)
	limit = c.QueryInt("limit", defaultLimit)
	return order, skip, limit
}

// parseWindow reads the from/to aggregation window. Missing bounds
// default to the epoch and now respectively.
func parseWindow(c *fiber.Ctx) (from, to time.Time, err error) {
	to = time.Now().UTC()

	if s := c.Query("from"); s != "" {
		from, err = parseTimeParam(s)
		if err != nil {
			return from, to, err
		}
	}
	if s := c.Query("to"); s != "" {
		to, err = parseTimeParam(s)
		if err != nil {
			return from, to, err
		}
	}
	return from, to, nil
}

// parseTimeParam accepts RFC3339 and the service's wire format.
func parseTimeParam(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return domain.ParseTime(s)
}

// parseDevices reads the comma-separated devices filter.
func parseDevices(c *fiber.Ctx) ([]string, error) {
	raw := c.Query("devices")
	if raw == "" {
		return nil, nil
	}

	devices := strings.Split(raw, ",")
	if len(devices) > maxDeviceFilter {
		return nil, errTooManyDevices
	}
	return devices, nil
}

// parseBool reads a boolean query parameter.
func parseBool(c *fiber.Ctx, name string) bool {
	v, err := strconv.ParseBool(c.Query(name, "false"))
	return err == nil && v
}

// respondError maps the domain error taxonomy onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case domain.IsInvalidInput(err):
		return ValidationError(c, err.Error())
	case domain.IsNotFound(err):
		return NotFound(c, err.Error())
	case domain.IsConflict(err):
		return Conflict(c, err.Error())
	}

	var dep *domain.DependencyError
	if errors.As(err, &dep) {
		return BadGateway(c, dep.Error())
	}

	return InternalError(c, err.Error())
}
