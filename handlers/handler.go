// Package handlers adapts HTTP requests to the services package. Handlers
// return service errors unchanged; ErrorHandler turns them into the response
// envelope.
package handlers

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/anjiri1684/elevate_lms/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorHandler answers *fiber.Error with its status and message. Anything else
// is logged and reported as a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"success": false, "message": fe.Message})
	}
	logger.Module("api").Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Something went wrong, please try again later",
	})
}

// NotFound is the catch-all route.
func NotFound(c *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusNotFound, "Route not found: "+c.Method()+" "+c.OriginalURL())
}

func pathID(c *fiber.Ctx) (uuid.UUID, error) {
	return services.ParseID(c.Params("id"))
}

func queryID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	id, err := services.ParseID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func queryInt(c *fiber.Ctx, key string, fallback, max int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}

func queryBool(c *fiber.Ctx, key string) *bool {
	switch c.Query(key) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

// self rejects path ids that do not name the authenticated account.
func self(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if id != middleware.AccountID(c) {
		return fiber.NewError(fiber.StatusForbidden, "Access denied")
	}
	return nil
}

// check validates forms built from path or query values, which ValidateForm
// cannot see.
func check(f interface{}) error {
	err := forms.Validate.Struct(f)
	if err == nil {
		return nil
	}
	fields := forms.Errors(err)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+fields[k])
	}
	return fiber.NewError(fiber.StatusBadRequest, "Validation failed: "+strings.Join(parts, "; "))
}
