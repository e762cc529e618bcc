package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"reflection-garden/services"
)

// writeError maps a service error onto a status code and the usual
// {"error", "cause"} body.
func writeError(c *fiber.Ctx, err error) error {
	var se *services.Error
	if !errors.As(err, &se) {
		log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
			"cause": err.Error(),
		})
	}

	body := fiber.Map{"error": se.Msg, "cause": err.Error()}
	status := fiber.StatusInternalServerError
	switch se.Kind {
	case services.KindValidation:
		status = fiber.StatusBadRequest
	case services.KindAuthorization:
		status = fiber.StatusForbidden
	case services.KindNotFound:
		status = fiber.StatusNotFound
	case services.KindPersistence:
		status = fiber.StatusServiceUnavailable
		body["retryable"] = true
		log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, cause error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "invalid request body",
		"cause": cause.Error(),
	})
}
