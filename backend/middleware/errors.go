package middleware

import (
	"errors"

	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders errors returned by handlers. *fiber.Error keeps its status and
// message; anything else is logged and answered with a generic 500.
func ErrorHandler(log *utils.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return utils.Error(c, fe.Code, fe)
		}
		log.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		return utils.InternalServerError(c, "Internal server error")
	}
}
