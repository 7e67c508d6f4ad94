package middleware

import (
	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/gofiber/fiber/v2"
)

const formKey = "form"

// ValidateForm parses the body into the registered role/name form and rejects
// the request before the handler when it does not validate.
func ValidateForm(role, name string) fiber.Handler {
	if !forms.Exists(role, name) {
		panic("middleware: unknown form " + role + "/" + name)
	}
	return func(c *fiber.Ctx) error {
		form := forms.New(role, name)
		if err := c.BodyParser(form); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Cannot parse request body",
			})
		}
		if err := forms.Validate.Struct(form); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Validation failed",
				"errors":  forms.Errors(err),
			})
		}
		c.Locals(formKey, form)
		return c.Next()
	}
}

// Form returns the validated body stored by ValidateForm.
func Form[T any](c *fiber.Ctx) *T {
	f, _ := c.Locals(formKey).(*T)
	return f
}
