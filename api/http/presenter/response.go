package presenter

import "github.com/gofiber/fiber/v2"

// ErrorResponse is the body of every failed request. Field and Code are set
// when the failure belongs to one input field.
type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code,omitempty"`
}

func JSON(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(v)
}

func Error(c *fiber.Ctx, status int, message string) error {
	return JSON(c, status, ErrorResponse{Message: message})
}

func FieldError(c *fiber.Ctx, status int, field, code, message string) error {
	return JSON(c, status, ErrorResponse{Message: message, Field: field, Code: code})
}
