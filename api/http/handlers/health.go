package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lexaprendiz/lexaprendiz/pkg/health"
	"github.com/lexaprendiz/lexaprendiz/pkg/llm"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	svc health.ReadinessUseCase
	ai  llm.Pinger
}

func NewHealthHandler(svc health.ReadinessUseCase, ai llm.Pinger) *HealthHandler {
	return &HealthHandler{svc: svc, ai: ai}
}

// Health: basic liveness check.
// @Summary Liveness probe
// @Tags    health
// @Produce json
// @Success 200 {object} map[string]string
// @Router  /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// Ready: readiness check over every dependency.
// @Summary Readiness probe
// @Tags    health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router  /ready [get]
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if err := h.svc.Ready(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "not_ready",
			"details": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ready"})
}

// AI: reachability of the language model provider.
// @Summary LLM provider probe
// @Tags    health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]any
// @Failure 429 {object} map[string]any
// @Failure 500 {object} map[string]any
// @Router  /health/ai [get]
func (h *HealthHandler) AI(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()
	err := h.ai.Ping(ctx)
	switch {
	case err == nil:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "status": "ok"})
	case errors.Is(err, llm.ErrNotConfigured):
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": false, "status": "no-key"})
	case errors.Is(err, llm.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false, "status": "invalid-api-key"})
	case errors.Is(err, llm.ErrQuotaExceeded):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"ok": false, "status": "quota-exceeded"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "status": "error", "details": err.Error()})
	}
}
