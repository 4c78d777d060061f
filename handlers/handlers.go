package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ceramics-booking/admin"
	"ceramics-booking/availability"
	"ceramics-booking/booking"
	"ceramics-booking/database"
	"ceramics-booking/errors"
	"ceramics-booking/events"
	"ceramics-booking/session"
)

type Deps struct {
	Store         database.Store
	Bookings      *booking.Service
	Availability  *availability.Service
	Slots         *admin.SlotManager
	Events        *events.Service
	Guard         *session.Guard
	Logger        *zap.Logger
	SecureCookies bool
}

type Handler struct {
	Deps
}

func New(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Handler{Deps: deps}
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	return errors.Respond(c, h.Logger, err)
}

func (h *Handler) parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errors.Validation("request body must be valid JSON")
	}
	return nil
}

func success(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"status":  "success",
		"message": message,
		"data":    data})
}

func (h *Handler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		h.Logger.Warn("health check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
