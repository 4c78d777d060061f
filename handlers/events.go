package handlers

import (
	"github.com/gofiber/fiber/v2"

	"ceramics-booking/events"
)

type waitlistRequest struct {
	Email     string `json:"email"`
	EventName string `json:"eventName"`
}

func (h *Handler) CreateEventBooking(c *fiber.Ctx) error {
	var req events.GroupBookingRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	group, err := h.Events.BookGroup(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":         true,
		"groupId":         group.GroupID,
		"participants":    group.Participants,
		"mercadoPagoLink": group.MercadoPagoLink})
}

func (h *Handler) GetEventBooking(c *fiber.Ctx) error {
	participants, err := h.Events.Participants(c.UserContext(), c.Query("event"), c.Query("group"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "participants": participants})
}

func (h *Handler) JoinWaitlist(c *fiber.Ctx) error {
	var req waitlistRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	entry, err := h.Events.JoinWaitlist(c.UserContext(), req.Email, req.EventName)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"id":      entry.ID,
		"message": "you will be notified when places open up"})
}
