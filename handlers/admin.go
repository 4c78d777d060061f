package handlers

import (
	"github.com/gofiber/fiber/v2"

	"ceramics-booking/admin"
	"ceramics-booking/database"
	"ceramics-booking/model"
)

func (h *Handler) ListSlots(c *fiber.Ctx) error {
	slots, err := h.Slots.List(c.UserContext(), database.SlotFilter{
		Date:          c.Query("date"),
		From:          c.Query("from"),
		To:            c.Query("to"),
		OnlyAvailable: c.QueryBool("available", false),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusOK, "slots", slots)
}

func (h *Handler) CreateSlot(c *fiber.Ctx) error {
	var draft model.SlotDraft
	if err := h.parseBody(c, &draft); err != nil {
		return h.fail(c, err)
	}

	slot, err := h.Slots.AddSlot(c.UserContext(), draft)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusCreated, "slot created", slot)
}

func (h *Handler) BatchCreateSlots(c *fiber.Ctx) error {
	var req admin.BatchRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	slots, err := h.Slots.BatchCreate(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"status":  "success",
		"message": "slots created",
		"count":   len(slots),
		"data":    slots})
}

func (h *Handler) ToggleSlot(c *fiber.Ctx) error {
	slot, err := h.Slots.ToggleAvailability(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusOK, "slot updated", slot)
}

func (h *Handler) DeleteSlot(c *fiber.Ctx) error {
	if err := h.Slots.DeleteSlot(c.UserContext(), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusOK, "slot deleted", nil)
}

func (h *Handler) ListBookings(c *fiber.Ctx) error {
	bookings, err := h.Bookings.List(c.UserContext(), c.Query("slot_id"), c.QueryInt("limit", 100))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusOK, "bookings", bookings)
}

func (h *Handler) ListWaitlist(c *fiber.Ctx) error {
	entries, err := h.Events.Waitlist(c.UserContext(), c.Query("event"))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusOK, "waitlist", entries)
}

func (h *Handler) ListEventParticipants(c *fiber.Ctx) error {
	participants, err := h.Events.Participants(c.UserContext(), c.Query("event"), c.Query("group"))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusOK, "event participants", participants)
}
