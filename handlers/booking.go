package handlers

import (
	"github.com/gofiber/fiber/v2"

	"ceramics-booking/database"
	"ceramics-booking/model"
)

type bookingRequest struct {
	SlotID         string `json:"slot_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	NumberOfPeople int    `json:"number_of_people"`
}

func (h *Handler) GetAvailableSlots(c *fiber.Ctx) error {
	slots, err := h.Store.ListSlots(c.UserContext(), database.SlotFilter{})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(slots)
}

func (h *Handler) GetExperiences(c *fiber.Ctx) error {
	experiences, err := h.Store.ListExperiences(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(experiences)
}

func (h *Handler) CreateBooking(c *fiber.Ctx) error {
	var req bookingRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	customer := model.Customer{Name: req.Name, Email: req.Email, Phone: req.Phone}
	confirmation, err := h.Bookings.CreateBooking(c.UserContext(), req.SlotID, customer, req.NumberOfPeople)
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"booking_id":  confirmation.BookingID,
		"total_price": confirmation.TotalPrice,
		"date":        confirmation.Date,
		"start_time":  confirmation.StartTime,
		"message":     confirmation.Message})
}

func (h *Handler) GetBooking(c *fiber.Ctx) error {
	details, err := h.Bookings.Details(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(details)
}

func (h *Handler) GetCalendar(c *fiber.Ctx) error {
	days, err := h.Availability.Calendar(c.UserContext(), c.Query("from"), c.Query("to"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(days)
}

func (h *Handler) GetCalendarDay(c *fiber.Ctx) error {
	day, err := h.Availability.Day(c.UserContext(), c.Params("date"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(day)
}
