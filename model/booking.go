package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BookingStatusBooked    = "booked"
	BookingStatusConfirmed = "confirmed"

	MinPartySize = 1
	MaxPartySize = 10
)

type Customer struct {
	Name  string `json:"name" validate:"required,min=2,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,min=6,max=32"`
}

// Booking is a confirmed reservation of a slot. TotalPrice is fixed at booking time.
type Booking struct {
	ID             string          `json:"id"`
	SlotID         string          `json:"slot_id"`
	ExperienceID   string          `json:"experience_id,omitempty"`
	CustomerName   string          `json:"customer_name"`
	CustomerEmail  string          `json:"customer_email"`
	CustomerPhone  string          `json:"customer_phone"`
	NumberOfPeople int             `json:"number_of_people"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BookingDetails is a booking joined with its slot and experience.
type BookingDetails struct {
	Booking
	Slot       Slot       `json:"available_slots"`
	Experience Experience `json:"experiences"`
}
