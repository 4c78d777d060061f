package booking

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ceramics-booking/database"
	"ceramics-booking/errors"
	"ceramics-booking/metrics"
	"ceramics-booking/model"
	"ceramics-booking/notify"
	"ceramics-booking/validation"
)

// Notifier accepts messages for background delivery.
type Notifier interface {
	Dispatch(kind string, msg notify.Message)
}

type Confirmation struct {
	BookingID  string          `json:"booking_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Date       string          `json:"date"`
	StartTime  string          `json:"start_time"`
	Message    string          `json:"message"`
}

type Service struct {
	store        database.Store
	notifier     Notifier
	logger       *zap.Logger
	defaultPrice decimal.Decimal
}

// NewService builds the booking service. A zero defaultPrice disables the price
// fallback, so bookings fail when the experience price cannot be read.
func NewService(store database.Store, notifier Notifier, logger *zap.Logger, defaultPrice decimal.Decimal) *Service {
	return &Service{store: store, notifier: notifier, logger: logger, defaultPrice: defaultPrice}
}

// CreateBooking reserves slotID for partySize people and closes the slot's day.
func (s *Service) CreateBooking(ctx context.Context, slotID string, customer model.Customer, partySize int) (Confirmation, error) {
	customer.Email = strings.ToLower(strings.TrimSpace(customer.Email))
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Phone = strings.TrimSpace(customer.Phone)

	if err := validateRequest(slotID, customer, partySize); err != nil {
		metrics.TrackBooking("invalid")
		return Confirmation{}, err
	}

	slot, err := s.store.GetSlot(ctx, slotID)
	if err != nil {
		if errors.KindOf(err) == errors.KindNotFound {
			metrics.TrackBooking("not_found")
			return Confirmation{}, errors.NotFound("slot not found")
		}
		metrics.TrackBooking("error")
		return Confirmation{}, err
	}
	if !slot.IsAvailable {
		metrics.TrackBooking("slot_unavailable")
		return Confirmation{}, errors.ErrSlotUnavailable
	}

	price, experience, err := s.resolvePrice(ctx, slot)
	if err != nil {
		metrics.TrackBooking("error")
		return Confirmation{}, err
	}

	booking := model.Booking{
		SlotID:         slot.ID,
		ExperienceID:   experience.ID,
		CustomerName:   customer.Name,
		CustomerEmail:  customer.Email,
		CustomerPhone:  customer.Phone,
		NumberOfPeople: partySize,
		TotalPrice:     price.Mul(decimal.NewFromInt(int64(partySize))),
		Status:         model.BookingStatusBooked,
	}

	created, err := s.reserve(ctx, booking)
	if err != nil {
		metrics.TrackBooking(outcome(err))
		return Confirmation{}, err
	}
	metrics.TrackBooking("created")

	s.logger.Info("booking created",
		zap.String("booking_id", created.ID),
		zap.String("slot_id", slot.ID),
		zap.String("date", slot.Date),
		zap.Int("people", created.NumberOfPeople),
		zap.String("total", created.TotalPrice.String()))

	s.notifyBooking(created, slot, experience)

	return Confirmation{
		BookingID:  created.ID,
		TotalPrice: created.TotalPrice,
		Date:       slot.Date,
		StartTime:  slot.StartTime,
		Message:    "booking confirmed",
	}, nil
}

func validateRequest(slotID string, customer model.Customer, partySize int) error {
	if strings.TrimSpace(slotID) == "" {
		return errors.Validation("slot_id is required")
	}
	if partySize < model.MinPartySize || partySize > model.MaxPartySize {
		return errors.Validation("number_of_people must be between %d and %d", model.MinPartySize, model.MaxPartySize)
	}
	return validation.Struct(customer)
}

// resolvePrice reads the per-person price from the slot's experience, or from the
// first active experience when the slot has none.
func (s *Service) resolvePrice(ctx context.Context, slot model.Slot) (decimal.Decimal, model.Experience, error) {
	experience, err := s.lookupExperience(ctx, slot.ExperienceID)
	if err == nil {
		return experience.Price, experience, nil
	}

	if !s.defaultPrice.IsPositive() {
		s.logger.Error("experience price unavailable", zap.String("slot_id", slot.ID), zap.Error(err))
		return decimal.Zero, model.Experience{}, errors.Unavailable(err)
	}

	s.logger.Warn("experience price unavailable, using default price",
		zap.String("slot_id", slot.ID),
		zap.String("default_price", s.defaultPrice.String()),
		zap.Error(err))
	metrics.TrackPriceFallback()
	return s.defaultPrice, model.Experience{}, nil
}

func (s *Service) lookupExperience(ctx context.Context, id string) (model.Experience, error) {
	if id != "" {
		return s.store.GetExperience(ctx, id)
	}
	experiences, err := s.store.ListExperiences(ctx)
	if err != nil {
		return model.Experience{}, err
	}
	if len(experiences) == 0 {
		return model.Experience{}, errors.NotFound("no active experience")
	}
	return experiences[0], nil
}

// reserve inserts the booking and closes the day. With a transactional store both
// writes commit together; otherwise a failed close deletes the booking again.
func (s *Service) reserve(ctx context.Context, booking model.Booking) (model.Booking, error) {
	if tx, ok := s.store.(database.Transactor); ok {
		var created model.Booking
		err := tx.InTx(ctx, func(ctx context.Context, store database.Store) error {
			var err error
			created, err = store.InsertBooking(ctx, booking)
			if err != nil {
				return err
			}
			return closeDay(ctx, store, booking.SlotID)
		})
		return created, err
	}

	created, err := s.store.InsertBooking(ctx, booking)
	if err != nil {
		return model.Booking{}, err
	}
	if err := closeDay(ctx, s.store, booking.SlotID); err != nil {
		if delErr := s.store.DeleteBooking(context.WithoutCancel(ctx), created.ID); delErr != nil {
			s.logger.Error("failed to delete unfinalized booking",
				zap.String("booking_id", created.ID),
				zap.Error(delErr))
		}
		return model.Booking{}, err
	}
	return created, nil
}

func closeDay(ctx context.Context, store database.SlotStore, slotID string) error {
	closed, err := store.CloseDay(ctx, slotID)
	if err != nil {
		return errors.New(errors.KindFinalization, "booking could not be finalized, please try again").Wrap(err)
	}
	if closed == 0 {
		return errors.ErrSlotUnavailable
	}
	return nil
}

func outcome(err error) string {
	switch errors.KindOf(err) {
	case errors.KindSlotUnavailable:
		return "slot_unavailable"
	case errors.KindFinalization:
		return "finalization"
	default:
		return "error"
	}
}

func (s *Service) notifyBooking(booking model.Booking, slot model.Slot, experience model.Experience) {
	if s.notifier == nil {
		return
	}
	msg, err := notify.BookingMessage(notify.BookingNotice{Booking: booking, Slot: slot, Experience: experience})
	if err != nil {
		s.logger.Warn("failed to render booking notification", zap.String("booking_id", booking.ID), zap.Error(err))
		return
	}
	s.notifier.Dispatch("booking", msg)
}

// Details returns a booking joined with its slot and experience. Missing joins are
// replaced with placeholders rather than failing the request.
func (s *Service) Details(ctx context.Context, id string) (model.BookingDetails, error) {
	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return model.BookingDetails{}, err
	}
	details := model.BookingDetails{Booking: booking}

	slot, err := s.store.GetSlot(ctx, booking.SlotID)
	if err != nil {
		s.logger.Warn("booking slot lookup failed", zap.String("booking_id", id), zap.Error(err))
		slot = placeholderSlot(booking)
	}
	details.Slot = slot

	// Bookings priced with the default carry no experience.
	details.Experience = placeholderExperience(booking)
	if booking.ExperienceID != "" {
		experience, err := s.store.GetExperience(ctx, booking.ExperienceID)
		if err != nil {
			s.logger.Warn("booking experience lookup failed", zap.String("booking_id", id), zap.Error(err))
		} else {
			details.Experience = experience
		}
	}

	return details, nil
}

func placeholderSlot(booking model.Booking) model.Slot {
	return model.Slot{ID: booking.SlotID, Date: "TBD", StartTime: "TBD"}
}

func placeholderExperience(booking model.Booking) model.Experience {
	price := booking.TotalPrice
	if booking.NumberOfPeople > 0 {
		price = price.Div(decimal.NewFromInt(int64(booking.NumberOfPeople)))
	}
	return model.Experience{
		ID:              booking.ExperienceID,
		Name:            "Ceramics experience",
		DurationMinutes: 120,
		Price:           price,
		IsActive:        true,
	}
}

// List returns the most recent bookings for the admin console.
func (s *Service) List(ctx context.Context, slotID string, limit int) ([]model.Booking, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ListBookings(ctx, database.BookingFilter{SlotID: slotID, Limit: limit})
}
