package events

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ceramics-booking/database"
	"ceramics-booking/errors"
	"ceramics-booking/model"
	"ceramics-booking/notify"
	"ceramics-booking/validation"
)

type Notifier interface {
	Dispatch(kind string, msg notify.Message)
}

type ParticipantInput struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

type GroupBookingRequest struct {
	NumberOfPeople int                `json:"numberOfPeople" validate:"gte=1,lte=10"`
	Participants   []ParticipantInput `json:"participants" validate:"required,min=1,max=10,dive"`
	Phone          string             `json:"phone" validate:"required,min=6,max=32"`
	Email          string             `json:"email" validate:"required,email"`
	EventName      string             `json:"eventName" validate:"required,max=200"`
	EventDate      string             `json:"eventDate" validate:"omitempty,max=64"`
	EventTime      string             `json:"eventTime" validate:"omitempty,max=64"`
}

type GroupBooking struct {
	GroupID         string                   `json:"groupId"`
	Participants    []model.EventParticipant `json:"participants"`
	MercadoPagoLink string                   `json:"mercadoPagoLink"`
}

// Service handles ticketed one-off events. Unlike slot bookings there is no
// same-day exclusivity here.
type Service struct {
	store       database.EventStore
	notifier    Notifier
	logger      *zap.Logger
	paymentLink string
}

func NewService(store database.EventStore, notifier Notifier, logger *zap.Logger, paymentLink string) *Service {
	return &Service{store: store, notifier: notifier, logger: logger, paymentLink: paymentLink}
}

// BookGroup stores one participant row per attendee, all sharing a new group ID.
func (s *Service) BookGroup(ctx context.Context, req GroupBookingRequest) (GroupBooking, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.EventName = strings.TrimSpace(req.EventName)
	for i := range req.Participants {
		req.Participants[i].Name = strings.TrimSpace(req.Participants[i].Name)
	}

	if err := validation.Struct(req); err != nil {
		return GroupBooking{}, err
	}
	if len(req.Participants) != req.NumberOfPeople {
		return GroupBooking{}, errors.Validation("participants must list %d names", req.NumberOfPeople)
	}

	groupID := uuid.NewString()
	participants := make([]model.EventParticipant, len(req.Participants))
	for i, p := range req.Participants {
		participants[i] = model.EventParticipant{
			GroupID:   groupID,
			EventName: req.EventName,
			EventDate: req.EventDate,
			EventTime: req.EventTime,
			Name:      p.Name,
			Email:     req.Email,
			Phone:     req.Phone,
		}
	}

	inserted, err := s.store.InsertParticipants(ctx, participants)
	if err != nil {
		return GroupBooking{}, err
	}
	s.logger.Info("event booking created",
		zap.String("group_id", groupID),
		zap.String("event", req.EventName),
		zap.Int("people", len(inserted)))

	s.notifyGroup(req, groupID)

	return GroupBooking{GroupID: groupID, Participants: inserted, MercadoPagoLink: s.paymentLink}, nil
}

func (s *Service) notifyGroup(req GroupBookingRequest, groupID string) {
	if s.notifier == nil {
		return
	}
	names := make([]string, len(req.Participants))
	for i, p := range req.Participants {
		names[i] = p.Name
	}
	msg, err := notify.EventBookingMessage(notify.EventNotice{
		GroupID:      groupID,
		EventName:    req.EventName,
		EventDate:    req.EventDate,
		EventTime:    req.EventTime,
		Email:        req.Email,
		Phone:        req.Phone,
		Participants: names,
	})
	if err != nil {
		s.logger.Warn("failed to render event notification", zap.String("group_id", groupID), zap.Error(err))
		return
	}
	s.notifier.Dispatch("event_booking", msg)
}

func (s *Service) Participants(ctx context.Context, eventName, groupID string) ([]model.EventParticipant, error) {
	return s.store.ListParticipants(ctx, database.ParticipantFilter{EventName: eventName, GroupID: groupID})
}

// JoinWaitlist registers email for eventName once.
func (s *Service) JoinWaitlist(ctx context.Context, email, eventName string) (model.WaitlistEntry, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	eventName = strings.TrimSpace(eventName)

	if err := validation.Var("email", email, "required,email"); err != nil {
		return model.WaitlistEntry{}, err
	}
	if eventName == "" {
		return model.WaitlistEntry{}, errors.Validation("eventName is required")
	}

	entry, err := s.store.InsertWaitlistEntry(ctx, model.WaitlistEntry{Email: email, EventName: eventName})
	if errors.KindOf(err) == errors.KindConflict {
		return model.WaitlistEntry{}, errors.New(errors.KindConflict, "this email is already on the waitlist for this event").Wrap(err)
	}
	if err != nil {
		return model.WaitlistEntry{}, err
	}
	s.logger.Info("waitlist entry created", zap.String("event", eventName))
	return entry, nil
}

func (s *Service) Waitlist(ctx context.Context, eventName string) ([]model.WaitlistEntry, error) {
	return s.store.ListWaitlist(ctx, eventName)
}
