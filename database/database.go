package database

import (
	"context"
	"fmt"

	"ceramics-booking/config"
	"ceramics-booking/model"
)

// SlotFilter narrows ListSlots. Empty fields are ignored; date bounds are inclusive.
type SlotFilter struct {
	Date          string
	From          string
	To            string
	OnlyAvailable bool
}

// SlotTarget selects either one slot by ID or every slot of a date.
type SlotTarget struct {
	ID   string
	Date string
}

func ByID(id string) SlotTarget {
	return SlotTarget{ID: id}
}

func ByDate(date string) SlotTarget {
	return SlotTarget{Date: date}
}

type BookingFilter struct {
	SlotID string
	Limit  int
}

type ParticipantFilter struct {
	EventName string
	GroupID   string
}

type SlotStore interface {
	ListSlots(ctx context.Context, filter SlotFilter) ([]model.Slot, error)
	GetSlot(ctx context.Context, id string) (model.Slot, error)
	SetAvailability(ctx context.Context, target SlotTarget, available bool) (int64, error)
	// CloseDay marks every available slot sharing the target's date unavailable, but only
	// if the target itself is still available. Zero rows affected means the day was taken.
	// On a Transactor it is only atomic when called through InTx.
	CloseDay(ctx context.Context, slotID string) (int64, error)
	InsertSlots(ctx context.Context, drafts []model.SlotDraft) ([]model.Slot, error)
	DeleteSlot(ctx context.Context, id string) error
}

type BookingStore interface {
	InsertBooking(ctx context.Context, booking model.Booking) (model.Booking, error)
	GetBooking(ctx context.Context, id string) (model.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error)
}

type ExperienceStore interface {
	ListExperiences(ctx context.Context) ([]model.Experience, error)
	GetExperience(ctx context.Context, id string) (model.Experience, error)
}

type EventStore interface {
	InsertParticipants(ctx context.Context, participants []model.EventParticipant) ([]model.EventParticipant, error)
	ListParticipants(ctx context.Context, filter ParticipantFilter) ([]model.EventParticipant, error)
	InsertWaitlistEntry(ctx context.Context, entry model.WaitlistEntry) (model.WaitlistEntry, error)
	ListWaitlist(ctx context.Context, eventName string) ([]model.WaitlistEntry, error)
}

type Store interface {
	SlotStore
	BookingStore
	ExperienceStore
	EventStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Transactor is implemented by stores that can run several writes atomically.
// fn receives a Store bound to the transaction; returning an error rolls it back.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// Open connects to the backend selected by cfg.DBDriver.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		store, err := NewPostgresStore(ctx, cfg.DatabaseURL, cfg.DatabaseKey)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close(ctx)
			return nil, err
		}
		return store, nil
	case config.DriverMongo:
		store, err := NewMongoStore(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			store.Close(ctx)
			return nil, err
		}
		return store, nil
	case config.DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DBDriver)
	}
}
