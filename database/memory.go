package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ceramics-booking/errors"
	"ceramics-booking/model"
)

// MemoryStore keeps everything in process memory. It is used by tests and by
// DB_DRIVER=memory for local development.
type MemoryStore struct {
	*memoryView
	mu sync.Mutex
}

type memoryState struct {
	slots        map[string]model.Slot
	bookings     map[string]model.Booking
	experiences  map[string]model.Experience
	participants []model.EventParticipant
	waitlist     []model.WaitlistEntry
}

// memoryView implements Store over a state. The store's view locks the store mutex
// on every call, a transaction's view runs under the lock already held by InTx.
type memoryView struct {
	lock  sync.Locker
	state *memoryState
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{}
	store.memoryView = &memoryView{
		lock: &store.mu,
		state: &memoryState{
			slots:       map[string]model.Slot{},
			bookings:    map[string]model.Booking{},
			experiences: map[string]model.Experience{},
		},
	}
	return store
}

// PutExperience adds or replaces a catalog entry.
func (s *MemoryStore) PutExperience(experience model.Experience) model.Experience {
	s.mu.Lock()
	defer s.mu.Unlock()
	if experience.ID == "" {
		experience.ID = uuid.NewString()
	}
	s.state.experiences[experience.ID] = experience
	return experience
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	tx := &memoryView{lock: noopLocker{}, state: s.state}
	if err := fn(ctx, tx); err != nil {
		*s.state = snapshot
		return err
	}
	return nil
}

func (st *memoryState) clone() memoryState {
	c := memoryState{
		slots:        make(map[string]model.Slot, len(st.slots)),
		bookings:     make(map[string]model.Booking, len(st.bookings)),
		experiences:  make(map[string]model.Experience, len(st.experiences)),
		participants: append([]model.EventParticipant(nil), st.participants...),
		waitlist:     append([]model.WaitlistEntry(nil), st.waitlist...),
	}
	for k, v := range st.slots {
		c.slots[k] = v
	}
	for k, v := range st.bookings {
		c.bookings[k] = v
	}
	for k, v := range st.experiences {
		c.experiences[k] = v
	}
	return c
}

func (v *memoryView) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (v *memoryView) Close(ctx context.Context) error {
	return nil
}

func (v *memoryView) ListSlots(ctx context.Context, filter SlotFilter) ([]model.Slot, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	slots := make([]model.Slot, 0, len(v.state.slots))
	for _, slot := range v.state.slots {
		if filter.Date != "" && slot.Date != filter.Date {
			continue
		}
		if filter.From != "" && slot.Date < filter.From {
			continue
		}
		if filter.To != "" && slot.Date > filter.To {
			continue
		}
		if filter.OnlyAvailable && !slot.IsAvailable {
			continue
		}
		slots = append(slots, slot)
	}
	sortSlots(slots)
	return slots, nil
}

func sortSlots(slots []model.Slot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].StartTime < slots[j].StartTime
	})
}

func (v *memoryView) GetSlot(ctx context.Context, id string) (model.Slot, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	slot, ok := v.state.slots[id]
	if !ok {
		return model.Slot{}, errors.NotFound("slot %s not found", id)
	}
	return slot, nil
}

func (v *memoryView) SetAvailability(ctx context.Context, target SlotTarget, available bool) (int64, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	var affected int64
	now := time.Now().UTC()
	for id, slot := range v.state.slots {
		if target.ID != "" && id != target.ID {
			continue
		}
		if target.Date != "" && slot.Date != target.Date {
			continue
		}
		slot.IsAvailable = available
		slot.UpdatedAt = now
		v.state.slots[id] = slot
		affected++
	}
	return affected, nil
}

func (v *memoryView) CloseDay(ctx context.Context, slotID string) (int64, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	target, ok := v.state.slots[slotID]
	if !ok || !target.IsAvailable {
		return 0, nil
	}

	var affected int64
	now := time.Now().UTC()
	for id, slot := range v.state.slots {
		if slot.Date != target.Date || !slot.IsAvailable {
			continue
		}
		slot.IsAvailable = false
		slot.UpdatedAt = now
		v.state.slots[id] = slot
		affected++
	}
	return affected, nil
}

func (v *memoryView) InsertSlots(ctx context.Context, drafts []model.SlotDraft) ([]model.Slot, error) {
	for _, draft := range drafts {
		if err := checkDraft(draft); err != nil {
			return nil, err
		}
	}

	v.lock.Lock()
	defer v.lock.Unlock()

	now := time.Now().UTC()
	slots := make([]model.Slot, 0, len(drafts))
	for _, draft := range drafts {
		slot := model.Slot{
			ID:           uuid.NewString(),
			Date:         draft.Date,
			StartTime:    draft.StartTime,
			EndTime:      draft.EndTime,
			IsAvailable:  true,
			Capacity:     draft.Capacity,
			ExperienceID: draft.ExperienceID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		v.state.slots[slot.ID] = slot
		slots = append(slots, slot)
	}
	return slots, nil
}

// checkDraft mirrors the column constraints of available_slots.
func checkDraft(draft model.SlotDraft) error {
	if _, err := time.Parse(model.DateLayout, draft.Date); err != nil {
		return errors.Validation("invalid slot date %q", draft.Date)
	}
	if _, err := time.Parse(model.TimeLayout, draft.StartTime); err != nil {
		return errors.Validation("invalid slot time %q", draft.StartTime)
	}
	if draft.EndTime != "" {
		if _, err := time.Parse(model.TimeLayout, draft.EndTime); err != nil {
			return errors.Validation("invalid slot end time %q", draft.EndTime)
		}
	}
	if draft.Capacity != nil && *draft.Capacity < 1 {
		return errors.Validation("slot capacity must be positive")
	}
	return nil
}

func (v *memoryView) DeleteSlot(ctx context.Context, id string) error {
	v.lock.Lock()
	defer v.lock.Unlock()

	if _, ok := v.state.slots[id]; !ok {
		return errors.NotFound("slot %s not found", id)
	}
	for _, booking := range v.state.bookings {
		if booking.SlotID == id {
			return errors.New(errors.KindConflict, "slot %s has bookings", id)
		}
	}
	delete(v.state.slots, id)
	return nil
}

func (v *memoryView) InsertBooking(ctx context.Context, booking model.Booking) (model.Booking, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if _, ok := v.state.slots[booking.SlotID]; !ok {
		return model.Booking{}, errors.New(errors.KindConflict, "slot %s does not exist", booking.SlotID)
	}
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	v.state.bookings[booking.ID] = booking
	return booking, nil
}

func (v *memoryView) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	booking, ok := v.state.bookings[id]
	if !ok {
		return model.Booking{}, errors.NotFound("booking %s not found", id)
	}
	return booking, nil
}

func (v *memoryView) DeleteBooking(ctx context.Context, id string) error {
	v.lock.Lock()
	defer v.lock.Unlock()

	if _, ok := v.state.bookings[id]; !ok {
		return errors.NotFound("booking %s not found", id)
	}
	delete(v.state.bookings, id)
	return nil
}

func (v *memoryView) ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	bookings := make([]model.Booking, 0, len(v.state.bookings))
	for _, booking := range v.state.bookings {
		if filter.SlotID != "" && booking.SlotID != filter.SlotID {
			continue
		}
		bookings = append(bookings, booking)
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	if filter.Limit > 0 && len(bookings) > filter.Limit {
		bookings = bookings[:filter.Limit]
	}
	return bookings, nil
}

func (v *memoryView) ListExperiences(ctx context.Context) ([]model.Experience, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	experiences := make([]model.Experience, 0, len(v.state.experiences))
	for _, experience := range v.state.experiences {
		if experience.IsActive {
			experiences = append(experiences, experience)
		}
	}
	sort.Slice(experiences, func(i, j int) bool {
		return experiences[i].Name < experiences[j].Name
	})
	return experiences, nil
}

func (v *memoryView) GetExperience(ctx context.Context, id string) (model.Experience, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	experience, ok := v.state.experiences[id]
	if !ok {
		return model.Experience{}, errors.NotFound("experience %s not found", id)
	}
	return experience, nil
}

func (v *memoryView) InsertParticipants(ctx context.Context, participants []model.EventParticipant) ([]model.EventParticipant, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	now := time.Now().UTC()
	inserted := make([]model.EventParticipant, 0, len(participants))
	for _, participant := range participants {
		if participant.ID == "" {
			participant.ID = uuid.NewString()
		}
		participant.CreatedAt = now
		inserted = append(inserted, participant)
	}
	v.state.participants = append(v.state.participants, inserted...)
	return inserted, nil
}

func (v *memoryView) ListParticipants(ctx context.Context, filter ParticipantFilter) ([]model.EventParticipant, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	participants := []model.EventParticipant{}
	for _, participant := range v.state.participants {
		if filter.EventName != "" && participant.EventName != filter.EventName {
			continue
		}
		if filter.GroupID != "" && participant.GroupID != filter.GroupID {
			continue
		}
		participants = append(participants, participant)
	}
	return participants, nil
}

func (v *memoryView) InsertWaitlistEntry(ctx context.Context, entry model.WaitlistEntry) (model.WaitlistEntry, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	for _, existing := range v.state.waitlist {
		if strings.EqualFold(existing.Email, entry.Email) && existing.EventName == entry.EventName {
			return model.WaitlistEntry{}, errors.New(errors.KindConflict, "%s is already on the waitlist for %s", entry.Email, entry.EventName)
		}
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()
	v.state.waitlist = append(v.state.waitlist, entry)
	return entry, nil
}

func (v *memoryView) ListWaitlist(ctx context.Context, eventName string) ([]model.WaitlistEntry, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	entries := []model.WaitlistEntry{}
	for _, entry := range v.state.waitlist {
		if eventName != "" && entry.EventName != eventName {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
