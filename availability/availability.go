package availability

import (
	"context"
	"time"

	"ceramics-booking/database"
	"ceramics-booking/errors"
	"ceramics-booking/model"
)

type Status string

const (
	// StatusDisabled covers days without slots and days in the past.
	StatusDisabled  Status = "disabled"
	StatusAvailable Status = "available"
	StatusSoldOut   Status = "sold_out"

	defaultRangeDays = 60
	maxRangeDays     = 366
)

type DayAvailability struct {
	HasAny       bool `json:"has_any"`
	HasAvailable bool `json:"has_available"`
}

// Calendar maps a YYYY-MM-DD date to what its slots allow.
type Calendar map[string]DayAvailability

// ProjectCalendar summarises slots per date.
func ProjectCalendar(slots []model.Slot) Calendar {
	calendar := Calendar{}
	for _, slot := range slots {
		day := calendar[slot.Date]
		day.HasAny = true
		day.HasAvailable = day.HasAvailable || slot.IsAvailable
		calendar[slot.Date] = day
	}
	return calendar
}

// Status returns how day should be shown when the current date is today.
func (c Calendar) Status(day, today string) Status {
	if day < today {
		return StatusDisabled
	}
	availability, ok := c[day]
	switch {
	case !ok || !availability.HasAny:
		return StatusDisabled
	case availability.HasAvailable:
		return StatusAvailable
	default:
		return StatusSoldOut
	}
}

type DaySlots struct {
	Date        string       `json:"date"`
	Available   []model.Slot `json:"available"`
	Unavailable []model.Slot `json:"unavailable"`
}

// SlotsForDate partitions the slots of date, keeping their order.
func SlotsForDate(slots []model.Slot, date string) DaySlots {
	day := DaySlots{Date: date, Available: []model.Slot{}, Unavailable: []model.Slot{}}
	for _, slot := range slots {
		if slot.Date != date {
			continue
		}
		if slot.IsAvailable {
			day.Available = append(day.Available, slot)
		} else {
			day.Unavailable = append(day.Unavailable, slot)
		}
	}
	return day
}

type CalendarDay struct {
	Date   string `json:"date"`
	Status Status `json:"status"`
	DayAvailability
}

// Days lists every date between from and to inclusive with its status.
func (c Calendar) Days(from, to time.Time, today string) []CalendarDay {
	var days []CalendarDay
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		date := d.Format(model.DateLayout)
		days = append(days, CalendarDay{
			Date:            date,
			Status:          c.Status(date, today),
			DayAvailability: c[date],
		})
	}
	return days
}

// Service reads slots from the store and projects them for the public calendar.
type Service struct {
	slots database.SlotStore
	now   func() time.Time
}

func NewService(slots database.SlotStore) *Service {
	return &Service{slots: slots, now: time.Now}
}

// Calendar returns day statuses for [from, to]. Empty bounds default to today and
// the following two months.
func (s *Service) Calendar(ctx context.Context, from, to string) ([]CalendarDay, error) {
	today := s.now().Format(model.DateLayout)
	start, end, err := parseRange(from, to, today)
	if err != nil {
		return nil, err
	}

	slots, err := s.slots.ListSlots(ctx, database.SlotFilter{
		From: start.Format(model.DateLayout),
		To:   end.Format(model.DateLayout),
	})
	if err != nil {
		return nil, err
	}
	return ProjectCalendar(slots).Days(start, end, today), nil
}

func (s *Service) Day(ctx context.Context, date string) (DaySlots, error) {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return DaySlots{}, errors.Validation("date must be YYYY-MM-DD")
	}
	slots, err := s.slots.ListSlots(ctx, database.SlotFilter{Date: date})
	if err != nil {
		return DaySlots{}, err
	}
	return SlotsForDate(slots, date), nil
}

func parseRange(from, to, today string) (time.Time, time.Time, error) {
	if from == "" {
		from = today
	}
	start, err := time.Parse(model.DateLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Validation("from must be YYYY-MM-DD")
	}

	end := start.AddDate(0, 0, defaultRangeDays)
	if to != "" {
		if end, err = time.Parse(model.DateLayout, to); err != nil {
			return time.Time{}, time.Time{}, errors.Validation("to must be YYYY-MM-DD")
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.Validation("to must not be before from")
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, errors.Validation("range must not exceed %d days", maxRangeDays)
	}
	return start, end, nil
}
