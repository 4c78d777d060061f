package availability

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ceramics-booking/database"
	"ceramics-booking/errors"
	"ceramics-booking/model"
)

func slot(date, start string, available bool) model.Slot {
	return model.Slot{ID: date + "T" + start, Date: date, StartTime: start, IsAvailable: available}
}

func TestProjectCalendar(t *testing.T) {
	calendar := ProjectCalendar([]model.Slot{
		slot("2025-08-10", "09:00", true),
		slot("2025-08-10", "14:00", false),
		slot("2025-08-11", "09:00", false),
	})

	assert.Equal(t, DayAvailability{HasAny: true, HasAvailable: true}, calendar["2025-08-10"])
	assert.Equal(t, DayAvailability{HasAny: true, HasAvailable: false}, calendar["2025-08-11"])
	_, ok := calendar["2025-08-12"]
	assert.False(t, ok)
}

func TestStatusDistinguishesEmptyFromSoldOut(t *testing.T) {
	calendar := ProjectCalendar([]model.Slot{
		slot("2025-08-09", "09:00", true),
		slot("2025-08-10", "09:00", true),
		slot("2025-08-11", "09:00", false),
	})
	today := "2025-08-10"

	tests := []struct {
		day    string
		status Status
	}{
		{"2025-08-09", StatusDisabled},
		{"2025-08-10", StatusAvailable},
		{"2025-08-11", StatusSoldOut},
		{"2025-08-12", StatusDisabled},
	}
	for _, test := range tests {
		assert.Equalf(t, test.status, calendar.Status(test.day, today), test.day)
	}
}

func TestSlotsForDatePreservesOrder(t *testing.T) {
	day := SlotsForDate([]model.Slot{
		slot("2025-08-10", "09:00", false),
		slot("2025-08-10", "11:00", true),
		slot("2025-08-11", "10:00", true),
		slot("2025-08-10", "14:00", true),
	}, "2025-08-10")

	require.Len(t, day.Available, 2)
	assert.Equal(t, "11:00", day.Available[0].StartTime)
	assert.Equal(t, "14:00", day.Available[1].StartTime)
	require.Len(t, day.Unavailable, 1)
	assert.Equal(t, "09:00", day.Unavailable[0].StartTime)
}

func TestServiceCalendar(t *testing.T) {
	store := database.NewMemoryStore()
	_, err := store.InsertSlots(context.Background(), []model.SlotDraft{
		{Date: "2025-08-10", StartTime: "09:00"},
		{Date: "2025-08-12", StartTime: "09:00"},
	})
	require.NoError(t, err)
	_, err = store.SetAvailability(context.Background(), database.ByDate("2025-08-12"), false)
	require.NoError(t, err)

	service := NewService(store)
	service.now = func() time.Time { return time.Date(2025, 8, 10, 8, 0, 0, 0, time.UTC) }

	days, err := service.Calendar(context.Background(), "", "2025-08-12")
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, StatusAvailable, days[0].Status)
	assert.Equal(t, StatusDisabled, days[1].Status)
	assert.Equal(t, StatusSoldOut, days[2].Status)
	assert.True(t, days[2].HasAny)
}

func TestServiceCalendarRejectsBadRange(t *testing.T) {
	service := NewService(database.NewMemoryStore())

	_, err := service.Calendar(context.Background(), "2025-08-10", "2025-08-01")
	assert.True(t, stderrors.Is(err, errors.ErrValidation))

	_, err = service.Calendar(context.Background(), "10/08/2025", "")
	assert.True(t, stderrors.Is(err, errors.ErrValidation))

	_, err = service.Calendar(context.Background(), "2025-01-01", "2026-06-01")
	assert.True(t, stderrors.Is(err, errors.ErrValidation))
}
