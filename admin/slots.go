package admin

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"ceramics-booking/database"
	"ceramics-booking/errors"
	"ceramics-booking/metrics"
	"ceramics-booking/model"
	"ceramics-booking/validation"
)

const maxBatchDays = 366

type WeekdayPattern struct {
	Enabled bool     `json:"enabled"`
	Times   []string `json:"times"`
}

// BatchRequest describes slots to generate. Pattern keys are weekday names
// ("monday", "mon") or numbers with 0 for Sunday.
type BatchRequest struct {
	StartDate    string                    `json:"start_date"`
	EndDate      string                    `json:"end_date"`
	Pattern      map[string]WeekdayPattern `json:"pattern"`
	EndTime      string                    `json:"end_time,omitempty"`
	Capacity     *int                      `json:"capacity,omitempty"`
	ExperienceID string                    `json:"experience_id,omitempty"`
}

type SlotManager struct {
	slots  database.SlotStore
	logger *zap.Logger
}

func NewSlotManager(slots database.SlotStore, logger *zap.Logger) *SlotManager {
	return &SlotManager{slots: slots, logger: logger}
}

func (m *SlotManager) List(ctx context.Context, filter database.SlotFilter) ([]model.Slot, error) {
	return m.slots.ListSlots(ctx, filter)
}

func (m *SlotManager) AddSlot(ctx context.Context, draft model.SlotDraft) (model.Slot, error) {
	if err := validation.Struct(draft); err != nil {
		return model.Slot{}, err
	}
	slots, err := m.slots.InsertSlots(ctx, []model.SlotDraft{draft})
	if err != nil {
		return model.Slot{}, err
	}
	if len(slots) != 1 {
		return model.Slot{}, errors.New(errors.KindInternal, "slot insert returned %d rows", len(slots))
	}
	metrics.TrackSlotsCreated(1)
	m.logger.Info("slot created", zap.String("slot_id", slots[0].ID), zap.String("date", draft.Date), zap.String("time", draft.StartTime))
	return slots[0], nil
}

// ToggleAvailability flips the availability flag of one slot.
func (m *SlotManager) ToggleAvailability(ctx context.Context, id string) (model.Slot, error) {
	slot, err := m.slots.GetSlot(ctx, id)
	if err != nil {
		return model.Slot{}, err
	}
	affected, err := m.slots.SetAvailability(ctx, database.ByID(id), !slot.IsAvailable)
	if err != nil {
		return model.Slot{}, err
	}
	if affected == 0 {
		return model.Slot{}, errors.NotFound("slot %s not found", id)
	}
	m.logger.Info("slot availability toggled", zap.String("slot_id", id), zap.Bool("available", !slot.IsAvailable))
	return m.slots.GetSlot(ctx, id)
}

func (m *SlotManager) DeleteSlot(ctx context.Context, id string) error {
	if err := m.slots.DeleteSlot(ctx, id); err != nil {
		return err
	}
	m.logger.Info("slot deleted", zap.String("slot_id", id))
	return nil
}

// BatchCreate generates the slots described by req and inserts them in one call.
func (m *SlotManager) BatchCreate(ctx context.Context, req BatchRequest) ([]model.Slot, error) {
	drafts, err := PlanBatch(req)
	if err != nil {
		return nil, err
	}
	slots, err := m.slots.InsertSlots(ctx, drafts)
	if err != nil {
		return nil, err
	}
	metrics.TrackSlotsCreated(len(slots))
	m.logger.Info("slots batch created",
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
		zap.Int("count", len(slots)))
	return slots, nil
}

// PlanBatch expands req into one draft per (day, time) whose weekday is enabled.
func PlanBatch(req BatchRequest) ([]model.SlotDraft, error) {
	if req.StartDate == "" || req.EndDate == "" {
		return nil, errors.Validation("start_date and end_date are required")
	}
	start, err := time.Parse(model.DateLayout, req.StartDate)
	if err != nil {
		return nil, errors.Validation("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(model.DateLayout, req.EndDate)
	if err != nil {
		return nil, errors.Validation("end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, errors.Validation("end_date must not be before start_date")
	}
	if end.Sub(start) > maxBatchDays*24*time.Hour {
		return nil, errors.Validation("date range must not exceed %d days", maxBatchDays)
	}
	if req.EndTime != "" {
		if err := validation.Var("end_time", req.EndTime, "datetime=15:04"); err != nil {
			return nil, err
		}
	}

	times, err := weekdayTimes(req.Pattern)
	if err != nil {
		return nil, err
	}
	if len(times) == 0 {
		return nil, errors.Validation("enable at least one weekday with a start time")
	}

	var drafts []model.SlotDraft
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for _, startTime := range times[day.Weekday()] {
			drafts = append(drafts, model.SlotDraft{
				Date:         day.Format(model.DateLayout),
				StartTime:    startTime,
				EndTime:      req.EndTime,
				Capacity:     req.Capacity,
				ExperienceID: req.ExperienceID,
			})
		}
	}
	if len(drafts) == 0 {
		return nil, errors.New(errors.KindEmptyResult, "no enabled weekday falls between %s and %s", req.StartDate, req.EndDate)
	}
	return drafts, nil
}

// weekdayTimes keeps enabled weekdays that have times, sorted and without duplicates.
func weekdayTimes(pattern map[string]WeekdayPattern) (map[time.Weekday][]string, error) {
	times := map[time.Weekday][]string{}
	for key, day := range pattern {
		weekday, err := parseWeekday(key)
		if err != nil {
			return nil, err
		}
		if !day.Enabled || len(day.Times) == 0 {
			continue
		}

		seen := map[string]bool{}
		for _, t := range day.Times {
			t = strings.TrimSpace(t)
			if err := validation.Var("times", t, "datetime=15:04"); err != nil {
				return nil, err
			}
			if !seen[t] {
				seen[t] = true
				times[weekday] = append(times[weekday], t)
			}
		}
		sort.Strings(times[weekday])
	}
	return times, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

func parseWeekday(key string) (time.Weekday, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if weekday, ok := weekdayNames[key]; ok {
		return weekday, nil
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, errors.Validation("unknown weekday %q", key)
}
