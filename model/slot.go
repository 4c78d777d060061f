package model

import "time"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Slot is one bookable time window. IsAvailable is the only source of truth for bookability.
type Slot struct {
	ID           string    `json:"id" bson:"_id"`
	Date         string    `json:"date" bson:"date"`
	StartTime    string    `json:"start_time" bson:"start_time"`
	EndTime      string    `json:"end_time,omitempty" bson:"end_time,omitempty"`
	IsAvailable  bool      `json:"is_available" bson:"is_available"`
	Capacity     *int      `json:"capacity,omitempty" bson:"capacity,omitempty"`
	Occupancy    *int      `json:"current_occupancy,omitempty" bson:"current_occupancy,omitempty"`
	ExperienceID string    `json:"experience_id,omitempty" bson:"experience_id,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// SlotDraft is a slot that has not been persisted yet.
type SlotDraft struct {
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime      string `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`
	Capacity     *int   `json:"capacity,omitempty" validate:"omitempty,gte=1"`
	ExperienceID string `json:"experience_id,omitempty"`
}

// Day parses the slot date.
func (s Slot) Day() (time.Time, error) {
	return time.Parse(DateLayout, s.Date)
}
