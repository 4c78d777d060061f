package model

import "time"

// EventParticipant is one attendee of a group booking for a ticketed event.
// Participants booked together share a GroupID.
type EventParticipant struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	EventName string    `json:"event_name"`
	EventDate string    `json:"event_date"`
	EventTime string    `json:"event_time"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

type WaitlistEntry struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	EventName string    `json:"event_name"`
	CreatedAt time.Time `json:"created_at"`
}
