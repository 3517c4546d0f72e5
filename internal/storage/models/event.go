package models

import (
	"time"
)

// Event is a scheduled block of time for a contact. End is exclusive.
type Event struct {
	ID          string    `json:"id"`
	ContactID   string    `json:"userId"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EventWithContact is an event joined with the contact it belongs to.
type EventWithContact struct {
	Event
	Contact ContactRef `json:"user"`
}

// OwnerID returns the owner of the event, derived from its contact.
func (e *EventWithContact) OwnerID() string {
	return e.Contact.OwnerID
}
