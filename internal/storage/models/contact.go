package models

import (
	"time"
)

// Contact is a person on an owner's roster. Events are scheduled against contacts.
type Contact struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	PhoneNumber *string   `json:"phoneNumber,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ContactWithStats is a contact annotated with its event statistics.
type ContactWithStats struct {
	Contact
	EventsCount   int        `json:"eventsCount"`
	NextEventDate *time.Time `json:"nextEventDate"`
}

// ContactProfile is a contact together with all of its events.
type ContactProfile struct {
	User   Contact `json:"user"`
	Events []Event `json:"events"`
}

// ContactRef is the subset of contact fields embedded in event responses.
type ContactRef struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	OwnerID   string `json:"-"`
}
