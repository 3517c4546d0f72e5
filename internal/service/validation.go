package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/roster-scheduler/backend/internal/apperr"
	"github.com/roster-scheduler/backend/internal/schedule"
	"github.com/roster-scheduler/backend/internal/storage"
)

const (
	nameMinLen        = 2
	nameMaxLen        = 50
	titleMinLen       = 3
	titleMaxLen       = 100
	descriptionMaxLen = 500
	passwordMinLen    = 6
	passwordMaxLen    = 100
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9][\d\s\-()]{7,15}$`)
)

// validator collects field failures in input order.
type validator struct {
	fields []apperr.FieldError
}

func (v *validator) add(field, message string) {
	v.fields = append(v.fields, apperr.FieldError{Field: field, Message: message})
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return apperr.Validation(v.fields...)
}

func (v *validator) length(field, label, value string, min, max int, required bool) {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0 && required:
		v.add(field, label+" is required")
	case n == 0:
	case n < min || n > max:
		v.add(field, fmt.Sprintf("%s must be between %d and %d characters", label, min, max))
	}
}

func (v *validator) email(field, value string) {
	switch {
	case value == "":
		v.add(field, "Email is required")
	case !emailPattern.MatchString(value):
		v.add(field, "Email must be valid")
	}
}

func (v *validator) password(field, label, value string) {
	n := utf8.RuneCountInString(value)
	if n < passwordMinLen || n > passwordMaxLen {
		v.add(field, fmt.Sprintf("%s must be between %d and %d characters", label, passwordMinLen, passwordMaxLen))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// optional trims s and maps blank values to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// ContactInput is the writable part of a contact.
type ContactInput struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
}

func (in *ContactInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	in.PhoneNumber = optional(in.PhoneNumber)
}

func (in *ContactInput) validate() error {
	var v validator
	v.length("firstName", "First name", in.FirstName, nameMinLen, nameMaxLen, true)
	v.length("lastName", "Last name", in.LastName, nameMinLen, nameMaxLen, false)
	v.email("email", in.Email)
	if in.PhoneNumber != nil && !phonePattern.MatchString(*in.PhoneNumber) {
		v.add("phoneNumber", "Phone number must be valid")
	}
	return v.err()
}

// EventInput is the writable part of an event. ContactID is serialized as
// userId.
type EventInput struct {
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	ContactID   string    `json:"userId"`
}

func (in *EventInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = optional(in.Description)
	in.ContactID = strings.TrimSpace(in.ContactID)
	if !in.StartDate.IsZero() {
		in.StartDate = in.StartDate.UTC()
	}
	if !in.EndDate.IsZero() {
		in.EndDate = in.EndDate.UTC()
	}
}

// validate checks the event fields. When now is non-zero a start before now
// is rejected.
func (in *EventInput) validate(now time.Time) error {
	var v validator
	v.length("title", "Title", in.Title, titleMinLen, titleMaxLen, true)
	if in.Description != nil && utf8.RuneCountInString(*in.Description) > descriptionMaxLen {
		v.add("description", fmt.Sprintf("Description cannot exceed %d characters", descriptionMaxLen))
	}

	// Stored instants have whole-second precision, so finer input is refused.
	switch {
	case in.StartDate.IsZero():
		v.add("startDate", "Start date is required")
	case in.StartDate.Nanosecond() != 0:
		v.add("startDate", "Start date must not contain fractional seconds")
	case !now.IsZero() && in.StartDate.Before(dbTime(now)):
		v.add("startDate", "Start date cannot be in the past")
	}
	switch {
	case in.EndDate.IsZero():
		v.add("endDate", "End date is required")
	case in.EndDate.Nanosecond() != 0:
		v.add("endDate", "End date must not contain fractional seconds")
	case !in.StartDate.IsZero() && !(schedule.Interval{Start: in.StartDate, End: in.EndDate}).Valid():
		v.add("endDate", "End date must be after start date")
	}

	switch {
	case in.ContactID == "":
		v.add("userId", "User ID is required")
	case !storage.IsValidID(in.ContactID):
		v.add("userId", "User ID must be a valid ID")
	}
	return v.err()
}

// RegisterInput creates an owner account.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (in *RegisterInput) validate() error {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	var v validator
	v.length("firstName", "First name", in.FirstName, nameMinLen, nameMaxLen, true)
	v.length("lastName", "Last name", in.LastName, nameMinLen, nameMaxLen, false)
	v.email("email", in.Email)
	v.password("password", "Password", in.Password)
	return v.err()
}

// LoginInput carries credentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *LoginInput) validate() error {
	in.Email = normalizeEmail(in.Email)

	var v validator
	v.email("email", in.Email)
	if in.Password == "" {
		v.add("password", "Password is required")
	}
	return v.err()
}

// ProfileInput updates an owner's own profile.
type ProfileInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (in *ProfileInput) normalize() {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
}

func (in *ProfileInput) check(v *validator) {
	v.length("firstName", "First name", in.FirstName, nameMinLen, nameMaxLen, true)
	v.length("lastName", "Last name", in.LastName, nameMinLen, nameMaxLen, false)
	v.email("email", in.Email)
}

func (in *ProfileInput) validate() error {
	in.normalize()
	var v validator
	in.check(&v)
	return v.err()
}

// ChangePasswordInput updates the profile and replaces the password.
type ChangePasswordInput struct {
	ProfileInput
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (in *ChangePasswordInput) validate() error {
	in.normalize()
	var v validator
	in.check(&v)
	if in.CurrentPassword == "" {
		v.add("currentPassword", "Current password is required")
	}
	v.password("newPassword", "New password", in.NewPassword)
	return v.err()
}
