// Package models contains the domain models for the application.
package models

import (
	"time"
)

// Owner is an authenticated account that owns contacts and, through them, events.
type Owner struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Role         string    `json:"role"`
	Active       bool      `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Owner role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
