package models

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationStatus is the state of a user's webinar registration.
type RegistrationStatus string

const (
	RegistrationConfirmed RegistrationStatus = "CONFIRMED"
	RegistrationCanceled  RegistrationStatus = "CANCELED"
)

// Registration is one user's claim on a seat in a webinar.
// Canceled registrations are soft-deleted and kept for audit history.
type Registration struct {
	ID           uuid.UUID          `json:"id"`
	WebinarID    uuid.UUID          `json:"webinar_id"`
	UserID       uuid.UUID          `json:"user_id"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt time.Time          `json:"registered_at"`
	User         *UserPublic        `json:"user,omitempty"`

	IsDeleted bool       `json:"-"`
	DeletedAt *time.Time `json:"-"`
}
