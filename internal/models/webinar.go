package models

import (
	"time"

	"github.com/google/uuid"
)

// WebinarStatus is the lifecycle state of a webinar.
type WebinarStatus string

const (
	WebinarScheduled WebinarStatus = "SCHEDULED"
	WebinarOngoing   WebinarStatus = "ONGOING"
	WebinarCompleted WebinarStatus = "COMPLETED"
	WebinarCanceled  WebinarStatus = "CANCELED"
)

// ValidWebinarStatus reports whether s is a known status value.
func ValidWebinarStatus(s WebinarStatus) bool {
	switch s {
	case WebinarScheduled, WebinarOngoing, WebinarCompleted, WebinarCanceled:
		return true
	}
	return false
}

// Webinar represents one scheduled legal webinar.
type Webinar struct {
	ID            uuid.UUID     `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	DateTime      time.Time     `json:"date_time"`
	Duration      int           `json:"duration"` // minutes
	LegalTopic    string        `json:"legal_topic"`
	MaxCapacity   int           `json:"max_capacity"`
	Status        WebinarStatus `json:"status"`
	AccessLink    *string       `json:"access_link,omitempty"`
	AnimatedByID  *uuid.UUID    `json:"animated_by_id,omitempty"`
	ModeratedByID *uuid.UUID    `json:"moderated_by_id,omitempty"`
	AnimatedBy    *UserPublic   `json:"animated_by,omitempty"`
	ModeratedBy   *UserPublic   `json:"moderated_by,omitempty"`
	Collaborators []UserPublic  `json:"collaborators,omitempty"`
	Tags          []Tag         `json:"tags"`

	// TotalSubscribers counts confirmed, non-deleted registrations.
	// Populated on list responses only.
	TotalSubscribers *int `json:"total_subscribers,omitempty"`

	IsDeleted bool       `json:"-"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
