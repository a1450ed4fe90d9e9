package models

import (
	"time"

	"github.com/google/uuid"
)

// ModerationStatus is the moderation state of a testimonial.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "PENDING"
	ModerationApproved ModerationStatus = "APPROVED"
	ModerationRejected ModerationStatus = "REJECTED"
)

// WebinarSummary is a minimal webinar reference embedded in other entities.
type WebinarSummary struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	DateTime time.Time `json:"date_time"`
}

// Testimonial is a user review, optionally tied to a webinar, subject to moderation.
type Testimonial struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	WebinarID *uuid.UUID       `json:"webinar_id,omitempty"`
	Content   string           `json:"content"`
	Rating    int              `json:"rating"` // 1-5
	Status    ModerationStatus `json:"status"`
	User      *UserPublic      `json:"user,omitempty"`
	Webinar   *WebinarSummary  `json:"webinar,omitempty"`

	IsDeleted bool       `json:"-"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
