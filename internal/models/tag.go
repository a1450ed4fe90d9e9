package models

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a normalized topical label attached to webinars.
// Slug is unique; two names that normalize to the same slug are the same tag.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}
