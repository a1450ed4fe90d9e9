package models

import (
	"time"

	"github.com/google/uuid"
)

// SupportType classifies a support document.
type SupportType string

const (
	SupportSlide     SupportType = "SLIDE"
	SupportDocument  SupportType = "DOCUMENT"
	SupportRecording SupportType = "RECORDING"
	SupportOther     SupportType = "OTHER"
)

// ValidSupportType reports whether t is a known support type.
func ValidSupportType(t SupportType) bool {
	switch t {
	case SupportSlide, SupportDocument, SupportRecording, SupportOther:
		return true
	}
	return false
}

// Support is a document attached to a webinar, stored on S3.
// FileKey is the S3 object key; FileURL is a presigned URL filled on read.
type Support struct {
	ID           uuid.UUID   `json:"id"`
	Title        string      `json:"title"`
	FileKey      string      `json:"file_key"`
	FileURL      string      `json:"file_url,omitempty"`
	Type         SupportType `json:"type"`
	WebinarID    *uuid.UUID  `json:"webinar_id,omitempty"`
	UploadedByID uuid.UUID   `json:"uploaded_by_id"`

	IsDeleted bool       `json:"-"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
