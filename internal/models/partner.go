package models

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus is the review state of a partner application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationAccepted ApplicationStatus = "ACCEPTED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// PartnerApplication is a request from an external structure to partner with the platform.
type PartnerApplication struct {
	ID                      uuid.UUID         `json:"id"`
	ResponsibleFirstName    string            `json:"responsible_first_name"`
	ResponsibleLastName     string            `json:"responsible_last_name"`
	ResponsibleEmail        string            `json:"responsible_email"`
	Phone                   string            `json:"phone"`
	OccupiedPosition        string            `json:"occupied_position"`
	StructureName           string            `json:"structure_name"`
	PartnershipType         string            `json:"partnership_type"`
	ProvidedExpertise       string            `json:"provided_expertise,omitempty"`
	CollaborationExperience string            `json:"collaboration_experience,omitempty"`
	Status                  ApplicationStatus `json:"status"`
	ReviewedByID            *uuid.UUID        `json:"reviewed_by_id,omitempty"`
	ReviewNote              string            `json:"review_note,omitempty"`

	IsDeleted bool       `json:"-"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
