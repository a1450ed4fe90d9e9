package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user role on the platform.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleSpeaker     Role = "SPEAKER"
	RoleModerator   Role = "MODERATOR"
	RoleParticipant Role = "PARTICIPANT"
)

// AccountStatus represents the validation state of a user account.
type AccountStatus string

const (
	AccountPendingValidation AccountStatus = "PENDING_VALIDATION"
	AccountActive            AccountStatus = "ACTIVE"
	AccountSuspended         AccountStatus = "SUSPENDED"
)

// User represents a platform user account.
type User struct {
	ID           uuid.UUID     `json:"id"`
	Email        string        `json:"email"`
	Password     string        `json:"-"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Role         Role          `json:"role"`
	Status       AccountStatus `json:"status"`
	BirthDate    *time.Time    `json:"birth_date,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	ProfileImage string        `json:"profile_image,omitempty"`
	LastLogin    *time.Time    `json:"last_login,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	ProfileImage string    `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
	}
}
