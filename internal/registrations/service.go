package registrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lexwebinar/backend/internal/models"
)

var (
	// ErrWebinarNotFound means the webinar is absent or soft-deleted.
	ErrWebinarNotFound = errors.New("webinar not found")
	// ErrUserNotFound means the user to register does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrRegistrationNotFound means no active registration matches.
	ErrRegistrationNotFound = errors.New("registration not found")
	// ErrNotOpen means the webinar is not accepting registrations.
	ErrNotOpen = errors.New("webinar is not open for registration")
	// ErrCapacityFull means all seats are taken.
	ErrCapacityFull = errors.New("webinar is at full capacity")
	// ErrAlreadyRegistered means the user already holds an active registration.
	ErrAlreadyRegistered = errors.New("user is already registered")
	// ErrAlreadyCanceled means the registration was canceled before.
	ErrAlreadyCanceled = errors.New("registration is already canceled")
)

// WebinarSeat is the slice of a webinar the registration flow needs.
type WebinarSeat struct {
	ID          uuid.UUID
	Title       string
	DateTime    time.Time
	MaxCapacity int
	Status      models.WebinarStatus
}

// Stats summarizes seat usage for one webinar.
type Stats struct {
	WebinarID      uuid.UUID `json:"webinar_id"`
	MaxCapacity    int       `json:"max_capacity"`
	Confirmed      int       `json:"confirmed"`
	Canceled       int       `json:"canceled"`
	SeatsRemaining int       `json:"seats_remaining"`
}

// Store is the persistence interface for registrations. Tx runs fn against a
// Store bound to one database transaction; GetWebinarForUpdate must lock the
// webinar row for the duration of that transaction.
type Store interface {
	Tx(ctx context.Context, fn func(Store) error) error
	GetWebinar(ctx context.Context, webinarID uuid.UUID) (*WebinarSeat, error)
	GetWebinarForUpdate(ctx context.Context, webinarID uuid.UUID) (*WebinarSeat, error)
	CountActiveConfirmed(ctx context.Context, webinarID uuid.UUID) (int, error)
	GetActive(ctx context.Context, webinarID, userID uuid.UUID) (*models.Registration, error)
	GetLatest(ctx context.Context, webinarID, userID uuid.UUID) (*models.Registration, error)
	Create(ctx context.Context, reg *models.Registration) error
	Cancel(ctx context.Context, id uuid.UUID, at time.Time) error
	ListAll(ctx context.Context, page, limit int) ([]models.Registration, int, error)
	ListByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Registration, error)
	CountByStatus(ctx context.Context, webinarID uuid.UUID, status models.RegistrationStatus) (int, error)
}

// Directory answers user existence checks.
type Directory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service manages webinar registrations: capacity-bounded registration,
// cancellation, and seat accounting.
type Service struct {
	store Store
	users Directory
}

// NewService creates a registration service.
func NewService(store Store, users Directory) *Service {
	return &Service{store: store, users: users}
}

// Result carries the registration together with its webinar, so callers can
// build notifications without a second load.
type Result struct {
	Registration *models.Registration
	Webinar      *WebinarSeat
}

// Register books a seat for userID on the webinar. The whole check-then-insert
// sequence runs in one transaction with the webinar row locked, so two
// concurrent requests for the last seat cannot both succeed.
func (s *Service) Register(ctx context.Context, webinarID, userID uuid.UUID) (*Result, error) {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}

	var out Result
	err = s.store.Tx(ctx, func(tx Store) error {
		w, err := tx.GetWebinarForUpdate(ctx, webinarID)
		if err != nil {
			return fmt.Errorf("load webinar: %w", err)
		}
		if w == nil {
			return ErrWebinarNotFound
		}
		if w.Status != models.WebinarScheduled {
			return ErrNotOpen
		}

		existing, err := tx.GetActive(ctx, webinarID, userID)
		if err != nil {
			return fmt.Errorf("check existing registration: %w", err)
		}
		if existing != nil {
			return ErrAlreadyRegistered
		}

		confirmed, err := tx.CountActiveConfirmed(ctx, webinarID)
		if err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		if confirmed >= w.MaxCapacity {
			return ErrCapacityFull
		}

		reg := &models.Registration{
			WebinarID: webinarID,
			UserID:    userID,
			Status:    models.RegistrationConfirmed,
		}
		if err := tx.Create(ctx, reg); err != nil {
			return err
		}
		out.Registration = reg
		out.Webinar = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Unregister cancels the user's active registration on the webinar. The row
// is soft-deleted, which frees the seat and allows re-registering later.
func (s *Service) Unregister(ctx context.Context, webinarID, userID uuid.UUID) (*Result, error) {
	var out Result
	err := s.store.Tx(ctx, func(tx Store) error {
		w, err := tx.GetWebinarForUpdate(ctx, webinarID)
		if err != nil {
			return fmt.Errorf("load webinar: %w", err)
		}
		if w == nil {
			return ErrWebinarNotFound
		}

		reg, err := tx.GetLatest(ctx, webinarID, userID)
		if err != nil {
			return fmt.Errorf("load registration: %w", err)
		}
		if reg == nil {
			return ErrRegistrationNotFound
		}
		if reg.Status == models.RegistrationCanceled {
			return ErrAlreadyCanceled
		}

		now := time.Now()
		if err := tx.Cancel(ctx, reg.ID, now); err != nil {
			return fmt.Errorf("cancel registration: %w", err)
		}
		reg.Status = models.RegistrationCanceled
		reg.IsDeleted = true
		reg.DeletedAt = &now
		out.Registration = reg
		out.Webinar = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindAll returns one page of registrations across all webinars.
func (s *Service) FindAll(ctx context.Context, page, limit int) ([]models.Registration, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.store.ListAll(ctx, page, limit)
}

// FindByWebinar returns the active registrations of one webinar with user
// details.
func (s *Service) FindByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Registration, error) {
	w, err := s.store.GetWebinar(ctx, webinarID)
	if err != nil {
		return nil, fmt.Errorf("load webinar: %w", err)
	}
	if w == nil {
		return nil, ErrWebinarNotFound
	}
	return s.store.ListByWebinar(ctx, webinarID)
}

// GetStats returns seat usage for one webinar.
func (s *Service) GetStats(ctx context.Context, webinarID uuid.UUID) (*Stats, error) {
	w, err := s.store.GetWebinar(ctx, webinarID)
	if err != nil {
		return nil, fmt.Errorf("load webinar: %w", err)
	}
	if w == nil {
		return nil, ErrWebinarNotFound
	}
	confirmed, err := s.store.CountActiveConfirmed(ctx, webinarID)
	if err != nil {
		return nil, err
	}
	canceled, err := s.store.CountByStatus(ctx, webinarID, models.RegistrationCanceled)
	if err != nil {
		return nil, err
	}
	remaining := w.MaxCapacity - confirmed
	if remaining < 0 {
		remaining = 0
	}
	return &Stats{
		WebinarID:      webinarID,
		MaxCapacity:    w.MaxCapacity,
		Confirmed:      confirmed,
		Canceled:       canceled,
		SeatsRemaining: remaining,
	}, nil
}
