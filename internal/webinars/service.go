package webinars

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/lexwebinar/backend/internal/models"
)

var (
	// ErrNotFound means the webinar is absent or soft-deleted.
	ErrNotFound = errors.New("webinar not found")
	// ErrInvalidTransition means the requested status change is not allowed
	// by the lifecycle state machine.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrValidation wraps input validation failures.
	ErrValidation = errors.New("validation failed")
	// ErrActorNotFound means a referenced user id does not exist.
	ErrActorNotFound = errors.New("referenced user not found")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Patch is a partial webinar update. Nil fields are left untouched.
// Tags replace the full association set when ReplaceTags is true.
type Patch struct {
	Title       *string
	Description *string
	DateTime    *time.Time
	Duration    *int
	LegalTopic  *string
	MaxCapacity *int
	AccessLink  *string
	Tags        []TagRef
	ReplaceTags bool
}

// Actors is the full actor assignment for a webinar. CollaboratorIDs has
// set semantics: the given list replaces the current collaborator set.
type Actors struct {
	AnimatedByID    *uuid.UUID
	ModeratedByID   *uuid.UUID
	CollaboratorIDs []uuid.UUID
}

// Detail is a webinar with its active registrations and support documents.
type Detail struct {
	models.Webinar
	Registrations []models.Registration `json:"registrations"`
	Supports      []models.Support      `json:"supports"`
}

// Store is the persistence interface for webinars. All reads exclude
// soft-deleted rows; Get returns nil (not an error) for a missing webinar.
type Store interface {
	Create(ctx context.Context, w *models.Webinar, tags []TagRef) error
	Get(ctx context.Context, id uuid.UUID) (*models.Webinar, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*models.Webinar, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.WebinarStatus) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, page, limit int) ([]models.Webinar, int, error)
	AssignActors(ctx context.Context, id uuid.UUID, actors Actors) (*models.Webinar, error)
}

// Directory answers user existence checks for actor assignment.
type Directory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service is the webinar lifecycle manager: create/update, status state
// machine, soft-delete, tag reconciliation, and actor assignment.
type Service struct {
	store Store
	users Directory
}

// NewService creates a webinar service.
func NewService(store Store, users Directory) *Service {
	return &Service{store: store, users: users}
}

// CreateInput carries validated fields for webinar creation.
type CreateInput struct {
	Title       string
	Description string
	DateTime    time.Time
	Duration    int
	LegalTopic  string
	MaxCapacity int
	AccessLink  *string
	Status      *models.WebinarStatus
	Tags        []string
}

// UpdateInput is a partial webinar patch. A nil Tags pointer leaves tag
// associations untouched; an empty list clears them.
type UpdateInput struct {
	Title       *string
	Description *string
	DateTime    *time.Time
	Duration    *int
	LegalTopic  *string
	MaxCapacity *int
	AccessLink  *string
	Tags        *[]string
}

// Only SCHEDULED webinars may start or be canceled; only ONGOING ones may
// complete. COMPLETED and CANCELED are terminal.
var allowedTransitions = map[models.WebinarStatus][]models.WebinarStatus{
	models.WebinarScheduled: {models.WebinarOngoing, models.WebinarCanceled},
	models.WebinarOngoing:   {models.WebinarCompleted},
}

func canTransition(from, to models.WebinarStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Create validates the input, reconciles tags, and persists a new webinar.
// Status defaults to SCHEDULED unless the caller supplies one.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Webinar, error) {
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}
	if err := validateDuration(in.Duration); err != nil {
		return nil, err
	}
	if err := validateLegalTopic(in.LegalTopic); err != nil {
		return nil, err
	}
	if err := validateCapacity(in.MaxCapacity); err != nil {
		return nil, err
	}
	if in.DateTime.IsZero() {
		return nil, validationError("date_time is required")
	}
	if in.AccessLink != nil {
		if err := validateAccessLink(*in.AccessLink); err != nil {
			return nil, err
		}
	}

	status := models.WebinarScheduled
	if in.Status != nil {
		if !models.ValidWebinarStatus(*in.Status) {
			return nil, validationError("unknown status %q", *in.Status)
		}
		status = *in.Status
	}

	tags, err := reconcileTags(in.Tags)
	if err != nil {
		return nil, err
	}

	w := &models.Webinar{
		Title:       in.Title,
		Description: in.Description,
		DateTime:    in.DateTime,
		Duration:    in.Duration,
		LegalTopic:  in.LegalTopic,
		MaxCapacity: in.MaxCapacity,
		Status:      status,
		AccessLink:  in.AccessLink,
	}
	if err := s.store.Create(ctx, w, tags); err != nil {
		return nil, fmt.Errorf("create webinar: %w", err)
	}
	return w, nil
}

// Update applies a partial patch to a non-deleted webinar. When the input
// carries a tag list it becomes authoritative: existing associations are
// fully replaced, and an empty list clears them.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.Webinar, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load webinar: %w", err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	patch := Patch{
		Title:       in.Title,
		Description: in.Description,
		DateTime:    in.DateTime,
		Duration:    in.Duration,
		LegalTopic:  in.LegalTopic,
		MaxCapacity: in.MaxCapacity,
		AccessLink:  in.AccessLink,
	}
	if in.Title != nil {
		if err := validateTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		if err := validateDescription(*in.Description); err != nil {
			return nil, err
		}
	}
	if in.Duration != nil {
		if err := validateDuration(*in.Duration); err != nil {
			return nil, err
		}
	}
	if in.LegalTopic != nil {
		if err := validateLegalTopic(*in.LegalTopic); err != nil {
			return nil, err
		}
	}
	if in.MaxCapacity != nil {
		if err := validateCapacity(*in.MaxCapacity); err != nil {
			return nil, err
		}
	}
	if in.AccessLink != nil && *in.AccessLink != "" {
		if err := validateAccessLink(*in.AccessLink); err != nil {
			return nil, err
		}
	}
	if in.Tags != nil {
		tags, err := reconcileTags(*in.Tags)
		if err != nil {
			return nil, err
		}
		patch.Tags = tags
		patch.ReplaceTags = true
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update webinar: %w", err)
	}
	return updated, nil
}

// HandleStatus moves a webinar through the lifecycle state machine.
// Setting the current status again is a no-op.
func (s *Service) HandleStatus(ctx context.Context, id uuid.UUID, status models.WebinarStatus) (*models.Webinar, error) {
	if !models.ValidWebinarStatus(status) {
		return nil, validationError("unknown status %q", status)
	}
	w, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load webinar: %w", err)
	}
	if w == nil {
		return nil, ErrNotFound
	}
	if w.Status == status {
		return w, nil
	}
	if !canTransition(w.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, w.Status, status)
	}
	if err := s.store.SetStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}
	w.Status = status
	return w, nil
}

// Delete soft-deletes a webinar. The row and its registrations remain for
// audit history; all further reads and mutations see NotFound.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	w, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load webinar: %w", err)
	}
	if w == nil {
		return ErrNotFound
	}
	if err := s.store.SoftDelete(ctx, id, time.Now()); err != nil {
		return fmt.Errorf("soft delete: %w", err)
	}
	return nil
}

// FindOne returns a webinar with actors, active registrations, and active
// support documents.
func (s *Service) FindOne(ctx context.Context, id uuid.UUID) (*Detail, error) {
	d, err := s.store.GetDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load webinar: %w", err)
	}
	if d == nil {
		return nil, ErrNotFound
	}
	return d, nil
}

// FindAll returns one page of non-deleted webinars with actor details and
// per-webinar confirmed subscriber counts, newest first.
func (s *Service) FindAll(ctx context.Context, page, limit int) ([]models.Webinar, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	list, total, err := s.store.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list webinars: %w", err)
	}
	return list, total, nil
}

// AssignActors sets the presenter and moderator references and replaces the
// collaborator set. Every referenced user must exist.
func (s *Service) AssignActors(ctx context.Context, id uuid.UUID, actors Actors) (*models.Webinar, error) {
	w, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load webinar: %w", err)
	}
	if w == nil {
		return nil, ErrNotFound
	}

	check := func(userID uuid.UUID) error {
		ok, err := s.users.Exists(ctx, userID)
		if err != nil {
			return fmt.Errorf("check user %s: %w", userID, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrActorNotFound, userID)
		}
		return nil
	}
	if actors.AnimatedByID != nil {
		if err := check(*actors.AnimatedByID); err != nil {
			return nil, err
		}
	}
	if actors.ModeratedByID != nil {
		if err := check(*actors.ModeratedByID); err != nil {
			return nil, err
		}
	}
	for _, cid := range actors.CollaboratorIDs {
		if err := check(cid); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.AssignActors(ctx, id, actors)
	if err != nil {
		return nil, fmt.Errorf("assign actors: %w", err)
	}
	return updated, nil
}

func reconcileTags(names []string) ([]TagRef, error) {
	refs := BuildTagRefs(names)
	if len(refs) > MaxTagsPerWebinar {
		return nil, validationError("at most %d tags per webinar, got %d", MaxTagsPerWebinar, len(refs))
	}
	return refs, nil
}

func validateTitle(title string) error {
	if n := len([]rune(title)); n < 3 || n > 100 {
		return validationError("title must be 3-100 characters")
	}
	return nil
}

func validateDescription(desc string) error {
	if n := len([]rune(desc)); n < 10 || n > 500 {
		return validationError("description must be 10-500 characters")
	}
	return nil
}

func validateDuration(minutes int) error {
	if minutes < 15 || minutes > 480 {
		return validationError("duration must be 15-480 minutes")
	}
	return nil
}

func validateLegalTopic(topic string) error {
	if n := len([]rune(topic)); n < 2 || n > 50 {
		return validationError("legal_topic must be 2-50 characters")
	}
	return nil
}

func validateCapacity(capacity int) error {
	if capacity < 1 || capacity > 1000 {
		return validationError("max_capacity must be 1-1000")
	}
	return nil
}

func validateAccessLink(link string) error {
	u, err := url.Parse(link)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return validationError("access_link must be a valid http(s) URL")
	}
	return nil
}
