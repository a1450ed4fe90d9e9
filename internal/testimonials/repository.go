package testimonials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexwebinar/backend/internal/models"
)

// Repository handles testimonial persistence on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a testimonial repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListFilter narrows testimonial listings. Zero values mean no filter.
type ListFilter struct {
	Status    models.ModerationStatus
	UserID    *uuid.UUID
	WebinarID *uuid.UUID
	Search    string
}

// WebinarExists reports whether a non-deleted webinar with the id exists.
func (r *Repository) WebinarExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM webinars WHERE id = $1 AND NOT is_deleted)`, id).Scan(&ok)
	return ok, err
}

// Create inserts a testimonial with status PENDING.
func (r *Repository) Create(ctx context.Context, t *models.Testimonial) error {
	const q = `INSERT INTO testimonials (user_id, webinar_id, content, rating, status)
		VALUES ($1, $2, $3, $4, 'PENDING')
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, t.UserID, t.WebinarID, t.Content, t.Rating).
		Scan(&t.ID, &t.Status, &t.CreatedAt, &t.UpdatedAt)
}

const selectTestimonial = `SELECT t.id, t.user_id, t.webinar_id, t.content, t.rating, t.status, t.created_at, t.updated_at,
		u.id, u.email, u.first_name, u.last_name, u.role, COALESCE(u.profile_image,''), u.created_at,
		w.id, w.title, w.date_time
	FROM testimonials t
	JOIN users u ON u.id = t.user_id
	LEFT JOIN webinars w ON w.id = t.webinar_id AND NOT w.is_deleted`

func scanTestimonial(row pgx.Row) (*models.Testimonial, error) {
	var t models.Testimonial
	var u models.UserPublic
	var wID *uuid.UUID
	var wTitle *string
	var wDateTime *time.Time
	err := row.Scan(&t.ID, &t.UserID, &t.WebinarID, &t.Content, &t.Rating, &t.Status, &t.CreatedAt, &t.UpdatedAt,
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.ProfileImage, &u.CreatedAt,
		&wID, &wTitle, &wDateTime)
	if err != nil {
		return nil, err
	}
	t.User = &u
	if wID != nil {
		t.Webinar = &models.WebinarSummary{ID: *wID, Title: *wTitle, DateTime: *wDateTime}
	}
	return &t, nil
}

// GetByID returns a non-deleted testimonial with author and webinar summary,
// or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Testimonial, error) {
	t, err := scanTestimonial(r.pool.QueryRow(ctx,
		selectTestimonial+` WHERE t.id = $1 AND NOT t.is_deleted`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// List returns one page of non-deleted testimonials matching the filter,
// newest first.
func (r *Repository) List(ctx context.Context, f ListFilter, page, limit int) ([]models.Testimonial, int, error) {
	where := []string{"NOT t.is_deleted"}
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("t.status = $%d", string(f.Status))
	}
	if f.UserID != nil {
		add("t.user_id = $%d", *f.UserID)
	}
	if f.WebinarID != nil {
		add("t.webinar_id = $%d", *f.WebinarID)
	}
	if f.Search != "" {
		add("t.content ILIKE $%d", "%"+f.Search+"%")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM testimonials t WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	q := fmt.Sprintf(selectTestimonial+` WHERE %s ORDER BY t.created_at DESC LIMIT $%d OFFSET $%d`,
		cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []models.Testimonial{}
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *t)
	}
	return list, total, rows.Err()
}

// SetStatus moderates a testimonial. Returns pgx.ErrNoRows when absent.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status models.ModerationStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE testimonials SET status = $1, updated_at = NOW() WHERE id = $2 AND NOT is_deleted`,
		string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SoftDelete hides the testimonial from all further reads.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE testimonials SET is_deleted = TRUE, deleted_at = $1, updated_at = NOW()
		WHERE id = $2 AND NOT is_deleted`, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
