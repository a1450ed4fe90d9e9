package supports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexwebinar/backend/internal/models"
)

// Repository handles support document metadata on PostgreSQL. The files
// themselves live on S3 under the key stored in file_key.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a support repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WebinarExists reports whether a non-deleted webinar with the id exists.
func (r *Repository) WebinarExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM webinars WHERE id = $1 AND NOT is_deleted)`, id).Scan(&ok)
	return ok, err
}

// Create inserts a support row with a caller-generated id, so the S3 object
// key can embed the id before the row exists.
func (r *Repository) Create(ctx context.Context, s *models.Support) error {
	const q = `INSERT INTO supports (id, title, file_key, type, webinar_id, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.ID, s.Title, s.FileKey, string(s.Type), s.WebinarID, s.UploadedByID).
		Scan(&s.CreatedAt, &s.UpdatedAt)
}

const supportColumns = `id, title, file_key, type, webinar_id, uploaded_by, created_at, updated_at`

func scanSupport(row pgx.Row) (*models.Support, error) {
	var s models.Support
	err := row.Scan(&s.ID, &s.Title, &s.FileKey, &s.Type, &s.WebinarID, &s.UploadedByID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID returns a non-deleted support, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Support, error) {
	return scanSupport(r.pool.QueryRow(ctx,
		`SELECT `+supportColumns+` FROM supports WHERE id = $1 AND NOT is_deleted`, id))
}

// ListByWebinar returns the active supports of one webinar, oldest first.
func (r *Repository) ListByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Support, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+supportColumns+` FROM supports WHERE webinar_id = $1 AND NOT is_deleted ORDER BY created_at`,
		webinarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Support{}
	for rows.Next() {
		var s models.Support
		if err := rows.Scan(&s.ID, &s.Title, &s.FileKey, &s.Type, &s.WebinarID, &s.UploadedByID,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// SoftDelete hides the support from all further reads. The S3 object is
// removed separately by the handler.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE supports SET is_deleted = TRUE, deleted_at = $1, updated_at = NOW()
		WHERE id = $2 AND NOT is_deleted`, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
