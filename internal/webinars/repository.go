package webinars

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

// Repository handles webinar persistence on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a webinar repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

const webinarColumns = `id, title, description, date_time, duration, legal_topic, max_capacity,
	status, access_link, animated_by, moderated_by, created_at, updated_at`

func scanWebinar(row pgx.Row) (*models.Webinar, error) {
	var w models.Webinar
	err := row.Scan(&w.ID, &w.Title, &w.Description, &w.DateTime, &w.Duration, &w.LegalTopic,
		&w.MaxCapacity, &w.Status, &w.AccessLink, &w.AnimatedByID, &w.ModeratedByID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create inserts a webinar and connects/creates its tags in one transaction.
func (r *Repository) Create(ctx context.Context, w *models.Webinar, tags []TagRef) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO webinars (title, description, date_time, duration, legal_topic, max_capacity, status, access_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, q, w.Title, w.Description, w.DateTime, w.Duration, w.LegalTopic,
		w.MaxCapacity, string(w.Status), w.AccessLink).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return fmt.Errorf("insert webinar: %w", err)
	}

	attached, err := connectTags(ctx, tx, w.ID, tags)
	if err != nil {
		return err
	}
	w.Tags = attached

	return tx.Commit(ctx)
}

// connectTags upserts each tag by slug and links it to the webinar.
func connectTags(ctx context.Context, tx pgx.Tx, webinarID uuid.UUID, tags []TagRef) ([]models.Tag, error) {
	out := make([]models.Tag, 0, len(tags))
	for _, ref := range tags {
		var t models.Tag
		// DO UPDATE instead of DO NOTHING so RETURNING yields the row on conflict.
		const upsert = `INSERT INTO tags (name, slug) VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
			RETURNING id, name, slug, created_at`
		if err := tx.QueryRow(ctx, upsert, ref.Name, ref.Slug).Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("upsert tag %q: %w", ref.Slug, err)
		}
		const link = `INSERT INTO webinar_tags (webinar_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := tx.Exec(ctx, link, webinarID, t.ID); err != nil {
			return nil, fmt.Errorf("link tag %q: %w", ref.Slug, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Get returns a non-deleted webinar with its tags, or nil when absent.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Webinar, error) {
	w, err := scanWebinar(r.pool.QueryRow(ctx,
		`SELECT `+webinarColumns+` FROM webinars WHERE id = $1 AND NOT is_deleted`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if w.Tags, err = r.tagsFor(ctx, id); err != nil {
		return nil, err
	}
	return w, nil
}

func (r *Repository) tagsFor(ctx context.Context, webinarID uuid.UUID) ([]models.Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT t.id, t.name, t.slug, t.created_at
		FROM tags t JOIN webinar_tags wt ON wt.tag_id = t.id
		WHERE wt.webinar_id = $1 ORDER BY t.slug`, webinarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tags := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *Repository) userPublic(ctx context.Context, id uuid.UUID) (*models.UserPublic, error) {
	var u models.UserPublic
	err := r.pool.QueryRow(ctx, `SELECT id, email, first_name, last_name, role, COALESCE(profile_image,''), created_at
		FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.ProfileImage, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) collaboratorsFor(ctx context.Context, webinarID uuid.UUID) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT u.id, u.email, u.first_name, u.last_name, u.role, COALESCE(u.profile_image,''), u.created_at
		FROM users u JOIN webinar_collaborators wc ON wc.user_id = u.id
		WHERE wc.webinar_id = $1 ORDER BY u.last_name, u.first_name`, webinarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.ProfileImage, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func (r *Repository) attachActors(ctx context.Context, w *models.Webinar) error {
	var err error
	if w.AnimatedByID != nil {
		if w.AnimatedBy, err = r.userPublic(ctx, *w.AnimatedByID); err != nil {
			return err
		}
	}
	if w.ModeratedByID != nil {
		if w.ModeratedBy, err = r.userPublic(ctx, *w.ModeratedByID); err != nil {
			return err
		}
	}
	w.Collaborators, err = r.collaboratorsFor(ctx, w.ID)
	return err
}

// GetDetail returns a non-deleted webinar with actors, active registrations
// (with user details), and active support documents. Returns nil when absent.
func (r *Repository) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	w, err := r.Get(ctx, id)
	if err != nil || w == nil {
		return nil, err
	}
	if err := r.attachActors(ctx, w); err != nil {
		return nil, err
	}

	d := &Detail{Webinar: *w, Registrations: []models.Registration{}, Supports: []models.Support{}}

	regRows, err := r.pool.Query(ctx, `SELECT r.id, r.webinar_id, r.user_id, r.status, r.registered_at,
			u.id, u.email, u.first_name, u.last_name, u.role, COALESCE(u.profile_image,''), u.created_at
		FROM registrations r JOIN users u ON u.id = r.user_id
		WHERE r.webinar_id = $1 AND NOT r.is_deleted
		ORDER BY r.registered_at`, id)
	if err != nil {
		return nil, err
	}
	defer regRows.Close()
	for regRows.Next() {
		var reg models.Registration
		var u models.UserPublic
		if err := regRows.Scan(&reg.ID, &reg.WebinarID, &reg.UserID, &reg.Status, &reg.RegisteredAt,
			&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.ProfileImage, &u.CreatedAt); err != nil {
			return nil, err
		}
		reg.User = &u
		d.Registrations = append(d.Registrations, reg)
	}
	if err := regRows.Err(); err != nil {
		return nil, err
	}

	supRows, err := r.pool.Query(ctx, `SELECT id, title, file_key, type, webinar_id, uploaded_by, created_at, updated_at
		FROM supports WHERE webinar_id = $1 AND NOT is_deleted ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	defer supRows.Close()
	for supRows.Next() {
		var sup models.Support
		if err := supRows.Scan(&sup.ID, &sup.Title, &sup.FileKey, &sup.Type, &sup.WebinarID,
			&sup.UploadedByID, &sup.CreatedAt, &sup.UpdatedAt); err != nil {
			return nil, err
		}
		d.Supports = append(d.Supports, sup)
	}
	return d, supRows.Err()
}

// Update applies a partial patch and, when requested, replaces the tag set.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch Patch) (*models.Webinar, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	set := []string{"updated_at = NOW()"}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.DateTime != nil {
		add("date_time", *patch.DateTime)
	}
	if patch.Duration != nil {
		add("duration", *patch.Duration)
	}
	if patch.LegalTopic != nil {
		add("legal_topic", *patch.LegalTopic)
	}
	if patch.MaxCapacity != nil {
		add("max_capacity", *patch.MaxCapacity)
	}
	if patch.AccessLink != nil {
		add("access_link", *patch.AccessLink)
	}

	args = append(args, id)
	q := fmt.Sprintf(`UPDATE webinars SET %s WHERE id = $%d AND NOT is_deleted RETURNING `+webinarColumns,
		strings.Join(set, ", "), len(args))
	w, err := scanWebinar(tx.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update webinar: %w", err)
	}

	if patch.ReplaceTags {
		if _, err := tx.Exec(ctx, `DELETE FROM webinar_tags WHERE webinar_id = $1`, id); err != nil {
			return nil, fmt.Errorf("clear tags: %w", err)
		}
		if w.Tags, err = connectTags(ctx, tx, id, patch.Tags); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	if !patch.ReplaceTags {
		if w.Tags, err = r.tagsFor(ctx, id); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// SetStatus sets the webinar status. Transition rules live in the service.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status models.WebinarStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE webinars SET status = $1, updated_at = NOW() WHERE id = $2 AND NOT is_deleted`, string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete hides the webinar from all further reads; the row is retained.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE webinars SET is_deleted = TRUE, deleted_at = $1, updated_at = NOW() WHERE id = $2 AND NOT is_deleted`, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of non-deleted webinars with actors, tags, and
// confirmed subscriber counts, newest first.
func (r *Repository) List(ctx context.Context, page, limit int) ([]models.Webinar, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM webinars WHERE NOT is_deleted`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+webinarColumns+`,
			(SELECT COUNT(*) FROM registrations r
				WHERE r.webinar_id = webinars.id AND r.status = 'CONFIRMED' AND NOT r.is_deleted) AS total_subscribers
		FROM webinars WHERE NOT is_deleted
		ORDER BY date_time DESC
		LIMIT $1 OFFSET $2`, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.Webinar
	for rows.Next() {
		var w models.Webinar
		var subscribers int
		if err := rows.Scan(&w.ID, &w.Title, &w.Description, &w.DateTime, &w.Duration, &w.LegalTopic,
			&w.MaxCapacity, &w.Status, &w.AccessLink, &w.AnimatedByID, &w.ModeratedByID,
			&w.CreatedAt, &w.UpdatedAt, &subscribers); err != nil {
			return nil, 0, err
		}
		w.TotalSubscribers = &subscribers
		list = append(list, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range list {
		if err := r.attachActors(ctx, &list[i]); err != nil {
			return nil, 0, err
		}
		if list[i].Tags, err = r.tagsFor(ctx, list[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return list, total, nil
}

// AssignActors sets presenter/moderator references and replaces the
// collaborator set in one transaction.
func (r *Repository) AssignActors(ctx context.Context, id uuid.UUID, actors Actors) (*models.Webinar, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	set := []string{"updated_at = NOW()"}
	args := []any{}
	if actors.AnimatedByID != nil {
		args = append(args, *actors.AnimatedByID)
		set = append(set, fmt.Sprintf("animated_by = $%d", len(args)))
	}
	if actors.ModeratedByID != nil {
		args = append(args, *actors.ModeratedByID)
		set = append(set, fmt.Sprintf("moderated_by = $%d", len(args)))
	}
	args = append(args, id)
	q := fmt.Sprintf(`UPDATE webinars SET %s WHERE id = $%d AND NOT is_deleted`, strings.Join(set, ", "), len(args))
	tag, err := tx.Exec(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("update actors: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM webinar_collaborators WHERE webinar_id = $1`, id); err != nil {
		return nil, fmt.Errorf("clear collaborators: %w", err)
	}
	for _, userID := range actors.CollaboratorIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO webinar_collaborators (webinar_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			id, userID); err != nil {
			return nil, fmt.Errorf("add collaborator %s: %w", userID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	w, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrNotFound
	}
	if err := r.attachActors(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}
