package registrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexwebinar/backend/internal/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same
// repository methods work inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles registration persistence on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	q    querier
}

// NewRepository creates a registration repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, q: pool}
}

var _ Store = (*Repository)(nil)

// Tx runs fn against a repository bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (r *Repository) Tx(ctx context.Context, fn func(Store) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Repository{pool: r.pool, q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const seatColumns = `id, title, date_time, max_capacity, status`

func (r *Repository) getWebinar(ctx context.Context, webinarID uuid.UUID, lock string) (*WebinarSeat, error) {
	var w WebinarSeat
	q := `SELECT ` + seatColumns + ` FROM webinars WHERE id = $1 AND NOT is_deleted` + lock
	err := r.q.QueryRow(ctx, q, webinarID).Scan(&w.ID, &w.Title, &w.DateTime, &w.MaxCapacity, &w.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetWebinar returns the registration-relevant slice of a webinar, or nil
// when absent.
func (r *Repository) GetWebinar(ctx context.Context, webinarID uuid.UUID) (*WebinarSeat, error) {
	return r.getWebinar(ctx, webinarID, "")
}

// GetWebinarForUpdate is GetWebinar with a row lock. Only meaningful inside
// Tx; the lock serializes concurrent registration attempts per webinar.
func (r *Repository) GetWebinarForUpdate(ctx context.Context, webinarID uuid.UUID) (*WebinarSeat, error) {
	return r.getWebinar(ctx, webinarID, " FOR UPDATE")
}

// CountActiveConfirmed counts confirmed, non-deleted registrations.
func (r *Repository) CountActiveConfirmed(ctx context.Context, webinarID uuid.UUID) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE webinar_id = $1 AND status = 'CONFIRMED' AND NOT is_deleted`,
		webinarID).Scan(&n)
	return n, err
}

// CountByStatus counts registrations of one status, soft-deleted included.
func (r *Repository) CountByStatus(ctx context.Context, webinarID uuid.UUID, status models.RegistrationStatus) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE webinar_id = $1 AND status = $2`,
		webinarID, string(status)).Scan(&n)
	return n, err
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(&reg.ID, &reg.WebinarID, &reg.UserID, &reg.Status, &reg.RegisteredAt, &reg.IsDeleted, &reg.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

const regColumns = `id, webinar_id, user_id, status, registered_at, is_deleted, deleted_at`

// GetActive returns the user's non-deleted registration on the webinar, or
// nil when there is none.
func (r *Repository) GetActive(ctx context.Context, webinarID, userID uuid.UUID) (*models.Registration, error) {
	return scanRegistration(r.q.QueryRow(ctx,
		`SELECT `+regColumns+` FROM registrations
		WHERE webinar_id = $1 AND user_id = $2 AND NOT is_deleted`, webinarID, userID))
}

// GetLatest returns the user's most recent registration on the webinar,
// soft-deleted (canceled) rows included, or nil when there is none.
func (r *Repository) GetLatest(ctx context.Context, webinarID, userID uuid.UUID) (*models.Registration, error) {
	return scanRegistration(r.q.QueryRow(ctx,
		`SELECT `+regColumns+` FROM registrations
		WHERE webinar_id = $1 AND user_id = $2
		ORDER BY registered_at DESC LIMIT 1`, webinarID, userID))
}

// Create inserts a registration. A concurrent duplicate is rejected by the
// partial unique index on (webinar_id, user_id) and surfaces as
// ErrAlreadyRegistered.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO registrations (webinar_id, user_id, status)
		VALUES ($1, $2, $3) RETURNING id, registered_at`
	err := r.q.QueryRow(ctx, q, reg.WebinarID, reg.UserID, string(reg.Status)).Scan(&reg.ID, &reg.RegisteredAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyRegistered
	}
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// Cancel marks a registration CANCELED and soft-deletes it, freeing the seat.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE registrations SET status = 'CANCELED', is_deleted = TRUE, deleted_at = $1
		WHERE id = $2 AND NOT is_deleted`, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

// ListAll returns one page of registrations across all webinars with user
// details, newest first. Soft-deleted rows are included for audit.
func (r *Repository) ListAll(ctx context.Context, page, limit int) ([]models.Registration, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.q.Query(ctx, `SELECT r.id, r.webinar_id, r.user_id, r.status, r.registered_at, r.is_deleted, r.deleted_at,
			u.id, u.email, u.first_name, u.last_name, u.role, COALESCE(u.profile_image,''), u.created_at
		FROM registrations r JOIN users u ON u.id = r.user_id
		ORDER BY r.registered_at DESC
		LIMIT $1 OFFSET $2`, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list, err := collectWithUser(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByWebinar returns the active registrations of one webinar with user
// details, oldest first.
func (r *Repository) ListByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Registration, error) {
	rows, err := r.q.Query(ctx, `SELECT r.id, r.webinar_id, r.user_id, r.status, r.registered_at, r.is_deleted, r.deleted_at,
			u.id, u.email, u.first_name, u.last_name, u.role, COALESCE(u.profile_image,''), u.created_at
		FROM registrations r JOIN users u ON u.id = r.user_id
		WHERE r.webinar_id = $1 AND NOT r.is_deleted
		ORDER BY r.registered_at`, webinarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithUser(rows)
}

func collectWithUser(rows pgx.Rows) ([]models.Registration, error) {
	list := []models.Registration{}
	for rows.Next() {
		var reg models.Registration
		var u models.UserPublic
		if err := rows.Scan(&reg.ID, &reg.WebinarID, &reg.UserID, &reg.Status, &reg.RegisteredAt,
			&reg.IsDeleted, &reg.DeletedAt,
			&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.ProfileImage, &u.CreatedAt); err != nil {
			return nil, err
		}
		reg.User = &u
		list = append(list, reg)
	}
	return list, rows.Err()
}
