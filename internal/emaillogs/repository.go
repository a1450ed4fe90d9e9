package emaillogs

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

// Repository records transactional email attempts on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email log repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert records an email attempt.
func (r *Repository) Insert(ctx context.Context, log *models.EmailLog) error {
	const q = `INSERT INTO email_logs
		(webinar_id, registration_id, email_type, recipient_email, subject, status, sent_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, log.WebinarID, log.RegistrationID, log.EmailType,
		log.RecipientEmail, log.Subject, log.Status, log.SentAt, log.ErrorMessage).
		Scan(&log.ID, &log.CreatedAt)
}

const logColumns = `id, webinar_id, registration_id, email_type, recipient_email,
	COALESCE(subject,''), status, sent_at, COALESCE(error_message,''), created_at`

func scanLog(row pgx.Row) (*models.EmailLog, error) {
	var l models.EmailLog
	err := row.Scan(&l.ID, &l.WebinarID, &l.RegistrationID, &l.EmailType, &l.RecipientEmail,
		&l.Subject, &l.Status, &l.SentAt, &l.ErrorMessage, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetByID returns one email log, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.EmailLog, error) {
	return scanLog(r.pool.QueryRow(ctx,
		`SELECT `+logColumns+` FROM email_logs WHERE id = $1`, id))
}

// List returns one page of email logs, optionally filtered by webinar and
// status, newest first.
func (r *Repository) List(ctx context.Context, webinarID *uuid.UUID, status string, page, limit int) ([]models.EmailLog, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if webinarID != nil {
		args = append(args, *webinarID)
		where = append(where, fmt.Sprintf("webinar_id = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM email_logs WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	q := fmt.Sprintf(`SELECT `+logColumns+` FROM email_logs WHERE %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []models.EmailLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *l)
	}
	return list, total, rows.Err()
}

// WebinarInfo returns the title and start time of a non-deleted webinar,
// used to rebuild email bodies on resend.
func (r *Repository) WebinarInfo(ctx context.Context, id uuid.UUID) (string, time.Time, bool, error) {
	var title string
	var dateTime time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT title, date_time FROM webinars WHERE id = $1 AND NOT is_deleted`, id).
		Scan(&title, &dateTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, err
	}
	return title, dateTime, true, nil
}

// MarkSent records a successful delivery.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE email_logs SET status = $1, sent_at = $2, error_message = NULL WHERE id = $3`,
		models.EmailStatusSent, at, id)
	return err
}

// MarkFailed records a delivery failure.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE email_logs SET status = $1, error_message = $2 WHERE id = $3`,
		models.EmailStatusFailed, reason, id)
	return err
}
