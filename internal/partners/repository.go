package partners

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

// Repository handles partner application persistence on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a partner application repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a partner application with status PENDING.
func (r *Repository) Create(ctx context.Context, p *models.PartnerApplication) error {
	const q = `INSERT INTO partner_applications
		(responsible_first_name, responsible_last_name, responsible_email, phone,
		 occupied_position, structure_name, partnership_type, provided_expertise,
		 collaboration_experience, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'PENDING')
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		p.ResponsibleFirstName, p.ResponsibleLastName, p.ResponsibleEmail, p.Phone,
		p.OccupiedPosition, p.StructureName, p.PartnershipType, p.ProvidedExpertise,
		p.CollaborationExperience).
		Scan(&p.ID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
}

const partnerColumns = `id, responsible_first_name, responsible_last_name, responsible_email, phone,
	occupied_position, structure_name, partnership_type, COALESCE(provided_expertise,''),
	COALESCE(collaboration_experience,''), status, reviewed_by, COALESCE(review_note,''),
	created_at, updated_at`

func scanPartner(row pgx.Row) (*models.PartnerApplication, error) {
	var p models.PartnerApplication
	err := row.Scan(&p.ID, &p.ResponsibleFirstName, &p.ResponsibleLastName, &p.ResponsibleEmail, &p.Phone,
		&p.OccupiedPosition, &p.StructureName, &p.PartnershipType, &p.ProvidedExpertise,
		&p.CollaborationExperience, &p.Status, &p.ReviewedByID, &p.ReviewNote,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID returns a non-deleted application, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.PartnerApplication, error) {
	return scanPartner(r.pool.QueryRow(ctx,
		`SELECT `+partnerColumns+` FROM partner_applications WHERE id = $1 AND NOT is_deleted`, id))
}

// List returns one page of non-deleted applications, optionally filtered by
// status, newest first.
func (r *Repository) List(ctx context.Context, status models.ApplicationStatus, page, limit int) ([]models.PartnerApplication, int, error) {
	where := []string{"NOT is_deleted"}
	args := []any{}
	if status != "" {
		args = append(args, string(status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM partner_applications WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	q := fmt.Sprintf(`SELECT `+partnerColumns+` FROM partner_applications WHERE %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []models.PartnerApplication{}
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *p)
	}
	return list, total, rows.Err()
}

// Review records the admin decision on a PENDING application. Returns
// pgx.ErrNoRows when the application is absent or no longer pending.
func (r *Repository) Review(ctx context.Context, id uuid.UUID, status models.ApplicationStatus, reviewerID uuid.UUID, note string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE partner_applications
		SET status = $1, reviewed_by = $2, review_note = $3, updated_at = NOW()
		WHERE id = $4 AND status = 'PENDING' AND NOT is_deleted`,
		string(status), reviewerID, note, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SoftDelete hides the application from all further reads.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE partner_applications SET is_deleted = TRUE, deleted_at = $1, updated_at = NOW()
		WHERE id = $2 AND NOT is_deleted`, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
