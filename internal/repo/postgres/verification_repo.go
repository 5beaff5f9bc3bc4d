package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itcons/afisha/internal/domain"
)

// PendingVerification pairs a verification with the organizer identity
// an admin needs to review it.
type PendingVerification struct {
	domain.OrganizerVerification
	DisplayName    string `json:"display_name"`
	OrganizerEmail string `json:"organizer_email"`
}

type VerificationRepo interface {
	GetOrCreate(ctx context.Context, profileID int64) (*domain.OrganizerVerification, error)
	GetByID(ctx context.Context, id int64) (*domain.OrganizerVerification, error)
	Update(ctx context.Context, v *domain.OrganizerVerification) error
	ListPending(ctx context.Context) ([]PendingVerification, error)
}

type VerificationRepoImpl struct{ pool *pgxpool.Pool }

func NewVerificationRepo(pool *pgxpool.Pool) *VerificationRepoImpl {
	return &VerificationRepoImpl{pool: pool}
}

const verificationCols = `verification_id, organizer_id, status, submitted_at, reviewed_at, reject_reason, reviewed_by_admin_id`

func (r *VerificationRepoImpl) GetOrCreate(ctx context.Context, profileID int64) (*domain.OrganizerVerification, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var v domain.OrganizerVerification
	err := r.pool.QueryRow(ctx,
		`SELECT `+verificationCols+` FROM organizer_verification WHERE organizer_id=$1`, profileID,
	).Scan(&v.ID, &v.ProfileID, &v.Status, &v.SubmittedAt, &v.ReviewedAt, &v.RejectReason, &v.ReviewedByAdminID)
	if err == nil {
		return &v, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO organizer_verification (organizer_id, status) VALUES ($1, 'not_submitted')
RETURNING `+verificationCols, profileID,
	).Scan(&v.ID, &v.ProfileID, &v.Status, &v.SubmittedAt, &v.ReviewedAt, &v.RejectReason, &v.ReviewedByAdminID)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VerificationRepoImpl) GetByID(ctx context.Context, id int64) (*domain.OrganizerVerification, error) {
	const q = `SELECT ` + verificationCols + ` FROM organizer_verification WHERE verification_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var v domain.OrganizerVerification
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&v.ID, &v.ProfileID, &v.Status, &v.SubmittedAt, &v.ReviewedAt, &v.RejectReason, &v.ReviewedByAdminID,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VerificationRepoImpl) Update(ctx context.Context, v *domain.OrganizerVerification) error {
	const q = `UPDATE organizer_verification SET
status=$2, submitted_at=$3, reviewed_at=$4, reject_reason=$5, reviewed_by_admin_id=$6
WHERE verification_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, v.ID, v.Status, v.SubmittedAt, v.ReviewedAt, v.RejectReason, v.ReviewedByAdminID)
	return err
}

func (r *VerificationRepoImpl) ListPending(ctx context.Context) ([]PendingVerification, error) {
	const q = `SELECT v.verification_id, v.organizer_id, v.status, v.submitted_at, v.reviewed_at,
v.reject_reason, v.reviewed_by_admin_id, p.display_name, a.email
FROM organizer_verification v
JOIN organizer_profile p ON p.organizer_id = v.organizer_id
JOIN organizer_account a ON a.organizer_account_id = p.organizer_account_id
WHERE v.status IN ('submitted', 'in_review')
ORDER BY v.submitted_at`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingVerification
	for rows.Next() {
		var pv PendingVerification
		if err := rows.Scan(
			&pv.ID, &pv.ProfileID, &pv.Status, &pv.SubmittedAt, &pv.ReviewedAt,
			&pv.RejectReason, &pv.ReviewedByAdminID, &pv.DisplayName, &pv.OrganizerEmail,
		); err != nil {
			return nil, err
		}
		out = append(out, pv)
	}
	return out, rows.Err()
}
