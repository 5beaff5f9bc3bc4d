package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itcons/afisha/internal/domain"
)

// OrganizerRepo manages the organizer's public profile and legal details.
type OrganizerRepo interface {
	GetOrCreateProfile(ctx context.Context, accountID int64, defaultDisplayName string) (*domain.OrganizerProfile, error)
	GetProfileByID(ctx context.Context, profileID int64) (*domain.OrganizerProfile, error)
	UpdateProfile(ctx context.Context, p *domain.OrganizerProfile) error
	GetDetails(ctx context.Context, profileID int64) (*domain.OrganizerDetails, error)
	CreateDetails(ctx context.Context, d *domain.OrganizerDetails) error
	UpdateDetails(ctx context.Context, d *domain.OrganizerDetails) error
}

type OrganizerRepoImpl struct{ pool *pgxpool.Pool }

func NewOrganizerRepo(pool *pgxpool.Pool) *OrganizerRepoImpl { return &OrganizerRepoImpl{pool: pool} }

const profileCols = `organizer_id, organizer_account_id, logo_url, display_name, phone, telegram,
whatsapp, website_url, address_text, contact_person, about_text, created_at`

func (r *OrganizerRepoImpl) GetOrCreateProfile(ctx context.Context, accountID int64, defaultDisplayName string) (*domain.OrganizerProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.OrganizerProfile
	err := r.pool.QueryRow(ctx,
		`SELECT `+profileCols+` FROM organizer_profile WHERE organizer_account_id=$1`, accountID,
	).Scan(
		&p.ID, &p.AccountID, &p.LogoURL, &p.DisplayName, &p.Phone, &p.Telegram,
		&p.Whatsapp, &p.WebsiteURL, &p.AddressText, &p.ContactPerson, &p.AboutText, &p.CreatedAt,
	)
	if err == nil {
		return &p, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO organizer_profile (organizer_account_id, display_name) VALUES ($1, $2)
RETURNING `+profileCols, accountID, defaultDisplayName,
	).Scan(
		&p.ID, &p.AccountID, &p.LogoURL, &p.DisplayName, &p.Phone, &p.Telegram,
		&p.Whatsapp, &p.WebsiteURL, &p.AddressText, &p.ContactPerson, &p.AboutText, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *OrganizerRepoImpl) GetProfileByID(ctx context.Context, profileID int64) (*domain.OrganizerProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var p domain.OrganizerProfile
	err := r.pool.QueryRow(ctx,
		`SELECT `+profileCols+` FROM organizer_profile WHERE organizer_id=$1`, profileID,
	).Scan(
		&p.ID, &p.AccountID, &p.LogoURL, &p.DisplayName, &p.Phone, &p.Telegram,
		&p.Whatsapp, &p.WebsiteURL, &p.AddressText, &p.ContactPerson, &p.AboutText, &p.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *OrganizerRepoImpl) UpdateProfile(ctx context.Context, p *domain.OrganizerProfile) error {
	const q = `UPDATE organizer_profile SET
display_name=$2, phone=$3, telegram=$4, whatsapp=$5,
website_url=$6, address_text=$7, contact_person=$8, about_text=$9
WHERE organizer_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, p.ID,
		p.DisplayName, p.Phone, p.Telegram, p.Whatsapp,
		p.WebsiteURL, p.AddressText, p.ContactPerson, p.AboutText,
	)
	return err
}

const detailsCols = `legal_details_id, organizer_id, short_legal_name, full_legal_name, legal_address,
inn, ogrn, kpp, org_type, registration_date::text, head_full_name, head_position, okved, okopf, opf_name`

func (r *OrganizerRepoImpl) GetDetails(ctx context.Context, profileID int64) (*domain.OrganizerDetails, error) {
	const q = `SELECT ` + detailsCols + ` FROM organizer_details WHERE organizer_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var d domain.OrganizerDetails
	err := r.pool.QueryRow(ctx, q, profileID).Scan(
		&d.ID, &d.ProfileID, &d.ShortLegalName, &d.FullLegalName, &d.LegalAddress,
		&d.INN, &d.OGRN, &d.KPP, &d.OrgType, &d.RegistrationDate,
		&d.HeadFullName, &d.HeadPosition, &d.OKVED, &d.OKOPF, &d.OPFName,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *OrganizerRepoImpl) CreateDetails(ctx context.Context, d *domain.OrganizerDetails) error {
	const q = `INSERT INTO organizer_details (
organizer_id, short_legal_name, full_legal_name, legal_address,
inn, ogrn, kpp, org_type, registration_date,
head_full_name, head_position, okved, okopf, opf_name
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::date,$10,$11,$12,$13,$14)
RETURNING legal_details_id`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.pool.QueryRow(ctx, q,
		d.ProfileID, d.ShortLegalName, d.FullLegalName, d.LegalAddress,
		d.INN, d.OGRN, d.KPP, d.OrgType, d.RegistrationDate,
		d.HeadFullName, d.HeadPosition, d.OKVED, d.OKOPF, d.OPFName,
	).Scan(&d.ID)
}

func (r *OrganizerRepoImpl) UpdateDetails(ctx context.Context, d *domain.OrganizerDetails) error {
	const q = `UPDATE organizer_details SET
short_legal_name=$2, full_legal_name=$3, legal_address=$4,
inn=$5, ogrn=$6, kpp=$7, org_type=$8, registration_date=$9::date,
head_full_name=$10, head_position=$11, okved=$12, okopf=$13, opf_name=$14
WHERE legal_details_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q,
		d.ID, d.ShortLegalName, d.FullLegalName, d.LegalAddress,
		d.INN, d.OGRN, d.KPP, d.OrgType, d.RegistrationDate,
		d.HeadFullName, d.HeadPosition, d.OKVED, d.OKOPF, d.OPFName,
	)
	return err
}
