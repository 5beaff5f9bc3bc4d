package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itcons/afisha/internal/domain"
)

// AccountRepo covers the three account tables. Logins are unique within
// each table only; ResolveByLogin applies the fixed admin, organizer,
// user precedence across them.
type AccountRepo interface {
	FindAdminByID(ctx context.Context, id int64) (*domain.AdminAccount, error)
	FindAdminByEmail(ctx context.Context, email string) (*domain.AdminAccount, error)
	CreateAdmin(ctx context.Context, email, passwordHash string) (*domain.AdminAccount, error)
	UpdateAdmin(ctx context.Context, id int64, passwordHash, status string) error

	FindOrganizerByID(ctx context.Context, id int64) (*domain.OrganizerAccount, error)
	CreateOrganizer(ctx context.Context, email string, phone *string, passwordHash string) (*domain.OrganizerAccount, error)
	OrganizerEmailExists(ctx context.Context, email string) (bool, error)
	OrganizerPhoneExists(ctx context.Context, phone string) (bool, error)

	FindUserByID(ctx context.Context, id int64) (*domain.UserAccount, error)
	CreateUser(ctx context.Context, email, phone *string, passwordHash, firstName, lastName string) (*domain.UserAccount, error)
	UserEmailExists(ctx context.Context, email string) (bool, error)
	UserPhoneExists(ctx context.Context, phone string) (bool, error)

	ResolveByLogin(ctx context.Context, login string) (*domain.ResolvedAccount, error)
}

type AccountRepoImpl struct{ pool *pgxpool.Pool }

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepoImpl { return &AccountRepoImpl{pool: pool} }

const adminCols = `admin_id, email, password_hash, status, created_at`

func (r *AccountRepoImpl) FindAdminByID(ctx context.Context, id int64) (*domain.AdminAccount, error) {
	const q = `SELECT ` + adminCols + ` FROM admin_account WHERE admin_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var a domain.AdminAccount
	err := r.pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Status, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepoImpl) FindAdminByEmail(ctx context.Context, email string) (*domain.AdminAccount, error) {
	const q = `SELECT ` + adminCols + ` FROM admin_account WHERE lower(email)=lower($1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var a domain.AdminAccount
	err := r.pool.QueryRow(ctx, q, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Status, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepoImpl) CreateAdmin(ctx context.Context, email, passwordHash string) (*domain.AdminAccount, error) {
	const q = `INSERT INTO admin_account (email, password_hash, status)
VALUES ($1, $2, 'active')
RETURNING ` + adminCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var a domain.AdminAccount
	if err := r.pool.QueryRow(ctx, q, email, passwordHash).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Status, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepoImpl) UpdateAdmin(ctx context.Context, id int64, passwordHash, status string) error {
	const q = `UPDATE admin_account SET password_hash=$2, status=$3 WHERE admin_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id, passwordHash, status)
	return err
}

const organizerCols = `organizer_account_id, email, phone, password_hash, status, created_at`

func (r *AccountRepoImpl) FindOrganizerByID(ctx context.Context, id int64) (*domain.OrganizerAccount, error) {
	const q = `SELECT ` + organizerCols + ` FROM organizer_account WHERE organizer_account_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var a domain.OrganizerAccount
	err := r.pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.Email, &a.Phone, &a.PasswordHash, &a.Status, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepoImpl) CreateOrganizer(ctx context.Context, email string, phone *string, passwordHash string) (*domain.OrganizerAccount, error) {
	const q = `INSERT INTO organizer_account (email, phone, password_hash, status)
VALUES ($1, $2, $3, 'active')
RETURNING ` + organizerCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var a domain.OrganizerAccount
	if err := r.pool.QueryRow(ctx, q, email, phone, passwordHash).Scan(&a.ID, &a.Email, &a.Phone, &a.PasswordHash, &a.Status, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepoImpl) OrganizerEmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM organizer_account WHERE lower(email)=lower($1))`, email)
}

func (r *AccountRepoImpl) OrganizerPhoneExists(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM organizer_account WHERE phone=$1)`, phone)
}

const userCols = `user_id, email, phone, password_hash, first_name, last_name, status, created_at`

func (r *AccountRepoImpl) FindUserByID(ctx context.Context, id int64) (*domain.UserAccount, error) {
	const q = `SELECT ` + userCols + ` FROM user_account WHERE user_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var a domain.UserAccount
	err := r.pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.Email, &a.Phone, &a.PasswordHash, &a.FirstName, &a.LastName, &a.Status, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepoImpl) CreateUser(ctx context.Context, email, phone *string, passwordHash, firstName, lastName string) (*domain.UserAccount, error) {
	const q = `INSERT INTO user_account (email, phone, password_hash, first_name, last_name, status)
VALUES ($1, $2, $3, $4, $5, 'active')
RETURNING ` + userCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var a domain.UserAccount
	if err := r.pool.QueryRow(ctx, q, email, phone, passwordHash, firstName, lastName).Scan(
		&a.ID, &a.Email, &a.Phone, &a.PasswordHash, &a.FirstName, &a.LastName, &a.Status, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepoImpl) UserEmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM user_account WHERE lower(email)=lower($1))`, email)
}

func (r *AccountRepoImpl) UserPhoneExists(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM user_account WHERE phone=$1)`, phone)
}

func (r *AccountRepoImpl) ResolveByLogin(ctx context.Context, login string) (*domain.ResolvedAccount, error) {
	if admin, err := r.FindAdminByEmail(ctx, login); err != nil {
		return nil, err
	} else if admin != nil {
		return &domain.ResolvedAccount{
			Role:         domain.RoleAdmin,
			ID:           admin.ID,
			Login:        admin.Email,
			PasswordHash: admin.PasswordHash,
			Status:       admin.Status,
		}, nil
	}

	if org, err := r.findOrganizerByLogin(ctx, login); err != nil {
		return nil, err
	} else if org != nil {
		return &domain.ResolvedAccount{
			Role:         domain.RoleOrganizer,
			ID:           org.ID,
			Login:        org.Login(),
			PasswordHash: org.PasswordHash,
			Status:       org.Status,
		}, nil
	}

	if user, err := r.findUserByLogin(ctx, login); err != nil {
		return nil, err
	} else if user != nil {
		return &domain.ResolvedAccount{
			Role:         domain.RoleUser,
			ID:           user.ID,
			Login:        user.Login(),
			PasswordHash: user.PasswordHash,
			Status:       user.Status,
		}, nil
	}

	return nil, nil
}

func (r *AccountRepoImpl) findOrganizerByLogin(ctx context.Context, login string) (*domain.OrganizerAccount, error) {
	const q = `SELECT ` + organizerCols + ` FROM organizer_account WHERE lower(email)=lower($1) OR phone=$1 LIMIT 1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var a domain.OrganizerAccount
	err := r.pool.QueryRow(ctx, q, login).Scan(&a.ID, &a.Email, &a.Phone, &a.PasswordHash, &a.Status, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepoImpl) findUserByLogin(ctx context.Context, login string) (*domain.UserAccount, error) {
	const q = `SELECT ` + userCols + ` FROM user_account WHERE lower(email)=lower($1) OR phone=$1 LIMIT 1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var a domain.UserAccount
	err := r.pool.QueryRow(ctx, q, login).Scan(&a.ID, &a.Email, &a.Phone, &a.PasswordHash, &a.FirstName, &a.LastName, &a.Status, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepoImpl) exists(ctx context.Context, query string, arg any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var found bool
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}
