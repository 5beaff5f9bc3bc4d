package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itcons/afisha/internal/domain"
)

// CatalogRepo resolves categories and venues by their natural keys,
// creating them on first use. Finding an existing row is the normal
// case, never an error.
type CatalogRepo interface {
	GetOrCreateCategory(ctx context.Context, name string) (*domain.Category, error)
	GetOrCreateVenue(ctx context.Context, name, city, address string) (*domain.Venue, error)
}

type CatalogRepoImpl struct{ pool *pgxpool.Pool }

func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepoImpl { return &CatalogRepoImpl{pool: pool} }

func (r *CatalogRepoImpl) GetOrCreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.Category
	err := r.pool.QueryRow(ctx,
		`SELECT category_id, name FROM category WHERE name=$1`, name,
	).Scan(&c.ID, &c.Name)
	if err == nil {
		return &c, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO category (name) VALUES ($1) RETURNING category_id, name`, name,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CatalogRepoImpl) GetOrCreateVenue(ctx context.Context, name, city, address string) (*domain.Venue, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var v domain.Venue
	err := r.pool.QueryRow(ctx,
		`SELECT venue_id, name, city, address FROM venue WHERE name=$1 AND city=$2 AND address=$3`,
		name, city, address,
	).Scan(&v.ID, &v.Name, &v.City, &v.Address)
	if err == nil {
		return &v, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO venue (name, city, address) VALUES ($1, $2, $3) RETURNING venue_id, name, city, address`,
		name, city, address,
	).Scan(&v.ID, &v.Name, &v.City, &v.Address)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
