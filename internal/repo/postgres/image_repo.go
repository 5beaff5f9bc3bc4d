package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itcons/afisha/internal/domain"
)

// ImageRepo manages event images. Sort order 0 is the cover; gallery
// rows start at 1 and keep whatever gaps deletions leave behind.
type ImageRepo interface {
	Insert(ctx context.Context, img *domain.EventImage) error
	GalleryCount(ctx context.Context, eventID int64) (int, error)
	MaxGallerySort(ctx context.Context, eventID int64) (int, error)
	// DeleteGallery removes the given gallery ids (cover excluded by the
	// sort_order guard) and returns the stored file paths for cleanup.
	DeleteGallery(ctx context.Context, eventID int64, ids []int64) ([]string, error)
	DeleteCover(ctx context.Context, eventID int64) ([]string, error)
}

type ImageRepoImpl struct{ pool *pgxpool.Pool }

func NewImageRepo(pool *pgxpool.Pool) *ImageRepoImpl { return &ImageRepoImpl{pool: pool} }

func (r *ImageRepoImpl) Insert(ctx context.Context, img *domain.EventImage) error {
	const q = `INSERT INTO event_image (event_id, path, sort_order) VALUES ($1,$2,$3) RETURNING image_id`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.pool.QueryRow(ctx, q, img.EventID, img.Path, img.SortOrder).Scan(&img.ID)
}

func (r *ImageRepoImpl) GalleryCount(ctx context.Context, eventID int64) (int, error) {
	const q = `SELECT count(*) FROM event_image WHERE event_id=$1 AND sort_order > 0`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int
	err := r.pool.QueryRow(ctx, q, eventID).Scan(&n)
	return n, err
}

func (r *ImageRepoImpl) MaxGallerySort(ctx context.Context, eventID int64) (int, error) {
	const q = `SELECT coalesce(max(sort_order), 0) FROM event_image WHERE event_id=$1 AND sort_order > 0`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int
	err := r.pool.QueryRow(ctx, q, eventID).Scan(&n)
	return n, err
}

func (r *ImageRepoImpl) DeleteGallery(ctx context.Context, eventID int64, ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const q = `DELETE FROM event_image
WHERE event_id=$1 AND sort_order > 0 AND image_id = ANY($2)
RETURNING path`
	return r.deleteReturningPaths(ctx, q, eventID, ids)
}

func (r *ImageRepoImpl) DeleteCover(ctx context.Context, eventID int64) ([]string, error) {
	const q = `DELETE FROM event_image WHERE event_id=$1 AND sort_order = 0 RETURNING path`
	return r.deleteReturningPaths(ctx, q, eventID)
}

func (r *ImageRepoImpl) deleteReturningPaths(ctx context.Context, query string, args ...any) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
