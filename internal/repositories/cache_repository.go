package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/japanesestudent/offline-service/internal/models"
)

type cacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a new response cache repository
func NewCacheRepository(db *sql.DB) *cacheRepository {
	return &cacheRepository{
		db: db,
	}
}

// Put stores a cached response body for a URL
func (r *cacheRepository) Put(ctx context.Context, entry *models.CacheEntry) error {
	query := `
		INSERT INTO cache (url, body, cached_at)
		VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			body = excluded.body,
			cached_at = excluded.cached_at
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.URL,
		entry.Body,
		entry.CachedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}

	return nil
}

// Get retrieves the cached response for a URL, or nil on a miss
func (r *cacheRepository) Get(ctx context.Context, url string) (*models.CacheEntry, error) {
	query := `SELECT url, body, cached_at FROM cache WHERE url = ?`

	var (
		entry    models.CacheEntry
		cachedAt int64
	)
	err := r.db.QueryRowContext(ctx, query, url).Scan(&entry.URL, &entry.Body, &cachedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	entry.CachedAt = time.UnixMilli(cachedAt).UTC()
	return &entry, nil
}

// Delete removes a single cache entry
func (r *cacheRepository) Delete(ctx context.Context, url string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cache WHERE url = ?`, url); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// PruneBefore evicts every entry cached before the cutoff and returns
// the number of evicted entries
func (r *cacheRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cache WHERE cached_at < ?`, cutoff.UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}

	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(pruned), nil
}
