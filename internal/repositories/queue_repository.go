package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/japanesestudent/offline-service/internal/models"
)

type queueRepository struct {
	db *sql.DB
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(db *sql.DB) *queueRepository {
	return &queueRepository{
		db: db,
	}
}

// Insert persists a new queue item
func (r *queueRepository) Insert(ctx context.Context, item *models.QueueItem) error {
	query := `
		INSERT INTO queue (id, type, payload, created_at, retries)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		string(item.Type),
		[]byte(item.Payload),
		item.CreatedAt.UTC().UnixMilli(),
		item.Retries,
	)
	if err != nil {
		return fmt.Errorf("failed to insert queue item: %w", err)
	}

	return nil
}

// List retrieves all queue items in creation order
func (r *queueRepository) List(ctx context.Context) ([]models.QueueItem, error) {
	query := `
		SELECT id, type, payload, created_at, retries
		FROM queue
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}
	defer rows.Close()

	var items []models.QueueItem
	for rows.Next() {
		var (
			item      models.QueueItem
			itemType  string
			createdAt int64
		)
		if err := rows.Scan(&item.ID, &itemType, &item.Payload, &createdAt, &item.Retries); err != nil {
			return nil, fmt.Errorf("failed to scan queue item: %w", err)
		}
		item.Type = models.QueueItemType(itemType)
		item.CreatedAt = time.UnixMilli(createdAt).UTC()
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue items: %w", err)
	}

	return items, nil
}

// ListByType retrieves queue items of one type in creation order
func (r *queueRepository) ListByType(ctx context.Context, itemType models.QueueItemType) ([]models.QueueItem, error) {
	query := `
		SELECT id, type, payload, created_at, retries
		FROM queue
		WHERE type = ?
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, string(itemType))
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items by type: %w", err)
	}
	defer rows.Close()

	var items []models.QueueItem
	for rows.Next() {
		var (
			item      models.QueueItem
			rowType   string
			createdAt int64
		)
		if err := rows.Scan(&item.ID, &rowType, &item.Payload, &createdAt, &item.Retries); err != nil {
			return nil, fmt.Errorf("failed to scan queue item: %w", err)
		}
		item.Type = models.QueueItemType(rowType)
		item.CreatedAt = time.UnixMilli(createdAt).UTC()
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue items: %w", err)
	}

	return items, nil
}

// Delete removes a queue item permanently
func (r *queueRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM queue WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete queue item: %w", err)
	}

	return nil
}

// IncrementRetries bumps the retry counter for a queue item and returns
// the new count
func (r *queueRepository) IncrementRetries(ctx context.Context, id string) (int, error) {
	query := `UPDATE queue SET retries = retries + 1 WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("failed to increment retries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, fmt.Errorf("queue item not found: %s", id)
	}

	var retries int
	err = r.db.QueryRowContext(ctx, `SELECT retries FROM queue WHERE id = ?`, id).Scan(&retries)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("queue item not found: %s", id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read retries: %w", err)
	}

	return retries, nil
}

// Count counts pending queue items
func (r *queueRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queue`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count queue items: %w", err)
	}

	return count, nil
}
