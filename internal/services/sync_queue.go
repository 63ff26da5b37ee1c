package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/japanesestudent/offline-service/internal/models"
	"go.uber.org/zap"
)

// QueueRepository defines methods for pending operation queue data access
type QueueRepository interface {
	// Insert persists a new queue item.
	Insert(ctx context.Context, item *models.QueueItem) error
	// List retrieves all queue items in creation order.
	List(ctx context.Context) ([]models.QueueItem, error)
	// Delete removes a queue item permanently.
	Delete(ctx context.Context, id string) error
	// IncrementRetries bumps the retry counter and returns the new count.
	IncrementRetries(ctx context.Context, id string) (int, error)
	// Count counts pending queue items.
	Count(ctx context.Context) (int, error)
}

type syncQueue struct {
	repo   QueueRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewSyncQueue creates a new durable queue of pending remote mutations
func NewSyncQueue(repo QueueRepository, logger *zap.Logger) *syncQueue {
	return &syncQueue{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Enqueue persists a new pending operation and returns its locally
// generated id. The write is local only; delivery happens on a later
// sync pass.
func (q *syncQueue) Enqueue(ctx context.Context, itemType models.QueueItemType, payload any) (string, error) {
	if !itemType.Valid() {
		return "", fmt.Errorf("%w: unknown queue item type %q", ErrValidation, itemType)
	}
	if payload == nil {
		return "", fmt.Errorf("%w: payload is required", ErrValidation)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: payload is not serializable: %v", ErrValidation, err)
	}

	item := &models.QueueItem{
		ID:        uuid.New().String(),
		Type:      itemType,
		Payload:   body,
		CreatedAt: q.now().UTC(),
		Retries:   0,
	}

	if err := q.repo.Insert(ctx, item); err != nil {
		return "", fmt.Errorf("failed to enqueue %s: %w", itemType, err)
	}

	q.logger.Debug("enqueued pending operation",
		zap.String("item_id", item.ID),
		zap.String("type", string(itemType)),
	)

	return item.ID, nil
}

// Drain returns a snapshot of all pending queue items. Items are not
// removed; the caller reports per-item outcomes through Remove and
// BumpRetry.
func (q *syncQueue) Drain(ctx context.Context) ([]models.QueueItem, error) {
	items, err := q.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to drain queue: %w", err)
	}
	return items, nil
}

// Remove deletes a queue item after its remote mutation was confirmed,
// or when the retry ceiling drops it
func (q *syncQueue) Remove(ctx context.Context, id string) error {
	if err := q.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to remove queue item: %w", err)
	}
	return nil
}

// BumpRetry increments the retry counter for a failed item and returns
// the new count. Dropping items past the ceiling is the caller's call.
func (q *syncQueue) BumpRetry(ctx context.Context, id string) (int, error) {
	retries, err := q.repo.IncrementRetries(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to bump retry: %w", err)
	}
	return retries, nil
}

// Count counts pending queue items
func (q *syncQueue) Count(ctx context.Context) (int, error) {
	return q.repo.Count(ctx)
}
