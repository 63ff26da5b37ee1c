package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/japanesestudent/offline-service/internal/models"
	"go.uber.org/zap"
)

// maxQueueRetries is the hard retry ceiling for queue items. An item
// whose post-increment retry count exceeds it is dropped permanently.
const maxQueueRetries = 3

// ProgressSource defines the pending progress records a sync pass drains
type ProgressSource interface {
	// ListUnsynced retrieves all unsynced progress records for a user.
	ListUnsynced(ctx context.Context, userID string) ([]models.ProgressRecord, error)
	// MarkSynced records remote confirmation for a (lesson, user) pair.
	MarkSynced(ctx context.Context, lessonID, userID string) error
	// CountUnsynced counts pending progress records for a user.
	CountUnsynced(ctx context.Context, userID string) (int, error)
}

// QueueSource defines the pending operation queue a sync pass drains
type QueueSource interface {
	// Drain returns a snapshot of all pending queue items.
	Drain(ctx context.Context) ([]models.QueueItem, error)
	// Remove deletes a queue item permanently.
	Remove(ctx context.Context, id string) error
	// BumpRetry increments an item's retry counter and returns the new
	// count.
	BumpRetry(ctx context.Context, id string) (int, error)
	// Count counts pending queue items.
	Count(ctx context.Context) (int, error)
}

// RemoteGateway is the network boundary to the remote system of record.
// UpsertProgress is idempotent on (lesson, user); the create calls are
// not, so each carries the queue item's locally generated id as an
// idempotency key the backend may honor.
type RemoteGateway interface {
	// UpsertProgress pushes the last known progress state for a lesson.
	UpsertProgress(ctx context.Context, record models.ProgressRecord) error
	// CreateQuizAttempt creates the remote attempt record and returns
	// its remote id.
	CreateQuizAttempt(ctx context.Context, idempotencyKey string, payload models.QuizAttemptPayload) (string, error)
	// CreateQuizAnswer creates one remote answer record for an attempt.
	CreateQuizAnswer(ctx context.Context, attemptID string, answer models.QuizAnswerPayload) error
	// CreateEnrollment creates the remote enrollment record.
	CreateEnrollment(ctx context.Context, idempotencyKey string, payload models.EnrollmentPayload) error
}

// ConnectivityMonitor exposes the current connectivity state and change
// notifications
type ConnectivityMonitor interface {
	// IsOnline reports the current connectivity state.
	IsOnline() bool
	// OnChange registers a listener invoked on every state transition.
	OnChange(listener func(online bool))
}

type syncManager struct {
	progress ProgressSource
	queue    QueueSource
	gateway  RemoteGateway
	monitor  ConnectivityMonitor
	logger   *zap.Logger
	userID   string

	ticker   *time.Ticker
	stopChan chan struct{}
	running  atomic.Bool

	mu         sync.Mutex
	lastPassAt *time.Time
}

// NewSyncManager creates a new sync manager draining pending progress
// and queued operations for one user
func NewSyncManager(
	progress ProgressSource,
	queue QueueSource,
	gateway RemoteGateway,
	monitor ConnectivityMonitor,
	logger *zap.Logger,
	userID string,
	interval time.Duration,
) *syncManager {
	return &syncManager{
		progress: progress,
		queue:    queue,
		gateway:  gateway,
		monitor:  monitor,
		logger:   logger,
		userID:   userID,
		ticker:   time.NewTicker(interval),
		stopChan: make(chan struct{}),
	}
}

// Start begins periodic sync passes and subscribes to connectivity
// transitions. A pass also runs immediately on start.
func (m *syncManager) Start() {
	m.monitor.OnChange(func(online bool) {
		if online {
			if m.TriggerSync() {
				m.logger.Info("sync triggered by reconnect")
			}
		}
	})

	m.logger.Info("sync manager started")
	go m.run()
}

// Stop stops scheduling further passes. A pass already running is not
// interrupted.
func (m *syncManager) Stop() {
	m.ticker.Stop()
	close(m.stopChan)
	m.logger.Info("sync manager stopped")
}

// run executes the periodic sync loop
func (m *syncManager) run() {
	m.TriggerSync()

	for {
		select {
		case <-m.ticker.C:
			m.TriggerSync()
		case <-m.stopChan:
			return
		}
	}
}

// TriggerSync runs a sync pass unless one is already running, and
// reports whether a pass ran. Triggers arriving while a pass is running
// are dropped, not queued.
func (m *syncManager) TriggerSync() bool {
	if !m.running.CompareAndSwap(false, true) {
		return false
	}
	defer m.running.Store(false)

	m.pass(context.Background())
	return true
}

// Status returns a snapshot of the synchronization state
func (m *syncManager) Status(ctx context.Context) (models.SyncStatus, error) {
	pendingProgress, err := m.progress.CountUnsynced(ctx, m.userID)
	if err != nil {
		return models.SyncStatus{}, fmt.Errorf("failed to count pending progress: %w", err)
	}

	pendingQueue, err := m.queue.Count(ctx)
	if err != nil {
		return models.SyncStatus{}, fmt.Errorf("failed to count pending queue items: %w", err)
	}

	m.mu.Lock()
	lastPassAt := m.lastPassAt
	m.mu.Unlock()

	return models.SyncStatus{
		Online:          m.monitor.IsOnline(),
		Running:         m.running.Load(),
		PendingProgress: pendingProgress,
		PendingQueue:    pendingQueue,
		LastPassAt:      lastPassAt,
	}, nil
}

// pass runs one progress phase followed by one queue phase. Per-item
// failures never abort the pass.
func (m *syncManager) pass(ctx context.Context) {
	if !m.monitor.IsOnline() {
		m.logger.Debug("sync pass skipped: offline")
		return
	}

	m.syncProgress(ctx)
	m.syncQueue(ctx)

	now := time.Now().UTC()
	m.mu.Lock()
	m.lastPassAt = &now
	m.mu.Unlock()
}

// syncProgress pushes every unsynced progress record. Failed records
// stay pending and retry on the next pass with no retry ceiling.
func (m *syncManager) syncProgress(ctx context.Context) {
	records, err := m.progress.ListUnsynced(ctx, m.userID)
	if err != nil {
		m.logger.Error("failed to list unsynced progress", zap.Error(err))
		return
	}

	for _, record := range records {
		if err := m.gateway.UpsertProgress(ctx, record); err != nil {
			m.logger.Warn("failed to sync progress record",
				zap.String("lesson_id", record.LessonID),
				zap.Error(err),
			)
			continue
		}

		if err := m.progress.MarkSynced(ctx, record.LessonID, record.UserID); err != nil {
			m.logger.Error("failed to mark progress synced",
				zap.String("lesson_id", record.LessonID),
				zap.Error(err),
			)
		}
	}

	if len(records) > 0 {
		m.logger.Info("progress phase finished", zap.Int("records", len(records)))
	}
}

// syncQueue delivers every pending queue item. Items exceeding the
// retry ceiling are dropped permanently.
func (m *syncManager) syncQueue(ctx context.Context) {
	items, err := m.queue.Drain(ctx)
	if err != nil {
		m.logger.Error("failed to drain sync queue", zap.Error(err))
		return
	}

	for _, item := range items {
		if err := m.dispatch(ctx, item); err != nil {
			m.handleItemFailure(ctx, item, err)
			continue
		}

		if err := m.queue.Remove(ctx, item.ID); err != nil {
			m.logger.Error("failed to remove delivered queue item",
				zap.String("item_id", item.ID),
				zap.Error(err),
			)
		}
	}

	if len(items) > 0 {
		m.logger.Info("queue phase finished", zap.Int("items", len(items)))
	}
}

// dispatch delivers a single queue item by type
func (m *syncManager) dispatch(ctx context.Context, item models.QueueItem) error {
	switch item.Type {
	case models.QueueItemTypeQuizAttempt:
		return m.dispatchQuizAttempt(ctx, item)
	case models.QueueItemTypeEnrollment:
		return m.dispatchEnrollment(ctx, item)
	default:
		return fmt.Errorf("unknown queue item type: %s", item.Type)
	}
}

// dispatchQuizAttempt creates the remote attempt, then submits each
// answer. Answers are best-effort: the item counts as delivered once
// the attempt record exists, even if an answer fails. Each lost answer
// is logged so the gap is observable.
func (m *syncManager) dispatchQuizAttempt(ctx context.Context, item models.QueueItem) error {
	var payload models.QuizAttemptPayload
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return fmt.Errorf("malformed quiz attempt payload: %w", err)
	}

	attemptID, err := m.gateway.CreateQuizAttempt(ctx, item.ID, payload)
	if err != nil {
		return fmt.Errorf("failed to create quiz attempt: %w", err)
	}

	for _, answer := range payload.Answers {
		if err := m.gateway.CreateQuizAnswer(ctx, attemptID, answer); err != nil {
			m.logger.Warn("failed to submit quiz answer",
				zap.String("attempt_id", attemptID),
				zap.String("question_id", answer.QuestionID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// dispatchEnrollment creates the remote enrollment record
func (m *syncManager) dispatchEnrollment(ctx context.Context, item models.QueueItem) error {
	var payload models.EnrollmentPayload
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return fmt.Errorf("malformed enrollment payload: %w", err)
	}

	if err := m.gateway.CreateEnrollment(ctx, item.ID, payload); err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	return nil
}

// handleItemFailure bumps the retry counter and drops the item once the
// ceiling is exceeded. The drop is permanent and the data is lost.
func (m *syncManager) handleItemFailure(ctx context.Context, item models.QueueItem, cause error) {
	m.logger.Warn("failed to deliver queue item",
		zap.String("item_id", item.ID),
		zap.String("type", string(item.Type)),
		zap.Error(cause),
	)

	retries, err := m.queue.BumpRetry(ctx, item.ID)
	if err != nil {
		m.logger.Error("failed to bump retry counter",
			zap.String("item_id", item.ID),
			zap.Error(err),
		)
		return
	}

	if retries > maxQueueRetries {
		if err := m.queue.Remove(ctx, item.ID); err != nil {
			m.logger.Error("failed to drop queue item",
				zap.String("item_id", item.ID),
				zap.Error(err),
			)
			return
		}

		m.logger.Error("dropped queue item after retry ceiling",
			zap.String("item_id", item.ID),
			zap.String("type", string(item.Type)),
			zap.Int("retries", retries),
			zap.Duration("age", time.Since(item.CreatedAt)),
		)
	}
}
