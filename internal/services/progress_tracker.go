package services

import (
	"context"
	"fmt"
	"time"

	"github.com/japanesestudent/offline-service/internal/models"
	"go.uber.org/zap"
)

// ProgressRepository defines methods for progress record data access
type ProgressRepository interface {
	// Upsert creates or overwrites the progress record for the record's
	// (lesson, user) pair.
	//
	// "ctx" is the context for the request.
	// "record" is the progress record to persist; its ID is filled in.
	//
	// Returns an error if any.
	Upsert(ctx context.Context, record *models.ProgressRecord) error
	// GetByLessonAndUser retrieves the progress record for a
	// (lesson, user) pair.
	//
	// Returns nil without error when no record exists.
	GetByLessonAndUser(ctx context.Context, lessonID, userID string) (*models.ProgressRecord, error)
	// ListUnsynced retrieves all unsynced progress records for a user.
	ListUnsynced(ctx context.Context, userID string) ([]models.ProgressRecord, error)
	// MarkSynced flips the synced flag for a (lesson, user) pair.
	MarkSynced(ctx context.Context, lessonID, userID string) error
	// CountUnsynced counts pending progress records for a user.
	CountUnsynced(ctx context.Context, userID string) (int, error)
}

type progressTracker struct {
	repo   ProgressRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(repo ProgressRepository, logger *zap.Logger) *progressTracker {
	return &progressTracker{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// RecordProgress creates or overwrites the progress record for
// (lessonID, userID). The write is local only and never blocks on the
// network; the record is marked unsynced so the next sync pass pushes
// it to the remote backend.
//
// Completion is one-way: once a record is completed it stays completed,
// and the completion timestamp is stamped exactly once.
func (t *progressTracker) RecordProgress(ctx context.Context, lessonID, userID string, videoProgressSeconds int, isCompleted bool) error {
	if lessonID == "" {
		return fmt.Errorf("%w: lesson id is required", ErrValidation)
	}
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if videoProgressSeconds < 0 {
		return fmt.Errorf("%w: video progress must not be negative", ErrValidation)
	}

	existing, err := t.repo.GetByLessonAndUser(ctx, lessonID, userID)
	if err != nil {
		return fmt.Errorf("failed to load existing progress: %w", err)
	}

	now := t.now().UTC()
	record := &models.ProgressRecord{
		LessonID:             lessonID,
		UserID:               userID,
		VideoProgressSeconds: videoProgressSeconds,
		IsCompleted:          isCompleted,
		LastAccessedAt:       now,
		Synced:               false,
	}

	if existing != nil {
		record.CompletedAt = existing.CompletedAt
		if existing.IsCompleted {
			record.IsCompleted = true
		}
	}
	if record.IsCompleted && record.CompletedAt == nil {
		record.CompletedAt = &now
	}

	if err := t.repo.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to record progress: %w", err)
	}

	t.logger.Debug("recorded progress",
		zap.String("lesson_id", lessonID),
		zap.String("user_id", userID),
		zap.Int("seconds", videoProgressSeconds),
		zap.Bool("completed", record.IsCompleted),
	)

	return nil
}

// GetProgress retrieves the progress record for (lessonID, userID), or
// nil if none exists
func (t *progressTracker) GetProgress(ctx context.Context, lessonID, userID string) (*models.ProgressRecord, error) {
	return t.repo.GetByLessonAndUser(ctx, lessonID, userID)
}

// ListUnsynced returns all progress records for the user awaiting a
// remote upsert
func (t *progressTracker) ListUnsynced(ctx context.Context, userID string) ([]models.ProgressRecord, error) {
	return t.repo.ListUnsynced(ctx, userID)
}

// MarkSynced records that the remote backend confirmed the upsert for
// (lessonID, userID). Idempotent.
func (t *progressTracker) MarkSynced(ctx context.Context, lessonID, userID string) error {
	return t.repo.MarkSynced(ctx, lessonID, userID)
}

// CountUnsynced counts progress records awaiting sync for the user
func (t *progressTracker) CountUnsynced(ctx context.Context, userID string) (int, error) {
	return t.repo.CountUnsynced(ctx, userID)
}
