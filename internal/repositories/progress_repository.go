package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/japanesestudent/offline-service/internal/models"
)

type progressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *sql.DB) *progressRepository {
	return &progressRepository{
		db: db,
	}
}

// Upsert creates or overwrites the progress record for the record's
// (lesson, user) pair
func (r *progressRepository) Upsert(ctx context.Context, record *models.ProgressRecord) error {
	query := `
		INSERT INTO progress (lesson_id, user_id, video_progress_seconds, is_completed, completed_at, last_accessed_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(lesson_id, user_id) DO UPDATE SET
			video_progress_seconds = excluded.video_progress_seconds,
			is_completed = excluded.is_completed,
			completed_at = excluded.completed_at,
			last_accessed_at = excluded.last_accessed_at,
			synced = excluded.synced
	`

	var completedAt sql.NullInt64
	if record.CompletedAt != nil {
		completedAt = sql.NullInt64{Int64: record.CompletedAt.UTC().UnixMilli(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		record.LessonID,
		record.UserID,
		record.VideoProgressSeconds,
		record.IsCompleted,
		completedAt,
		record.LastAccessedAt.UTC().UnixMilli(),
		record.Synced,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progress record: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM progress WHERE lesson_id = ? AND user_id = ?`,
		record.LessonID, record.UserID,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to read back progress record id: %w", err)
	}

	return nil
}

// GetByLessonAndUser retrieves the progress record for a (lesson, user)
// pair, or nil if none exists
func (r *progressRepository) GetByLessonAndUser(ctx context.Context, lessonID, userID string) (*models.ProgressRecord, error) {
	query := `
		SELECT id, lesson_id, user_id, video_progress_seconds, is_completed, completed_at, last_accessed_at, synced
		FROM progress
		WHERE lesson_id = ? AND user_id = ?
	`

	record, err := scanProgressRecord(r.db.QueryRowContext(ctx, query, lessonID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress record: %w", err)
	}

	return record, nil
}

// ListUnsynced retrieves all progress records for the user that have not
// been confirmed by the remote backend
func (r *progressRepository) ListUnsynced(ctx context.Context, userID string) ([]models.ProgressRecord, error) {
	query := `
		SELECT id, lesson_id, user_id, video_progress_seconds, is_completed, completed_at, last_accessed_at, synced
		FROM progress
		WHERE synced = 0 AND user_id = ?
		ORDER BY last_accessed_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced progress: %w", err)
	}
	defer rows.Close()

	var records []models.ProgressRecord
	for rows.Next() {
		record, err := scanProgressRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress record: %w", err)
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate progress records: %w", err)
	}

	return records, nil
}

// MarkSynced flips the synced flag for a (lesson, user) pair. Calling it
// for an already synced record is a no-op.
func (r *progressRepository) MarkSynced(ctx context.Context, lessonID, userID string) error {
	query := `UPDATE progress SET synced = 1 WHERE lesson_id = ? AND user_id = ?`

	_, err := r.db.ExecContext(ctx, query, lessonID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark progress synced: %w", err)
	}

	return nil
}

// CountUnsynced counts pending progress records for the user
func (r *progressRepository) CountUnsynced(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM progress WHERE synced = 0 AND user_id = ?`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unsynced progress: %w", err)
	}

	return count, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgressRecord(row rowScanner) (*models.ProgressRecord, error) {
	var (
		record         models.ProgressRecord
		completedAt    sql.NullInt64
		lastAccessedAt int64
	)

	err := row.Scan(
		&record.ID,
		&record.LessonID,
		&record.UserID,
		&record.VideoProgressSeconds,
		&record.IsCompleted,
		&completedAt,
		&lastAccessedAt,
		&record.Synced,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		t := time.UnixMilli(completedAt.Int64).UTC()
		record.CompletedAt = &t
	}
	record.LastAccessedAt = time.UnixMilli(lastAccessedAt).UTC()

	return &record, nil
}
