package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/japanesestudent/offline-service/internal/models"
)

type lessonRepository struct {
	db *sql.DB
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *sql.DB) *lessonRepository {
	return &lessonRepository{
		db: db,
	}
}

// Upsert stores downloaded lesson metadata, overwriting any previous copy
func (r *lessonRepository) Upsert(ctx context.Context, lesson *models.Lesson) error {
	query := `
		INSERT INTO lessons (id, course_id, title, short_summary, position, video_url, document_url, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			course_id = excluded.course_id,
			title = excluded.title,
			short_summary = excluded.short_summary,
			position = excluded.position,
			video_url = excluded.video_url,
			document_url = excluded.document_url,
			cached_at = excluded.cached_at
	`

	_, err := r.db.ExecContext(ctx, query,
		lesson.ID,
		lesson.CourseID,
		lesson.Title,
		lesson.ShortSummary,
		lesson.Order,
		lesson.VideoURL,
		lesson.DocumentURL,
		lesson.CachedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert lesson: %w", err)
	}

	return nil
}

// GetByID retrieves a cached lesson, or nil if it is not cached
func (r *lessonRepository) GetByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := `
		SELECT id, course_id, title, short_summary, position, video_url, document_url, cached_at
		FROM lessons
		WHERE id = ?
	`

	lesson, err := scanLesson(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	return lesson, nil
}

// GetByCourseID retrieves all cached lessons for a course ordered by
// lesson position
func (r *lessonRepository) GetByCourseID(ctx context.Context, courseID string) ([]models.Lesson, error) {
	query := `
		SELECT id, course_id, title, short_summary, position, video_url, document_url, cached_at
		FROM lessons
		WHERE course_id = ?
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lessons by course: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, *lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lessons: %w", err)
	}

	return lessons, nil
}

// Delete evicts a single cached lesson
func (r *lessonRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	return nil
}

// DeleteByCourseID evicts all cached lessons belonging to a course
func (r *lessonRepository) DeleteByCourseID(ctx context.Context, courseID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE course_id = ?`, courseID); err != nil {
		return fmt.Errorf("failed to delete lessons by course: %w", err)
	}
	return nil
}

func scanLesson(row rowScanner) (*models.Lesson, error) {
	var (
		lesson   models.Lesson
		cachedAt int64
	)

	err := row.Scan(
		&lesson.ID,
		&lesson.CourseID,
		&lesson.Title,
		&lesson.ShortSummary,
		&lesson.Order,
		&lesson.VideoURL,
		&lesson.DocumentURL,
		&cachedAt,
	)
	if err != nil {
		return nil, err
	}

	lesson.CachedAt = time.UnixMilli(cachedAt).UTC()
	return &lesson, nil
}
