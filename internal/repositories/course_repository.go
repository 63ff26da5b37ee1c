package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/japanesestudent/offline-service/internal/models"
)

type courseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB) *courseRepository {
	return &courseRepository{
		db: db,
	}
}

// Upsert stores downloaded course metadata, overwriting any previous copy
func (r *courseRepository) Upsert(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (id, title, short_summary, complexity_level, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			short_summary = excluded.short_summary,
			complexity_level = excluded.complexity_level,
			cached_at = excluded.cached_at
	`

	_, err := r.db.ExecContext(ctx, query,
		course.ID,
		course.Title,
		course.ShortSummary,
		course.ComplexityLevel,
		course.CachedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert course: %w", err)
	}

	return nil
}

// GetByID retrieves a cached course, or nil if it is not cached
func (r *courseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	query := `
		SELECT id, title, short_summary, complexity_level, cached_at
		FROM courses
		WHERE id = ?
	`

	var (
		course   models.Course
		cachedAt int64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&course.ID,
		&course.Title,
		&course.ShortSummary,
		&course.ComplexityLevel,
		&cachedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	course.CachedAt = time.UnixMilli(cachedAt).UTC()
	return &course, nil
}

// GetAll retrieves every cached course
func (r *courseRepository) GetAll(ctx context.Context) ([]models.Course, error) {
	query := `
		SELECT id, title, short_summary, complexity_level, cached_at
		FROM courses
		ORDER BY title
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var (
			course   models.Course
			cachedAt int64
		)
		if err := rows.Scan(&course.ID, &course.Title, &course.ShortSummary, &course.ComplexityLevel, &cachedAt); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		course.CachedAt = time.UnixMilli(cachedAt).UTC()
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}

	return courses, nil
}

// Delete evicts a cached course
func (r *courseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}
