package services

import (
	"context"
	"fmt"
	"time"

	"github.com/japanesestudent/offline-service/internal/models"
	"go.uber.org/zap"
)

// LessonRepository defines methods for cached lesson data access
type LessonRepository interface {
	// Upsert stores downloaded lesson metadata.
	Upsert(ctx context.Context, lesson *models.Lesson) error
	// GetByID retrieves a cached lesson, or nil if absent.
	GetByID(ctx context.Context, id string) (*models.Lesson, error)
	// GetByCourseID retrieves all cached lessons for a course.
	GetByCourseID(ctx context.Context, courseID string) ([]models.Lesson, error)
	// Delete evicts a cached lesson.
	Delete(ctx context.Context, id string) error
	// DeleteByCourseID evicts all cached lessons of a course.
	DeleteByCourseID(ctx context.Context, courseID string) error
}

// CourseRepository defines methods for cached course data access
type CourseRepository interface {
	// Upsert stores downloaded course metadata.
	Upsert(ctx context.Context, course *models.Course) error
	// GetByID retrieves a cached course, or nil if absent.
	GetByID(ctx context.Context, id string) (*models.Course, error)
	// GetAll retrieves every cached course.
	GetAll(ctx context.Context) ([]models.Course, error)
	// Delete evicts a cached course.
	Delete(ctx context.Context, id string) error
}

// CacheRepository defines methods for the generic response cache
type CacheRepository interface {
	// Put stores a cached response body for a URL.
	Put(ctx context.Context, entry *models.CacheEntry) error
	// Get retrieves the cached response for a URL, or nil on a miss.
	Get(ctx context.Context, url string) (*models.CacheEntry, error)
	// Delete removes a single cache entry.
	Delete(ctx context.Context, url string) error
	// PruneBefore evicts entries cached before the cutoff.
	PruneBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type contentCache struct {
	lessonRepo LessonRepository
	courseRepo CourseRepository
	cacheRepo  CacheRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewContentCache creates a new content cache service
func NewContentCache(lessonRepo LessonRepository, courseRepo CourseRepository, cacheRepo CacheRepository, logger *zap.Logger) *contentCache {
	return &contentCache{
		lessonRepo: lessonRepo,
		courseRepo: courseRepo,
		cacheRepo:  cacheRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// CacheCourse stores downloaded course metadata with a fresh cached-at
// stamp
func (c *contentCache) CacheCourse(ctx context.Context, course models.Course) error {
	if course.ID == "" {
		return fmt.Errorf("%w: course id is required", ErrValidation)
	}

	course.CachedAt = c.now().UTC()
	if err := c.courseRepo.Upsert(ctx, &course); err != nil {
		return fmt.Errorf("failed to cache course: %w", err)
	}

	return nil
}

// CacheLesson stores downloaded lesson metadata with a fresh cached-at
// stamp
func (c *contentCache) CacheLesson(ctx context.Context, lesson models.Lesson) error {
	if lesson.ID == "" {
		return fmt.Errorf("%w: lesson id is required", ErrValidation)
	}
	if lesson.CourseID == "" {
		return fmt.Errorf("%w: course id is required", ErrValidation)
	}

	lesson.CachedAt = c.now().UTC()
	if err := c.lessonRepo.Upsert(ctx, &lesson); err != nil {
		return fmt.Errorf("failed to cache lesson: %w", err)
	}

	return nil
}

// GetCourse retrieves a cached course, or nil if it is not downloaded
func (c *contentCache) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	return c.courseRepo.GetByID(ctx, id)
}

// GetCourses retrieves every downloaded course
func (c *contentCache) GetCourses(ctx context.Context) ([]models.Course, error) {
	return c.courseRepo.GetAll(ctx)
}

// GetLesson retrieves a cached lesson, or nil if it is not downloaded
func (c *contentCache) GetLesson(ctx context.Context, id string) (*models.Lesson, error) {
	return c.lessonRepo.GetByID(ctx, id)
}

// GetLessonsByCourse retrieves the cached lessons of a course in lesson
// order
func (c *contentCache) GetLessonsByCourse(ctx context.Context, courseID string) ([]models.Lesson, error) {
	return c.lessonRepo.GetByCourseID(ctx, courseID)
}

// EvictCourse removes a downloaded course and all of its lessons
func (c *contentCache) EvictCourse(ctx context.Context, courseID string) error {
	if err := c.lessonRepo.DeleteByCourseID(ctx, courseID); err != nil {
		return fmt.Errorf("failed to evict course lessons: %w", err)
	}
	if err := c.courseRepo.Delete(ctx, courseID); err != nil {
		return fmt.Errorf("failed to evict course: %w", err)
	}

	c.logger.Info("evicted downloaded course", zap.String("course_id", courseID))
	return nil
}

// PutResponse opportunistically caches a network response body
func (c *contentCache) PutResponse(ctx context.Context, url string, body []byte) error {
	if url == "" {
		return fmt.Errorf("%w: url is required", ErrValidation)
	}

	entry := &models.CacheEntry{
		URL:      url,
		Body:     body,
		CachedAt: c.now().UTC(),
	}
	return c.cacheRepo.Put(ctx, entry)
}

// GetResponse retrieves a cached response no older than maxAge, or nil
// on a miss or a stale entry. Stale entries are evicted on read.
func (c *contentCache) GetResponse(ctx context.Context, url string, maxAge time.Duration) (*models.CacheEntry, error) {
	entry, err := c.cacheRepo.Get(ctx, url)
	if err != nil || entry == nil {
		return nil, err
	}

	if maxAge > 0 && c.now().UTC().Sub(entry.CachedAt) > maxAge {
		if err := c.cacheRepo.Delete(ctx, url); err != nil {
			c.logger.Warn("failed to evict stale cache entry", zap.String("url", url), zap.Error(err))
		}
		return nil, nil
	}

	return entry, nil
}

// PruneResponses evicts response cache entries older than maxAge
func (c *contentCache) PruneResponses(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := c.now().UTC().Add(-maxAge)
	pruned, err := c.cacheRepo.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if pruned > 0 {
		c.logger.Info("pruned response cache", zap.Int("evicted", pruned))
	}
	return pruned, nil
}
