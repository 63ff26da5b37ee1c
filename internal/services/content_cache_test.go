package services

import (
	"context"
	"testing"
	"time"

	"github.com/japanesestudent/offline-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockLessonRepository is an in-memory mock of LessonRepository
type mockLessonRepository struct {
	lessons map[string]models.Lesson
}

func newMockLessonRepository() *mockLessonRepository {
	return &mockLessonRepository{lessons: make(map[string]models.Lesson)}
}

func (m *mockLessonRepository) Upsert(ctx context.Context, lesson *models.Lesson) error {
	m.lessons[lesson.ID] = *lesson
	return nil
}

func (m *mockLessonRepository) GetByID(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, ok := m.lessons[id]
	if !ok {
		return nil, nil
	}
	return &lesson, nil
}

func (m *mockLessonRepository) GetByCourseID(ctx context.Context, courseID string) ([]models.Lesson, error) {
	var lessons []models.Lesson
	for _, lesson := range m.lessons {
		if lesson.CourseID == courseID {
			lessons = append(lessons, lesson)
		}
	}
	return lessons, nil
}

func (m *mockLessonRepository) Delete(ctx context.Context, id string) error {
	delete(m.lessons, id)
	return nil
}

func (m *mockLessonRepository) DeleteByCourseID(ctx context.Context, courseID string) error {
	for id, lesson := range m.lessons {
		if lesson.CourseID == courseID {
			delete(m.lessons, id)
		}
	}
	return nil
}

// mockCourseRepository is an in-memory mock of CourseRepository
type mockCourseRepository struct {
	courses map[string]models.Course
}

func newMockCourseRepository() *mockCourseRepository {
	return &mockCourseRepository{courses: make(map[string]models.Course)}
}

func (m *mockCourseRepository) Upsert(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return nil, nil
	}
	return &course, nil
}

func (m *mockCourseRepository) GetAll(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	for _, course := range m.courses {
		courses = append(courses, course)
	}
	return courses, nil
}

func (m *mockCourseRepository) Delete(ctx context.Context, id string) error {
	delete(m.courses, id)
	return nil
}

// mockCacheRepository is an in-memory mock of CacheRepository
type mockCacheRepository struct {
	entries map[string]models.CacheEntry
}

func newMockCacheRepository() *mockCacheRepository {
	return &mockCacheRepository{entries: make(map[string]models.CacheEntry)}
}

func (m *mockCacheRepository) Put(ctx context.Context, entry *models.CacheEntry) error {
	m.entries[entry.URL] = *entry
	return nil
}

func (m *mockCacheRepository) Get(ctx context.Context, url string) (*models.CacheEntry, error) {
	entry, ok := m.entries[url]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (m *mockCacheRepository) Delete(ctx context.Context, url string) error {
	delete(m.entries, url)
	return nil
}

func (m *mockCacheRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	pruned := 0
	for url, entry := range m.entries {
		if entry.CachedAt.Before(cutoff) {
			delete(m.entries, url)
			pruned++
		}
	}
	return pruned, nil
}

func newTestContentCache() (*contentCache, *mockLessonRepository, *mockCourseRepository, *mockCacheRepository) {
	lessonRepo := newMockLessonRepository()
	courseRepo := newMockCourseRepository()
	cacheRepo := newMockCacheRepository()
	return NewContentCache(lessonRepo, courseRepo, cacheRepo, zap.NewNop()), lessonRepo, courseRepo, cacheRepo
}

func TestContentCache_CacheValidation(t *testing.T) {
	cache, _, _, _ := newTestContentCache()
	ctx := context.Background()

	assert.ErrorIs(t, cache.CacheCourse(ctx, models.Course{}), ErrValidation)
	assert.ErrorIs(t, cache.CacheLesson(ctx, models.Lesson{ID: "l1"}), ErrValidation)
	assert.ErrorIs(t, cache.CacheLesson(ctx, models.Lesson{CourseID: "c1"}), ErrValidation)
}

func TestContentCache_CacheStampsCachedAt(t *testing.T) {
	cache, lessonRepo, _, _ := newTestContentCache()
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.CacheLesson(context.Background(), models.Lesson{ID: "l1", CourseID: "c1", Title: "t"}))
	assert.Equal(t, now, lessonRepo.lessons["l1"].CachedAt)
}

// Evicting a course removes the course and every cached lesson under it
func TestContentCache_EvictCourse(t *testing.T) {
	cache, _, _, _ := newTestContentCache()
	ctx := context.Background()

	require.NoError(t, cache.CacheCourse(ctx, models.Course{ID: "c1", Title: "Beginner"}))
	require.NoError(t, cache.CacheLesson(ctx, models.Lesson{ID: "l1", CourseID: "c1", Title: "a"}))
	require.NoError(t, cache.CacheLesson(ctx, models.Lesson{ID: "l2", CourseID: "c1", Title: "b"}))
	require.NoError(t, cache.CacheLesson(ctx, models.Lesson{ID: "l3", CourseID: "c2", Title: "c"}))

	require.NoError(t, cache.EvictCourse(ctx, "c1"))

	course, err := cache.GetCourse(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, course)

	lessons, err := cache.GetLessonsByCourse(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, lessons)

	// Other courses are untouched
	other, err := cache.GetLessonsByCourse(ctx, "c2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestContentCache_GetResponseStaleness(t *testing.T) {
	cache, _, _, cacheRepo := newTestContentCache()
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cacheRepo.entries["fresh"] = models.CacheEntry{URL: "fresh", Body: []byte("a"), CachedAt: now.Add(-time.Minute)}
	cacheRepo.entries["stale"] = models.CacheEntry{URL: "stale", Body: []byte("b"), CachedAt: now.Add(-2 * time.Hour)}

	entry, err := cache.GetResponse(ctx, "fresh", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, []byte("a"), entry.Body)

	entry, err = cache.GetResponse(ctx, "stale", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, entry)
	// Stale entries are evicted on read
	_, evicted := cacheRepo.entries["stale"]
	assert.False(t, evicted)
}

func TestContentCache_PruneResponses(t *testing.T) {
	cache, _, _, cacheRepo := newTestContentCache()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cacheRepo.entries["old"] = models.CacheEntry{URL: "old", CachedAt: now.Add(-48 * time.Hour)}
	cacheRepo.entries["new"] = models.CacheEntry{URL: "new", CachedAt: now.Add(-time.Hour)}

	pruned, err := cache.PruneResponses(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
	assert.Len(t, cacheRepo.entries, 1)
}
