package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/japanesestudent/offline-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonRepository_UpsertAndGetByCourse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLessonRepository(db)
	ctx := context.Background()

	cachedAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	lessons := []models.Lesson{
		{ID: "l2", CourseID: "c1", Title: "Katakana basics", Order: 2, CachedAt: cachedAt},
		{ID: "l1", CourseID: "c1", Title: "Hiragana basics", Order: 1, VideoURL: "videos/l1.mp4", CachedAt: cachedAt},
		{ID: "l3", CourseID: "c2", Title: "Kanji radicals", Order: 1, CachedAt: cachedAt},
	}
	for i := range lessons {
		require.NoError(t, repo.Upsert(ctx, &lessons[i]))
	}

	got, err := repo.GetByCourseID(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Ordered by lesson position
	assert.Equal(t, "l1", got[0].ID)
	assert.Equal(t, "l2", got[1].ID)
	assert.Equal(t, "videos/l1.mp4", got[0].VideoURL)
	assert.Equal(t, cachedAt, got[0].CachedAt)
}

func TestLessonRepository_UpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLessonRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.Lesson{ID: "l1", CourseID: "c1", Title: "old", CachedAt: time.Now()}))
	require.NoError(t, repo.Upsert(ctx, &models.Lesson{ID: "l1", CourseID: "c1", Title: "new", CachedAt: time.Now()}))

	got, err := repo.GetByID(ctx, "l1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new", got.Title)
}

func TestLessonRepository_DeleteByCourseID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLessonRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.Lesson{ID: "l1", CourseID: "c1", Title: "a", CachedAt: time.Now()}))
	require.NoError(t, repo.Upsert(ctx, &models.Lesson{ID: "l2", CourseID: "c1", Title: "b", CachedAt: time.Now()}))
	require.NoError(t, repo.Upsert(ctx, &models.Lesson{ID: "l3", CourseID: "c2", Title: "c", CachedAt: time.Now()}))

	require.NoError(t, repo.DeleteByCourseID(ctx, "c1"))

	got, err := repo.GetByCourseID(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, got)

	remaining, err := repo.GetByID(ctx, "l3")
	require.NoError(t, err)
	assert.NotNil(t, remaining)
}
