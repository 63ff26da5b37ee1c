package repositories

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/japanesestudent/offline-service/internal/models"
	"github.com/japanesestudent/offline-service/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRepository_InsertAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQueueRepository(db)
	ctx := context.Background()

	older := &models.QueueItem{
		ID:        "item-1",
		Type:      models.QueueItemTypeQuizAttempt,
		Payload:   json.RawMessage(`{"quizId":"q1"}`),
		CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
	newer := &models.QueueItem{
		ID:        "item-2",
		Type:      models.QueueItemTypeEnrollment,
		Payload:   json.RawMessage(`{"courseId":"c1"}`),
		CreatedAt: time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC),
	}

	require.NoError(t, repo.Insert(ctx, newer))
	require.NoError(t, repo.Insert(ctx, older))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "item-1", items[0].ID)
	assert.Equal(t, "item-2", items[1].ID)
	assert.JSONEq(t, `{"quizId":"q1"}`, string(items[0].Payload))
	assert.Equal(t, 0, items[0].Retries)
}

func TestQueueRepository_ListByType(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQueueRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &models.QueueItem{
		ID: "a", Type: models.QueueItemTypeQuizAttempt, Payload: json.RawMessage(`{}`), CreatedAt: time.Now(),
	}))
	require.NoError(t, repo.Insert(ctx, &models.QueueItem{
		ID: "b", Type: models.QueueItemTypeEnrollment, Payload: json.RawMessage(`{}`), CreatedAt: time.Now(),
	}))

	items, err := repo.ListByType(ctx, models.QueueItemTypeEnrollment)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)
}

func TestQueueRepository_IncrementRetries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQueueRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &models.QueueItem{
		ID: "item-1", Type: models.QueueItemTypeEnrollment, Payload: json.RawMessage(`{}`), CreatedAt: time.Now(),
	}))

	for want := 1; want <= 4; want++ {
		got, err := repo.IncrementRetries(ctx, "item-1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestQueueRepository_IncrementRetriesMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQueueRepository(db)

	_, err := repo.IncrementRetries(context.Background(), "nope")
	assert.Error(t, err)
}

func TestQueueRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQueueRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &models.QueueItem{
		ID: "item-1", Type: models.QueueItemTypeEnrollment, Payload: json.RawMessage(`{}`), CreatedAt: time.Now(),
	}))
	require.NoError(t, repo.Delete(ctx, "item-1"))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// Queue items must survive a process restart unchanged
func TestQueueRepository_DurabilityAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offline.db")
	ctx := context.Background()

	s, err := store.Open(path)
	require.NoError(t, err)

	item := &models.QueueItem{
		ID:        "item-1",
		Type:      models.QueueItemTypeQuizAttempt,
		Payload:   json.RawMessage(`{"quizId":"q1","score":8}`),
		CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Retries:   2,
	}
	require.NoError(t, NewQueueRepository(s.DB()).Insert(ctx, item))
	require.NoError(t, s.Close())

	s, err = store.Open(path)
	require.NoError(t, err)
	defer s.Close()

	items, err := NewQueueRepository(s.DB()).List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
	assert.Equal(t, item.Type, items[0].Type)
	assert.JSONEq(t, string(item.Payload), string(items[0].Payload))
	assert.Equal(t, item.CreatedAt, items[0].CreatedAt)
	assert.Equal(t, 2, items[0].Retries)
}
