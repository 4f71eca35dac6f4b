package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
)

func seedQueued(t *testing.T, repo *QueuedMessageRepository, id string, mutate func(*entities.QueuedMessage)) *entities.QueuedMessage {
	t.Helper()
	m := &entities.QueuedMessage{
		MessageID:   id,
		MessageType: "CREDIT_TRANSFER",
		TenantID:    "tenant-1",
		ServiceName: "core-banking-debit",
		HTTPMethod:  "POST",
		Payload:     `{"transactionReference":"` + id + `"}`,
		Priority:    5,
		MaxRetries:  3,
	}
	if mutate != nil {
		mutate(m)
	}
	require.NoError(t, repo.Enqueue(context.Background(), m))
	return m
}

func TestEnqueueDefaultsToPending(t *testing.T) {
	repo := NewQueuedMessageRepository(newTestDB(t))
	m := seedQueued(t, repo, "QM-1", nil)

	got, err := repo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.QueuedMessageStatusPending, got.Status)
	assert.Equal(t, "QM-1", got.MessageID)
}

func TestClaimIsAtomic(t *testing.T) {
	repo := NewQueuedMessageRepository(newTestDB(t))
	m := seedQueued(t, repo, "QM-1", nil)

	claimed, err := repo.Claim(context.Background(), m.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	// A second worker loses the race.
	claimed, err = repo.Claim(context.Background(), m.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	got, err := repo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.QueuedMessageStatusProcessing, got.Status)
}

func TestMarkFailedBacksOffThenParks(t *testing.T) {
	repo := NewQueuedMessageRepository(newTestDB(t))
	m := seedQueued(t, repo, "QM-1", func(q *entities.QueuedMessage) { q.MaxRetries = 2 })

	// First failure: back to RETRY with a one-minute window.
	require.NoError(t, repo.MarkFailed(context.Background(), m.ID, "connection refused", true))
	got, err := repo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.QueuedMessageStatusRetry, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	require.NotNil(t, got.NextRetryAt)
	assert.WithinDuration(t, time.Now().Add(time.Minute), *got.NextRetryAt, 10*time.Second)
	assert.Equal(t, "connection refused", got.LastError.String)

	// Budget exhausted: FAILED.
	require.NoError(t, repo.MarkFailed(context.Background(), m.ID, "still down", true))
	got, err = repo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.QueuedMessageStatusFailed, got.Status)
	assert.Equal(t, 2, got.RetryCount)
}

func TestMarkFailedNonRetryableParksImmediately(t *testing.T) {
	repo := NewQueuedMessageRepository(newTestDB(t))
	m := seedQueued(t, repo, "QM-1", nil)

	require.NoError(t, repo.MarkFailed(context.Background(), m.ID, "insufficient funds", false))
	got, err := repo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.QueuedMessageStatusFailed, got.Status)
}

func TestMarkProcessed(t *testing.T) {
	repo := NewQueuedMessageRepository(newTestDB(t))
	m := seedQueued(t, repo, "QM-1", nil)

	require.NoError(t, repo.MarkProcessed(context.Background(), m.ID))
	got, err := repo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.QueuedMessageStatusProcessed, got.Status)
}

func TestNextPendingForServiceOrderingAndWindows(t *testing.T) {
	repo := NewQueuedMessageRepository(newTestDB(t))
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	low := seedQueued(t, repo, "QM-LOW", func(q *entities.QueuedMessage) { q.Priority = 1 })
	high := seedQueued(t, repo, "QM-HIGH", func(q *entities.QueuedMessage) { q.Priority = 9 })
	retryDue := seedQueued(t, repo, "QM-RETRY", func(q *entities.QueuedMessage) {
		q.Status = entities.QueuedMessageStatusRetry
		q.NextRetryAt = &past
		q.Priority = 5
	})
	seedQueued(t, repo, "QM-NOT-YET", func(q *entities.QueuedMessage) {
		q.Status = entities.QueuedMessageStatusRetry
		q.NextRetryAt = &future
	})
	seedQueued(t, repo, "QM-OTHER-SVC", func(q *entities.QueuedMessage) {
		q.ServiceName = "fraud-external-api"
	})
	seedQueued(t, repo, "QM-DONE", func(q *entities.QueuedMessage) {
		q.Status = entities.QueuedMessageStatusProcessed
	})

	batch, err := repo.NextPendingForService(context.Background(), "core-banking-debit", "tenant-1", 10)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, high.ID, batch[0].ID)
	assert.Equal(t, retryDue.ID, batch[1].ID)
	assert.Equal(t, low.ID, batch[2].ID)
}

func TestQueuedListFilters(t *testing.T) {
	repo := NewQueuedMessageRepository(newTestDB(t))
	seedQueued(t, repo, "QM-1", nil)
	seedQueued(t, repo, "QM-2", func(q *entities.QueuedMessage) {
		q.Status = entities.QueuedMessageStatusFailed
	})

	failed := entities.QueuedMessageStatusFailed
	messages, total, err := repo.List(context.Background(), &entities.QueuedMessageFilter{
		TenantID: "tenant-1",
		Status:   &failed,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, messages, 1)
	assert.Equal(t, "QM-2", messages[0].MessageID)
}

func TestQueuedMarkMissingMessage(t *testing.T) {
	repo := NewQueuedMessageRepository(newTestDB(t))

	assert.ErrorIs(t, repo.MarkFailed(context.Background(), uuid.New(), "x", true), domainerrors.ErrNotFound)
	assert.ErrorIs(t, repo.MarkProcessed(context.Background(), uuid.New()), domainerrors.ErrNotFound)
}
