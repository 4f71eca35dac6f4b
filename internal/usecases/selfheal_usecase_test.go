package usecases

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/pkg/resilience"
)

// scriptedDispatcher fails references listed in failWith and counts dispatches
type scriptedDispatcher struct {
	dispatched []*entities.QueuedMessage
	failWith   map[string]error
}

func (d *scriptedDispatcher) DispatchQueued(ctx context.Context, message *entities.QueuedMessage) error {
	d.dispatched = append(d.dispatched, message)
	if err, ok := d.failWith[message.MessageID]; ok {
		return err
	}
	return nil
}

func queuedMsg(id string) *entities.QueuedMessage {
	return &entities.QueuedMessage{
		ID:          uuid.New(),
		MessageID:   id,
		TenantID:    "tenant-1",
		ServiceName: "core-banking-debit",
		Status:      entities.QueuedMessageStatusPending,
	}
}

func TestProcessQueuedMessagesDrains(t *testing.T) {
	m1, m2 := queuedMsg("QM-1"), queuedMsg("QM-2")

	queue := new(mockQueueRepo)
	queue.On("NextPendingForService", mock.Anything, "core-banking-debit", "tenant-1", 50).
		Return([]*entities.QueuedMessage{m1, m2}, nil).Once()
	queue.On("NextPendingForService", mock.Anything, "core-banking-debit", "tenant-1", 50).
		Return([]*entities.QueuedMessage{}, nil)
	queue.On("Claim", mock.Anything, m1.ID).Return(true, nil)
	queue.On("Claim", mock.Anything, m2.ID).Return(true, nil)
	queue.On("MarkProcessed", mock.Anything, m1.ID).Return(nil)
	queue.On("MarkProcessed", mock.Anything, m2.ID).Return(nil)

	dispatcher := &scriptedDispatcher{}
	u := NewSelfHealUsecase(new(mockResiliencyConfigRepo), queue, resilience.NewRegistry(nil), dispatcher)

	drained, failed, err := u.ProcessQueuedMessagesForService(context.Background(), "core-banking-debit", "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 2, drained)
	assert.Zero(t, failed)
	assert.Len(t, dispatcher.dispatched, 2)
	queue.AssertExpectations(t)
}

func TestProcessQueuedMessagesBusinessFailureNotRetryable(t *testing.T) {
	msg := queuedMsg("QM-1")

	queue := new(mockQueueRepo)
	queue.On("NextPendingForService", mock.Anything, mock.Anything, mock.Anything, 50).
		Return([]*entities.QueuedMessage{msg}, nil).Once()
	queue.On("NextPendingForService", mock.Anything, mock.Anything, mock.Anything, 50).
		Return([]*entities.QueuedMessage{}, nil)
	queue.On("Claim", mock.Anything, msg.ID).Return(true, nil)
	queue.On("MarkFailed", mock.Anything, msg.ID, mock.Anything, false).Return(nil)

	dispatcher := &scriptedDispatcher{failWith: map[string]error{
		"QM-1": domainerrors.ErrInsufficientFunds,
	}}
	u := NewSelfHealUsecase(new(mockResiliencyConfigRepo), queue, resilience.NewRegistry(nil), dispatcher)

	drained, failed, err := u.ProcessQueuedMessagesForService(context.Background(), "core-banking-debit", "tenant-1")
	require.NoError(t, err)
	assert.Zero(t, drained)
	assert.Equal(t, 1, failed)
	queue.AssertExpectations(t)
}

func TestProcessQueuedMessagesTransientFailureRetryable(t *testing.T) {
	msg := queuedMsg("QM-1")

	queue := new(mockQueueRepo)
	queue.On("NextPendingForService", mock.Anything, mock.Anything, mock.Anything, 50).
		Return([]*entities.QueuedMessage{msg}, nil).Once()
	queue.On("NextPendingForService", mock.Anything, mock.Anything, mock.Anything, 50).
		Return([]*entities.QueuedMessage{}, nil)
	queue.On("Claim", mock.Anything, msg.ID).Return(true, nil)
	queue.On("MarkFailed", mock.Anything, msg.ID, mock.Anything, true).Return(nil)

	dispatcher := &scriptedDispatcher{failWith: map[string]error{
		"QM-1": domainerrors.ErrDownstreamUnavailable,
	}}
	u := NewSelfHealUsecase(new(mockResiliencyConfigRepo), queue, resilience.NewRegistry(nil), dispatcher)

	_, failed, err := u.ProcessQueuedMessagesForService(context.Background(), "core-banking-debit", "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	queue.AssertExpectations(t)
}

func TestProcessQueuedMessagesStopsWhenEverythingClaimedElsewhere(t *testing.T) {
	msg := queuedMsg("QM-1")

	queue := new(mockQueueRepo)
	// The same batch keeps coming back but another worker holds the claim.
	queue.On("NextPendingForService", mock.Anything, mock.Anything, mock.Anything, 50).
		Return([]*entities.QueuedMessage{msg}, nil)
	queue.On("Claim", mock.Anything, msg.ID).Return(false, nil)

	dispatcher := &scriptedDispatcher{}
	u := NewSelfHealUsecase(new(mockResiliencyConfigRepo), queue, resilience.NewRegistry(nil), dispatcher)

	drained, failed, err := u.ProcessQueuedMessagesForService(context.Background(), "core-banking-debit", "tenant-1")
	require.NoError(t, err)
	assert.Zero(t, drained)
	assert.Zero(t, failed)
	assert.Empty(t, dispatcher.dispatched, "unclaimed messages are never dispatched")
}

func TestRecoverServiceClosesBreakerAndDrains(t *testing.T) {
	registry := resilience.NewRegistry(nil)
	key := resilience.Key{Service: "core-banking-debit", Tenant: "tenant-1"}
	registry.Configure(key, resilience.Policy{
		CircuitBreaker: &entities.CircuitBreakerSettings{
			FailureRateThreshold: 0.5,
			MinimumNumberOfCalls: 1,
			WaitDurationSeconds:  300,
		},
		Retry: &entities.RetrySettings{MaxAttempts: 1},
	})
	_ = registry.Execute(context.Background(), key, func(ctx context.Context) error {
		return errors.New("down")
	})
	require.Equal(t, "open", registry.State(key))

	msg := queuedMsg("QM-1")
	queue := new(mockQueueRepo)
	queue.On("NextPendingForService", mock.Anything, "core-banking-debit", "tenant-1", 50).
		Return([]*entities.QueuedMessage{msg}, nil).Once()
	queue.On("NextPendingForService", mock.Anything, "core-banking-debit", "tenant-1", 50).
		Return([]*entities.QueuedMessage{}, nil)
	queue.On("Claim", mock.Anything, msg.ID).Return(true, nil)
	queue.On("MarkProcessed", mock.Anything, msg.ID).Return(nil)

	u := NewSelfHealUsecase(new(mockResiliencyConfigRepo), queue, registry, &scriptedDispatcher{})

	report, err := u.RecoverService(context.Background(), "core-banking-debit", "tenant-1")
	require.NoError(t, err)
	assert.True(t, report.CircuitReset)
	assert.Equal(t, 1, report.MessagesDrained)
	assert.Equal(t, "closed", registry.State(key), "recovery closes the tripped breaker")
}

func TestPerformHealthChecksRecoversOnTransition(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	configRepo := new(mockResiliencyConfigRepo)
	configRepo.On("ListActive", mock.Anything).Return([]*entities.ResiliencyConfiguration{
		{
			ServiceName: "core-banking-debit",
			TenantID:    "tenant-1",
			HealthCheck: &entities.HealthCheckSettings{URL: srv.URL, TimeoutMs: 2000},
			IsActive:    true,
		},
	}, nil)

	queue := new(mockQueueRepo)
	queue.On("NextPendingForService", mock.Anything, "core-banking-debit", "tenant-1", 50).
		Return([]*entities.QueuedMessage{}, nil)

	u := NewSelfHealUsecase(configRepo, queue, resilience.NewRegistry(nil), &scriptedDispatcher{})

	// First sweep observes the outage.
	observations, err := u.PerformHealthChecks(context.Background())
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.False(t, observations[0].Healthy)

	// Second sweep sees the service back and drains its queue.
	healthy.Store(true)
	observations, err = u.PerformHealthChecks(context.Background())
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.True(t, observations[0].Healthy)
	queue.AssertCalled(t, "NextPendingForService", mock.Anything, "core-banking-debit", "tenant-1", 50)
}

func TestPerformHealthChecksSkipsConfigsWithoutProbe(t *testing.T) {
	configRepo := new(mockResiliencyConfigRepo)
	configRepo.On("ListActive", mock.Anything).Return([]*entities.ResiliencyConfiguration{
		{ServiceName: "core-banking-debit", TenantID: "tenant-1", IsActive: true},
	}, nil)

	u := NewSelfHealUsecase(configRepo, new(mockQueueRepo), resilience.NewRegistry(nil), &scriptedDispatcher{})
	observations, err := u.PerformHealthChecks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, observations)
}

func TestAutoRetrySkipsFutureBackoff(t *testing.T) {
	due := queuedMsg("QM-DUE")
	due.Status = entities.QueuedMessageStatusRetry
	notYet := queuedMsg("QM-LATER")
	notYet.Status = entities.QueuedMessageStatusRetry
	future := time.Now().Add(time.Hour)
	notYet.NextRetryAt = &future

	queue := new(mockQueueRepo)
	queue.On("List", mock.Anything, mock.MatchedBy(func(f *entities.QueuedMessageFilter) bool {
		return f.Status != nil && *f.Status == entities.QueuedMessageStatusRetry
	})).Return([]*entities.QueuedMessage{due, notYet}, int64(2), nil)
	queue.On("Claim", mock.Anything, due.ID).Return(true, nil)
	queue.On("MarkProcessed", mock.Anything, due.ID).Return(nil)

	dispatcher := &scriptedDispatcher{}
	u := NewSelfHealUsecase(new(mockResiliencyConfigRepo), queue, resilience.NewRegistry(nil), dispatcher)

	retried, err := u.AutoRetryFailedOperations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, retried)
	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, "QM-DUE", dispatcher.dispatched[0].MessageID)
	queue.AssertNotCalled(t, "Claim", mock.Anything, notYet.ID)
}

func TestCircuitStatesSnapshot(t *testing.T) {
	registry := resilience.NewRegistry(nil)
	key := resilience.Key{Service: "svc", Tenant: "tenant-1"}
	registry.Configure(key, resilience.Policy{Retry: &entities.RetrySettings{MaxAttempts: 1}})
	_ = registry.Execute(context.Background(), key, func(ctx context.Context) error { return nil })

	u := NewSelfHealUsecase(new(mockResiliencyConfigRepo), new(mockQueueRepo), registry, &scriptedDispatcher{})
	assert.Equal(t, "closed", u.CircuitStates()["svc/tenant-1"])
}
