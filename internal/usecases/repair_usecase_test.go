package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
)

func newRepair(status entities.RepairStatus) *entities.TransactionRepair {
	return &entities.TransactionRepair{
		ID:                   uuid.New(),
		TransactionReference: "TXN-1",
		TenantID:             "tenant-1",
		RepairType:           entities.RepairTypeCreditFailed,
		RepairStatus:         status,
		FromAccount:          "ACC-1",
		ToAccount:            "ACC-2",
		Amount:               250,
		Currency:             "USD",
		DebitStatus:          entities.LegStatusSuccess,
		CreditStatus:         entities.LegStatusFailed,
		MaxRetries:           3,
		Priority:             7,
	}
}

func TestCreateRepairDefaults(t *testing.T) {
	repo := new(mockRepairRepo)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	u := NewRepairUsecase(repo, &fakeAdapter{}, nil)

	repair := &entities.TransactionRepair{
		TransactionReference: "TXN-1",
		TenantID:             "tenant-1",
		RepairType:           entities.RepairTypeDebitFailed,
		Priority:             42,
	}
	require.NoError(t, u.Create(context.Background(), repair))
	assert.Equal(t, entities.RepairStatusPending, repair.RepairStatus)
	assert.Equal(t, entities.RepairMaxPriority, repair.Priority, "priority clamped to the band")
	assert.Equal(t, 3, repair.MaxRetries)
	require.NotNil(t, repair.TimeoutAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *repair.TimeoutAt, time.Minute)
}

func TestCreateSchedulesFirstRetry(t *testing.T) {
	repo := new(mockRepairRepo)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	u := NewRepairUsecase(repo, &fakeAdapter{}, nil)

	repair := &entities.TransactionRepair{
		TransactionReference: "TXN-1",
		TenantID:             "tenant-1",
		RepairType:           entities.RepairTypeCreditTimeout,
	}
	require.NoError(t, u.Create(context.Background(), repair))
	assert.Zero(t, repair.RetryCount)
	require.NotNil(t, repair.NextRetryAt, "a fresh retryable repair must be visible to the scheduler")
	// 5 * 2^0 minutes for the first attempt.
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), *repair.NextRetryAt, time.Minute)

	manual := &entities.TransactionRepair{
		TransactionReference: "TXN-2",
		TenantID:             "tenant-1",
		RepairType:           entities.RepairTypeManualReview,
	}
	require.NoError(t, u.Create(context.Background(), manual))
	assert.Nil(t, manual.NextRetryAt, "manual reviews wait for an operator")
}

func TestCreateRepairRequiresIdentity(t *testing.T) {
	u := NewRepairUsecase(new(mockRepairRepo), &fakeAdapter{}, nil)

	err := u.Create(context.Background(), &entities.TransactionRepair{TenantID: "tenant-1"})
	assert.Error(t, err)

	err = u.Create(context.Background(), &entities.TransactionRepair{
		TransactionReference: "TXN-1", TenantID: "tenant-1",
	})
	assert.Error(t, err, "repairType is mandatory")
}

func TestAssignOnlyPending(t *testing.T) {
	pending := newRepair(entities.RepairStatusPending)
	assigned := newRepair(entities.RepairStatusAssigned)
	resolved := newRepair(entities.RepairStatusResolved)

	repo := new(mockRepairRepo)
	repo.On("GetByID", mock.Anything, pending.ID).Return(pending, nil)
	repo.On("GetByID", mock.Anything, assigned.ID).Return(assigned, nil)
	repo.On("GetByID", mock.Anything, resolved.ID).Return(resolved, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	u := NewRepairUsecase(repo, &fakeAdapter{}, nil)

	_, err := u.Assign(context.Background(), pending.ID, "")
	assert.Error(t, err, "assignee is mandatory")

	out, err := u.Assign(context.Background(), pending.ID, "ops-1")
	require.NoError(t, err)
	assert.Equal(t, entities.RepairStatusAssigned, out.RepairStatus)
	assert.Equal(t, "ops-1", out.AssignedTo.String)

	_, err = u.Assign(context.Background(), assigned.ID, "ops-2")
	assert.Error(t, err, "already assigned")

	_, err = u.Assign(context.Background(), resolved.ID, "ops-2")
	assert.ErrorIs(t, err, domainerrors.ErrRepairTerminal)
}

func TestRetryCreditResolvesRepair(t *testing.T) {
	repair := newRepair(entities.RepairStatusAssigned)
	repo := new(mockRepairRepo)
	repo.On("GetByID", mock.Anything, repair.ID).Return(repair, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	adapter := &fakeAdapter{}
	u := NewRepairUsecase(repo, adapter, nil)

	out, err := u.ApplyCorrectiveAction(context.Background(), repair.ID, entities.CorrectiveActionRetryCredit, "retrying")
	require.NoError(t, err)
	assert.Equal(t, entities.RepairStatusResolved, out.RepairStatus)
	assert.Equal(t, entities.LegStatusSuccess, out.CreditStatus)
	assert.NotNil(t, out.ResolvedAt)
	require.Len(t, adapter.creditCalls, 1)
	assert.Equal(t, "TXN-1-RETRY-CREDIT", adapter.creditCalls[0].TransactionReference)
	assert.Empty(t, adapter.debitCalls, "the successful debit leg is never replayed")
}

func TestRetryCreditFailureSchedulesBackoff(t *testing.T) {
	repair := newRepair(entities.RepairStatusAssigned)
	repo := new(mockRepairRepo)
	repo.On("GetByID", mock.Anything, repair.ID).Return(repair, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	adapter := &fakeAdapter{
		creditFn: func(ctx context.Context, tenantID string, req *entities.TransactionRequest) (*entities.TransactionResult, error) {
			return nil, errors.New("core banking down")
		},
	}
	u := NewRepairUsecase(repo, adapter, nil)

	out, err := u.ApplyCorrectiveAction(context.Background(), repair.ID, entities.CorrectiveActionRetryCredit, "")
	require.NoError(t, err, "a failed action schedules a retry rather than erroring")
	assert.Equal(t, 1, out.RetryCount)
	assert.Equal(t, "core banking down", out.FailureReason)
	require.NotNil(t, out.NextRetryAt)
	// 5 * 2^1 minutes after the first failed attempt.
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), *out.NextRetryAt, time.Minute)
}

func TestReverseDebitSwapsAccounts(t *testing.T) {
	repair := newRepair(entities.RepairStatusAssigned)
	repo := new(mockRepairRepo)
	repo.On("GetByID", mock.Anything, repair.ID).Return(repair, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	adapter := &fakeAdapter{}
	u := NewRepairUsecase(repo, adapter, nil)

	out, err := u.ApplyCorrectiveAction(context.Background(), repair.ID, entities.CorrectiveActionReverseDebit, "")
	require.NoError(t, err)
	require.Len(t, adapter.creditCalls, 1, "a debit reversal is a compensating credit")
	req := adapter.creditCalls[0]
	assert.Equal(t, "TXN-1-REVERSE-DEBIT", req.TransactionReference)
	assert.Equal(t, "ACC-2", req.FromAccount)
	assert.Equal(t, "ACC-1", req.ToAccount)
	assert.Equal(t, entities.LegStatusNotStarted, out.DebitStatus)
}

func TestCancelAndEscalateAndNoAction(t *testing.T) {
	repo := new(mockRepairRepo)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	u := NewRepairUsecase(repo, &fakeAdapter{}, nil)

	cancel := newRepair(entities.RepairStatusAssigned)
	repo.On("GetByID", mock.Anything, cancel.ID).Return(cancel, nil)
	out, err := u.ApplyCorrectiveAction(context.Background(), cancel.ID, entities.CorrectiveActionCancelTransaction, "")
	require.NoError(t, err)
	assert.Equal(t, entities.RepairStatusCancelled, out.RepairStatus)

	escalate := newRepair(entities.RepairStatusAssigned)
	repo.On("GetByID", mock.Anything, escalate.ID).Return(escalate, nil)
	out, err = u.ApplyCorrectiveAction(context.Background(), escalate.ID, entities.CorrectiveActionEscalate, "")
	require.NoError(t, err)
	assert.Equal(t, entities.RepairMaxPriority, out.Priority)
	assert.Equal(t, entities.RepairStatusPending, out.RepairStatus, "escalation returns to the queue")

	noop := newRepair(entities.RepairStatusAssigned)
	repo.On("GetByID", mock.Anything, noop.ID).Return(noop, nil)
	out, err = u.ApplyCorrectiveAction(context.Background(), noop.ID, entities.CorrectiveActionNoAction, "false alarm")
	require.NoError(t, err)
	assert.Equal(t, entities.RepairStatusResolved, out.RepairStatus)
	assert.NotNil(t, out.ResolvedAt)
}

func TestApplyCorrectiveActionRejectsUnknown(t *testing.T) {
	u := NewRepairUsecase(new(mockRepairRepo), &fakeAdapter{}, nil)

	_, err := u.ApplyCorrectiveAction(context.Background(), uuid.New(), entities.CorrectiveAction("SHRUG"), "")
	assert.Error(t, err)
}

func TestApplyCorrectiveActionTerminalGuard(t *testing.T) {
	resolved := newRepair(entities.RepairStatusResolved)
	repo := new(mockRepairRepo)
	repo.On("GetByID", mock.Anything, resolved.ID).Return(resolved, nil)
	u := NewRepairUsecase(repo, &fakeAdapter{}, nil)

	_, err := u.ApplyCorrectiveAction(context.Background(), resolved.ID, entities.CorrectiveActionRetryCredit, "")
	assert.ErrorIs(t, err, domainerrors.ErrRepairTerminal)
}

func TestProcessDueRetriesExhaustedBudget(t *testing.T) {
	exhausted := newRepair(entities.RepairStatusInProgress)
	exhausted.RetryCount = 3

	repo := new(mockRepairRepo)
	repo.On("DueForRetry", mock.Anything, mock.Anything, 10).
		Return([]*entities.TransactionRepair{exhausted}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(r *entities.TransactionRepair) bool {
		return r.RepairStatus == entities.RepairStatusFailed && r.FailureReason == "retry budget exhausted"
	})).Return(nil)

	u := NewRepairUsecase(repo, &fakeAdapter{}, nil)
	processed, err := u.ProcessDueRetries(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	assert.Zero(t, processed)
	repo.AssertExpectations(t)
}

func TestProcessDueRetriesDrivesConfiguredAction(t *testing.T) {
	due := newRepair(entities.RepairStatusInProgress)
	due.RetryCount = 1
	due.CorrectiveAction = entities.CorrectiveActionRetryCredit

	repo := new(mockRepairRepo)
	repo.On("DueForRetry", mock.Anything, mock.Anything, 10).
		Return([]*entities.TransactionRepair{due}, nil)
	repo.On("GetByID", mock.Anything, due.ID).Return(due, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	adapter := &fakeAdapter{}
	u := NewRepairUsecase(repo, adapter, nil)
	processed, err := u.ProcessDueRetries(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Len(t, adapter.creditCalls, 1)
}

func TestProcessTimeoutsEscalatesToManualReview(t *testing.T) {
	stale := newRepair(entities.RepairStatusPending)
	stale.Priority = 3

	repo := new(mockRepairRepo)
	repo.On("TimedOut", mock.Anything, mock.Anything, 10).
		Return([]*entities.TransactionRepair{stale}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(r *entities.TransactionRepair) bool {
		return r.RepairType == entities.RepairTypeManualReview &&
			r.Priority == entities.RepairHighPriorityThreshold &&
			r.NextRetryAt == nil && r.TimeoutAt == nil
	})).Return(nil)

	u := NewRepairUsecase(repo, &fakeAdapter{}, nil)
	escalated, err := u.ProcessTimeouts(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, escalated)
	repo.AssertExpectations(t)
}

func TestProcessTimeoutsSkipsVersionConflicts(t *testing.T) {
	stale := newRepair(entities.RepairStatusPending)
	repo := new(mockRepairRepo)
	repo.On("TimedOut", mock.Anything, mock.Anything, 10).
		Return([]*entities.TransactionRepair{stale}, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(domainerrors.ErrConflictingRepair)

	u := NewRepairUsecase(repo, &fakeAdapter{}, nil)
	escalated, err := u.ProcessTimeouts(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	assert.Zero(t, escalated, "a concurrent writer won; the repair is skipped")
}

func TestResolveClosesRepair(t *testing.T) {
	repair := newRepair(entities.RepairStatusInProgress)
	repo := new(mockRepairRepo)
	repo.On("GetByID", mock.Anything, repair.ID).Return(repair, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	u := NewRepairUsecase(repo, &fakeAdapter{}, nil)
	out, err := u.Resolve(context.Background(), repair.ID, "ops-1", "credited manually", false)
	require.NoError(t, err)
	assert.Equal(t, entities.RepairStatusResolved, out.RepairStatus)
	assert.Equal(t, "ops-1", out.ResolvedBy.String)
	assert.NotNil(t, out.ResolvedAt)
}
