package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
)

func seedRepair(t *testing.T, repo *TransactionRepairRepository, ref string, mutate func(*entities.TransactionRepair)) *entities.TransactionRepair {
	t.Helper()
	r := &entities.TransactionRepair{
		TransactionReference: ref,
		TenantID:             "tenant-1",
		RepairType:           entities.RepairTypeCreditFailed,
		RepairStatus:         entities.RepairStatusPending,
		FromAccount:          "ACC-1",
		ToAccount:            "ACC-2",
		Amount:               100,
		Currency:             "USD",
		DebitStatus:          entities.LegStatusSuccess,
		CreditStatus:         entities.LegStatusFailed,
		MaxRetries:           3,
		Priority:             5,
	}
	if mutate != nil {
		mutate(r)
	}
	require.NoError(t, repo.Create(context.Background(), r))
	return r
}

func TestRepairCreateStartsAtVersionOne(t *testing.T) {
	repo := NewTransactionRepairRepository(newTestDB(t))

	created := seedRepair(t, repo, "TXN-1", func(r *entities.TransactionRepair) {
		r.Priority = 0 // below the band
	})
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, entities.RepairMinPriority, created.Priority)

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "TXN-1", got.TransactionReference)
	assert.Equal(t, 1, got.Version)
}

func TestRepairUpdateBumpsVersion(t *testing.T) {
	repo := NewTransactionRepairRepository(newTestDB(t))
	created := seedRepair(t, repo, "TXN-1", nil)

	created.RepairStatus = entities.RepairStatusAssigned
	require.NoError(t, repo.Update(context.Background(), created))
	assert.Equal(t, 2, created.Version)

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RepairStatusAssigned, got.RepairStatus)
	assert.Equal(t, 2, got.Version)
}

func TestRepairUpdateDetectsLostRace(t *testing.T) {
	repo := NewTransactionRepairRepository(newTestDB(t))
	created := seedRepair(t, repo, "TXN-1", nil)

	// Two workers read the same version.
	first, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)

	first.RepairStatus = entities.RepairStatusAssigned
	require.NoError(t, repo.Update(context.Background(), first))

	second.RepairStatus = entities.RepairStatusInProgress
	err = repo.Update(context.Background(), second)
	assert.ErrorIs(t, err, domainerrors.ErrConflictingRepair)
}

func TestRepairGetByTransactionReferenceScopedToTenant(t *testing.T) {
	repo := NewTransactionRepairRepository(newTestDB(t))
	seedRepair(t, repo, "TXN-1", nil)

	_, err := repo.GetByTransactionReference(context.Background(), "tenant-2", "TXN-1")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	got, err := repo.GetByTransactionReference(context.Background(), "tenant-1", "TXN-1")
	require.NoError(t, err)
	assert.Equal(t, "TXN-1", got.TransactionReference)
}

func TestRepairDueForRetryOrderingAndStatusFilter(t *testing.T) {
	repo := NewTransactionRepairRepository(newTestDB(t))
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	low := seedRepair(t, repo, "TXN-LOW", func(r *entities.TransactionRepair) {
		r.Priority = 3
		r.NextRetryAt = &past
	})
	high := seedRepair(t, repo, "TXN-HIGH", func(r *entities.TransactionRepair) {
		r.Priority = 9
		r.NextRetryAt = &past
	})
	seedRepair(t, repo, "TXN-LATER", func(r *entities.TransactionRepair) {
		r.NextRetryAt = &future
	})
	resolved := seedRepair(t, repo, "TXN-DONE", func(r *entities.TransactionRepair) {
		r.NextRetryAt = &past
	})
	resolved.RepairStatus = entities.RepairStatusResolved
	require.NoError(t, repo.Update(context.Background(), resolved))

	due, err := repo.DueForRetry(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, high.ID, due[0].ID, "highest priority first")
	assert.Equal(t, low.ID, due[1].ID)
}

func TestRepairTimedOut(t *testing.T) {
	repo := NewTransactionRepairRepository(newTestDB(t))
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	stale := seedRepair(t, repo, "TXN-STALE", func(r *entities.TransactionRepair) {
		r.TimeoutAt = &past
	})
	seedRepair(t, repo, "TXN-FRESH", func(r *entities.TransactionRepair) {
		r.TimeoutAt = &future
	})

	timedOut, err := repo.TimedOut(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, timedOut, 1)
	assert.Equal(t, stale.ID, timedOut[0].ID)
}

func TestRepairListFilters(t *testing.T) {
	repo := NewTransactionRepairRepository(newTestDB(t))
	seedRepair(t, repo, "TXN-1", func(r *entities.TransactionRepair) { r.Priority = 9 })
	seedRepair(t, repo, "TXN-2", func(r *entities.TransactionRepair) {
		r.RepairType = entities.RepairTypeDebitFailed
	})
	seedRepair(t, repo, "TXN-OTHER", func(r *entities.TransactionRepair) {
		r.TenantID = "tenant-2"
	})

	repairs, total, err := repo.List(context.Background(), &entities.RepairFilter{TenantID: "tenant-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, repairs, 2)

	repairs, total, err = repo.List(context.Background(), &entities.RepairFilter{TenantID: "tenant-1", HighPriority: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, repairs, 1)
	assert.Equal(t, "TXN-1", repairs[0].TransactionReference)

	debitType := entities.RepairTypeDebitFailed
	_, total, err = repo.List(context.Background(), &entities.RepairFilter{TenantID: "tenant-1", RepairType: &debitType})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestRepairStatistics(t *testing.T) {
	repo := NewTransactionRepairRepository(newTestDB(t))
	seedRepair(t, repo, "TXN-1", func(r *entities.TransactionRepair) { r.Priority = 9 })
	seedRepair(t, repo, "TXN-2", nil)
	done := seedRepair(t, repo, "TXN-3", func(r *entities.TransactionRepair) { r.Priority = 10 })
	done.RepairStatus = entities.RepairStatusResolved
	require.NoError(t, repo.Update(context.Background(), done))

	stats, err := repo.Statistics(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByStatus[string(entities.RepairStatusPending)])
	assert.Equal(t, int64(1), stats.ByStatus[string(entities.RepairStatusResolved)])
	assert.Equal(t, int64(3), stats.ByType[string(entities.RepairTypeCreditFailed)])
	assert.Equal(t, int64(1), stats.HighPriority, "resolved repairs leave the high priority bucket")
}
