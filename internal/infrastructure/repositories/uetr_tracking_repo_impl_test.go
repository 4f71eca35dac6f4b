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

const journeyUETR = "20260824120000PHUBPACS0008ABCDEFGH12"

func appendHop(t *testing.T, repo *UETRTrackingRepository, uetr, status string, direction entities.TrackingDirection, at time.Time) {
	t.Helper()
	require.NoError(t, repo.Append(context.Background(), &entities.UETRTrackingRecord{
		UETR:                 uetr,
		MessageType:          "pacs.008",
		TenantID:             "demo-bank",
		TransactionReference: "TXN-100",
		Direction:            direction,
		Status:               status,
		ProcessingSystem:     "payment-orchestrator",
		CreatedAt:            at,
		UpdatedAt:            at,
	}))
}

func TestGetJourneyOrderedByUpdatedAt(t *testing.T) {
	repo := NewUETRTrackingRepository(newTestDB(t))
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	// Insert out of order; the journey must come back in time order.
	appendHop(t, repo, journeyUETR, "PROCESSING", entities.TrackingDirectionOutbound, base.Add(time.Second))
	appendHop(t, repo, journeyUETR, "PENDING", entities.TrackingDirectionInbound, base)
	appendHop(t, repo, journeyUETR, "COMPLETED", entities.TrackingDirectionOutbound, base.Add(2*time.Second))

	journey, err := repo.GetJourney(context.Background(), journeyUETR)
	require.NoError(t, err)
	require.Len(t, journey, 3)
	assert.Equal(t, "PENDING", journey[0].Status)
	assert.Equal(t, "PROCESSING", journey[1].Status)
	assert.Equal(t, "COMPLETED", journey[2].Status)
	assert.Equal(t, entities.TrackingDirectionInbound, journey[0].Direction)
}

func TestGetJourneyUnknownUETR(t *testing.T) {
	repo := NewUETRTrackingRepository(newTestDB(t))
	_, err := repo.GetJourney(context.Background(), journeyUETR)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestGetLatestReturnsNewestHop(t *testing.T) {
	repo := NewUETRTrackingRepository(newTestDB(t))
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	appendHop(t, repo, journeyUETR, "PENDING", entities.TrackingDirectionInbound, base)
	appendHop(t, repo, journeyUETR, "SETTLED", entities.TrackingDirectionOutbound, base.Add(time.Minute))

	latest, err := repo.GetLatest(context.Background(), journeyUETR)
	require.NoError(t, err)
	assert.Equal(t, "SETTLED", latest.Status)
}

func TestSearchFiltersByStatusAndTenant(t *testing.T) {
	repo := NewUETRTrackingRepository(newTestDB(t))
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	appendHop(t, repo, journeyUETR, "PENDING", entities.TrackingDirectionInbound, base)
	appendHop(t, repo, journeyUETR, "SETTLED", entities.TrackingDirectionOutbound, base.Add(time.Minute))

	records, total, err := repo.Search(context.Background(), &entities.UETRSearchFilter{
		TenantID: "demo-bank",
		Status:   "SETTLED",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, journeyUETR, records[0].UETR)

	_, total, err = repo.Search(context.Background(), &entities.UETRSearchFilter{TenantID: "other"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestStatisticsCountsJourneyOutcomes(t *testing.T) {
	repo := NewUETRTrackingRepository(newTestDB(t))
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	settled := "20260824120000PHUBPACS0008SETTLED123"
	failed := "20260824120000PHUBPACS0008FAILED1234"
	pending := "20260824120000PHUBPACS0008PENDING123"

	appendHop(t, repo, settled, "PENDING", entities.TrackingDirectionInbound, base)
	appendHop(t, repo, settled, "SETTLED", entities.TrackingDirectionOutbound, base.Add(time.Second))
	appendHop(t, repo, failed, "REJECTED", entities.TrackingDirectionOutbound, base)
	appendHop(t, repo, pending, "PENDING", entities.TrackingDirectionInbound, base)

	stats, err := repo.Statistics(context.Background(), "demo-bank", nil, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 1, stats.Completed)
	assert.EqualValues(t, 1, stats.Failed)
	assert.EqualValues(t, 1, stats.Pending)
}
