package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"payment-hub.backend/internal/domain/entities"
)

func TestGenerateProducesValidUETR(t *testing.T) {
	u := NewUETRUsecase(new(mockTrackingRepo), "PHUB")

	uetr, err := u.Generate("pacs.008.001.08")
	require.NoError(t, err)
	assert.Len(t, uetr, entities.UETRLength)
	assert.True(t, u.ValidateFormat(uetr))
}

func TestGenerateRequiresMessageType(t *testing.T) {
	u := NewUETRUsecase(new(mockTrackingRepo), "PHUB")

	_, err := u.Generate("")
	assert.Error(t, err)
}

func TestGenerateUniqueWithinSameInstant(t *testing.T) {
	u := NewUETRUsecase(new(mockTrackingRepo), "PHUB")

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		uetr, err := u.Generate("pacs.008.001.08")
		require.NoError(t, err)
		assert.False(t, seen[uetr], "duplicate UETR %s", uetr)
		seen[uetr] = true
	}
}

func TestExtractSegments(t *testing.T) {
	u := NewUETRUsecase(new(mockTrackingRepo), "PHUB")

	uetr, err := u.Generate("pacs.008.001.08")
	require.NoError(t, err)

	seg, err := u.Extract(uetr)
	require.NoError(t, err)
	assert.Equal(t, "PHUB", seg.SystemID)
	// Dots stripped, truncated to eight characters.
	assert.Equal(t, "PACS0080", seg.MessageTypeID)
	assert.WithinDuration(t, time.Now().UTC(), seg.Timestamp, time.Minute)
}

func TestExtractRejectsMalformed(t *testing.T) {
	u := NewUETRUsecase(new(mockTrackingRepo), "PHUB")

	for _, bad := range []string{
		"",
		"short",
		"abcdefghijklmnPHUBPACS0080ABCDEFGHIJ",  // lowercase timestamp
		"20260101120000phubPACS0080ABCDEFGHIJ",  // lowercase system segment
		"20260101120000PHUBPACS0080ABCDEFGHIJK", // too long
	} {
		_, err := u.Extract(bad)
		assert.Error(t, err, "expected rejection for %q", bad)
	}
}

func TestAreRelated(t *testing.T) {
	u := NewUETRUsecase(new(mockTrackingRepo), "PHUB")

	// Same timestamp and system; message type and random suffix differ.
	payment := "20260101120000PHUBPACS0080AAAAAAAAAA"
	status := "20260101120000PHUBPACS0021BBBBBBBBBB"
	laterPayment := "20260101120005PHUBPACS0080AAAAAAAAAA"
	otherSystem := "20260101120000ACMEPACS0080AAAAAAAAAA"

	related, err := u.AreRelated(payment, status)
	require.NoError(t, err)
	assert.True(t, related, "same instant and system relates across message types")

	related, err = u.AreRelated(payment, laterPayment)
	require.NoError(t, err)
	assert.False(t, related, "different timestamps are unrelated")

	related, err = u.AreRelated(payment, otherSystem)
	require.NoError(t, err)
	assert.False(t, related, "different systems are unrelated")

	_, err = u.AreRelated(payment, "bogus")
	assert.Error(t, err)
}

func TestRecordValidatesBeforeAppending(t *testing.T) {
	repo := new(mockTrackingRepo)
	u := NewUETRUsecase(repo, "PHUB")

	err := u.Record(context.Background(), &entities.UETRTrackingRecord{UETR: "not-a-uetr", Status: "RECEIVED"})
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Append")

	uetr, _ := u.Generate("pacs.008.001.08")
	err = u.Record(context.Background(), &entities.UETRTrackingRecord{UETR: uetr})
	assert.Error(t, err, "status is mandatory")

	repo.On("Append", mock.Anything, mock.Anything).Return(nil)
	err = u.Record(context.Background(), &entities.UETRTrackingRecord{
		UETR:      uetr,
		TenantID:  "tenant-1",
		Status:    "RECEIVED",
		Direction: entities.TrackingDirectionInbound,
	})
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestGetJourneyRejectsInvalidUETR(t *testing.T) {
	repo := new(mockTrackingRepo)
	u := NewUETRUsecase(repo, "PHUB")

	_, err := u.GetJourney(context.Background(), "bogus")
	assert.Error(t, err)
	repo.AssertNotCalled(t, "GetJourney")
}

func TestStatisticsRequiresTenant(t *testing.T) {
	repo := new(mockTrackingRepo)
	u := NewUETRUsecase(repo, "PHUB")

	_, err := u.Statistics(context.Background(), "", nil, nil)
	assert.Error(t, err)

	repo.On("Statistics", mock.Anything, "tenant-1", mock.Anything, mock.Anything).
		Return(&entities.UETRStatistics{Total: 3, Completed: 2, Failed: 1}, nil)
	stats, err := u.Statistics(context.Background(), "tenant-1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
}

func TestRecordPropagatesRepositoryError(t *testing.T) {
	repo := new(mockTrackingRepo)
	u := NewUETRUsecase(repo, "PHUB")

	boom := errors.New("db down")
	repo.On("Append", mock.Anything, mock.Anything).Return(boom)

	uetr, _ := u.Generate("pacs.008.001.08")
	err := u.Record(context.Background(), &entities.UETRTrackingRecord{UETR: uetr, Status: "RECEIVED"})
	assert.ErrorIs(t, err, boom)
}
