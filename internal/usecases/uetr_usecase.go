package usecases

import (
	"context"
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/domain/repositories"
	"payment-hub.backend/pkg/logger"
)

var uetrPattern = regexp.MustCompile(`^[0-9]{14}[A-Z0-9]{4}[A-Z0-9]{8}[A-Z0-9]{10}$`)

const uetrAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// UETRUsecase generates and tracks unique end-to-end transaction references.
// Layout: timestamp14 | systemId4 | messageTypeId8 | random10.
type UETRUsecase struct {
	trackingRepo repositories.UETRTrackingRepository
	systemID     string
}

// NewUETRUsecase creates a new UETR usecase. systemID is padded/truncated to
// exactly 4 characters.
func NewUETRUsecase(trackingRepo repositories.UETRTrackingRepository, systemID string) *UETRUsecase {
	return &UETRUsecase{
		trackingRepo: trackingRepo,
		systemID:     normalizeSegment(systemID, entities.UETRSystemIDLength),
	}
}

// Generate builds a new UETR for a message type. The random suffix makes
// same-millisecond collisions vanishingly unlikely; the suffix is re-rolled
// per call so two calls in the same instant still differ.
func (u *UETRUsecase) Generate(messageType string) (string, error) {
	if messageType == "" {
		return "", domainerrors.BadRequest("messageType is required")
	}
	ts := time.Now().UTC().Format("20060102150405")
	msgID := normalizeSegment(messageType, entities.UETRMessageLength)
	random, err := randomSegment(entities.UETRRandomLength)
	if err != nil {
		return "", err
	}
	return ts + u.systemID + msgID + random, nil
}

// ValidateFormat reports whether the string matches the UETR layout
func (u *UETRUsecase) ValidateFormat(uetr string) bool {
	return len(uetr) == entities.UETRLength && uetrPattern.MatchString(uetr)
}

// Extract decomposes a UETR into its embedded segments
func (u *UETRUsecase) Extract(uetr string) (*entities.UETRSegments, error) {
	if !u.ValidateFormat(uetr) {
		return nil, domainerrors.BadRequest("invalid UETR format")
	}
	ts, err := time.Parse("20060102150405", uetr[:entities.UETRTimestampLength])
	if err != nil {
		return nil, domainerrors.BadRequest("invalid UETR timestamp segment")
	}
	systemStart := entities.UETRTimestampLength
	msgStart := systemStart + entities.UETRSystemIDLength
	randStart := msgStart + entities.UETRMessageLength
	return &entities.UETRSegments{
		Timestamp:     ts,
		SystemID:      uetr[systemStart:msgStart],
		MessageTypeID: uetr[msgStart:randStart],
	}, nil
}

// AreRelated reports whether two UETRs were minted by the same system in the
// same instant: equal timestamp and systemId segments. Message type and the
// random suffix are ignored, so a pacs.008 and its pacs.002 response minted
// together are related.
func (u *UETRUsecase) AreRelated(a, b string) (bool, error) {
	if !u.ValidateFormat(a) || !u.ValidateFormat(b) {
		return false, domainerrors.BadRequest("invalid UETR format")
	}
	systemEnd := entities.UETRTimestampLength + entities.UETRSystemIDLength
	return a[:systemEnd] == b[:systemEnd], nil
}

// Record appends a tracking record for a UETR. Records are append-only;
// status changes create new rows.
func (u *UETRUsecase) Record(ctx context.Context, record *entities.UETRTrackingRecord) error {
	if !u.ValidateFormat(record.UETR) {
		return domainerrors.BadRequest("invalid UETR format")
	}
	if record.Status == "" {
		return domainerrors.BadRequest("status is required")
	}
	if err := u.trackingRepo.Append(ctx, record); err != nil {
		logger.Error(ctx, "failed to append tracking record", logger.UETR(record.UETR), zap.Error(err))
		return err
	}
	return nil
}

// GetJourney returns the ordered hop sequence for a UETR
func (u *UETRUsecase) GetJourney(ctx context.Context, uetr string) ([]*entities.UETRTrackingRecord, error) {
	if !u.ValidateFormat(uetr) {
		return nil, domainerrors.BadRequest("invalid UETR format")
	}
	return u.trackingRepo.GetJourney(ctx, uetr)
}

// GetLatest returns the most recent tracking record for a UETR
func (u *UETRUsecase) GetLatest(ctx context.Context, uetr string) (*entities.UETRTrackingRecord, error) {
	if !u.ValidateFormat(uetr) {
		return nil, domainerrors.BadRequest("invalid UETR format")
	}
	return u.trackingRepo.GetLatest(ctx, uetr)
}

// Search returns tracking records matching the filter
func (u *UETRUsecase) Search(ctx context.Context, filter *entities.UETRSearchFilter) ([]*entities.UETRTrackingRecord, int64, error) {
	return u.trackingRepo.Search(ctx, filter)
}

// Statistics aggregates journey outcomes for a tenant
func (u *UETRUsecase) Statistics(ctx context.Context, tenantID string, from, to *time.Time) (*entities.UETRStatistics, error) {
	if tenantID == "" {
		return nil, domainerrors.BadRequest("tenant is required")
	}
	return u.trackingRepo.Statistics(ctx, tenantID, from, to)
}

// normalizeSegment uppercases, strips non-alphanumerics and pads with zeros
// to exactly n characters.
func normalizeSegment(s string, n int) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > n {
		return out[:n]
	}
	return out + strings.Repeat("0", n-len(out))
}

func randomSegment(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random segment: %w", err)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = uetrAlphabet[int(b)%len(uetrAlphabet)]
	}
	return string(out), nil
}
