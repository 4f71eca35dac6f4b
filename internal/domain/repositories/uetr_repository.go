package repositories

import (
	"context"
	"time"

	"payment-hub.backend/internal/domain/entities"
)

// UETRTrackingRepository stores the append-only UETR journey records
type UETRTrackingRepository interface {
	Append(ctx context.Context, record *entities.UETRTrackingRecord) error
	GetJourney(ctx context.Context, uetr string) ([]*entities.UETRTrackingRecord, error)
	GetLatest(ctx context.Context, uetr string) (*entities.UETRTrackingRecord, error)
	Search(ctx context.Context, filter *entities.UETRSearchFilter) ([]*entities.UETRTrackingRecord, int64, error)
	Statistics(ctx context.Context, tenantID string, from, to *time.Time) (*entities.UETRStatistics, error)
}
