package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/infrastructure/models"
)

// UETRTrackingRepository implements append-only journey storage
type UETRTrackingRepository struct {
	db *gorm.DB
}

// NewUETRTrackingRepository creates a new UETR tracking repository
func NewUETRTrackingRepository(db *gorm.DB) *UETRTrackingRepository {
	return &UETRTrackingRepository{db: db}
}

// Append inserts a new tracking record. Records are never updated in place;
// a status change is a new row.
func (r *UETRTrackingRepository) Append(ctx context.Context, record *entities.UETRTrackingRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}
	m := &models.UETRTrackingRecord{
		ID:                   record.ID,
		UETR:                 record.UETR,
		MessageType:          record.MessageType,
		TenantID:             record.TenantID,
		TransactionReference: record.TransactionReference,
		Direction:            string(record.Direction),
		Status:               record.Status,
		StatusReason:         record.StatusReason,
		ProcessingSystem:     record.ProcessingSystem,
		CreatedAt:            record.CreatedAt,
		UpdatedAt:            record.UpdatedAt,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// GetJourney returns all records for a UETR ordered by updatedAt asc,
// insertion order on ties.
func (r *UETRTrackingRepository) GetJourney(ctx context.Context, uetr string) ([]*entities.UETRTrackingRecord, error) {
	var ms []models.UETRTrackingRecord
	if err := r.db.WithContext(ctx).
		Where("uetr = ?", uetr).
		Order("updated_at ASC, seq ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, domainerrors.ErrNotFound
	}
	records := make([]*entities.UETRTrackingRecord, 0, len(ms))
	for i := range ms {
		records = append(records, r.toEntity(&ms[i]))
	}
	return records, nil
}

// GetLatest returns the most recent record for a UETR
func (r *UETRTrackingRepository) GetLatest(ctx context.Context, uetr string) (*entities.UETRTrackingRecord, error) {
	var m models.UETRTrackingRecord
	if err := r.db.WithContext(ctx).
		Where("uetr = ?", uetr).
		Order("updated_at DESC, seq DESC").
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// Search returns records matching the filter with pagination
func (r *UETRTrackingRepository) Search(ctx context.Context, filter *entities.UETRSearchFilter) ([]*entities.UETRTrackingRecord, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.UETRTrackingRecord{})
	if filter.TenantID != "" {
		q = q.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.MessageType != "" {
		q = q.Where("message_type = ?", filter.MessageType)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Direction != nil {
		q = q.Where("direction = ?", string(*filter.Direction))
	}
	if filter.From != nil {
		q = q.Where("updated_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("updated_at <= ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	var ms []models.UETRTrackingRecord
	if err := q.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	records := make([]*entities.UETRTrackingRecord, 0, len(ms))
	for i := range ms {
		records = append(records, r.toEntity(&ms[i]))
	}
	return records, total, nil
}

// Statistics aggregates journey outcomes per tenant over an optional window
func (r *UETRTrackingRepository) Statistics(ctx context.Context, tenantID string, from, to *time.Time) (*entities.UETRStatistics, error) {
	base := r.db.WithContext(ctx).Model(&models.UETRTrackingRecord{}).Where("tenant_id = ?", tenantID)
	if from != nil {
		base = base.Where("created_at >= ?", *from)
	}
	if to != nil {
		base = base.Where("created_at <= ?", *to)
	}

	stats := &entities.UETRStatistics{}
	if err := base.Session(&gorm.Session{}).Distinct("uetr").Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("status IN ?", []string{"COMPLETED", "SETTLED"}).Distinct("uetr").Count(&stats.Completed).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("status IN ?", []string{"FAILED", "REJECTED"}).Distinct("uetr").Count(&stats.Failed).Error; err != nil {
		return nil, err
	}
	stats.Pending = stats.Total - stats.Completed - stats.Failed
	if stats.Pending < 0 {
		stats.Pending = 0
	}

	// Average journey duration: last record minus first record per UETR.
	type span struct {
		First time.Time
		Last  time.Time
	}
	var spans []span
	err := base.Session(&gorm.Session{}).
		Select("MIN(created_at) as first, MAX(updated_at) as last").
		Group("uetr").
		Scan(&spans).Error
	if err != nil {
		return nil, err
	}
	if len(spans) > 0 {
		var totalMs float64
		for _, s := range spans {
			totalMs += float64(s.Last.Sub(s.First).Milliseconds())
		}
		stats.AvgProcessingMs = totalMs / float64(len(spans))
	}
	return stats, nil
}

func (r *UETRTrackingRepository) toEntity(m *models.UETRTrackingRecord) *entities.UETRTrackingRecord {
	return &entities.UETRTrackingRecord{
		ID:                   m.ID,
		UETR:                 m.UETR,
		MessageType:          m.MessageType,
		TenantID:             m.TenantID,
		TransactionReference: m.TransactionReference,
		Direction:            entities.TrackingDirection(m.Direction),
		Status:               m.Status,
		StatusReason:         m.StatusReason,
		ProcessingSystem:     m.ProcessingSystem,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}
