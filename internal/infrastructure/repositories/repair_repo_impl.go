package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/infrastructure/models"
)

// TransactionRepairRepository implements repair record storage with an
// optimistic version check on updates
type TransactionRepairRepository struct {
	db *gorm.DB
}

// NewTransactionRepairRepository creates a new transaction repair repository
func NewTransactionRepairRepository(db *gorm.DB) *TransactionRepairRepository {
	return &TransactionRepairRepository{db: db}
}

// Create persists a new repair at version 1
func (r *TransactionRepairRepository) Create(ctx context.Context, repair *entities.TransactionRepair) error {
	if repair.ID == uuid.Nil {
		repair.ID = uuid.New()
	}
	now := time.Now()
	repair.CreatedAt = now
	repair.UpdatedAt = now
	repair.Version = 1
	repair.Priority = entities.ClampRepairPriority(repair.Priority)
	return r.db.WithContext(ctx).Create(r.toModel(repair)).Error
}

// GetByID returns a repair record
func (r *TransactionRepairRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.TransactionRepair, error) {
	var m models.TransactionRepair
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// GetByTransactionReference returns the most recent repair for a transaction
// within the tenant
func (r *TransactionRepairRepository) GetByTransactionReference(ctx context.Context, tenantID, transactionReference string) (*entities.TransactionRepair, error) {
	var m models.TransactionRepair
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND transaction_reference = ?", tenantID, transactionReference).
		Order("created_at DESC").
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// Update writes the repair only if the stored version still matches
// repair.Version, bumping the version on success. A lost race surfaces as
// ErrConflictingRepair so the caller can re-read and retry.
func (r *TransactionRepairRepository) Update(ctx context.Context, repair *entities.TransactionRepair) error {
	expected := repair.Version
	repair.UpdatedAt = time.Now()
	repair.Priority = entities.ClampRepairPriority(repair.Priority)
	m := r.toModel(repair)
	m.Version = expected + 1

	result := r.db.WithContext(ctx).Model(&models.TransactionRepair{}).
		Where("id = ? AND version = ?", repair.ID, expected).
		Select("*").Omit("id", "created_at").
		Updates(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflictingRepair
	}
	repair.Version = expected + 1
	return nil
}

// List returns repairs matching the filter with pagination
func (r *TransactionRepairRepository) List(ctx context.Context, filter *entities.RepairFilter) ([]*entities.TransactionRepair, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.TransactionRepair{})
	if filter.TenantID != "" {
		q = q.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.RepairStatus != nil {
		q = q.Where("repair_status = ?", string(*filter.RepairStatus))
	}
	if filter.RepairType != nil {
		q = q.Where("repair_type = ?", string(*filter.RepairType))
	}
	if filter.AssignedTo != "" {
		q = q.Where("assigned_to = ?", filter.AssignedTo)
	}
	if filter.HighPriority {
		q = q.Where("priority >= ?", entities.RepairHighPriorityThreshold)
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

	var ms []models.TransactionRepair
	if err := q.Order("priority DESC, created_at ASC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*entities.TransactionRepair, 0, len(ms))
	for i := range ms {
		out = append(out, r.toEntity(&ms[i]))
	}
	return out, total, nil
}

// DueForRetry returns non-terminal repairs whose nextRetryAt has passed
func (r *TransactionRepairRepository) DueForRetry(ctx context.Context, now time.Time, limit int) ([]*entities.TransactionRepair, error) {
	return r.pick(ctx, r.db.WithContext(ctx).
		Where("next_retry_at IS NOT NULL AND next_retry_at <= ?", now), limit)
}

// TimedOut returns non-terminal repairs whose timeoutAt has passed
func (r *TransactionRepairRepository) TimedOut(ctx context.Context, now time.Time, limit int) ([]*entities.TransactionRepair, error) {
	return r.pick(ctx, r.db.WithContext(ctx).
		Where("timeout_at IS NOT NULL AND timeout_at <= ?", now), limit)
}

func (r *TransactionRepairRepository) pick(_ context.Context, q *gorm.DB, limit int) ([]*entities.TransactionRepair, error) {
	if limit <= 0 {
		limit = 100
	}
	var ms []models.TransactionRepair
	err := q.Where("repair_status IN ?", []string{
		string(entities.RepairStatusPending),
		string(entities.RepairStatusAssigned),
		string(entities.RepairStatusInProgress),
	}).Order("priority DESC, created_at ASC").Limit(limit).Find(&ms).Error
	if err != nil {
		return nil, err
	}
	out := make([]*entities.TransactionRepair, 0, len(ms))
	for i := range ms {
		out = append(out, r.toEntity(&ms[i]))
	}
	return out, nil
}

// Statistics summarizes repair workload for a tenant
func (r *TransactionRepairRepository) Statistics(ctx context.Context, tenantID string) (*entities.RepairStatistics, error) {
	base := r.db.WithContext(ctx).Model(&models.TransactionRepair{}).Where("tenant_id = ?", tenantID)

	stats := &entities.RepairStatistics{
		ByStatus: map[string]int64{},
		ByType:   map[string]int64{},
	}
	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type bucket struct {
		Key   string
		Count int64
	}
	var byStatus []bucket
	if err := base.Session(&gorm.Session{}).
		Select("repair_status as key, COUNT(*) as count").
		Group("repair_status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, b := range byStatus {
		stats.ByStatus[b.Key] = b.Count
	}

	var byType []bucket
	if err := base.Session(&gorm.Session{}).
		Select("repair_type as key, COUNT(*) as count").
		Group("repair_type").Scan(&byType).Error; err != nil {
		return nil, err
	}
	for _, b := range byType {
		stats.ByType[b.Key] = b.Count
	}

	if err := base.Session(&gorm.Session{}).
		Where("priority >= ?", entities.RepairHighPriorityThreshold).
		Where("repair_status NOT IN ?", []string{
			string(entities.RepairStatusResolved),
			string(entities.RepairStatusFailed),
			string(entities.RepairStatusCancelled),
		}).
		Count(&stats.HighPriority).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *TransactionRepairRepository) toModel(e *entities.TransactionRepair) *models.TransactionRepair {
	return &models.TransactionRepair{
		ID:                   e.ID,
		TransactionReference: e.TransactionReference,
		ParentTransactionID:  e.ParentTransactionID.Ptr(),
		UETR:                 e.UETR,
		TenantID:             e.TenantID,
		RepairType:           string(e.RepairType),
		RepairStatus:         string(e.RepairStatus),
		FromAccount:          e.FromAccount,
		ToAccount:            e.ToAccount,
		Amount:               e.Amount,
		Currency:             e.Currency,
		DebitStatus:          string(e.DebitStatus),
		CreditStatus:         string(e.CreditStatus),
		DebitReference:       e.DebitReference.Ptr(),
		CreditReference:      e.CreditReference.Ptr(),
		FailureReason:        e.FailureReason,
		RetryCount:           e.RetryCount,
		MaxRetries:           e.MaxRetries,
		NextRetryAt:          e.NextRetryAt,
		TimeoutAt:            e.TimeoutAt,
		Priority:             e.Priority,
		AssignedTo:           e.AssignedTo.Ptr(),
		CorrectiveAction:     string(e.CorrectiveAction),
		ResolutionNotes:      e.ResolutionNotes.Ptr(),
		ResolvedBy:           e.ResolvedBy.Ptr(),
		ResolvedAt:           e.ResolvedAt,
		Version:              e.Version,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

func (r *TransactionRepairRepository) toEntity(m *models.TransactionRepair) *entities.TransactionRepair {
	return &entities.TransactionRepair{
		ID:                   m.ID,
		TransactionReference: m.TransactionReference,
		ParentTransactionID:  null.StringFromPtr(m.ParentTransactionID),
		UETR:                 m.UETR,
		TenantID:             m.TenantID,
		RepairType:           entities.RepairType(m.RepairType),
		RepairStatus:         entities.RepairStatus(m.RepairStatus),
		FromAccount:          m.FromAccount,
		ToAccount:            m.ToAccount,
		Amount:               m.Amount,
		Currency:             m.Currency,
		DebitStatus:          entities.LegStatus(m.DebitStatus),
		CreditStatus:         entities.LegStatus(m.CreditStatus),
		DebitReference:       null.StringFromPtr(m.DebitReference),
		CreditReference:      null.StringFromPtr(m.CreditReference),
		FailureReason:        m.FailureReason,
		RetryCount:           m.RetryCount,
		MaxRetries:           m.MaxRetries,
		NextRetryAt:          m.NextRetryAt,
		TimeoutAt:            m.TimeoutAt,
		Priority:             m.Priority,
		AssignedTo:           null.StringFromPtr(m.AssignedTo),
		CorrectiveAction:     entities.CorrectiveAction(m.CorrectiveAction),
		ResolutionNotes:      null.StringFromPtr(m.ResolutionNotes),
		ResolvedBy:           null.StringFromPtr(m.ResolvedBy),
		ResolvedAt:           m.ResolvedAt,
		Version:              m.Version,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}
