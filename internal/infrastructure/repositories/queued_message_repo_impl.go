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

// QueuedMessageRepository implements durable storage for parked outbound
// messages
type QueuedMessageRepository struct {
	db *gorm.DB
}

// NewQueuedMessageRepository creates a new queued message repository
func NewQueuedMessageRepository(db *gorm.DB) *QueuedMessageRepository {
	return &QueuedMessageRepository{db: db}
}

// Enqueue persists a new message in PENDING state
func (r *QueuedMessageRepository) Enqueue(ctx context.Context, m *entities.QueuedMessage) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Status == "" {
		m.Status = entities.QueuedMessageStatusPending
	}
	return r.db.WithContext(ctx).Create(r.toModel(m)).Error
}

// GetByID returns a queued message
func (r *QueuedMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.QueuedMessage, error) {
	var m models.QueuedMessage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// List returns messages matching the filter with pagination
func (r *QueuedMessageRepository) List(ctx context.Context, filter *entities.QueuedMessageFilter) ([]*entities.QueuedMessage, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.QueuedMessage{})
	if filter.TenantID != "" {
		q = q.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.ServiceName != "" {
		q = q.Where("service_name = ?", filter.ServiceName)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
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

	var ms []models.QueuedMessage
	if err := q.Order("priority DESC, created_at ASC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*entities.QueuedMessage, 0, len(ms))
	for i := range ms {
		out = append(out, r.toEntity(&ms[i]))
	}
	return out, total, nil
}

// NextPendingForService returns dispatchable messages for a recovered
// service, highest priority first, oldest first on ties
func (r *QueuedMessageRepository) NextPendingForService(ctx context.Context, serviceName, tenantID string, limit int) ([]*entities.QueuedMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Where("service_name = ?", serviceName)
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	now := time.Now()
	q = q.Where(
		"status = ? OR (status = ? AND (next_retry_at IS NULL OR next_retry_at <= ?))",
		string(entities.QueuedMessageStatusPending),
		string(entities.QueuedMessageStatusRetry),
		now,
	)

	var ms []models.QueuedMessage
	if err := q.Order("priority DESC, created_at ASC").Limit(limit).Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entities.QueuedMessage, 0, len(ms))
	for i := range ms {
		out = append(out, r.toEntity(&ms[i]))
	}
	return out, nil
}

// Claim atomically flips a claimable message to PROCESSING. Returns false
// when another worker already claimed it.
func (r *QueuedMessageRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.QueuedMessage{}).
		Where("id = ? AND status IN ?", id, []string{
			string(entities.QueuedMessageStatusPending),
			string(entities.QueuedMessageStatusRetry),
		}).
		Updates(map[string]interface{}{
			"status":     string(entities.QueuedMessageStatusProcessing),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkProcessed records a successful dispatch
func (r *QueuedMessageRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, map[string]interface{}{
		"status":     string(entities.QueuedMessageStatusProcessed),
		"updated_at": time.Now(),
	})
}

// MarkFailed records a failed dispatch. Retryable failures below the retry
// cap go back to RETRY with a backoff window; otherwise the message parks in
// FAILED.
func (r *QueuedMessageRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, retryable bool) error {
	var m models.QueuedMessage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerrors.ErrNotFound
		}
		return err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"retry_count": m.RetryCount + 1,
		"last_error":  reason,
		"updated_at":  now,
	}
	if retryable && m.RetryCount+1 < m.MaxRetries {
		// Same doubling schedule as repair retries, on a minute base.
		delay := time.Duration(1<<uint(m.RetryCount)) * time.Minute
		next := now.Add(delay)
		updates["status"] = string(entities.QueuedMessageStatusRetry)
		updates["next_retry_at"] = next
	} else {
		updates["status"] = string(entities.QueuedMessageStatusFailed)
	}
	return r.transition(ctx, id, updates)
}

func (r *QueuedMessageRepository) transition(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.QueuedMessage{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *QueuedMessageRepository) toModel(e *entities.QueuedMessage) *models.QueuedMessage {
	return &models.QueuedMessage{
		ID:            e.ID,
		MessageID:     e.MessageID,
		MessageType:   e.MessageType,
		TenantID:      e.TenantID,
		ServiceName:   e.ServiceName,
		EndpointURL:   e.EndpointURL,
		HTTPMethod:    e.HTTPMethod,
		Payload:       e.Payload,
		Status:        string(e.Status),
		Priority:      e.Priority,
		RetryCount:    e.RetryCount,
		MaxRetries:    e.MaxRetries,
		NextRetryAt:   e.NextRetryAt,
		CorrelationID: e.CorrelationID.Ptr(),
		LastError:     e.LastError.Ptr(),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func (r *QueuedMessageRepository) toEntity(m *models.QueuedMessage) *entities.QueuedMessage {
	return &entities.QueuedMessage{
		ID:            m.ID,
		MessageID:     m.MessageID,
		MessageType:   m.MessageType,
		TenantID:      m.TenantID,
		ServiceName:   m.ServiceName,
		EndpointURL:   m.EndpointURL,
		HTTPMethod:    m.HTTPMethod,
		Payload:       m.Payload,
		Status:        entities.QueuedMessageStatus(m.Status),
		Priority:      m.Priority,
		RetryCount:    m.RetryCount,
		MaxRetries:    m.MaxRetries,
		NextRetryAt:   m.NextRetryAt,
		CorrelationID: null.StringFromPtr(m.CorrelationID),
		LastError:     null.StringFromPtr(m.LastError),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
