package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// QueuedMessageStatus is the lifecycle state of a queued outbound message
type QueuedMessageStatus string

const (
	QueuedMessageStatusPending    QueuedMessageStatus = "PENDING"
	QueuedMessageStatusProcessing QueuedMessageStatus = "PROCESSING"
	QueuedMessageStatusProcessed  QueuedMessageStatus = "PROCESSED"
	QueuedMessageStatusFailed     QueuedMessageStatus = "FAILED"
	QueuedMessageStatusRetry      QueuedMessageStatus = "RETRY"
	QueuedMessageStatusExpired    QueuedMessageStatus = "EXPIRED"
	QueuedMessageStatusCancelled  QueuedMessageStatus = "CANCELLED"
)

// QueuedMessage is an outbound call parked while its downstream is unhealthy.
// Claimed atomically by workers to prevent double dispatch.
type QueuedMessage struct {
	ID            uuid.UUID           `json:"id"`
	MessageID     string              `json:"messageId"`
	MessageType   string              `json:"messageType"`
	TenantID      string              `json:"tenantId"`
	ServiceName   string              `json:"serviceName"`
	EndpointURL   string              `json:"endpointUrl"`
	HTTPMethod    string              `json:"httpMethod"`
	Payload       string              `json:"payload"`
	Status        QueuedMessageStatus `json:"status"`
	Priority      int                 `json:"priority"`
	RetryCount    int                 `json:"retryCount"`
	MaxRetries    int                 `json:"maxRetries"`
	NextRetryAt   *time.Time          `json:"nextRetryAt,omitempty"`
	CorrelationID null.String         `json:"correlationId,omitempty"`
	LastError     null.String         `json:"lastError,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// QueuedMessageFilter narrows queued message listings
type QueuedMessageFilter struct {
	TenantID    string               `json:"tenantId,omitempty"`
	ServiceName string               `json:"serviceName,omitempty"`
	Status      *QueuedMessageStatus `json:"status,omitempty"`
	Page        int                  `json:"page,omitempty"`
	Limit       int                  `json:"limit,omitempty"`
}
