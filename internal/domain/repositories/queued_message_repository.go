package repositories

import (
	"context"

	"github.com/google/uuid"
	"payment-hub.backend/internal/domain/entities"
)

// QueuedMessageRepository is the durable store for parked outbound messages
type QueuedMessageRepository interface {
	Enqueue(ctx context.Context, m *entities.QueuedMessage) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.QueuedMessage, error)
	List(ctx context.Context, filter *entities.QueuedMessageFilter) ([]*entities.QueuedMessage, int64, error)
	// NextPendingForService returns dispatchable messages (status PENDING or
	// RETRY with nextRetryAt due) ordered by priority desc, createdAt asc.
	NextPendingForService(ctx context.Context, serviceName, tenantID string, limit int) ([]*entities.QueuedMessage, error)
	// Claim flips a message to PROCESSING only if it is still claimable;
	// returns false when another worker won the race.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, retryable bool) error
}
