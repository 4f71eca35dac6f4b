package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"payment-hub.backend/internal/domain/entities"
)

// TransactionRepairRepository stores repair records. Update enforces an
// optimistic version check: the row is only written when the stored version
// matches r.Version, and the version is bumped on success.
type TransactionRepairRepository interface {
	Create(ctx context.Context, r *entities.TransactionRepair) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.TransactionRepair, error)
	GetByTransactionReference(ctx context.Context, tenantID, transactionReference string) (*entities.TransactionRepair, error)
	// Update performs a compare-and-swap on the version column; returns
	// domainerrors.ErrConflictingRepair when the stored version moved.
	Update(ctx context.Context, r *entities.TransactionRepair) error
	List(ctx context.Context, filter *entities.RepairFilter) ([]*entities.TransactionRepair, int64, error)
	// DueForRetry returns non-terminal repairs with nextRetryAt <= now.
	DueForRetry(ctx context.Context, now time.Time, limit int) ([]*entities.TransactionRepair, error)
	// TimedOut returns non-terminal repairs with timeoutAt <= now.
	TimedOut(ctx context.Context, now time.Time, limit int) ([]*entities.TransactionRepair, error)
	Statistics(ctx context.Context, tenantID string) (*entities.RepairStatistics, error)
}
