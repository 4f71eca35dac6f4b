package jobs

import (
	"context"
	"log"
	"time"

	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/domain/repositories"
	"payment-hub.backend/internal/usecases"
)

// batchServiceName is the queue partition used for BATCH-mode payments
const batchServiceName = "batch-dispatch"

// BatchDispatcherJob drains BATCH-mode payments on a cadence, grouped by
// (tenant, paymentType) so each group dispatches together
type BatchDispatcherJob struct {
	queueRepo repositories.QueuedMessageRepository
	orch      *usecases.OrchestrationUsecase
	interval  time.Duration
	stop      chan struct{}
}

func NewBatchDispatcherJob(queueRepo repositories.QueuedMessageRepository, orch *usecases.OrchestrationUsecase, interval time.Duration) *BatchDispatcherJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &BatchDispatcherJob{
		queueRepo: queueRepo,
		orch:      orch,
		interval:  interval,
		stop:      make(chan struct{}),
	}
}

func (j *BatchDispatcherJob) Start(ctx context.Context) {
	log.Println("🕐 Starting batch dispatcher...")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Batch dispatcher stopped (context cancelled)")
			return
		case <-j.stop:
			log.Println("⏹️ Batch dispatcher stopped")
			return
		case <-ticker.C:
			j.dispatchBatches(ctx)
		}
	}
}

func (j *BatchDispatcherJob) Stop() {
	close(j.stop)
}

func (j *BatchDispatcherJob) dispatchBatches(ctx context.Context) {
	pending, err := j.queueRepo.NextPendingForService(ctx, batchServiceName, "", 200)
	if err != nil {
		log.Printf("❌ Error fetching batch queue: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	// Group by tenant + payment type so one batch dispatches together.
	groups := make(map[string][]*entities.QueuedMessage)
	for _, m := range pending {
		key := m.TenantID + "|" + m.MessageType
		groups[key] = append(groups[key], m)
	}
	log.Printf("🔄 Dispatching %d batched payments across %d groups...", len(pending), len(groups))

	dispatched, failed := 0, 0
	for _, group := range groups {
		for _, message := range group {
			claimed, err := j.queueRepo.Claim(ctx, message.ID)
			if err != nil {
				log.Printf("❌ Error claiming batched message: %v", err)
				return
			}
			if !claimed {
				continue
			}
			if err := j.orch.DispatchQueued(ctx, message); err != nil {
				failed++
				retryable := !domainerrors.IsBusiness(err)
				if markErr := j.queueRepo.MarkFailed(ctx, message.ID, err.Error(), retryable); markErr != nil {
					log.Printf("❌ Error marking batched message failed: %v", markErr)
				}
				continue
			}
			dispatched++
			if markErr := j.queueRepo.MarkProcessed(ctx, message.ID); markErr != nil {
				log.Printf("❌ Error marking batched message processed: %v", markErr)
			}
		}
	}
	log.Printf("✅ Batch dispatch complete: %d ok, %d failed", dispatched, failed)
}
