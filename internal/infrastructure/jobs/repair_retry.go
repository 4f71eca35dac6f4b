package jobs

import (
	"context"
	"log"
	"time"

	"payment-hub.backend/internal/usecases"
)

// RepairRetryJob re-drives repairs whose retry window has opened
type RepairRetryJob struct {
	repairs  *usecases.RepairUsecase
	interval time.Duration
	stop     chan struct{}
}

func NewRepairRetryJob(repairs *usecases.RepairUsecase, interval time.Duration) *RepairRetryJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RepairRetryJob{
		repairs:  repairs,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (j *RepairRetryJob) Start(ctx context.Context) {
	log.Println("🕐 Starting repair retry job...")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Repair retry job stopped (context cancelled)")
			return
		case <-j.stop:
			log.Println("⏹️ Repair retry job stopped")
			return
		case <-ticker.C:
			j.processDueRepairs(ctx)
		}
	}
}

func (j *RepairRetryJob) Stop() {
	close(j.stop)
}

func (j *RepairRetryJob) processDueRepairs(ctx context.Context) {
	processed, err := j.repairs.ProcessDueRetries(ctx, time.Now(), 100)
	if err != nil {
		log.Printf("❌ Error processing due repairs: %v", err)
		return
	}
	if processed > 0 {
		log.Printf("✅ Retried %d repairs", processed)
	}
}
