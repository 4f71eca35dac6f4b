package jobs

import (
	"context"
	"log"
	"time"

	"payment-hub.backend/internal/usecases"
)

// RepairTimeoutJob escalates repairs that outlived their timeout window to
// manual review at high priority
type RepairTimeoutJob struct {
	repairs  *usecases.RepairUsecase
	interval time.Duration
	stop     chan struct{}
}

func NewRepairTimeoutJob(repairs *usecases.RepairUsecase, interval time.Duration) *RepairTimeoutJob {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &RepairTimeoutJob{
		repairs:  repairs,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (j *RepairTimeoutJob) Start(ctx context.Context) {
	log.Println("🕐 Starting repair timeout job...")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Repair timeout job stopped (context cancelled)")
			return
		case <-j.stop:
			log.Println("⏹️ Repair timeout job stopped")
			return
		case <-ticker.C:
			j.processTimedOutRepairs(ctx)
		}
	}
}

func (j *RepairTimeoutJob) Stop() {
	close(j.stop)
}

func (j *RepairTimeoutJob) processTimedOutRepairs(ctx context.Context) {
	escalated, err := j.repairs.ProcessTimeouts(ctx, time.Now(), 100)
	if err != nil {
		log.Printf("❌ Error processing timed-out repairs: %v", err)
		return
	}
	if escalated > 0 {
		log.Printf("⚠️ Escalated %d timed-out repairs to manual review", escalated)
	}
}
