package jobs

import (
	"context"
	"log"
	"time"

	"payment-hub.backend/internal/usecases"
)

// SelfHealMonitorJob runs the health check / recovery cycle on a short tick
type SelfHealMonitorJob struct {
	selfheal *usecases.SelfHealUsecase
	interval time.Duration
	stop     chan struct{}
}

func NewSelfHealMonitorJob(selfheal *usecases.SelfHealUsecase, interval time.Duration) *SelfHealMonitorJob {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SelfHealMonitorJob{
		selfheal: selfheal,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (j *SelfHealMonitorJob) Start(ctx context.Context) {
	log.Println("🕐 Starting self-healing monitor...")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Self-healing monitor stopped (context cancelled)")
			return
		case <-j.stop:
			log.Println("⏹️ Self-healing monitor stopped")
			return
		case <-ticker.C:
			j.runCycle(ctx)
		}
	}
}

func (j *SelfHealMonitorJob) Stop() {
	close(j.stop)
}

func (j *SelfHealMonitorJob) runCycle(ctx context.Context) {
	observations, err := j.selfheal.PerformHealthChecks(ctx)
	if err != nil {
		log.Printf("❌ Error performing health checks: %v", err)
		return
	}
	unhealthy := 0
	for _, o := range observations {
		if !o.Healthy {
			unhealthy++
		}
	}
	if unhealthy > 0 {
		log.Printf("⚠️ %d/%d monitored services unhealthy", unhealthy, len(observations))
	}

	retried, err := j.selfheal.AutoRetryFailedOperations(ctx)
	if err != nil {
		log.Printf("❌ Error auto-retrying failed operations: %v", err)
		return
	}
	if retried > 0 {
		log.Printf("✅ Auto-retried %d queued operations", retried)
	}
}
