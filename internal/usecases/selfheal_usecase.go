package usecases

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/domain/repositories"
	"payment-hub.backend/pkg/logger"
	"payment-hub.backend/pkg/resilience"
)

// QueuedDispatcher replays a parked message against its recovered downstream
type QueuedDispatcher interface {
	DispatchQueued(ctx context.Context, message *entities.QueuedMessage) error
}

// SelfHealUsecase watches downstream health and drains queued messages when
// a service recovers. Health state is kept in memory; a probe failure marks
// the service unhealthy and the first healthy probe afterwards triggers
// recovery.
type SelfHealUsecase struct {
	configRepo repositories.ResiliencyConfigRepository
	queueRepo  repositories.QueuedMessageRepository
	registry   *resilience.Registry
	dispatcher QueuedDispatcher
	httpClient *http.Client

	mu        sync.Mutex
	unhealthy map[string]time.Time
}

// NewSelfHealUsecase creates a new self-healing usecase
func NewSelfHealUsecase(
	configRepo repositories.ResiliencyConfigRepository,
	queueRepo repositories.QueuedMessageRepository,
	registry *resilience.Registry,
	dispatcher QueuedDispatcher,
) *SelfHealUsecase {
	return &SelfHealUsecase{
		configRepo: configRepo,
		queueRepo:  queueRepo,
		registry:   registry,
		dispatcher: dispatcher,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		unhealthy:  make(map[string]time.Time),
	}
}

// PerformHealthChecks probes every service carrying a health check
// configuration and recovers those that transitioned back to healthy
func (u *SelfHealUsecase) PerformHealthChecks(ctx context.Context) ([]*entities.ServiceHealth, error) {
	configs, err := u.configRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var observations []*entities.ServiceHealth
	for _, cfg := range configs {
		if cfg.HealthCheck == nil || cfg.HealthCheck.URL == "" {
			continue
		}
		health := u.probe(ctx, cfg)
		observations = append(observations, health)

		stateKey := cfg.ServiceName + ":" + cfg.TenantID
		u.mu.Lock()
		downSince, wasUnhealthy := u.unhealthy[stateKey]
		if health.Healthy {
			delete(u.unhealthy, stateKey)
		} else if !wasUnhealthy {
			u.unhealthy[stateKey] = time.Now()
		}
		u.mu.Unlock()

		if health.Healthy && wasUnhealthy {
			report, err := u.RecoverService(ctx, cfg.ServiceName, cfg.TenantID)
			if err != nil {
				logger.Error(ctx, "service recovery failed",
					zap.String("service", cfg.ServiceName), zap.Error(err))
				continue
			}
			report.TimeToRecover = time.Since(downSince)
			logger.Info(ctx, "service recovered",
				zap.String("service", cfg.ServiceName),
				zap.Duration("downtime", report.TimeToRecover),
				zap.Int("messages_drained", report.MessagesDrained))
		}
	}
	return observations, nil
}

// probe issues one health check through the envelope so probe storms respect
// the same limits as real traffic
func (u *SelfHealUsecase) probe(ctx context.Context, cfg *entities.ResiliencyConfiguration) *entities.ServiceHealth {
	health := &entities.ServiceHealth{
		ServiceName: cfg.ServiceName,
		TenantID:    cfg.TenantID,
		CheckedAt:   time.Now(),
	}
	timeout := 5 * time.Second
	if cfg.HealthCheck.TimeoutMs > 0 {
		timeout = time.Duration(cfg.HealthCheck.TimeoutMs) * time.Millisecond
	}

	started := time.Now()
	key := resilience.Key{Service: cfg.ServiceName + "-health", Tenant: cfg.TenantID}
	err := u.registry.Execute(ctx, key, func(ctx context.Context) error {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, cfg.HealthCheck.URL, nil)
		if err != nil {
			return err
		}
		resp, err := u.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", domainerrors.ErrDownstreamUnavailable, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("%w: health endpoint returned %d", domainerrors.ErrDownstreamUnavailable, resp.StatusCode)
		}
		return nil
	})
	health.LatencyMs = time.Since(started).Milliseconds()
	health.Healthy = err == nil
	if err != nil {
		health.Detail = err.Error()
	}
	return health
}

// RecoverService resets the service's circuit breakers and drains its queued
// messages
func (u *SelfHealUsecase) RecoverService(ctx context.Context, serviceName, tenantID string) (*entities.RecoveryReport, error) {
	report := &entities.RecoveryReport{
		ServiceName: serviceName,
		TenantID:    tenantID,
	}

	u.ResetCircuitBreaker(serviceName, tenantID)
	report.CircuitReset = true
	report.ActionsTaken = append(report.ActionsTaken, "circuit breaker reset")

	drained, failed, err := u.ProcessQueuedMessagesForService(ctx, serviceName, tenantID)
	if err != nil {
		return nil, err
	}
	report.MessagesDrained = drained
	report.MessagesFailed = failed
	if drained > 0 || failed > 0 {
		report.ActionsTaken = append(report.ActionsTaken,
			fmt.Sprintf("queued messages drained: %d ok, %d failed", drained, failed))
	}
	report.CompletedAt = time.Now()
	return report, nil
}

// ProcessQueuedMessagesForService drains parked messages for a service,
// highest priority first. Messages are claimed atomically so concurrent
// monitors never double dispatch.
func (u *SelfHealUsecase) ProcessQueuedMessagesForService(ctx context.Context, serviceName, tenantID string) (drained, failed int, err error) {
	for {
		batch, err := u.queueRepo.NextPendingForService(ctx, serviceName, tenantID, 50)
		if err != nil {
			return drained, failed, err
		}
		if len(batch) == 0 {
			return drained, failed, nil
		}
		progressed := false
		for _, message := range batch {
			claimed, err := u.queueRepo.Claim(ctx, message.ID)
			if err != nil {
				return drained, failed, err
			}
			if !claimed {
				continue
			}
			progressed = true
			if err := u.dispatcher.DispatchQueued(ctx, message); err != nil {
				failed++
				retryable := !domainerrors.IsBusiness(err)
				if markErr := u.queueRepo.MarkFailed(ctx, message.ID, err.Error(), retryable); markErr != nil {
					logger.Error(ctx, "failed to mark queued message", zap.Error(markErr))
				}
				continue
			}
			drained++
			if markErr := u.queueRepo.MarkProcessed(ctx, message.ID); markErr != nil {
				logger.Error(ctx, "failed to mark queued message processed", zap.Error(markErr))
			}
		}
		if !progressed {
			// Every candidate was claimed elsewhere; stop spinning.
			return drained, failed, nil
		}
	}
}

// AutoRetryFailedOperations sweeps RETRY-state messages whose backoff window
// has passed, across all services
func (u *SelfHealUsecase) AutoRetryFailedOperations(ctx context.Context) (int, error) {
	status := entities.QueuedMessageStatusRetry
	messages, _, err := u.queueRepo.List(ctx, &entities.QueuedMessageFilter{Status: &status, Limit: 100})
	if err != nil {
		return 0, err
	}
	retried := 0
	now := time.Now()
	for _, message := range messages {
		if message.NextRetryAt != nil && message.NextRetryAt.After(now) {
			continue
		}
		claimed, err := u.queueRepo.Claim(ctx, message.ID)
		if err != nil || !claimed {
			continue
		}
		if err := u.dispatcher.DispatchQueued(ctx, message); err != nil {
			retryable := !domainerrors.IsBusiness(err)
			_ = u.queueRepo.MarkFailed(ctx, message.ID, err.Error(), retryable)
			continue
		}
		_ = u.queueRepo.MarkProcessed(ctx, message.ID)
		retried++
	}
	return retried, nil
}

// ResetCircuitBreaker forces every breaker of (service, tenant) back to CLOSED
func (u *SelfHealUsecase) ResetCircuitBreaker(serviceName, tenantID string) {
	u.registry.ResetService(serviceName, tenantID)
}

// CircuitStates exposes the current breaker states for the health surface
func (u *SelfHealUsecase) CircuitStates() map[string]string {
	return u.registry.Snapshot()
}

// ListQueuedMessages returns parked messages for the operational surface
func (u *SelfHealUsecase) ListQueuedMessages(ctx context.Context, filter *entities.QueuedMessageFilter) ([]*entities.QueuedMessage, int64, error) {
	return u.queueRepo.List(ctx, filter)
}
