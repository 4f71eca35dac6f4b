package resilience

import (
	"fmt"
	"time"

	"payment-hub.backend/internal/domain/entities"
)

// Key identifies one envelope instance. Every key owns its own rate limiter
// bucket, circuit breaker state and bulkhead semaphore.
type Key struct {
	Service         string
	Tenant          string
	EndpointPattern string
}

func (k Key) String() string {
	if k.EndpointPattern == "" {
		return fmt.Sprintf("%s/%s", k.Service, k.Tenant)
	}
	return fmt.Sprintf("%s/%s/%s", k.Service, k.Tenant, k.EndpointPattern)
}

// Policy is the value-typed decorator configuration applied by Execute.
// Stack order, outermost first: rate limiter, circuit breaker, retry,
// time limiter, bulkhead, target. Nil sections are skipped.
type Policy struct {
	RateLimit      *entities.RateLimitSettings
	CircuitBreaker *entities.CircuitBreakerSettings
	Retry          *entities.RetrySettings
	Timeout        *entities.TimeoutSettings
	Bulkhead       *entities.BulkheadSettings
}

// DefaultPolicy returns the envelope applied when no resiliency
// configuration matches the key.
func DefaultPolicy() Policy {
	return Policy{
		CircuitBreaker: &entities.CircuitBreakerSettings{
			FailureRateThreshold:   0.5,
			MinimumNumberOfCalls:   10,
			WaitDurationSeconds:    30,
			PermittedHalfOpenCalls: 3,
			SuccessThreshold:       2,
		},
		Retry: &entities.RetrySettings{
			MaxAttempts:                  3,
			WaitDurationMs:               200,
			ExponentialBackoffMultiplier: 2.0,
			Jitter:                       true,
		},
		Timeout: &entities.TimeoutSettings{
			TimeoutDurationSeconds: 10,
			CancelRunningFuture:    true,
		},
		Bulkhead: &entities.BulkheadSettings{
			MaxConcurrentCalls: 25,
		},
	}
}

// PolicyFromConfiguration maps a persisted resiliency configuration onto a
// policy, falling back to defaults for absent sections.
func PolicyFromConfiguration(cfg *entities.ResiliencyConfiguration) Policy {
	p := DefaultPolicy()
	if cfg == nil {
		return p
	}
	if cfg.RateLimit != nil {
		p.RateLimit = cfg.RateLimit
	}
	if cfg.CircuitBreaker != nil {
		p.CircuitBreaker = cfg.CircuitBreaker
	}
	if cfg.Retry != nil {
		p.Retry = cfg.Retry
	}
	if cfg.Timeout != nil {
		p.Timeout = cfg.Timeout
	}
	if cfg.Bulkhead != nil {
		p.Bulkhead = cfg.Bulkhead
	}
	return p
}

func (p Policy) timeout() time.Duration {
	if p.Timeout == nil || p.Timeout.TimeoutDurationSeconds <= 0 {
		return 0
	}
	return time.Duration(p.Timeout.TimeoutDurationSeconds) * time.Second
}

func (p Policy) retryWait() time.Duration {
	if p.Retry == nil || p.Retry.WaitDurationMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(p.Retry.WaitDurationMs) * time.Millisecond
}
