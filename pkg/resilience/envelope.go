// Package resilience implements the composable decorator stack wrapped
// around every outbound call: rate limiter, circuit breaker, retry with
// exponential backoff, time limiter and bulkhead. State is per key and
// mutated only here.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
)

// Operation is the wrapped target call. It must honor ctx cancellation.
type Operation func(ctx context.Context) error

type entry struct {
	key    Key
	policy Policy

	limiter *rate.Limiter
	sem     *semaphore.Weighted

	mu      sync.Mutex
	breaker *gobreaker.CircuitBreaker
}

// Registry owns one envelope per key and applies it via Execute.
type Registry struct {
	mu      sync.RWMutex
	entries map[Key]*entry
	metrics *Metrics
}

// NewRegistry creates an empty envelope registry.
func NewRegistry(metrics *Metrics) *Registry {
	return &Registry{
		entries: make(map[Key]*entry),
		metrics: metrics,
	}
}

// Configure installs (or replaces) the policy for a key. Replacing a policy
// rebuilds the breaker, limiter and bulkhead for that key.
func (r *Registry) Configure(key Key, p Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = r.newEntry(key, p)
}

func (r *Registry) newEntry(key Key, p Policy) *entry {
	e := &entry{key: key, policy: p}
	if p.RateLimit != nil && p.RateLimit.LimitForPeriod > 0 {
		period := time.Duration(p.RateLimit.RefillPeriodMs) * time.Millisecond
		if period <= 0 {
			period = time.Second
		}
		burst := p.RateLimit.BurstCapacity
		if burst <= 0 {
			burst = p.RateLimit.LimitForPeriod
		}
		every := period / time.Duration(p.RateLimit.LimitForPeriod)
		e.limiter = rate.NewLimiter(rate.Every(every), burst)
	}
	if p.Bulkhead != nil && p.Bulkhead.MaxConcurrentCalls > 0 {
		e.sem = semaphore.NewWeighted(int64(p.Bulkhead.MaxConcurrentCalls))
	}
	if p.CircuitBreaker != nil {
		e.breaker = r.buildBreaker(key, p.CircuitBreaker)
	}
	return e
}

func (r *Registry) buildBreaker(key Key, cb *entities.CircuitBreakerSettings) *gobreaker.CircuitBreaker {
	minCalls := uint32(cb.MinimumNumberOfCalls)
	if minCalls == 0 {
		minCalls = 1
	}
	threshold := cb.FailureRateThreshold
	if threshold <= 0 {
		threshold = 0.5
	}
	// gobreaker closes from half-open after MaxRequests consecutive
	// successes, so the success threshold doubles as the probe budget.
	probes := uint32(cb.SuccessThreshold)
	if probes == 0 {
		probes = uint32(cb.PermittedHalfOpenCalls)
	}
	if probes == 0 {
		probes = 1
	}
	wait := time.Duration(cb.WaitDurationSeconds) * time.Second
	if wait <= 0 {
		wait = 30 * time.Second
	}
	metrics := r.metrics
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        key.String(),
		MaxRequests: probes,
		Timeout:     wait,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minCalls {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= threshold
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			metrics.transition(key.Service, from.String(), to.String())
		},
		IsSuccessful: func(err error) bool {
			// Business and caller errors do not trip the breaker.
			return err == nil || !retryable(err)
		},
	})
}

func (r *Registry) entryFor(key Key) *entry {
	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()
	if ok {
		return e
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok = r.entries[key]; ok {
		return e
	}
	e = r.newEntry(key, DefaultPolicy())
	r.entries[key] = e
	return e
}

// Execute runs op through the envelope configured for key.
func (r *Registry) Execute(ctx context.Context, key Key, op Operation) error {
	e := r.entryFor(key)
	r.metrics.attempt(key.Service)
	start := time.Now()
	err := e.execute(ctx, r.metrics, op)
	r.metrics.observe(key.Service, time.Since(start).Seconds())
	if err != nil {
		r.metrics.failure(key.Service, errorKind(err))
	}
	return err
}

func (e *entry) execute(ctx context.Context, m *Metrics, op Operation) error {
	// Rate limiter, outermost
	if e.limiter != nil && !e.limiter.Allow() {
		m.rejection(e.key.Service, "rate_limited")
		return domainerrors.ErrRateLimited
	}

	breaker := e.currentBreaker()
	if breaker == nil {
		return e.retry(ctx, op)
	}

	_, err := breaker.Execute(func() (interface{}, error) {
		return nil, e.retry(ctx, op)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		m.rejection(e.key.Service, "circuit_open")
		return domainerrors.ErrCircuitOpen
	}
	return err
}

// retry applies the retry policy around the time limiter and bulkhead.
func (e *entry) retry(ctx context.Context, op Operation) error {
	attempts := 1
	if e.policy.Retry != nil && e.policy.Retry.MaxAttempts > 0 {
		attempts = e.policy.Retry.MaxAttempts
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.policy.retryWait()
	b.MaxElapsedTime = 0
	if e.policy.Retry != nil {
		if e.policy.Retry.ExponentialBackoffMultiplier > 1 {
			b.Multiplier = e.policy.Retry.ExponentialBackoffMultiplier
		}
		if !e.policy.Retry.Jitter {
			b.RandomizationFactor = 0
		}
	}

	var lastErr error
	call := func() error {
		err := e.callOnce(ctx, op)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(call, backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx))
	if err == nil {
		return nil
	}
	if lastErr == nil {
		// Context expired before the first attempt ran.
		return err
	}
	// Exhausted retries on a transient failure surfaces as downstream
	// unavailable; permanent errors pass through untouched.
	if retryable(lastErr) {
		return errors.Join(domainerrors.ErrDownstreamUnavailable, lastErr)
	}
	return lastErr
}

// callOnce applies the time limiter and bulkhead around the target.
func (e *entry) callOnce(ctx context.Context, op Operation) error {
	d := e.policy.timeout()
	if d <= 0 {
		return e.acquireAndRun(ctx, op)
	}

	if e.policy.Timeout == nil || e.policy.Timeout.CancelRunningFuture {
		tctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		err := e.acquireAndRun(tctx, op)
		if errors.Is(err, context.DeadlineExceeded) {
			return domainerrors.ErrTimedOut
		}
		return err
	}

	// Give up waiting without signalling the running call.
	done := make(chan error, 1)
	go func() { done <- e.acquireAndRun(ctx, op) }()
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return domainerrors.ErrTimedOut
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *entry) acquireAndRun(ctx context.Context, op Operation) error {
	if e.sem != nil {
		if !e.sem.TryAcquire(1) {
			return domainerrors.ErrBulkheadFull
		}
		defer e.sem.Release(1)
	}
	return op(ctx)
}

func (e *entry) currentBreaker() *gobreaker.CircuitBreaker {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.breaker
}

// Reset forces the breaker for key back to CLOSED by replacing the instance.
func (r *Registry) Reset(key Key) {
	e := r.entryFor(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.policy.CircuitBreaker != nil {
		e.breaker = r.buildBreaker(key, e.policy.CircuitBreaker)
	}
}

// ResetService resets every breaker whose key matches (service, tenant).
func (r *Registry) ResetService(service, tenant string) {
	r.mu.RLock()
	keys := make([]Key, 0, len(r.entries))
	for k := range r.entries {
		if k.Service == service && k.Tenant == tenant {
			keys = append(keys, k)
		}
	}
	r.mu.RUnlock()
	for _, k := range keys {
		r.Reset(k)
	}
}

// State returns the breaker state for key: closed, open or half-open.
func (r *Registry) State(key Key) string {
	e := r.entryFor(key)
	b := e.currentBreaker()
	if b == nil {
		return "closed"
	}
	return b.State().String()
}

// Snapshot reports the breaker state of every known key.
func (r *Registry) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.entries))
	for k, e := range r.entries {
		b := e.currentBreaker()
		if b == nil {
			out[k.String()] = "closed"
			continue
		}
		out[k.String()] = b.State().String()
	}
	return out
}

// retryable reports whether an error is worth another attempt. Business and
// caller errors are final; transient infrastructure failures are not.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if domainerrors.IsBusiness(err) {
		return false
	}
	if errors.Is(err, domainerrors.ErrInvalidInput) ||
		errors.Is(err, domainerrors.ErrNotFound) ||
		errors.Is(err, domainerrors.ErrNotSupported) ||
		errors.Is(err, domainerrors.ErrConflict) ||
		errors.Is(err, domainerrors.ErrForbidden) ||
		errors.Is(err, domainerrors.ErrUnauthorized) {
		return false
	}
	return true
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domainerrors.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domainerrors.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, domainerrors.ErrBulkheadFull):
		return "bulkhead_full"
	case errors.Is(err, domainerrors.ErrTimedOut):
		return "timed_out"
	case errors.Is(err, domainerrors.ErrDownstreamUnavailable):
		return "downstream_unavailable"
	case domainerrors.IsBusiness(err):
		return "business"
	default:
		return "other"
	}
}
