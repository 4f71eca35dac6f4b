package entities

import (
	"time"

	"github.com/google/uuid"
)

// CircuitBreakerSettings tunes the per-key circuit breaker
type CircuitBreakerSettings struct {
	FailureRateThreshold  float64 `json:"failureRateThreshold"`
	MinimumNumberOfCalls  int     `json:"minimumNumberOfCalls"`
	WaitDurationSeconds   int     `json:"waitDurationSeconds"`
	PermittedHalfOpenCalls int    `json:"permittedCallsInHalfOpenState"`
	SuccessThreshold      int     `json:"successThreshold"`
}

// RetrySettings tunes the per-key retry policy
type RetrySettings struct {
	MaxAttempts                  int     `json:"maxAttempts"`
	WaitDurationMs               int     `json:"waitDurationMs"`
	ExponentialBackoffMultiplier float64 `json:"exponentialBackoffMultiplier"`
	Jitter                       bool    `json:"jitter"`
}

// BulkheadSettings bounds concurrent calls per key
type BulkheadSettings struct {
	MaxConcurrentCalls int `json:"maxConcurrentCalls"`
}

// TimeoutSettings bounds call duration per key
type TimeoutSettings struct {
	TimeoutDurationSeconds int  `json:"timeoutDurationSeconds"`
	CancelRunningFuture    bool `json:"cancelRunningFuture"`
}

// RateLimitSettings tunes the per-key token bucket
type RateLimitSettings struct {
	LimitForPeriod     int `json:"limitForPeriod"`
	RefillPeriodMs     int `json:"refillPeriodMs"`
	BurstCapacity      int `json:"burstCapacity"`
}

// HealthCheckSettings tells the self-healing monitor how to probe a service
type HealthCheckSettings struct {
	URL             string `json:"url"`
	IntervalSeconds int    `json:"intervalSeconds"`
	TimeoutMs       int    `json:"timeoutMs"`
}

// ResiliencyConfiguration is the persisted envelope policy per
// (serviceName, tenantId, endpointPattern)
type ResiliencyConfiguration struct {
	ID              uuid.UUID               `json:"id"`
	ServiceName     string                  `json:"serviceName"`
	TenantID        string                  `json:"tenantId"`
	EndpointPattern string                  `json:"endpointPattern,omitempty"`
	CircuitBreaker  *CircuitBreakerSettings `json:"circuitBreakerConfig,omitempty"`
	Retry           *RetrySettings          `json:"retryConfig,omitempty"`
	Bulkhead        *BulkheadSettings       `json:"bulkheadConfig,omitempty"`
	Timeout         *TimeoutSettings        `json:"timeoutConfig,omitempty"`
	RateLimit       *RateLimitSettings      `json:"rateLimitConfig,omitempty"`
	HealthCheck     *HealthCheckSettings    `json:"healthCheckConfig,omitempty"`
	Priority        int                     `json:"priority"`
	IsActive        bool                    `json:"isActive"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
	DeletedAt       *time.Time              `json:"-"`
}

// AutoHealingRule drives automated recovery for a service
type AutoHealingRule struct {
	ServiceName             string  `json:"serviceName"`
	MaxRecoveryAttempts     int     `json:"maxRecoveryAttempts"`
	RecoveryIntervalMinutes int     `json:"recoveryIntervalMinutes"`
	AutoRetryEnabled        bool    `json:"autoRetryEnabled"`
	MaxRetryAttempts        int     `json:"maxRetryAttempts"`
	RetryIntervalMinutes    int     `json:"retryIntervalMinutes"`
	AutoScalingEnabled      bool    `json:"autoScalingEnabled"`
	MinInstances            int     `json:"minInstances"`
	MaxInstances            int     `json:"maxInstances"`
	CPUThreshold            float64 `json:"cpuThreshold"`
	MemoryThreshold         float64 `json:"memoryThreshold"`
	ErrorRateThreshold      float64 `json:"errorRateThreshold"`
}

// ServiceHealth is a point-in-time health observation
type ServiceHealth struct {
	ServiceName string    `json:"serviceName"`
	TenantID    string    `json:"tenantId"`
	Healthy     bool      `json:"healthy"`
	LatencyMs   int64     `json:"latencyMs"`
	CheckedAt   time.Time `json:"checkedAt"`
	Detail      string    `json:"detail,omitempty"`
}

// RecoveryReport summarizes one recovery run for a service
type RecoveryReport struct {
	ServiceName      string        `json:"serviceName"`
	TenantID         string        `json:"tenantId"`
	CircuitReset     bool          `json:"circuitReset"`
	MessagesDrained  int           `json:"messagesDrained"`
	MessagesFailed   int           `json:"messagesFailed"`
	TimeToRecover    time.Duration `json:"timeToRecoverMs"`
	ActionsTaken     []string      `json:"actionsTaken"`
	CompletedAt      time.Time     `json:"completedAt"`
}
