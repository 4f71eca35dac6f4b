package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"payment-hub.backend/internal/domain/entities"
	domainrepos "payment-hub.backend/internal/domain/repositories"
	"payment-hub.backend/pkg/redis"
)

const (
	clearingCachePrefix = "routing:clearing:"
	ruleCachePrefix     = "routing:rules:"
)

// CachedClearingSystemRepository wraps a ClearingSystemRepository with a
// redis read-through cache. Writes invalidate the whole routing prefix;
// cache errors fall through to the database.
type CachedClearingSystemRepository struct {
	inner domainrepos.ClearingSystemRepository
	ttl   time.Duration
}

// NewCachedClearingSystemRepository creates a caching decorator
func NewCachedClearingSystemRepository(inner domainrepos.ClearingSystemRepository, ttl time.Duration) *CachedClearingSystemRepository {
	return &CachedClearingSystemRepository{inner: inner, ttl: ttl}
}

func (r *CachedClearingSystemRepository) Create(ctx context.Context, cfg *entities.ClearingSystemConfig) error {
	if err := r.inner.Create(ctx, cfg); err != nil {
		return err
	}
	_ = redis.DelByPrefix(ctx, clearingCachePrefix)
	return nil
}

func (r *CachedClearingSystemRepository) GetByCode(ctx context.Context, code string) (*entities.ClearingSystemConfig, error) {
	key := clearingCachePrefix + code
	if raw, err := redis.Get(ctx, key); err == nil {
		var cfg entities.ClearingSystemConfig
		if err := json.Unmarshal([]byte(raw), &cfg); err == nil {
			return &cfg, nil
		}
	}
	cfg, err := r.inner.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(cfg); err == nil {
		_ = redis.Set(ctx, key, string(b), r.ttl)
	}
	return cfg, nil
}

func (r *CachedClearingSystemRepository) ListActive(ctx context.Context) ([]*entities.ClearingSystemConfig, error) {
	key := clearingCachePrefix + "_active"
	if raw, err := redis.Get(ctx, key); err == nil {
		var cfgs []*entities.ClearingSystemConfig
		if err := json.Unmarshal([]byte(raw), &cfgs); err == nil {
			return cfgs, nil
		}
	}
	cfgs, err := r.inner.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(cfgs); err == nil {
		_ = redis.Set(ctx, key, string(b), r.ttl)
	}
	return cfgs, nil
}

// CachedRoutingRuleRepository wraps a RoutingRuleRepository with a redis
// read-through cache keyed by tenant.
type CachedRoutingRuleRepository struct {
	inner domainrepos.RoutingRuleRepository
	ttl   time.Duration
}

// NewCachedRoutingRuleRepository creates a caching decorator
func NewCachedRoutingRuleRepository(inner domainrepos.RoutingRuleRepository, ttl time.Duration) *CachedRoutingRuleRepository {
	return &CachedRoutingRuleRepository{inner: inner, ttl: ttl}
}

func (r *CachedRoutingRuleRepository) Create(ctx context.Context, rule *entities.PaymentRoutingRule) error {
	if err := r.inner.Create(ctx, rule); err != nil {
		return err
	}
	_ = redis.DelByPrefix(ctx, ruleCachePrefix)
	return nil
}

func (r *CachedRoutingRuleRepository) GetForTenant(ctx context.Context, tenantID string) ([]*entities.PaymentRoutingRule, error) {
	return r.cachedList(ctx, fmt.Sprintf("%stenant:%s", ruleCachePrefix, tenantID), func() ([]*entities.PaymentRoutingRule, error) {
		return r.inner.GetForTenant(ctx, tenantID)
	})
}

func (r *CachedRoutingRuleRepository) GetGlobal(ctx context.Context) ([]*entities.PaymentRoutingRule, error) {
	return r.cachedList(ctx, ruleCachePrefix+"_global", func() ([]*entities.PaymentRoutingRule, error) {
		return r.inner.GetGlobal(ctx)
	})
}

func (r *CachedRoutingRuleRepository) cachedList(ctx context.Context, key string, load func() ([]*entities.PaymentRoutingRule, error)) ([]*entities.PaymentRoutingRule, error) {
	if raw, err := redis.Get(ctx, key); err == nil {
		var rules []*entities.PaymentRoutingRule
		if err := json.Unmarshal([]byte(raw), &rules); err == nil {
			return rules, nil
		}
	}
	rules, err := load()
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(rules); err == nil {
		_ = redis.Set(ctx, key, string(b), r.ttl)
	}
	return rules, nil
}
